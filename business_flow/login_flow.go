package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/app/services"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
	"golang.org/x/crypto/bcrypt"
)

// LoginFlow verifies credentials and issues tokens carrying the user's role
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	RefreshTokens(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest, metadata *ClientMetadata) (*dto.LogoutResponse, error)
}

// LoginFlowImpl implements LoginFlow
type LoginFlowImpl struct {
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditLogRepository
	tokens      services.TokenService
	sessions    *services.SessionTracker
}

func NewLoginFlow(
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditLogRepository,
	tokens services.TokenService,
	sessions *services.SessionTracker,
) LoginFlow {
	return &LoginFlowImpl{
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		tokens:      tokens,
		sessions:    sessions,
	}
}

// Login verifies the password hash and returns a token pair. Failed attempts
// are audited with the reason; the caller only ever sees IncorrectPassword
// for bad credentials, whether the account exists or not.
func (f *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := f.profileRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to look up account", err)
	}
	if user == nil {
		f.auditLogin(ctx, nil, email, false, "unknown email", metadata)
		return nil, ErrIncorrectPassword
	}
	if !utils.IsTrue(user.IsActive) {
		f.auditLogin(ctx, &user.ID, email, false, "account inactive", metadata)
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		f.auditLogin(ctx, &user.ID, email, false, "wrong password", metadata)
		return nil, ErrIncorrectPassword
	}

	accessToken, refreshToken, err := f.tokens.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue tokens", err)
	}

	now := utils.UTCNow()
	if err := f.profileRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to record login", err)
	}
	user.LastLoginAt = &now

	if f.sessions != nil {
		f.sessions.Touch(user.ID)
	}
	f.auditLogin(ctx, &user.ID, email, true, "", metadata)

	return &dto.LoginResponse{
		Message: "Login successful",
		Tokens: dto.TokenPairDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(f.tokens.AccessTokenTTL().Seconds()),
		},
		User: ToUserInfo(user),
	}, nil
}

// RefreshTokens exchanges a refresh token for a new pair
func (f *LoginFlowImpl) RefreshTokens(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	claims, err := f.tokens.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired", err)
	}

	user, err := getProfile(ctx, f.profileRepo, claims.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := f.tokens.RefreshToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Failed to refresh tokens", err)
	}

	if f.sessions != nil {
		f.sessions.Touch(user.ID)
	}

	return &dto.LoginResponse{
		Message: "Tokens refreshed",
		Tokens: dto.TokenPairDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(f.tokens.AccessTokenTTL().Seconds()),
		},
		User: ToUserInfo(user),
	}, nil
}

// Logout ends the tracked session and audits the event
func (f *LoginFlowImpl) Logout(ctx context.Context, req *dto.LogoutRequest, metadata *ClientMetadata) (*dto.LogoutResponse, error) {
	user, err := getProfile(ctx, f.profileRepo, req.UserID)
	if err != nil {
		return nil, err
	}

	if f.sessions != nil {
		f.sessions.End(user.ID)
	}
	_ = saveAudit(ctx, f.auditRepo, &user.ID, models.AuditActionLogout,
		fmt.Sprintf("User %s logged out", user.Email), true, nil, metadata)

	return &dto.LogoutResponse{
		Message: "Logged out successfully",
	}, nil
}

func (f *LoginFlowImpl) auditLogin(ctx context.Context, userID *uint, email string, success bool, reason string, metadata *ClientMetadata) {
	action := models.AuditActionLoginSuccess
	description := fmt.Sprintf("Login for %s", email)
	var errMsg *string
	if !success {
		action = models.AuditActionLoginFailed
		errMsg = &reason
	}
	_ = saveAudit(ctx, f.auditRepo, userID, action, description, success, errMsg, metadata)
}
