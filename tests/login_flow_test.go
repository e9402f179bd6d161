package tests

import (
	"testing"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/app/services"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/models"
	testingutil "github.com/clearwater-medical/outreach-portal/testing"
	"github.com/clearwater-medical/outreach-portal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginFlow(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		tokens, err := services.NewTokenService(time.Hour, 24*time.Hour,
			"outreach-portal", "outreach-portal-api", "test-secret-key-with-enough-length-123456")
		require.NoError(t, err)
		sessions := services.NewSessionTracker(services.NewRealClock(), 30*time.Minute)
		flow := businessflow.NewLoginFlow(env.ProfileRepo, env.AuditRepo, tokens, sessions)

		t.Run("SuccessfulLogin", func(t *testing.T) {
			staff, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)

			resp, err := flow.Login(testCtx(), &dto.LoginRequest{
				Email:    staff.Email,
				Password: testingutil.TestPassword,
			}, testMetadata())
			require.NoError(t, err)

			assert.NotEmpty(t, resp.Tokens.AccessToken)
			assert.NotEmpty(t, resp.Tokens.RefreshToken)
			assert.Equal(t, "Bearer", resp.Tokens.TokenType)
			assert.Equal(t, staff.Email, resp.User.Email)
			assert.Equal(t, "staff", resp.User.Role)
			assert.NotNil(t, resp.User.LastLoginAt)

			claims, err := tokens.ValidateToken(resp.Tokens.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, staff.ID, claims.UserID)
			assert.Equal(t, models.RoleStaff, claims.Role)

			assert.False(t, sessions.IsExpired(staff.ID))

			// Last login is persisted, not just echoed.
			stored, err := env.ProfileRepo.ByID(testCtx(), staff.ID)
			require.NoError(t, err)
			assert.NotNil(t, stored.LastLoginAt)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			staff, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)

			_, err = flow.Login(testCtx(), &dto.LoginRequest{
				Email:    staff.Email,
				Password: "WrongPass999!",
			}, testMetadata())
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("UnknownEmailIndistinguishableFromWrongPassword", func(t *testing.T) {
			_, err := flow.Login(testCtx(), &dto.LoginRequest{
				Email:    "nobody@example.com",
				Password: testingutil.TestPassword,
			}, testMetadata())
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("InactiveAccount", func(t *testing.T) {
			staff, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)
			staff.IsActive = utils.ToPtr(false)
			require.NoError(t, env.ProfileRepo.Save(testCtx(), staff))

			_, err = flow.Login(testCtx(), &dto.LoginRequest{
				Email:    staff.Email,
				Password: testingutil.TestPassword,
			}, testMetadata())
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		t.Run("FailedLoginsAreAudited", func(t *testing.T) {
			rows, err := env.AuditRepo.ListByAction(testCtx(), models.AuditActionLoginFailed, 10, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, rows)
		})

		t.Run("RefreshTokens", func(t *testing.T) {
			staff, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)

			login, err := flow.Login(testCtx(), &dto.LoginRequest{
				Email:    staff.Email,
				Password: testingutil.TestPassword,
			}, testMetadata())
			require.NoError(t, err)

			refreshed, err := flow.RefreshTokens(testCtx(), &dto.RefreshTokenRequest{
				RefreshToken: login.Tokens.RefreshToken,
			}, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, refreshed.Tokens.AccessToken)
			assert.Equal(t, staff.Email, refreshed.User.Email)

			// An access token is not accepted as a refresh token.
			_, err = flow.RefreshTokens(testCtx(), &dto.RefreshTokenRequest{
				RefreshToken: login.Tokens.AccessToken,
			}, testMetadata())
			assert.Error(t, err)
		})

		t.Run("LogoutEndsTheSession", func(t *testing.T) {
			staff, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)

			_, err = flow.Login(testCtx(), &dto.LoginRequest{
				Email:    staff.Email,
				Password: testingutil.TestPassword,
			}, testMetadata())
			require.NoError(t, err)
			require.False(t, sessions.IsExpired(staff.ID))

			_, err = flow.Logout(testCtx(), &dto.LogoutRequest{UserID: staff.ID}, testMetadata())
			require.NoError(t, err)
			assert.True(t, sessions.IsExpired(staff.ID))
		})
	})
}
