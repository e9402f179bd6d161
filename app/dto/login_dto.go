// Package dto contains Data Transfer Objects for API request and response structures
package dto

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"staff@clearwatermedical.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Message string       `json:"message" example:"Login successful"`
	Tokens  TokenPairDTO `json:"tokens"`
	User    UserInfo     `json:"user"`
}

// TokenPairDTO carries the issued access/refresh token pair
type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"3600"`
}

// UserInfo represents user information returned in login and profile responses
type UserInfo struct {
	ID            uint    `json:"id" example:"123"`
	UUID          string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email         string  `json:"email" example:"staff@clearwatermedical.com"`
	FirstName     string  `json:"first_name" example:"Maria"`
	LastName      string  `json:"last_name" example:"Santos"`
	Role          string  `json:"role" example:"staff"`
	BrokerAgency  *string `json:"broker_agency,omitempty" example:"Regal Insurance Group"`
	BrokerLogoURL *string `json:"broker_logo_url,omitempty"`
	IsActive      *bool   `json:"is_active" example:"true"`
	CreatedAt     string  `json:"created_at" example:"2026-01-15T10:30:00Z"`
	LastLoginAt   *string `json:"last_login_at,omitempty"`
}

// RefreshTokenRequest represents the request to exchange a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents the request payload for logout
type LogoutRequest struct {
	UserID uint `json:"-"`
}

// LogoutResponse represents the logout response
type LogoutResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}
