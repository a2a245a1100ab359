package auth

import "github.com/miguelserrato/tapiceros-backend/pkg/db/models"

// RegisterRequest captures the payload for creating a new account.
type RegisterRequest struct {
	FirstName   string  `json:"firstName" validate:"required,min=1,max=80"`
	LastName    string  `json:"lastName" validate:"required,min=1,max=80"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8,max=128"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	CompanyName *string `json:"companyName,omitempty" validate:"omitempty,max=120"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=120"`
}

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair bundles the credentials issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	TokenPair
	User *models.User `json:"user"`
}
