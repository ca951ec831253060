package model

import (
	"github.com/google/uuid"
)

type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
