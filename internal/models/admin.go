package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims is the access token payload for the single admin
// principal allowed to save runs or launch a battle. There is no user
// table behind it: the claims just assert "this bearer knows the
// configured admin secret".
type AdminClaims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// AdminLoginRequest exchanges the configured admin password for an
// access token.
type AdminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse carries the issued access token.
type AdminLoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}
