package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/edudyne/scheduler/internal/models"
	appErrors "github.com/edudyne/scheduler/pkg/errors"
)

// AuthConfig configures the single admin principal's token issuance.
type AuthConfig struct {
	Secret        string
	Expiry        time.Duration
	Issuer        string
	AdminPassword string
}

// AuthService issues and validates access tokens for the one admin
// principal that may save runs or launch a battle. There is no user
// store: the admin password is a shared secret from configuration.
type AuthService struct {
	config AuthConfig
	logger *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(config AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiry <= 0 {
		config.Expiry = time.Hour
	}
	return &AuthService{config: config, logger: logger}
}

// Login exchanges the configured admin password for an access token.
func (s *AuthService) Login(req models.AdminLoginRequest) (*models.AdminLoginResponse, error) {
	if s.config.AdminPassword == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "admin password is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.config.AdminPassword)) != 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid admin password")
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.AdminClaims{
		Subject: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}

	return &models.AdminLoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.Expiry.Seconds()),
	}, nil
}

// ValidateToken parses and validates an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AdminClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
