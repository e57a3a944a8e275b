package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudyne/scheduler/internal/models"
	appErrors "github.com/edudyne/scheduler/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(AuthConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		Issuer:        "edudyne-scheduler-test",
		AdminPassword: "correct-horse",
	}, nil)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc := newTestAuthService()

	resp, err := svc.Login(models.AdminLoginRequest{Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(time.Hour.Seconds()), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.Login(models.AdminLoginRequest{Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginNotConfigured(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "s", Expiry: time.Hour}, nil)

	_, err := svc.Login(models.AdminLoginRequest{Password: "anything"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	svc := newTestAuthService()
	resp, err := svc.Login(models.AdminLoginRequest{Password: "correct-horse"})
	require.NoError(t, err)

	other := NewAuthService(AuthConfig{Secret: "different-secret", Expiry: time.Hour}, nil)
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService()
	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
}
