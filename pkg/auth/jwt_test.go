package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovahub/renewal-api/internal/model"
)

func testService() JWTService {
	return NewJWTService(JWTConfig{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		ExpiryHours:   1,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := testService()
	user := &model.User{
		Base:     model.Base{ID: uuid.New()},
		Email:    "ana@example.com",
		RoleName: model.RoleAdministrator,
	}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, model.RoleAdministrator, claims.Role)
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	svc := testService()
	user := &model.User{Base: model.Base{ID: uuid.New()}, Email: "ana@example.com"}

	refresh, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := testService()
	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
