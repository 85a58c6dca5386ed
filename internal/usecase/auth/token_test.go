package auth

import (
	"context"
	"testing"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyToken_RoundTrip(t *testing.T) {
	uc := NewTokenUseCase("secret")
	token, err := uc.GenerateToken(7, domain.RoleLandlord, time.Hour)
	require.NoError(t, err)

	userID, role, err := uc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)
	assert.Equal(t, domain.RoleLandlord, role)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, err := NewTokenUseCase("other").GenerateToken(7, domain.RoleTenant, time.Hour)
	require.NoError(t, err)

	_, _, err = NewTokenUseCase("secret").VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerifyToken_Expired(t *testing.T) {
	uc := NewTokenUseCase("secret")
	token, err := uc.GenerateToken(7, domain.RoleTenant, -time.Minute)
	require.NoError(t, err)

	_, _, err = uc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestVerifyToken_RejectsUnknownRoleAndAlgorithm(t *testing.T) {
	uc := NewTokenUseCase("secret")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           7,
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = uc.VerifyToken(context.Background(), badRole)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID:           7,
		Role:             "tenant",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = uc.VerifyToken(context.Background(), hs512)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, _, err = uc.VerifyToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
