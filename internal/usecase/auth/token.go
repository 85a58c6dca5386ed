package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the marketplace auth provider puts into access tokens.
type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenUseCase checks HS256 bearer tokens issued with the shared secret.
type TokenUseCase struct {
	jwtSecret []byte
}

func NewTokenUseCase(jwtSecret string) *TokenUseCase {
	return &TokenUseCase{jwtSecret: []byte(jwtSecret)}
}

// VerifyToken verifies JWT token and returns user ID and role
func (uc *TokenUseCase) VerifyToken(_ context.Context, tokenString string) (int, domain.Role, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return uc.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, "", domain.ErrTokenExpired
		}
		return 0, "", domain.ErrInvalidToken
	}

	if claims.UserID <= 0 {
		return 0, "", domain.ErrInvalidToken
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return 0, "", domain.ErrInvalidToken
	}

	return claims.UserID, role, nil
}

// GenerateToken signs a token the way the auth provider does. Used by local
// tooling and tests.
func (uc *TokenUseCase) GenerateToken(userID int, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString(uc.jwtSecret)
}
