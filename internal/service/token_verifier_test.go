package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drivingschool-api/internal/models"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

func signTestToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func testClaims(role models.UserRole, issuer string, expires time.Time) *models.JWTClaims {
	return &models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestTokenVerifierAcceptsValidToken(t *testing.T) {
	verifier := NewTokenVerifier("secret", "school")
	token := signTestToken(t, "secret", testClaims("staff", "school", time.Now().Add(time.Hour)))

	claims, err := verifier.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestTokenVerifierRejects(t *testing.T) {
	verifier := NewTokenVerifier("secret", "school")
	cases := map[string]string{
		"wrong secret":  signTestToken(t, "other", testClaims(models.RoleAdmin, "school", time.Now().Add(time.Hour))),
		"expired":       signTestToken(t, "secret", testClaims(models.RoleAdmin, "school", time.Now().Add(-time.Minute))),
		"wrong issuer":  signTestToken(t, "secret", testClaims(models.RoleAdmin, "elsewhere", time.Now().Add(time.Hour))),
		"garbage token": "not.a.token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.ValidateToken(token)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
