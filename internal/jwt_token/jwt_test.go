package jwttoken

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "casbinder/pkg/domain-errors"
)

const testSecret = "test-signing-key-that-is-long-enough"

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(testSecret)
	require.NoError(t, err)
	return s
}

func TestNewServiceRejectsShortSecret(t *testing.T) {
	_, err := NewService("short")
	assert.Error(t, err)
}

func TestGenerateAndValidate(t *testing.T) {
	s := newService(t)
	token, err := s.GenerateAdminToken("admin-1", "root", true, time.Hour)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, "root", claims.Username)
	assert.True(t, claims.Superuser)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateToken(t *testing.T) {
	s := newService(t)

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ValidateToken("invalid-token-string")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := s.GenerateAdminToken("admin-1", "root", true, -time.Minute)
		require.NoError(t, err)
		_, err = s.ValidateToken(token)
		require.Error(t, err)
		assert.Equal(t, "token has expired", err.Error())
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewService(strings.Repeat("x", 40))
		require.NoError(t, err)
		token, err := other.GenerateAdminToken("admin-1", "root", true, time.Hour)
		require.NoError(t, err)
		_, err = s.ValidateToken(token)
		assert.Equal(t, "invalid token", err.Error())
	})

	t.Run("wrong audience", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "admin-1",
				Issuer:    defaultIssuer,
				Audience:  []string{"someone-else"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = s.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := s.GenerateAdminToken("", "root", true, time.Hour)
		require.NoError(t, err)
		_, err = s.ValidateToken(token)
		assert.Equal(t, "invalid token claims", err.Error())
	})
}
