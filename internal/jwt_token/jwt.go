// Package jwttoken issues and validates the HS256 bearer tokens that
// identify administrators on the admin API.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "casbinder/pkg/domain-errors"
)

const (
	defaultIssuer   = "casbinder"
	defaultAudience = "casbinder-admin"
)

// AdminClaims carries the administrator identity.
type AdminClaims struct {
	Username  string `json:"username"`
	Superuser bool   `json:"superuser"`
	jwt.RegisteredClaims
}

// Service signs and validates admin tokens with one shared secret.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey string) (*Service, error) {
	if len(signingKey) < 32 {
		return nil, errors.New("admin jwt secret must be at least 32 bytes")
	}
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     defaultIssuer,
		audience:   defaultAudience,
	}, nil
}

// GenerateAdminToken is used by binderctl to mint operator tokens.
func (s *Service) GenerateAdminToken(subject, username string, superuser bool, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Username:  username,
		Superuser: superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken checks signature, expiry, issuer and audience.
func (s *Service) ValidateToken(tokenString string) (*AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AdminClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
