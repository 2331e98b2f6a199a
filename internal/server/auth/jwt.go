// Package auth holds the credential primitives of the identity service:
// signed session tokens and password digests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload: the user's id and username plus the
// standard issued-at and expiry times.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"_id"`
	Username string `json:"username"`
}

// Identity returns the identity carried by the claims.
func (c *Claims) Identity() models.AuthContext {
	return models.AuthContext{ID: c.UserID, Username: c.Username}
}

// TokenService issues and verifies HS256 tokens. Verification is stateless.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenService(secret string, validity time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if validity <= 0 {
		return nil, fmt.Errorf("token validity must be positive, got %s", validity)
	}
	return &TokenService{secret: []byte(secret), validity: validity, now: time.Now}, nil
}

// Issue signs a token for id.
func (s *TokenService) Issue(id models.AuthContext) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		UserID:   id.ID,
		Username: id.Username,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature and expiry. It fails with common.ErrTokenExpired
// once the token is past its expiry and wraps common.ErrInvalidToken for
// every other failure.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Decode reads the claims without checking signature or expiry. It is for
// diagnostics only and returns nil when the token cannot be parsed.
func (s *TokenService) Decode(tokenString string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}
