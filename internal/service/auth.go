package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"postboard/internal/model"
)

// TokenClaims is the signed token payload: {"user":{"id":...},"iat":...,"exp":...}.
type TokenClaims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenUser identifies the token's owner.
type TokenUser struct {
	ID string `json:"id"`
}

// AuthService issues and verifies HS256 access tokens. Tokens are not revocable;
// a token stays valid for its full TTL.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for userID that expires after the configured TTL.
func (s *AuthService) Issue(userID string) (string, error) {
	now := s.now()
	claims := TokenClaims{
		User: TokenUser{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of tokenString and returns the embedded user ID.
// Errors are ErrTokenMissing, ErrTokenExpired or ErrTokenInvalid.
func (s *AuthService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", model.ErrTokenMissing
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", model.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if claims.User.ID == "" {
		return "", model.ErrTokenInvalid
	}
	return claims.User.ID, nil
}
