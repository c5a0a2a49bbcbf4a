package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/chempartner/paperdesk/config"
	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/golang-jwt/jwt/v5"
)

const signingAlgorithm = "HS256"

// TokenVerifier resolves a bearer token to the subject it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenService issues and verifies HS256 bearer tokens carrying {sub, exp}.
// Tokens are not stored; validity is bounded only by signature and expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret: []byte(cfg.Auth.Secret),
		ttl:    cfg.Auth.TokenTTL,
		now:    time.Now,
	}
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue returns a signed token for subject and its expiry time.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject must not be empty")
	}
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify fails with apperror.ErrExpired once now is strictly after the token's
// exp and with apperror.ErrInvalidToken for anything malformed or wrongly
// signed. A token is still valid at the exact second of its exp.
func (s *TokenService) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{signingAlgorithm}),
		// jwt treats now == exp as expired; expiry is checked below instead.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInvalidToken, apperror.ErrInvalidToken.Message, err)
	}
	if claims.ExpiresAt == nil {
		return "", apperror.New(apperror.KindInvalidToken, "Token has no expiry")
	}
	if s.now().After(claims.ExpiresAt.Time) {
		return "", apperror.Wrap(apperror.KindExpired, apperror.ErrExpired.Message, jwt.ErrTokenExpired)
	}
	if claims.Subject == "" {
		return "", apperror.New(apperror.KindInvalidToken, "Token has no subject")
	}
	return claims.Subject, nil
}
