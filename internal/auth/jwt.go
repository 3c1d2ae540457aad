// Package auth turns bearer tokens into the identity a connection carries.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSecret     = errors.New("jwt secret not configured")
	ErrInvalidToken = errors.New("invalid token")
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier signs and checks HS256 tokens issued for this service.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Enabled reports whether tokens can be checked at all.
func (v *Verifier) Enabled() bool { return v != nil && len(v.secret) > 0 }

// Issue mints a token for a user. Any identity service holding the same
// secret can mint compatible tokens; this one serves tooling and tests.
func (v *Verifier) Issue(userID domain.UserID, username string, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify parses tokenString and returns the verified identity.
func (v *Verifier) Verify(tokenString string) (*domain.User, error) {
	if !v.Enabled() {
		return nil, ErrNoSecret
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	user, err := domain.NewUser(domain.UserID(claims.Subject), claims.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	user.Verified = true
	return user, nil
}
