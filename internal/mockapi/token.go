package mockapi

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenTTL is the lifetime of issued access tokens.
const AccessTokenTTL = 30 * time.Minute

const tokenTypeAccess = "access"

// sessionClaims are the claims carried by mock access tokens: the account
// email as subject plus a token type, as the real API issues them.
type sessionClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"tokenType"`
}

// tokenIssuer signs and verifies HS256 access tokens with a per-process key.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(ttl time.Duration) *tokenIssuer {
	secret := make([]byte, 32)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(secret)
	return &tokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for email and its unique id.
func (t *tokenIssuer) Issue(email string) (token, id string, err error) {
	now := t.now()
	id = uuid.NewString()

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		TokenType: tokenTypeAccess,
	}).SignedString(t.secret)
	if err != nil {
		return "", "", fmt.Errorf("signing token: %w", err)
	}
	return token, id, nil
}

// Verify parses token and checks its signature, expiry and type.
func (t *tokenIssuer) Verify(token string) (sessionClaims, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return sessionClaims{}, err
	}
	if !parsed.Valid || claims.TokenType != tokenTypeAccess || claims.ID == "" {
		return sessionClaims{}, errors.New("invalid access token")
	}
	return claims, nil
}
