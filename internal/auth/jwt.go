// Package auth verifies bearer tokens and carries the resulting identity
// through request contexts.
package auth

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hoplink/hoplink/internal/apperr"
)

// Claims is the verified identity extracted from a token.
type Claims struct {
	UserID int
	Email  string
	Role   string
}

// Verifier validates HMAC-signed tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token string. Only HMAC signing methods are
// accepted; asymmetric or unsigned tokens fail before signature checking.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrInvalidSigningKey.
				WithContext("alg", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidSigningKey) {
			return nil, apperr.ErrInvalidSigningKey
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrInvalidToken.Wrap(err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperr.ErrInvalidToken
	}

	claims := &Claims{
		UserID: coerceUserID(mapClaims["sub"]),
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}

	return claims, nil
}

// coerceUserID normalizes the sub claim, which arrives as a JSON number or a
// numeric string depending on the issuer. Anything else yields zero.
func coerceUserID(sub any) int {
	switch v := sub.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}
