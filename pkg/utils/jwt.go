package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when a bearer token cannot be read as a JWT.
// Opaque tokens are still usable; they simply carry no expiry.
var ErrNotJWT = errors.New("token is not a JWT")

// TokenClaims are the claims the desk reads from the pharmacy API token
type TokenClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// InspectToken reads the claims of tokenString without verifying the
// signature. The desk does not hold the signing key; the pharmacy API
// remains the authority on validity.
func InspectToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrNotJWT
	}
	return claims, nil
}

// TokenExpiry returns the exp claim. ok is false when the token has none.
func TokenExpiry(tokenString string) (exp time.Time, ok bool, err error) {
	claims, err := InspectToken(tokenString)
	if err != nil {
		return time.Time{}, false, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// IsExpired reports whether the token has an exp claim that is before now
func IsExpired(tokenString string, now time.Time) bool {
	exp, ok, err := TokenExpiry(tokenString)
	if err != nil || !ok {
		return false
	}
	return !now.Before(exp)
}
