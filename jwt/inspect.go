package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by [Inspect] for a token that is not a compact JWS.
var ErrNotJWT = errors.New("token is not a jwt")

// Claims is the subset of registered claims read without verifying the signature.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	HasExpiry bool
}

// Inspect decodes the registered claims of token without verifying its signature.
//
// The result is advisory. It can tell that a stored token has certainly expired; it
// proves nothing about a token that has not.
func Inspect(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrNotJWT
	}

	var rc jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &rc); err != nil {
		return Claims{}, errors.Join(ErrNotJWT, err)
	}

	out := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time
		out.HasExpiry = true
	}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	return out, nil
}

// Expired reports whether token is a JWT whose exp claim is earlier than now minus skew.
// Opaque tokens and tokens without exp are never reported as expired.
func Expired(token string, now time.Time, skew time.Duration) bool {
	claims, err := Inspect(token)
	if err != nil || !claims.HasExpiry {
		return false
	}
	return claims.ExpiresAt.Add(skew).Before(now)
}
