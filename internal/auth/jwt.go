// Package auth signs and verifies web session tokens and hashes passwords.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned by Verify for a well-formed token past its validity window.
	ErrExpired = errors.New("token expired")
)

// Claims identify a web account inside a signed token.
type Claims struct {
	AccountID int64  `json:"aid"`
	Login     string `json:"log"`
	Email     string `json:"ema"`
}

type tokenClaims struct {
	Claims
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a codec. now defaults to time.Now.
func NewCodec(secret string, ttl time.Duration, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: now}
}

// TTL is the validity window applied to issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Sign(claims Claims) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Claims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(claims.AccountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})
	return token.SignedString(c.secret)
}

// Verify checks signature and expiry. An expired token yields ErrExpired;
// any other failure is returned as an *InvalidError naming the cause.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, &InvalidError{Reason: failureName(err), Err: err}
	}
	if !token.Valid {
		return Claims{}, &InvalidError{Reason: "invalid token"}
	}
	return claims.Claims, nil
}

// InvalidError reports a token that failed verification for a reason other than expiry.
type InvalidError struct {
	Reason string
	Err    error
}

func (e *InvalidError) Error() string {
	return "invalid token: " + e.Reason
}

func (e *InvalidError) Unwrap() error {
	return e.Err
}

func failureName(err error) string {
	for _, known := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenRequiredClaimMissing,
		jwt.ErrTokenInvalidClaims,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
