// Package token signs and verifies invitation links.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "skillcoach"

// Errors returned by Verify.
var (
	ErrMissingSecret = errors.New("invitation secret is not configured")
	ErrInvalid       = errors.New("invitation link is invalid")
	ErrExpired       = errors.New("invitation link has expired")
)

// Claims carried by an invitation token.
type Claims struct {
	InvitationID string `json:"inv"`
	Email        string `json:"email"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 invitation tokens.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer. A nil now uses time.Now.
func NewSigner(secret []byte, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: secret, now: now}
}

// Issue signs a token for the invitation that expires at expiresAt.
// PRE: invitationID and email are non-empty
func (s *Signer) Issue(invitationID, email string, expiresAt time.Time) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	claims := Claims{
		InvitationID: invitationID,
		Email:        email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   invitationID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature, algorithm, issuer and expiry of a token.
// POST: on success the claims name a non-empty invitation ID
func (s *Signer) Verify(raw string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrMissingSecret
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrExpired
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	case claims.InvitationID == "":
		return Claims{}, ErrInvalid
	}
	return claims, nil
}
