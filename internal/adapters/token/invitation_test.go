package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSigner_IssueAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewSigner([]byte("test-secret-which-is-long-enough"), clock)

	raw, err := s.Issue("inv-1", "coach@club.test", now.Add(7*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	claims, err := s.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.InvitationID != "inv-1" || claims.Email != "coach@club.test" {
		t.Errorf("claims = %+v", claims)
	}

	tests := []struct {
		name    string
		signer  *Signer
		token   string
		wantErr error
	}{
		{
			name:    "expired",
			signer:  NewSigner([]byte("test-secret-which-is-long-enough"), func() time.Time { return now.Add(8 * 24 * time.Hour) }),
			token:   raw,
			wantErr: ErrExpired,
		},
		{
			name:    "wrong secret",
			signer:  NewSigner([]byte("another-secret"), clock),
			token:   raw,
			wantErr: ErrInvalid,
		},
		{
			name:    "tampered",
			signer:  s,
			token:   raw[:strings.LastIndex(raw, ".")] + ".AAAA",
			wantErr: ErrInvalid,
		},
		{
			name:    "missing secret",
			signer:  NewSigner(nil, clock),
			token:   raw,
			wantErr: ErrMissingSecret,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.signer.Verify(tt.token); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSigner_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	s := NewSigner([]byte("secret"), nil)
	claims := Claims{
		InvitationID: "inv-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Verify(raw); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}
