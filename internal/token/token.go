// Package token issues and verifies the signed URL-safe tokens used in
// account emails: verification links, password resets, invitations, and
// email-change confirmations.
//
// Tokens are compact JWTs signed with the admin's shared secret. Every token
// carries its purpose and creation time; age is checked at parse time against
// the caller's limit, so a link's lifetime is decided where it is consumed.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/notifyops/notify-admin/internal/platform/errors"
)

// Purpose scopes a token to the flow that may consume it.
type Purpose string

const (
	PurposeEmailVerification Purpose = "verify-email"
	PurposePasswordReset     Purpose = "reset-password"
	PurposeServiceInvite     Purpose = "service-invite"
	PurposeOrgInvite         Purpose = "org-invite"
	PurposeEmailChange       Purpose = "change-email"
)

var (
	// ErrInvalid indicates a tampered, malformed, or wrong-purpose token.
	ErrInvalid = apperrors.New(apperrors.CodeTokenInvalid, "token is invalid")
	// ErrExpired indicates a structurally valid token past its allowed age.
	ErrExpired = apperrors.New(apperrors.CodeTokenExpired, "token has expired")
)

// Signer signs and verifies admin tokens with a shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer. The secret must be non-empty.
func NewSigner(secret string, now func() time.Time) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), now: now}, nil
}

// claims is the JWT payload carried by admin tokens.
type claims struct {
	jwt.RegisteredClaims
	Purpose string            `json:"purpose"`
	Data    map[string]string `json:"data,omitempty"`
}

// Sign creates a token for the purpose carrying the supplied data.
func (s *Signer) Sign(purpose Purpose, data map[string]string) (string, error) {
	if s == nil {
		return "", errors.New("signer is not configured")
	}
	createdAt := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(createdAt),
		},
		Purpose: string(purpose),
		Data:    data,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Parse verifies a token's signature, purpose, and age, returning its data.
// Tokens older than maxAge fail with ErrExpired; everything else that is
// wrong fails with ErrInvalid so callers cannot distinguish tampering modes.
func (s *Signer) Parse(purpose Purpose, raw string, maxAge time.Duration) (map[string]string, error) {
	if s == nil {
		return nil, errors.New("signer is not configured")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalid
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, ErrInvalid
	}
	if parsed.Purpose != string(purpose) {
		return nil, ErrInvalid
	}
	if parsed.IssuedAt == nil {
		return nil, ErrInvalid
	}
	createdAt := parsed.IssuedAt.Time
	if createdAt.After(s.now().Add(time.Minute)) {
		// A creation time in the future means the token was not minted here.
		return nil, ErrInvalid
	}
	if maxAge > 0 && s.now().Sub(createdAt) > maxAge {
		return nil, ErrExpired
	}
	if parsed.Data == nil {
		return map[string]string{}, nil
	}
	return parsed.Data, nil
}
