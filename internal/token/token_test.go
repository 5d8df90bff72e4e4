package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedNow(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestSignParseRoundTrip(t *testing.T) {
	signer, err := NewSigner("test-secret", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := signer.Sign(PurposeEmailVerification, map[string]string{"user_id": "user-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	data, err := signer.Parse(PurposeEmailVerification, raw, time.Hour)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if data["user_id"] != "user-1" {
		t.Fatalf("data[user_id] = %q, want %q", data["user_id"], "user-1")
	}
}

func TestParseRejectsWrongPurpose(t *testing.T) {
	signer, _ := NewSigner("test-secret", nil)
	raw, _ := signer.Sign(PurposePasswordReset, map[string]string{"user_id": "user-1"})

	if _, err := signer.Parse(PurposeEmailVerification, raw, time.Hour); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	signer, _ := NewSigner("test-secret", nil)
	raw, _ := signer.Sign(PurposeServiceInvite, map[string]string{"invite_id": "inv-1"})

	tampered := raw[:len(raw)-2] + "xx"
	if _, err := signer.Parse(PurposeServiceInvite, tampered, time.Hour); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestParseRejectsOtherSecret(t *testing.T) {
	mint, _ := NewSigner("secret-a", nil)
	verify, _ := NewSigner("secret-b", nil)
	raw, _ := mint.Sign(PurposeEmailChange, nil)

	if _, err := verify.Parse(PurposeEmailChange, raw, time.Hour); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestParseExpiry(t *testing.T) {
	minted := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signer, _ := NewSigner("test-secret", fixedNow(minted))
	raw, _ := signer.Sign(PurposeEmailVerification, map[string]string{"user_id": "user-1"})

	late, _ := NewSigner("test-secret", fixedNow(minted.Add(2*time.Hour)))
	if _, err := late.Parse(PurposeEmailVerification, raw, time.Hour); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}

	within, _ := NewSigner("test-secret", fixedNow(minted.Add(30*time.Minute)))
	if _, err := within.Parse(PurposeEmailVerification, raw, time.Hour); err != nil {
		t.Fatalf("unexpected error within allowed age: %v", err)
	}
}

func TestParseRejectsFutureToken(t *testing.T) {
	future := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	mint, _ := NewSigner("test-secret", fixedNow(future))
	raw, _ := mint.Sign(PurposePasswordReset, nil)

	past, _ := NewSigner("test-secret", fixedNow(future.Add(-24*time.Hour)))
	if _, err := past.Parse(PurposePasswordReset, raw, time.Hour); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestParseEmptyToken(t *testing.T) {
	signer, _ := NewSigner("test-secret", nil)
	if _, err := signer.Parse(PurposeEmailVerification, "  ", time.Hour); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner(" ", nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenIsURLSafe(t *testing.T) {
	signer, _ := NewSigner("test-secret", nil)
	raw, _ := signer.Sign(PurposeServiceInvite, map[string]string{"invite_id": "inv-1"})
	if strings.ContainsAny(raw, "+/= \n") {
		t.Fatalf("token %q contains non-URL-safe characters", raw)
	}
}
