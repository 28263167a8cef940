package token

import (
	"strings"
	"testing"
	"time"
)

func TestSignParseRoundTrip(t *testing.T) {
	signer, err := NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	raw, err := signer.Sign(Claims{Kind: KindClick, Email: "lead@example.com", JobID: "job-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := signer.Parse(raw, KindClick)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "lead@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.JobID != "job-1" {
		t.Fatalf("unexpected job id %q", claims.JobID)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signer, _ := NewSigner("secret-a", time.Hour)
	other, _ := NewSigner("secret-b", time.Hour)

	raw, err := signer.Sign(Claims{Kind: KindOpen, JobID: "job-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := other.Parse(raw, KindOpen); err == nil {
		t.Fatal("expected signature mismatch error")
	}
}

func TestParseRejectsWrongKind(t *testing.T) {
	signer, _ := NewSigner("test-secret", time.Hour)

	raw, err := signer.Sign(Claims{Kind: KindClick, Email: "lead@example.com"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := signer.Parse(raw, KindUnsubscribe); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	signer, _ := NewSigner("test-secret", time.Hour)

	raw, err := signer.Sign(Claims{Kind: KindUnsubscribe, Email: "lead@example.com"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact jwt, got %q", raw)
	}
	tampered := parts[0] + ".eyJrbmQiOiJ1bnN1YnNjcmliZSJ9." + parts[2]
	if _, err := signer.Parse(tampered, KindUnsubscribe); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}

func TestSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
