package security

import (
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	roles := []string{"USER", "ADMIN"}
	token, expiresAt, err := p.IssueAccess("user-1", "alice", roles)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if time.Until(expiresAt) > 16*time.Minute || time.Until(expiresAt) < 14*time.Minute {
		t.Errorf("expiresAt = %v, want ~15m out", expiresAt)
	}

	id, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if id.UserID != "user-1" {
		t.Errorf("UserID = %q", id.UserID)
	}
	if id.Username != "alice" {
		t.Errorf("Username = %q", id.Username)
	}
	if !reflect.DeepEqual(id.Roles, roles) {
		t.Errorf("Roles = %v, want %v", id.Roles, roles)
	}
}

func TestValidateAccess_Garbage(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.ValidateAccess("not.a.token"); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
	if _, err := p.ValidateAccess(""); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateAccess_AlgMismatch(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	// An HS256 token must be refused even if its signature would check out
	// against the configured key material.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "test-issuer",
		Audience:  jwt.ClaimStrings{"test-audience"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	token, err := forged.SignedString([]byte(testPublicKeyPEM))
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}
	if _, err := p.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("alg mismatch: err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateAccess_Expired(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatal(err)
	}
	p := NewTokenProvider(signer, pub, "test-issuer", "test-audience", -1*time.Minute)

	token, _, err := p.IssueAccess("user-1", "alice", []string{"USER"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateAccess_WrongIssuerOrAudience(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatal(err)
	}

	issued := NewTokenProvider(signer, pub, "other-issuer", "test-audience", time.Minute)
	token, _, err := issued.IssueAccess("user-1", "alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	validator := NewTokenProvider(signer, pub, "test-issuer", "test-audience", time.Minute)
	if _, err := validator.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("wrong issuer: err = %v, want ErrInvalidToken", err)
	}

	issued = NewTokenProvider(signer, pub, "test-issuer", "other-audience", time.Minute)
	token, _, err = issued.IssueAccess("user-1", "alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := validator.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("wrong audience: err = %v, want ErrInvalidToken", err)
	}
}
