package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	password := []byte("secret123")

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == string(password) {
		t.Fatal("hash should be a non-empty bcrypt digest")
	}
	if err := h.Compare(hash, password); err != nil {
		t.Errorf("Compare with correct password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Error("Compare with wrong password should fail")
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if got := NewHasher(12).Cost; got != 12 {
		t.Errorf("Cost = %d, want 12", got)
	}
	if got := NewHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Errorf("zero cost = %d, want default %d", got, bcrypt.DefaultCost)
	}
	if got := NewHasher(99).Cost; got != bcrypt.MaxCost {
		t.Errorf("oversized cost = %d, want max %d", got, bcrypt.MaxCost)
	}
}
