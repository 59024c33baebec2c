package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "validpassword123",
			wantErr:  nil,
		},
		{
			name:     "password at maximum length",
			password: strings.Repeat("a", 72),
			wantErr:  nil,
		},
		{
			name:     "password too long",
			password: strings.Repeat("a", 73),
			wantErr:  ErrPasswordTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			if err != tt.wantErr {
				t.Errorf("Hash() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("Hash() returned empty hash for valid password")
			}
			if tt.wantErr == nil && hash == tt.password {
				t.Error("Hash() returned the plaintext")
			}
		})
	}
}

func TestBcryptHasher_Verify(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if !hasher.Verify("correct-horse", hash) {
		t.Error("Verify() rejected the correct password")
	}
	if hasher.Verify("wrong-horse", hash) {
		t.Error("Verify() accepted a wrong password")
	}
	if hasher.Verify("correct-horse", "not-a-bcrypt-hash") {
		t.Error("Verify() accepted a malformed hash")
	}
}

func TestNewBcryptHasher_CostClamping(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "valid cost kept", cost: 10, want: 10},
		{name: "zero falls back to default", cost: 0, want: bcrypt.DefaultCost},
		{name: "above max falls back to default", cost: 99, want: bcrypt.DefaultCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBcryptHasher(tt.cost)
			if h.cost != tt.want {
				t.Errorf("NewBcryptHasher(%d).cost = %d, want %d", tt.cost, h.cost, tt.want)
			}
		})
	}
}

func TestDummyHashIsValidBcrypt(t *testing.T) {
	// The enumeration-resistance path compares against dummyHash; it must be
	// a real bcrypt hash so the comparison takes normal time.
	if err := bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte("anything")); err == nil {
		t.Error("dummyHash unexpectedly matched an arbitrary password")
	}
	if _, err := bcrypt.Cost([]byte(dummyHash)); err != nil {
		t.Errorf("dummyHash is not a parseable bcrypt hash: %v", err)
	}
}

func TestGenerateVerificationToken(t *testing.T) {
	plaintext, hash, err := GenerateVerificationToken()
	if err != nil {
		t.Fatalf("GenerateVerificationToken() error = %v", err)
	}
	if len(plaintext) != 64 {
		t.Errorf("plaintext length = %d, want 64 hex characters", len(plaintext))
	}
	if hash != HashToken(plaintext) {
		t.Error("returned hash does not match HashToken(plaintext)")
	}

	other, _, err := GenerateVerificationToken()
	if err != nil {
		t.Fatalf("GenerateVerificationToken() error = %v", err)
	}
	if other == plaintext {
		t.Error("two generated tokens are identical")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("HashToken() is not deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("HashToken() collided on different inputs")
	}
	if len(HashToken("abc")) != 64 {
		t.Errorf("HashToken() length = %d, want 64", len(HashToken("abc")))
	}
}
