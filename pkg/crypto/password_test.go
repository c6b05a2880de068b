package crypto

import (
	"strings"
	"testing"
)

// lightArgon2 keeps test runs fast; production defaults are far
// heavier.
func lightArgon2(t *testing.T) *Argon2 {
	t.Helper()
	return &Argon2{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2Hash_Format(t *testing.T) {
	// Arrange
	a := lightArgon2(t)

	// Act
	hash, err := a.Hash("testPassword123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// Assert
	tests := []struct {
		name  string
		check func(string) bool
		desc  string
	}{
		{
			name:  "has argon2id algorithm",
			check: func(h string) bool { return strings.HasPrefix(h, "$argon2id$") },
			desc:  "should start with $argon2id$",
		},
		{
			name:  "has 6 parts",
			check: func(h string) bool { return len(strings.Split(h, "$")) == 6 },
			desc:  "should have 6 dollar-separated parts",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if !test.check(hash) {
				t.Errorf("%s: %s", test.desc, hash)
			}
		})
	}
}

func TestArgon2Hash_UniqueSalts(t *testing.T) {
	// Arrange
	a := lightArgon2(t)

	// Act
	h1, err := a.Hash("samePassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := a.Hash("samePassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// Assert
	if h1 == h2 {
		t.Error("two hashes of the same password should differ by salt")
	}
}

func TestArgon2Verify(t *testing.T) {
	a := lightArgon2(t)
	hash, err := a.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  bool
	}{
		{name: "correct password", password: "correct-horse", hash: hash, want: true},
		{name: "wrong password", password: "battery-staple", hash: hash, want: false},
		{name: "garbage hash", password: "correct-horse", hash: "not-a-hash", wantErr: true},
		{name: "wrong algorithm", password: "x", hash: "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			got, err := a.Verify(test.password, test.hash)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, test.wantErr)
			}
			if !test.wantErr && got != test.want {
				t.Errorf("Verify() = %v, want %v", got, test.want)
			}
		})
	}
}
