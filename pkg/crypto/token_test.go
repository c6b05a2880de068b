package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewTokenPair_Lengths(t *testing.T) {
	tests := []struct {
		name           string
		byteLength     int
		expectedLength int
	}{
		{name: "zero uses default", byteLength: 0, expectedLength: DefaultTokenLength},
		{name: "negative uses default", byteLength: -10, expectedLength: DefaultTokenLength},
		{name: "16 bytes", byteLength: 16, expectedLength: 16},
		{name: "32 bytes", byteLength: 32, expectedLength: 32},
		{name: "64 bytes", byteLength: 64, expectedLength: 64},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			pair, err := NewTokenPair(test.byteLength)

			// Assert
			if err != nil {
				t.Fatalf("NewTokenPair() error = %v", err)
			}
			decoded, err := base64.RawURLEncoding.DecodeString(pair.Token)
			if err != nil {
				t.Fatalf("failed to decode token: %v", err)
			}
			if len(decoded) != test.expectedLength {
				t.Errorf("token length = %d bytes, want %d", len(decoded), test.expectedLength)
			}
			if strings.ContainsAny(pair.Token, "+/= ") {
				t.Errorf("token contains URL-unsafe characters: %q", pair.Token)
			}
			if pair.Hash != HashToken(pair.Token) {
				t.Error("pair hash does not match HashToken of the raw token")
			}
		})
	}
}

func TestNewTokenPair_Unique(t *testing.T) {
	// Arrange
	tokens := make(map[string]bool)
	iterations := 1000

	// Act
	for i := 0; i < iterations; i++ {
		pair, err := NewTokenPair(32)
		if err != nil {
			t.Fatalf("iteration %d: NewTokenPair() error = %v", i, err)
		}
		if tokens[pair.Token] {
			t.Fatalf("duplicate token generated: %q", pair.Token)
		}
		tokens[pair.Token] = true
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	// Act
	h1 := HashToken("some-token")
	h2 := HashToken("some-token")
	h3 := HashToken("other-token")

	// Assert
	if h1 != h2 {
		t.Error("HashToken is not deterministic")
	}
	if h1 == h3 {
		t.Error("different tokens produced the same hash")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}

func TestVerifyToken(t *testing.T) {
	pair, err := NewTokenPair(32)
	if err != nil {
		t.Fatalf("NewTokenPair() error = %v", err)
	}

	tests := []struct {
		name       string
		token      string
		storedHash string
		want       bool
		wantErr    bool
	}{
		{name: "matching pair", token: pair.Token, storedHash: pair.Hash, want: true},
		{name: "wrong token", token: "not-the-token", storedHash: pair.Hash, want: false},
		{name: "empty token", token: "", storedHash: pair.Hash, wantErr: true},
		{name: "empty hash", token: pair.Token, storedHash: "", wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			got, err := VerifyToken(test.token, test.storedHash)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("VerifyToken() error = %v, wantErr %v", err, test.wantErr)
			}
			if !test.wantErr && got != test.want {
				t.Errorf("VerifyToken() = %v, want %v", got, test.want)
			}
		})
	}
}
