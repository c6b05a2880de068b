package crypto

import (
	"strings"
	"testing"
)

func TestNewID_ShapeAndAlphabet(t *testing.T) {
	// Act
	id, err := NewID()

	// Assert
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	if len(id) != idSize {
		t.Errorf("id length = %d, want %d", len(id), idSize)
	}
	for _, r := range id {
		if !strings.ContainsRune(idAlphabet, r) {
			t.Errorf("id contains character outside alphabet: %q", r)
		}
	}
}

func TestNewID_Unique(t *testing.T) {
	// Arrange
	seen := make(map[string]bool)
	iterations := 1000

	// Act
	for i := 0; i < iterations; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("iteration %d: NewID() error = %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}

func TestMask_CoversAlphabet(t *testing.T) {
	tests := []struct {
		name        string
		alphabetLen int
		want        int
	}{
		{name: "64 characters", alphabetLen: 64, want: 127},
		{name: "16 characters", alphabetLen: 16, want: 31},
		{name: "8 characters", alphabetLen: 8, want: 15},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := mask(test.alphabetLen); got != test.want {
				t.Errorf("mask(%d) = %d, want %d", test.alphabetLen, got, test.want)
			}
		})
	}
}
