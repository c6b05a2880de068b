package crypto

import (
	"crypto/rand"
	"errors"
	"math"
)

const (
	idAlphabet string = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	idSize     int    = 22 // 22 * 6 = 132 bits of entropy (a uuid is 128)
)

var errRandExhausted = errors.New("could not read random bytes for id")

// mask is the smallest all-ones bit pattern covering the alphabet.
func mask(alphabetLen int) int {
	for i := 1; i <= 8; i++ {
		m := (2 << uint(i)) - 1
		if m > alphabetLen-1 {
			return m
		}
	}
	return 255
}

// NewID returns a 22-character URL-safe NanoID. Used for every record
// id in the store: accounts, sessions and reset tokens.
func NewID() (string, error) {
	alphabetLen := len(idAlphabet)
	m := mask(alphabetLen)
	step := int(math.Ceil(1.6 * float64(m*idSize) / float64(alphabetLen)))

	id := make([]byte, idSize)
	buffer := make([]byte, step)

	for position := 0; position < idSize; {
		if _, err := rand.Read(buffer); err != nil {
			return "", errRandExhausted
		}

		for i := 0; i < step && position < idSize; i++ {
			// Mask, then reject candidates outside the alphabet so the
			// distribution stays uniform.
			index := buffer[i] & byte(m)
			if int(index) < alphabetLen {
				id[position] = idAlphabet[index]
				position++
			}
		}
	}

	return string(id), nil
}
