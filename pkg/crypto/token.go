package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	// DefaultTokenLength is the raw entropy in bytes (256 bits).
	DefaultTokenLength = 32
)

// TokenPair holds the two faces of a bearer token: the raw value handed
// to the client and the SHA-256 hex digest kept in storage. Storage
// never sees the raw value.
type TokenPair struct {
	Token string // value returned to client
	Hash  string // value in storage
}

// NewTokenPair generates a fresh random token and its storage hash.
// byteLength <= 0 falls back to DefaultTokenLength.
func NewTokenPair(byteLength int) (*TokenPair, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}

	token := base64.RawURLEncoding.EncodeToString(raw)
	return &TokenPair{
		Token: token,
		Hash:  HashToken(token),
	}, nil
}

// HashToken returns the hex SHA-256 digest used as the storage lookup
// key for a raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken checks a raw token against a stored hash.
func VerifyToken(token, storedHash string) (bool, error) {
	if token == "" || storedHash == "" {
		return false, errors.New("token and hash cannot be empty")
	}

	tokenHash := HashToken(token)

	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(tokenHash), []byte(storedHash)) == 1, nil
}
