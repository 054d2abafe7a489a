package infrastructure

import (
	"crypto/rand"
	"encoding/base64"

	"weathersub.app/pkg/errors"
)

const tokenBytes = 32

// CryptoTokenGenerator produces 256-bit URL-safe tokens from crypto/rand
type CryptoTokenGenerator struct{}

// NewCryptoTokenGenerator creates a token generator
func NewCryptoTokenGenerator() *CryptoTokenGenerator {
	return &CryptoTokenGenerator{}
}

// NewToken returns a fresh unpadded base64url token
func (g *CryptoTokenGenerator) NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(errors.ErrorTypeUnknown, "failed to read random bytes", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
