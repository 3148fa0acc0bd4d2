package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// Length is the number of symbols in a magic-link token.
const Length = 48

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// New returns a cryptographically random token of Length symbols drawn from a
// 62-symbol alphabet.
func New() (string, error) {
	return generate(Length)
}

func generate(n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// Hash returns the storage key for a token. Stores only ever see this value.
func Hash(tok string) string {
	sum := blake2b.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
