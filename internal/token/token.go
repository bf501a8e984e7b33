// Package token generates cryptographically random identifiers for session
// ids and session codes.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultAlphabet matches the code format shared with students: uppercase
// letters and digits only, so codes survive being read aloud or written on a
// whiteboard.
const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate returns a random token of the given length drawn from
// DefaultAlphabet.
func Generate(length int) (string, error) {
	return GenerateFrom(length, DefaultAlphabet)
}

// GenerateFrom returns a token of the given length with each character drawn
// uniformly and independently from alphabet using crypto/rand. Safe for
// concurrent use. A randomness failure is unrecoverable for callers; it is
// returned rather than panicking so startup code can exit with a diagnostic.
func GenerateFrom(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}
	if len(alphabet) == 0 {
		return "", fmt.Errorf("token alphabet cannot be empty")
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
