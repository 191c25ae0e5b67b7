package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
)

// SearchCodeAlphabet is the character set used for public pet search codes.
const SearchCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: length must be positive")
	}
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateCode returns a uniformly random string of length characters drawn from alphabet.
func GenerateCode(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: length must be positive")
	}
	if alphabet == "" {
		return "", errors.New("crypto: alphabet must not be empty")
	}

	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
