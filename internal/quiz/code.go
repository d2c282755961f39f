package quiz

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// AccessCodeLength is the fixed length of every deployment access code.
const AccessCodeLength = 6

const accessCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewAccessCode returns a fixed-length code over the base-62 alphabet,
// derived by encoding a random integer below 62^6 and left-padding with the
// alphabet's zero symbol. The code space is small enough that collisions are
// possible; callers rely on the unique index on the deployment table and
// retry with a fresh code when an insert reports a duplicate.
func NewAccessCode() (string, error) {
	base := big.NewInt(int64(len(accessCodeAlphabet)))
	limit := new(big.Int).Exp(base, big.NewInt(AccessCodeLength), nil)

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to draw random access code: %w", err)
	}

	digits := make([]byte, AccessCodeLength)
	remainder := new(big.Int)
	for i := AccessCodeLength - 1; i >= 0; i-- {
		n.QuoRem(n, base, remainder)
		digits[i] = accessCodeAlphabet[remainder.Int64()]
	}

	return string(digits), nil
}
