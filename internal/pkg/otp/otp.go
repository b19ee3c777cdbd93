package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var limit = big.NewInt(1000000)

// Generate returns a uniformly random 6-digit decimal code, zero-padded.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
