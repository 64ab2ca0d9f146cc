package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	resetCodeMin  = 100000
	resetCodeSpan = 900000
)

// generateResetCode returns a uniform 6-digit numeric code.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeSpan))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+resetCodeMin), nil
}
