package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const trackingSuffixLen = 6

// NewTrackingNumber returns PREFIX-XXXXXX with six random uppercase
// alphanumerics.
func NewTrackingNumber(prefix string) (string, error) {
	var b strings.Builder
	b.Grow(len(prefix) + 1 + trackingSuffixLen)
	b.WriteString(prefix)
	b.WriteByte('-')

	max := big.NewInt(int64(len(trackingAlphabet)))
	for i := 0; i < trackingSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate tracking number: %w", err)
		}
		b.WriteByte(trackingAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeTrackingNumber trims and uppercases user input, lookups are
// exact after that.
func NormalizeTrackingNumber(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
