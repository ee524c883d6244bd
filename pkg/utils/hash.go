package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the hex encoded SHA-256 of b.
func HashBytes(b []byte) string {
	h := sha256.New()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}
