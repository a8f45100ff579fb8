package report

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Digest returns the lowercase hex SHA3-256 of a rendered document.
// It identifies a handout in the history without storing its contents.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
