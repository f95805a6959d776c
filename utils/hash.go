package utils

import (
	"crypto/sha256"
	"fmt"
	"io"
)

// CalculateFileHash returns the hex sha256 of everything read from r.
func CalculateFileHash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
