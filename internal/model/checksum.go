package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

const checksumBlockSize = 64 * 1024

// ChecksumError reports a SHA-256 mismatch on an externally sourced
// model. It is fatal: the model must never be instantiated.
type ChecksumError struct {
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("model checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// VerifySHA256 streams r through a SHA-256 digest in fixed-size blocks
// and compares the lowercase-hex result against expected. Comparison is
// case-sensitive, exact string equality.
func VerifySHA256(r io.Reader, expected string) error {
	hasher := sha256.New()
	buf := make([]byte, checksumBlockSize)
	if _, err := io.CopyBuffer(hasher, r, buf); err != nil {
		return fmt.Errorf("read model bytes: %w", err)
	}
	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != expected {
		return &ChecksumError{Expected: expected, Actual: actual}
	}
	return nil
}
