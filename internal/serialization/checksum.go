package serialization

import (
	"crypto/sha256"

	"github.com/pkg/errors"
)

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares a computed checksum against the stored one.
func ValidateChecksum(computed, stored [ChecksumSize]byte) error {
	if computed != stored {
		return errors.Wrapf(ErrChecksumMismatch, "stored %x, computed %x", stored[:8], computed[:8])
	}
	return nil
}
