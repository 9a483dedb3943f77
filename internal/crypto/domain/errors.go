package domain

import (
	"github.com/allisson/dynamic-secrets/internal/errors"
)

// Cryptographic operation errors. All wrap the shared sentinels so the error
// handling layer can map them without knowing this package.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a decryption or authentication failure.
	// The specific cause is never disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrInvalidBlobFormat indicates an encrypted blob string could not be parsed.
	ErrInvalidBlobFormat = errors.Wrap(errors.ErrInvalidInput, "invalid encrypted blob format")

	// ErrDataKeyNotFound indicates no data key exists for the project.
	ErrDataKeyNotFound = errors.Wrap(errors.ErrNotFound, "data key not found")
)
