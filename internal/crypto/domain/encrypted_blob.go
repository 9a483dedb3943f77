package domain

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncryptedBlob is the serialized form of an encrypted provider input set.
//
// The string representation is "version:algorithm:payload-base64" where the
// payload is the nonce followed by the ciphertext. Carrying the algorithm in
// the blob lets old rows decrypt correctly after the default cipher changes.
type EncryptedBlob struct {
	Version   uint
	Algorithm Algorithm
	Payload   []byte
}

// NewEncryptedBlob parses the string representation of an encrypted blob.
func NewEncryptedBlob(content string) (EncryptedBlob, error) {
	parts := strings.Split(content, ":")
	if len(parts) != 3 {
		return EncryptedBlob{}, fmt.Errorf(
			"%w: expected format 'version:algorithm:payload', got %d parts",
			ErrInvalidBlobFormat,
			len(parts),
		)
	}

	version, err := strconv.ParseUint(parts[0], 10, 0)
	if err != nil {
		return EncryptedBlob{}, fmt.Errorf("%w: bad version: %v", ErrInvalidBlobFormat, err)
	}

	alg := Algorithm(parts[1])
	if alg != AESGCM && alg != ChaCha20 {
		return EncryptedBlob{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, parts[1])
	}

	payload, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return EncryptedBlob{}, fmt.Errorf("%w: bad base64 payload: %v", ErrInvalidBlobFormat, err)
	}

	return EncryptedBlob{
		Version:   uint(version),
		Algorithm: alg,
		Payload:   payload,
	}, nil
}

// String serializes the blob to "version:algorithm:payload-base64".
func (eb EncryptedBlob) String() string {
	return fmt.Sprintf("%d:%s:%s", eb.Version, eb.Algorithm, base64.StdEncoding.EncodeToString(eb.Payload))
}
