package domain

import "context"

// KMSKeeper wraps and unwraps data keys with a key held by an external KMS.
// *secrets.Keeper from gocloud.dev implements this interface.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
