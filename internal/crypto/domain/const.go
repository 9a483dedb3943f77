package domain

// Algorithm represents the AEAD algorithm used to encrypt provider inputs.
//
// Both supported algorithms use a 256-bit key, a 12-byte nonce and a 16-byte
// authentication tag. AESGCM is preferred on CPUs with AES-NI; ChaCha20 is
// the better choice on hardware without it.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// BlobVersion is the current serialization version for encrypted blobs.
const BlobVersion uint = 1
