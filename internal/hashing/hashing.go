package hashing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Hasher computes the integrity fingerprint stored alongside the canonical
// document and every asset: a keyed HMAC-SHA256 over the raw bytes,
// base64-encoded for storage. It is safe for concurrent use.
type Hasher struct {
	key []byte
}

// New creates a Hasher with the given secret key.
func New(key []byte) *Hasher {
	return &Hasher{key: key}
}

// Sum returns the base64-encoded HMAC-SHA256 of data.
func (h *Hasher) Sum(data []byte) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
