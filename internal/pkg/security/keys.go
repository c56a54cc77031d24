package security

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const PurposeUpvoteMarker = "marktplatz/upvote-marker/v1"

// DeriveKey expands the application secret into a 32 byte key bound to one
// purpose, so a leaked derived key does not expose the others.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret is required for key derivation")
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
