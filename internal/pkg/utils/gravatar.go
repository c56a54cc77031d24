package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// GetGravatarURL returns the Gravatar image for an owner email. Owners
// without a Gravatar get a generated identicon, so storefronts never show
// a broken logo.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = 200
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=identicon", hex.EncodeToString(sum[:]), size)
}
