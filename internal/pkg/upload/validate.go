package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxImageBytes caps a single product photo.
const MaxImageBytes = 8 << 20

var (
	ErrUnsupportedFormat = errors.New("only JPG, JPEG, PNG, GIF and WEBP images are supported")
	ErrScriptable        = errors.New("HTML, SVG and XML content is not allowed")
	ErrTooLarge          = errors.New("image is larger than 8 MB")
	ErrEmpty             = errors.New("image is empty")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	// Note: SVG is intentionally excluded due to XSS risk without sanitization
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImageBySniff checks the provided filename (extension) and the first bytes (head)
// against a whitelist of image types. Returns detected mime or an error.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	if len(head) == 0 {
		return "", ErrEmpty
	}
	if len(head) > MaxImageBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedFormat
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") ||
		strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", ErrScriptable
	}

	if allowedMime[detected] {
		return detected, nil
	}
	return "", ErrUnsupportedFormat
}
