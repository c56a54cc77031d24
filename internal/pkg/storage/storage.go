// Package storage keeps product images either in an S3 compatible bucket or
// on the local disk below uploads/.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/oklog/ulid/v2"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
)

// Blob stores objects under slash separated keys and returns their public URL.
type Blob interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New builds the backend selected by cfg.
func New(ctx context.Context, cfg *Config) (Blob, error) {
	if cfg.IsEnabled() {
		s, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return NewLocalStore(cfg.LocalDir), nil
}

var (
	defaultBlob Blob
	defaultMu   sync.Mutex
)

// Default returns the process wide store, built from the environment on
// first use. A broken S3 configuration falls back to local disk.
func Default() Blob {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBlob != nil {
		return defaultBlob
	}
	cfg, err := LoadConfig()
	if err == nil {
		defaultBlob, err = New(context.Background(), cfg)
	}
	if err != nil {
		log.Errorf("[Storage] S3 unavailable, using local uploads: %v", err)
		defaultBlob = NewLocalStore(constants.UploadsPath)
	}
	return defaultBlob
}

// SetDefault replaces the process wide store, e.g. with a temp dir in tests.
func SetDefault(b Blob) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultBlob = b
}

// ProductImageKey returns a fresh key like products/<business>/<ulid>.webp.
func ProductImageKey(businessID, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	return path.Join("products", businessID, fmt.Sprintf("%s.%s", strings.ToLower(ulid.Make().String()), ext))
}

// KeyFromURL reverses URL for objects written by b. It returns "" for
// foreign URLs.
func KeyFromURL(b Blob, url string) string {
	base := b.URL("")
	if base == "" || !strings.HasPrefix(url, base) {
		return ""
	}
	return strings.TrimPrefix(url, base)
}

func contentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
