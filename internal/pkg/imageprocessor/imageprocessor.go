// Package imageprocessor normalizes product photos before they are stored:
// EXIF orientation is applied, the image is scaled down to MaxDimension and
// re-encoded as JPEG plus, for pro businesses, WebP.
package imageprocessor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/storage"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/upload"
)

const (
	MaxDimension = 1200
	JPEGQuality  = 85
	WebPQuality  = 80
)

var ErrDecode = errors.New("image could not be decoded")

// Result holds the encoded variants of one upload.
type Result struct {
	Width  int
	Height int
	JPEG   []byte
	WebP   []byte
}

// Process decodes data of the given MIME type and produces the variants.
func Process(data []byte, mime string, withWebP bool) (*Result, error) {
	img, err := decode(data, mime)
	if err != nil {
		return nil, err
	}

	img = ApplyOrientation(img, Orientation(data))

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	res := &Result{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}

	var jpg bytes.Buffer
	if err := imaging.Encode(&jpg, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("error encoding JPEG image: %w", err)
	}
	res.JPEG = jpg.Bytes()

	if withWebP {
		w, err := encodeWebP(img)
		if err != nil {
			// JPEG alone is still a usable product image.
			log.Warnf("[ImageProcessor] WebP encoding failed: %v", err)
		} else {
			res.WebP = w
		}
	}
	return res, nil
}

func decode(data []byte, mime string) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	if mime == "image/webp" {
		img, err = webp.Decode(bytes.NewReader(data), &decoder.Options{})
	} else {
		img, err = imaging.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

func encodeWebP(img image.Image) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetPhoto, WebPQuality)
	if err != nil {
		return nil, fmt.Errorf("error creating encoder options: %w", err)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("error encoding WebP image: %w", err)
	}
	return buf.Bytes(), nil
}

// Stored are the public URLs of a saved product image.
type Stored struct {
	JPEGURL string
	WebPURL string
}

// SaveProductImage validates, processes and uploads one product photo.
func SaveProductImage(ctx context.Context, blob storage.Blob, businessID, filename string, data []byte, withWebP bool) (*Stored, error) {
	mime, err := upload.ValidateImageBySniff(filename, data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := Process(data, mime, withWebP)
	if err != nil {
		return nil, err
	}

	out := &Stored{}
	key := storage.ProductImageKey(businessID, "jpg")
	if out.JPEGURL, err = blob.Put(ctx, key, bytes.NewReader(res.JPEG), int64(len(res.JPEG)), "image/jpeg"); err != nil {
		return nil, err
	}
	if len(res.WebP) > 0 {
		key := storage.ProductImageKey(businessID, "webp")
		if out.WebPURL, err = blob.Put(ctx, key, bytes.NewReader(res.WebP), int64(len(res.WebP)), "image/webp"); err != nil {
			log.Warnf("[ImageProcessor] storing WebP variant failed: %v", err)
			out.WebPURL = ""
		}
	}

	log.Infof("[ImageProcessor] product image for %s: %dx%d in %s", businessID, res.Width, res.Height, time.Since(start).Round(time.Millisecond))
	return out, nil
}

// DeleteProductImage removes both variants; missing objects are ignored.
func DeleteProductImage(ctx context.Context, blob storage.Blob, urls ...string) {
	for _, u := range urls {
		if key := storage.KeyFromURL(blob, u); key != "" {
			if err := blob.Delete(ctx, key); err != nil {
				log.Warnf("[ImageProcessor] could not delete %s: %v", key, err)
			}
		}
	}
}
