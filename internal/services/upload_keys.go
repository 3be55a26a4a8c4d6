package services

import (
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Preferred extensions for the content types we expect. mime.ExtensionsByType
// returns all registered extensions in unspecified order, so common image
// types are pinned here to keep generated keys deterministic.
var preferredExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/avif":    "avif",
	"image/bmp":     "bmp",
	"image/tiff":    "tiff",
	"image/svg+xml": "svg",
}

// GenerateStorageKey derives a fresh storage key for a declared content
// type: a random UUID plus the extension the type maps to. Pure aside from
// the randomness; no I/O.
func GenerateStorageKey(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	ext, ok := preferredExtensions[mediaType]
	if !ok {
		exts, err := mime.ExtensionsByType(mediaType)
		if err != nil || len(exts) == 0 {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
		}
		ext = strings.TrimPrefix(exts[0], ".")
	}

	return fmt.Sprintf("%s.%s", uuid.New().String(), ext), nil
}

// ParseImageID validates the wire form of an image id before any store
// access. Record ids are positive integers.
func ParseImageID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidImageID, raw)
	}
	return id, nil
}
