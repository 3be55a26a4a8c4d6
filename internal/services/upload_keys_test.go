package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStorageKey(t *testing.T) {
	t.Run("MapsContentTypeToExtension", func(t *testing.T) {
		cases := map[string]string{
			"image/jpeg":    "jpg",
			"image/png":     "png",
			"image/gif":     "gif",
			"image/webp":    "webp",
			"image/svg+xml": "svg",
		}
		for contentType, ext := range cases {
			key, err := GenerateStorageKey(contentType)
			require.NoError(t, err, "GenerateStorageKey(%q)", contentType)
			assert.True(t, strings.HasSuffix(key, "."+ext), "key %q should end in .%s", key, ext)
		}
	})

	t.Run("KeysAreDistinct", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			key, err := GenerateStorageKey("image/png")
			require.NoError(t, err)
			assert.False(t, seen[key], "duplicate key %q", key)
			seen[key] = true
		}
	})

	t.Run("RejectsUnknownContentType", func(t *testing.T) {
		for _, contentType := range []string{"application/x-nonexistent-zzz", "not a mime type at all;;;", ""} {
			_, err := GenerateStorageKey(contentType)
			require.Error(t, err, "content type %q", contentType)
			assert.ErrorIs(t, err, ErrUnsupportedContentType)
		}
	})

	t.Run("AcceptsParameters", func(t *testing.T) {
		key, err := GenerateStorageKey("image/jpeg; charset=utf-8")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(key, ".jpg"))
	})
}

func TestParseImageID(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		id, err := ParseImageID("42")
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "12.5", "-3", "0", "0x1f", "9999999999999999999999"} {
			_, err := ParseImageID(raw)
			require.Error(t, err, "raw id %q", raw)
			assert.ErrorIs(t, err, ErrInvalidImageID)
		}
	})
}
