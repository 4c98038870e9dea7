// ABOUTME: Key and value checks for the SQLite favicon cache
// ABOUTME: Rejects empty or oversized entries and flags keys that cannot come from a site URL

package sqlite

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// MaxKeyLength bounds cache keys, which embed a site URL plus search hints
	MaxKeyLength = 2048
	// MaxValueLength bounds cached favicons, image bytes included
	MaxValueLength = 8 * 1024 * 1024

	keyPreviewLength = 50
)

var (
	ErrEmptyKey   = errors.New("key cannot be empty")
	ErrNullByte   = errors.New("key cannot contain null bytes")
	ErrEmptyValue = errors.New("value cannot be empty")
)

// Logger is the slice of interfaces.Logger the cache needs
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// validateKey rejects keys SQLite cannot store faithfully. Keys with control
// characters are accepted but logged: the finder never produces them.
func validateKey(key string, logger Logger) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key too long: %d bytes, max %d", len(key), MaxKeyLength)
	}
	if strings.IndexByte(key, 0) >= 0 {
		return ErrNullByte
	}

	if logger != nil && strings.IndexFunc(key, unicode.IsControl) >= 0 {
		logger.Warn("Control character in favicon cache key", map[string]interface{}{
			"key_length":  len(key),
			"key_preview": previewKey(key),
		})
	}
	return nil
}

func validateValue(value []byte) error {
	if len(value) == 0 {
		return ErrEmptyValue
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("value too large: %d bytes, max %d", len(value), MaxValueLength)
	}
	return nil
}

func previewKey(key string) string {
	if len(key) <= keyPreviewLength {
		return key
	}
	return key[:keyPreviewLength] + "..."
}
