package domain

import (
	"fmt"
	"unicode/utf8"
)

const MaxKeyLength = 256

// ValidateKey rejects keys that can not be used as a cache fingerprint
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: key longer than %d bytes", ErrInvalidKey, MaxKeyLength)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key is not valid utf-8", ErrInvalidKey)
	}
	return nil
}
