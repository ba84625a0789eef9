/*
Package randx provides functions for generating cryptographically secure random
identifiers used across the application.

It is primarily used to generate object keys for uploaded assets and short random
Base62 suffixes.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))
)

// Suffix generates a Base62 encoded string of the given length using a
// cryptographically secure random number generator (crypto/rand).
func Suffix(length int) (string, error) {
	result := make([]byte, length)

	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random suffix: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// AssetKey generates a unique object storage key under the given prefix,
// preserving the (already validated) file extension.
// Example: AssetKey("avatars", ".png") -> "avatars/7f6c…-….png".
func AssetKey(prefix string, ext string) string {
	return path.Join(prefix, uuid.New().String()+strings.ToLower(ext))
}

// IsValidAssetKey reports whether key has the shape produced by AssetKey for the
// given prefix: a single UUID file name with an extension, directly under prefix.
func IsValidAssetKey(key string, prefix string) bool {
	dir, file := path.Split(key)
	if dir != prefix+"/" {
		return false
	}

	ext := path.Ext(file)
	if ext == "" {
		return false
	}

	_, err := uuid.Parse(strings.TrimSuffix(file, ext))
	return err == nil
}
