package errors

import (
	"strconv"
	"strings"
	"unicode"
)

// maxQueryLength bounds search queries and type names accepted from users.
const maxQueryLength = 256

// ValidateQuery validates a user-supplied type name or search query.
//
// The rules are conservative:
//   - No empty queries
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return New(ErrCodeInvalidInput, "query cannot be empty")
	}

	if len(q) > maxQueryLength {
		return New(ErrCodeInvalidInput, "query too long (max %d characters)", maxQueryLength)
	}

	for _, r := range q {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "query contains invalid control characters")
		}
	}

	return nil
}

// MaxQuantity is the largest build quantity accepted from users.
const MaxQuantity = 1_000_000_000

// ValidateQuantity validates a requested build quantity.
func ValidateQuantity(n int64) error {
	if n <= 0 {
		return New(ErrCodeInvalidInput, "quantity must be positive, got %d", n)
	}
	if n > MaxQuantity {
		return New(ErrCodeInvalidInput, "quantity too large (max %d), got %d", MaxQuantity, n)
	}
	return nil
}

// ParseQuantity parses s as a build quantity. An empty string means 1.
func ParseQuantity(s string) (int64, error) {
	if s == "" {
		return 1, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, Wrap(ErrCodeInvalidInput, err, "invalid quantity %q", s)
	}
	if err := ValidateQuantity(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ValidateFilename validates a filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidInput, "filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidInput, "filename cannot be a hidden file")
	}

	return nil
}
