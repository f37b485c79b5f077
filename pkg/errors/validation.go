package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxDocumentBytes bounds mod list uploads. The analysis core enforces
// no limit of its own; boundary callers check with [ValidateDocument] first.
const DefaultMaxDocumentBytes = 8 << 20

// identifierRegex matches Steam Workshop item ids.
var identifierRegex = regexp.MustCompile(`^[0-9]{1,20}$`)

// ValidateIdentifier validates a single workshop item id supplied directly by a
// user (the inspect command, the item API endpoint). Ids mined from documents
// are numeric by construction and skip this check.
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentifier, "workshop id cannot be empty")
	}
	if !identifierRegex.MatchString(id) {
		return New(ErrCodeInvalidIdentifier, "invalid workshop id: %q (must be numeric)", id)
	}
	return nil
}

// ValidateDocument rejects uploads longer than maxBytes (0 selects
// DefaultMaxDocumentBytes). Content is not inspected: empty documents and
// documents in a legacy encoding are analyzed as they are.
func ValidateDocument(doc []byte, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	if int64(len(doc)) > maxBytes {
		return New(ErrCodeInvalidDocument, "mod list too large (%d bytes, max %d)", len(doc), maxBytes)
	}
	return nil
}

// ValidateSubmitter validates a submitter or context key used to look up
// submission history. Keys end up in SQL parameters and cache keys, so the
// rules mirror the ones for other storage keys:
//   - No empty keys
//   - Maximum length of 128 characters
//   - No control characters or whitespace
func ValidateSubmitter(kind, key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(key) > 128 {
		return New(ErrCodeInvalidInput, "%s too long (max 128 characters)", kind)
	}
	for _, r := range key {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid characters", kind)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
