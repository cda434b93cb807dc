package middleware

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

// MaxUploadBytes bounds a single uploaded document.
const MaxUploadBytes = 10 << 20

var textTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"text/html":        true,
	"text/xml":         true,
	"application/json": true,
	"application/xml":  true,
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".csv": true,
	".json": true, ".xml": true, ".html": true, ".htm": true,
}

// ValidateUpload checks the declared size and type of an uploaded document.
// Only text-like formats are accepted; contentType may be empty, in which
// case the file extension decides.
func ValidateUpload(name, contentType string, size int64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("uploaded file must have a name")
	}
	if size == 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	if size > MaxUploadBytes {
		return fmt.Errorf("uploaded file exceeds %d MB", MaxUploadBytes>>20)
	}
	if IsTextDocument(name, contentType) {
		return nil
	}
	return fmt.Errorf("unsupported file type: %s", contentTypeOr(contentType, filepath.Ext(name)))
}

// IsTextDocument reports whether the upload can be read as text.
func IsTextDocument(name, contentType string) bool {
	if contentType != "" && contentType != "application/octet-stream" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && (textTypes[mediaType] || strings.HasPrefix(mediaType, "text/")) {
			return true
		}
		if err == nil {
			return false
		}
	}
	return textExtensions[strings.ToLower(filepath.Ext(name))]
}

// DecodeText returns body as a string when it is valid UTF-8.
func DecodeText(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", fmt.Errorf("uploaded file is not valid UTF-8 text")
	}
	return SanitizeString(string(body)), nil
}

func contentTypeOr(contentType, ext string) string {
	if contentType != "" {
		return contentType
	}
	if ext == "" {
		return "unknown"
	}
	return ext
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters, keeping page breaks for span pages
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\f' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
