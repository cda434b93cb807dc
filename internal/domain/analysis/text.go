package analysis

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const ellipsis = "…"

// Clamp trims value and bounds it to maxLength characters. Longer text keeps
// its first maxLength-1 characters and gains an ellipsis. A maxLength of zero
// or less means no bound.
func Clamp(value string, maxLength int) string {
	text := strings.TrimSpace(value)
	if maxLength <= 0 || utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength-1]) + ellipsis
}

// InstructionContext joins the instructions and style preference that
// produced an analysis into the instruction field of a follow-up request.
func InstructionContext(meta Metadata) string {
	var segments []string
	if meta.Instructions != "" {
		segments = append(segments, meta.Instructions)
	}
	if meta.Style != "" {
		segments = append(segments, "Preferred analysis style: "+meta.Style)
	}
	return Clamp(strings.Join(segments, "\n\n"), MaxInstructionsLength)
}

// Upload describes a document submitted as a file.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
}

// DescribeUpload renders the document metadata kept for an uploaded file,
// since the file body itself is never stored client side.
func DescribeUpload(u *Upload) string {
	if u == nil {
		return "Uploaded file"
	}
	name := u.Name
	if name == "" {
		name = "document"
	}
	parts := []string{"Uploaded file: " + name}
	if u.ContentType != "" {
		parts = append(parts, "Type: "+u.ContentType)
	}
	if u.Size > 0 {
		kb := int64(math.Round(float64(u.Size) / 1024))
		parts = append(parts, fmt.Sprintf("Size: %dKB", kb))
	}
	return strings.Join(parts, " · ")
}
