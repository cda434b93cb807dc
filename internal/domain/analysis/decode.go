package analysis

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// UnmarshalJSON decodes a backend or persisted payload field by field. A field
// with the wrong shape decodes as empty instead of failing the whole result,
// so one odd finding never loses the summary.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Summary   json.RawMessage `json:"summary"`
		Findings  json.RawMessage `json:"findings"`
		Citations json.RawMessage `json:"citations"`
		RawJSON   json.RawMessage `json:"raw_json"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Result{}
	if s, ok := decodeString(raw.Summary); ok {
		out.Summary = s
	}
	for _, item := range decodeArray(raw.Findings) {
		if f, ok := decodeFinding(item); ok {
			out.Findings = append(out.Findings, f)
		}
	}
	for _, item := range decodeArray(raw.Citations) {
		if c, ok := decodeCitation(item); ok {
			out.Citations = append(out.Citations, c)
		}
	}
	if !isNull(raw.RawJSON) {
		out.RawJSON = append(json.RawMessage(nil), bytes.TrimSpace(raw.RawJSON)...)
	}

	*r = out
	return nil
}

func decodeFinding(data json.RawMessage) (Finding, bool) {
	var raw struct {
		Issue      json.RawMessage `json:"issue"`
		Risk       json.RawMessage `json:"risk"`
		Suggestion json.RawMessage `json:"suggestion"`
		Span       json.RawMessage `json:"span"`
	}
	if !isObject(data) || json.Unmarshal(data, &raw) != nil {
		return Finding{}, false
	}

	var f Finding
	if s, ok := decodeString(raw.Issue); ok {
		f.Issue = s
	}
	if s, ok := decodeString(raw.Risk); ok {
		f.Risk = &s
	}
	if s, ok := decodeString(raw.Suggestion); ok {
		f.Suggestion = &s
	}
	if isObject(raw.Span) {
		var span struct {
			Page  json.RawMessage `json:"page"`
			Start json.RawMessage `json:"start"`
			End   json.RawMessage `json:"end"`
		}
		if json.Unmarshal(raw.Span, &span) == nil {
			s := &Span{
				Page:  decodeNumber(span.Page),
				Start: decodeNumber(span.Start),
				End:   decodeNumber(span.End),
			}
			if !s.Empty() {
				f.Span = s
			}
		}
	}
	return f, true
}

func decodeCitation(data json.RawMessage) (Citation, bool) {
	var raw struct {
		Page    json.RawMessage `json:"page"`
		Snippet json.RawMessage `json:"snippet"`
	}
	if !isObject(data) || json.Unmarshal(data, &raw) != nil {
		return Citation{}, false
	}

	c := Citation{Page: decodeNumber(raw.Page)}
	if s, ok := decodeString(raw.Snippet); ok {
		c.Snippet = &s
	}
	return c, true
}

func isObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeString(data json.RawMessage) (string, bool) {
	if isNull(data) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeNumber(data json.RawMessage) *float64 {
	if isNull(data) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		return &n
	}
	// some backends send page numbers as strings
	if s, ok := decodeString(data); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

func decodeArray(data json.RawMessage) []json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}
