package analysis

import (
	"encoding/json"
	"testing"
)

func TestResultDecodeTolerant(t *testing.T) {
	payload := `{
		"summary": "ok",
		"findings": [
			{"issue": "Cap", "risk": "High", "span": {"page": "2", "start": 5, "end": null}},
			"not an object",
			{"issue": 7, "suggestion": "Fix"},
			{"issue": "Empty span", "span": {}}
		],
		"citations": [{"page": 1, "snippet": "text"}, 3],
		"raw_json": {"model": "x"}
	}`
	var r Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.Summary != "ok" || len(r.Findings) != 3 || len(r.Citations) != 1 {
		t.Fatalf("result = %+v", r)
	}
	first := r.Findings[0]
	if *first.Risk != "High" || *first.Span.Page != 2 || *first.Span.Start != 5 || first.Span.End != nil {
		t.Errorf("first finding = %+v span = %+v", first, first.Span)
	}
	if r.Findings[1].Issue != "" || *r.Findings[1].Suggestion != "Fix" {
		t.Errorf("second finding = %+v", r.Findings[1])
	}
	if r.Findings[2].Span != nil {
		t.Errorf("empty span kept: %+v", r.Findings[2].Span)
	}
	if !r.HasRawJSON() {
		t.Error("raw json dropped")
	}
}

func TestResultDecodeWrongShapes(t *testing.T) {
	var r Result
	if err := json.Unmarshal([]byte(`{"summary": 5, "findings": {}, "citations": "x", "raw_json": null}`), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.Summary != "" || r.Findings != nil || r.Citations != nil || r.HasRawJSON() {
		t.Errorf("result = %+v", r)
	}
	if err := json.Unmarshal([]byte(`[1]`), &r); err == nil {
		t.Error("expected an error for a non-object payload")
	}
}
