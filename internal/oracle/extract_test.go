package oracle

import (
	"errors"
	"testing"
)

type decisionPayload struct {
	Accepted   []int `json:"accepted"`
	Rejected   []int `json:"rejected"`
	Confidence int   `json:"confidence"`
}

func TestExtractJSON_BareObject(t *testing.T) {
	var p decisionPayload
	err := ExtractJSON(`{"accepted":[1,2],"rejected":[3],"confidence":90}`, &p)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if len(p.Accepted) != 2 || p.Confidence != 90 {
		t.Errorf("payload = %+v, want accepted=[1 2] confidence=90", p)
	}
}

func TestExtractJSON_FencedWithProse(t *testing.T) {
	text := "Here is my analysis of the decisions:\n\n```json\n" +
		`{"accepted":[1],"rejected":[],"confidence":75}` +
		"\n```\n\nLet me know if you need anything else."

	var p decisionPayload
	if err := ExtractJSON(text, &p); err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if len(p.Accepted) != 1 || p.Confidence != 75 {
		t.Errorf("payload = %+v, want accepted=[1] confidence=75", p)
	}
}

func TestExtractJSON_SkipsBrokenCandidate(t *testing.T) {
	// A stray opening brace before the real payload must not abort the scan.
	text := `the set {a, b} maps to {"accepted":[2],"rejected":[1],"confidence":80}`

	var p decisionPayload
	if err := ExtractJSON(text, &p); err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if len(p.Accepted) != 1 || p.Accepted[0] != 2 {
		t.Errorf("payload = %+v, want accepted=[2]", p)
	}
}

func TestExtractJSON_Array(t *testing.T) {
	var items []map[string]any
	text := "Results:\n[{\"state\":\"decided\",\"text\":\"Dark mode\"}]"
	if err := ExtractJSON(text, &items); err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
}

func TestExtractJSON_NoPayload(t *testing.T) {
	var p decisionPayload
	err := ExtractJSON("I could not decide anything, sorry!", &p)
	if !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("err = %v, want ErrMalformedOutput", err)
	}
}

func TestExtractJSON_WrongShapeEverywhere(t *testing.T) {
	var items []int
	err := ExtractJSON(`{"accepted":1}`, &items)
	if !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("err = %v, want ErrMalformedOutput", err)
	}
}
