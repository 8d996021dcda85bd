package plan

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/factlens/internal/domain"
)

func TestParse_Valid(t *testing.T) {
	raw := `[{"tool":"hybrid","query":"VVPAT unit price cost","filters":{},"purpose":"Find the cost"}]`

	steps, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	if steps[0].Tool != "hybrid" || steps[0].Query != "VVPAT unit price cost" {
		t.Errorf("unexpected step: %+v", steps[0])
	}
	if steps[0].Purpose != "Find the cost" {
		t.Errorf("purpose: got %q", steps[0].Purpose)
	}
}

func TestParse_StripsFences(t *testing.T) {
	raw := "```json\n[{\"tool\":\"search_image\",\"query\":\"photo.jpg\",\"purpose\":\"Check image\"}," +
		"{\"tool\":\"search_hybrid\",\"query\":\"EVM hacking claim\",\"purpose\":\"Check claim\"}]\n```"

	steps, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Tool != "search_image" || steps[1].Tool != "search_hybrid" {
		t.Errorf("order not preserved: %+v", steps)
	}
}

func TestParse_NumbersKeepPrecision(t *testing.T) {
	steps, err := Parse(`[{"tool":"dense","query":"q","filters":{"trust_score":0.8}}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := steps[0].Filters["trust_score"].(json.Number)
	if !ok {
		t.Fatalf("expected json.Number, got %T", steps[0].Filters["trust_score"])
	}
	if n.String() != "0.8" {
		t.Errorf("trust_score: got %s", n)
	}
}

func TestParse_DefaultPurpose(t *testing.T) {
	steps, err := Parse(`[{"tool":"sparse","query":"Form 17C"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if steps[0].Purpose != DefaultPurpose {
		t.Errorf("purpose: got %q", steps[0].Purpose)
	}
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "not json"},
		{"object", `{"tool":"hybrid","query":"q"}`},
		{"truncated", `[{"tool":"hybrid"`},
		{"empty array", `[]`},
		{"trailing", `[{"tool":"hybrid","query":"q"}] [1]`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			var pfe *domain.PlannerFormatError
			if !errors.As(err, &pfe) {
				t.Fatalf("expected PlannerFormatError, got %v", err)
			}
			if pfe.Raw != tt.raw {
				t.Errorf("raw: got %q", pfe.Raw)
			}
		})
	}
}

func TestParse_EmptyFiltersMatchAll(t *testing.T) {
	raw := `[{"tool":"image","query":"photo.jpg","filters":{},"purpose":"Identify"},` +
		`{"tool":"hybrid","query":"EVM hacking","filters":[],"purpose":"Verify"},` +
		`{"tool":"dense","query":"q","filters":null}]`

	steps, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	for i, s := range steps {
		if s.Invalid != nil {
			t.Errorf("step %d: unexpected invalid: %v", i, s.Invalid)
		}
		if s.Filters != nil {
			t.Errorf("step %d: expected no filters, got %v", i, s.Filters)
		}
	}
}

func TestParse_MalformedStepKeepsItsSlot(t *testing.T) {
	tests := []struct {
		name  string
		elem  string
		field string
	}{
		{"string filters", `{"tool":"hybrid","query":"q","filters":"category=News","purpose":"Bad"}`, "filters"},
		{"list filters", `{"tool":"hybrid","query":"q","filters":["News"],"purpose":"Bad"}`, "filters"},
		{"numeric query", `{"tool":"sparse","query":17,"purpose":"Bad"}`, "query"},
		{"numeric tool", `{"tool":3,"query":"q","purpose":"Bad"}`, "tool"},
		{"bare string", `"hybrid"`, "step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `[{"tool":"image","query":"photo.jpg","purpose":"Identify"},` + tt.elem + `]`
			steps, err := Parse(raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(steps) != 2 {
				t.Fatalf("expected 2 steps, got %d", len(steps))
			}
			if steps[0].Invalid != nil || steps[0].Tool != "image" {
				t.Errorf("valid step disturbed: %+v", steps[0])
			}
			var cfgErr *domain.ConfigurationError
			if !errors.As(steps[1].Invalid, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", steps[1].Invalid)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field: got %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestParse_MalformedStepKeepsPurpose(t *testing.T) {
	steps, err := Parse(`[{"tool":"hybrid","query":17,"purpose":"Check the claim"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if steps[0].Purpose != "Check the claim" || steps[0].Tool != "hybrid" {
		t.Errorf("labels lost: %+v", steps[0])
	}
}

func TestFallback(t *testing.T) {
	steps := Fallback("How much does a VVPAT cost?")
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	s := steps[0]
	if s.Tool != "hybrid" {
		t.Errorf("tool: got %q", s.Tool)
	}
	if s.Query != "How much does a VVPAT cost?" {
		t.Errorf("query: got %q", s.Query)
	}
	if s.Filters != nil {
		t.Errorf("filters: expected none, got %v", s.Filters)
	}
	if s.Purpose != FallbackPurpose {
		t.Errorf("purpose: got %q", s.Purpose)
	}
}
