package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/search/tool"
)

const (
	// FallbackPurpose labels the single step synthesized when the planner output is unusable.
	FallbackPurpose = "Fallback search"
	// DefaultPurpose labels steps the planner left without a purpose.
	DefaultPurpose = "General Search"
)

var errEmptyPlan = errors.New("plan has no steps")

// Step is one retrieval instruction produced by the planner.
// Tool is kept verbatim so that an unknown tool fails only its own step.
type Step struct {
	Tool    string         `json:"tool"`
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters,omitempty"`
	Purpose string         `json:"purpose"`

	// Invalid is set when the planner emitted this step with a malformed field.
	// The step still occupies its slot and fails on its own when executed.
	Invalid error `json:"-"`
}

// Fallback returns the single-step plan used when the planner output cannot be parsed.
func Fallback(userQuery string) []Step {
	return []Step{{
		Tool:    string(tool.Hybrid),
		Query:   userQuery,
		Purpose: FallbackPurpose,
	}}
}

// Parse decodes planner output into steps.
// Markdown code fences around the array are tolerated. Only output that is not
// a non-empty JSON array yields a *domain.PlannerFormatError. A malformed
// element becomes a step with Invalid set, so the rest of the plan survives.
func Parse(raw string) ([]Step, error) {
	clean := stripFences(raw)
	if !strings.HasPrefix(clean, "[") {
		return nil, &domain.PlannerFormatError{Raw: raw, Err: fmt.Errorf("expected a JSON array")}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(clean)))
	var elems []json.RawMessage
	if err := dec.Decode(&elems); err != nil {
		return nil, &domain.PlannerFormatError{Raw: raw, Err: err}
	}
	if dec.More() {
		return nil, &domain.PlannerFormatError{Raw: raw, Err: fmt.Errorf("trailing data after plan array")}
	}
	if len(elems) == 0 {
		return nil, &domain.PlannerFormatError{Raw: raw, Err: errEmptyPlan}
	}

	steps := make([]Step, len(elems))
	for i, elem := range elems {
		steps[i] = parseStep(elem)
	}
	return steps, nil
}

func parseStep(elem json.RawMessage) Step {
	step := Step{Purpose: DefaultPurpose}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
		step.Invalid = &domain.ConfigurationError{Field: "step", Reason: "expected a JSON object"}
		return step
	}

	// Purpose and tool are read first so a failed step is still labelled.
	if s, ok := optionalString(fields["purpose"]); ok && strings.TrimSpace(s) != "" {
		step.Purpose = s
	}
	tl, ok := optionalString(fields["tool"])
	if !ok {
		step.Invalid = &domain.ConfigurationError{Field: "tool", Reason: "expected a string"}
		return step
	}
	step.Tool = tl

	q, ok := optionalString(fields["query"])
	if !ok {
		step.Invalid = &domain.ConfigurationError{Field: "query", Reason: "expected a string"}
		return step
	}
	step.Query = q

	filters, err := decodeFilters(fields["filters"])
	if err != nil {
		step.Invalid = err
		return step
	}
	step.Filters = filters
	return step
}

// optionalString reads a JSON string. An absent or null value is the empty string.
func optionalString(v json.RawMessage) (string, bool) {
	if isNull(v) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeFilters reads the filter mapping. Absent, null, [] and {} all match everything.
func decodeFilters(v json.RawMessage) (map[string]any, error) {
	if isNull(v) {
		return nil, nil
	}
	trimmed := bytes.TrimSpace(v)
	if trimmed[0] == '[' {
		var list []any
		if err := json.Unmarshal(trimmed, &list); err == nil && len(list) == 0 {
			return nil, nil
		}
	}
	if trimmed[0] != '{' {
		return nil, &domain.ConfigurationError{Field: "filters", Reason: "expected an object of field conditions"}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, &domain.ConfigurationError{Field: "filters", Reason: err.Error()}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func isNull(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
