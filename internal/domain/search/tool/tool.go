package tool

import (
	"fmt"
	"strings"
)

// Tool is the retrieval strategy of one plan step.
type Tool string

// Tool constants.
const (
	// Hybrid runs Dense and Sparse and fuses them with RRF.
	Hybrid Tool = "hybrid"
	Dense  Tool = "dense"
	Sparse Tool = "sparse"
	// Image searches the visual vector space with an image locator as query.
	Image Tool = "image"
)

// planners sometimes name tools after the function they call.
const legacyPrefix = "search_"

// IsValid checks if the tool is one of the supported values.
func (t Tool) IsValid() bool {
	return t == Hybrid || t == Dense || t == Sparse || t == Image
}

// Parse maps a planner-supplied name to a Tool. Names are matched
// case-insensitively and an optional "search_" prefix is accepted
// for the same tool. It never maps one tool onto another.
func Parse(name string) (Tool, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, legacyPrefix)
	t := Tool(n)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return t, nil
}
