package evidence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/factlens/internal/domain/search/hit"
)

const (
	sectionFooter = "========================================="
	noResults     = "No results."
	errorPrefix   = "ERROR: "
)

// Entry is the slot of one plan step in the retrieval log.
// Exactly one of Hits or Err is meaningful: a non-nil Err marks the step failed.
type Entry struct {
	Index   int
	Purpose string
	Tool    string
	Hits    []hit.Scored
	Err     error
}

// Failed reports whether the step carries an error marker.
func (e Entry) Failed() bool { return e.Err != nil }

// Results renders the hits of the entry, or its error marker.
func (e Entry) Results() string {
	if e.Err != nil {
		return errorPrefix + e.Err.Error()
	}
	if len(e.Hits) == 0 {
		return noResults
	}

	var b strings.Builder
	for i, h := range e.Hits {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d] id=%s score=%.4f\n%s", i+1, h.ID, h.Score, renderPayload(h.Payload))
	}
	return b.String()
}

// Log is the ordered retrieval log of one request, one entry per plan step.
type Log []Entry

// Bundle serializes the log into the labeled evidence text handed to the responder.
func (l Log) Bundle() string {
	sections := make([]string, len(l))
	for i, e := range l {
		sections[i] = fmt.Sprintf("=== STEP %d: %s ===\nTOOL: %s\nRESULTS:\n%s\n%s\n",
			e.Index+1, e.Purpose, e.Tool, e.Results(), sectionFooter)
	}
	return strings.Join(sections, "\n")
}

// Failures counts entries marked as errors.
func (l Log) Failures() int {
	n := 0
	for _, e := range l {
		if e.Failed() {
			n++
		}
	}
	return n
}

// renderPayload uses json.Marshal because it sorts map keys, keeping the bundle stable.
func renderPayload(p map[string]any) string {
	if len(p) == 0 {
		return "{}"
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", p)
	}
	return string(b)
}
