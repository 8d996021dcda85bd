package turn

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/factlens/internal/domain"
)

// NoImage is what the planner sees when no image was uploaded with the turn.
const NoImage = "None"

// Turn is one user message of a conversation thread.
type Turn struct {
	UserID       string
	ThreadID     string
	Text         string
	ImageLocator string
}

// Validate checks that the turn carries a user and something to answer.
func (t Turn) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return fmt.Errorf("user id is required: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(t.Text) == "" && strings.TrimSpace(t.ImageLocator) == "" {
		return fmt.Errorf("text or image is required: %w", domain.ErrInvalidRequest)
	}
	return nil
}

// PlanRequest is the input of the query planner.
type PlanRequest struct {
	UserQuery    string
	UserContext  string
	ImageLocator string
}

// ImageOrNone returns the locator, or NoImage when the turn has no image.
func (r PlanRequest) ImageOrNone() string {
	if strings.TrimSpace(r.ImageLocator) == "" {
		return NoImage
	}
	return r.ImageLocator
}

// AnswerRequest is the input of the responder.
type AnswerRequest struct {
	UserQuery   string
	UserContext string
	Evidence    string
}
