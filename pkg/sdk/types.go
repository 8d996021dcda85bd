package factlens

import "github.com/kailas-cloud/factlens/internal/domain/profile"

// Turn is one user message of a conversation.
// Turns sharing a ThreadID run one at a time; different threads run concurrently.
type Turn struct {
	UserID   string
	ThreadID string
	Text     string
	// Image is an optional URL or local path of an uploaded image.
	Image string
}

// Answer is the outcome of a turn.
type Answer struct {
	Text string
	// Plan lists the executed search steps; PlanFallback marks a synthesized single-step plan.
	Plan         []PlanStep
	PlanFallback bool
	Evidence     []Evidence
	// Bundle is the labeled evidence text the answer was composed from.
	Bundle  string
	Profile Profile
}

// PlanStep is one retrieval instruction.
type PlanStep struct {
	Tool    string
	Query   string
	Filters map[string]any
	Purpose string
}

// Evidence is the outcome of one plan step. Err is set when the step failed.
type Evidence struct {
	Step    int
	Purpose string
	Tool    string
	Hits    []Hit
	Err     error
}

// Hit is a knowledge base record returned by a step.
type Hit struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Profile is the long-term memory of a user.
type Profile struct {
	UserID             string
	Name               string
	Location           string
	Persona            string
	InteractionStyle   string
	ContentPreferences map[string]bool
	Summary            string
}

// Interaction is an exchange to fold into the user profile.
type Interaction struct {
	UserMessage  string
	AgentMessage string
}

func profileFromDomain(p profile.Profile) Profile {
	return Profile{
		UserID:             p.UserID,
		Name:               p.Name,
		Location:           p.Location,
		Persona:            p.Persona,
		InteractionStyle:   p.InteractionStyle,
		ContentPreferences: p.ContentPreferences,
		Summary:            p.Summary,
	}
}
