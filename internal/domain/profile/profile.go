package profile

import (
	"encoding/json"

	"github.com/google/uuid"
)

// DefaultPersona is the persona of a user without a stored profile.
const DefaultPersona = "General Public"

// Well-known content preference flags. A missing flag means "show".
const (
	ShowTwitter = "show_twitter"
	ShowURLs    = "show_urls"
	ShowActions = "show_actions"
)

// Profile is the structured long-term memory of one user.
type Profile struct {
	UserID             string          `json:"user_id,omitempty"`
	Name               string          `json:"name,omitempty"`
	Location           string          `json:"location,omitempty"`
	Persona            string          `json:"persona"`
	InteractionStyle   string          `json:"interaction_style,omitempty"`
	ContentPreferences map[string]bool `json:"content_preferences"`
	Summary            string          `json:"summary,omitempty"`
}

// Default returns the profile of a new user: a generic persona with no preferences set.
func Default(userID string) Profile {
	return Profile{
		UserID:             userID,
		Persona:            DefaultPersona,
		ContentPreferences: map[string]bool{},
	}
}

// Key derives the stable record key of a user.
// It is a name-based UUID (version 5) in the OID namespace, so the same
// user id always resolves to the same record without a lookup index.
func Key(userID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID)).String()
}

// Shows reports whether the user allows a content kind. Absent flags allow it.
func (p Profile) Shows(flag string) bool {
	v, ok := p.ContentPreferences[flag]
	return !ok || v
}

// Render produces the user context handed to the planner and responder.
func (p Profile) Render() string {
	if p.ContentPreferences == nil {
		p.ContentPreferences = map[string]bool{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		// Only string and bool fields: marshaling cannot fail.
		return "{}"
	}
	return string(b)
}
