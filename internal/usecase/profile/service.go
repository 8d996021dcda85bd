package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/profile"
	"github.com/kailas-cloud/factlens/internal/logger"
)

const (
	newUserMarker  = "New User"
	defaultSummary = "User Profile"
)

const systemPrompt = `You maintain the long-term profile of a user of an election misinformation detection assistant.
Update the profile from the latest interaction. Keep stable facts, add new important ones
and ignore transient details.

- persona: e.g. Official for questions about election forms, Citizen, Journalist.
- interaction_style: e.g. Fast when they ask for quick answers, Detailed when they ask for depth.
- content_preferences: show_twitter, show_urls, show_actions; all true unless the user objected.
- name and location: update when the user states them.
- summary: a short narrative of who the user is and what they are investigating, not a chat log.

Reply with JSON only:
{"name": "...", "location": "...", "persona": "...", "interaction_style": "...",
 "content_preferences": {"show_twitter": true, "show_urls": true, "show_actions": true},
 "summary": "..."}`

const userTemplate = "--- EXISTING PROFILE ---\n%s\n\n--- NEW INTERACTION ---\nUser: %s\nAgent: %s"

// Interaction is the last exchange of a conversation.
type Interaction struct {
	UserMessage  string
	AgentMessage string
}

// Service synthesizes and stores user profiles from interactions.
// It is the only writer of profile records.
type Service struct {
	store     Store
	completer domain.Completer
	embedder  domain.Embedder
}

// New creates a profile synthesis service.
// embedder must apply document-side framing ("passage: ") to the summary.
func New(store Store, completer domain.Completer, embedder domain.Embedder) *Service {
	return &Service{store: store, completer: completer, embedder: embedder}
}

// Get returns the stored profile of userID, or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string) (profile.Profile, error) {
	p, err := s.store.Get(ctx, profile.Key(userID))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Update asks the language model for the revised profile of userID and upserts it.
func (s *Service) Update(ctx context.Context, userID string, in Interaction) (profile.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return profile.Profile{}, fmt.Errorf("user id is required: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(in.UserMessage) == "" || strings.TrimSpace(in.AgentMessage) == "" {
		return profile.Profile{}, fmt.Errorf("both interaction messages are required: %w", domain.ErrInvalidRequest)
	}

	log := logger.FromContext(ctx).With(zap.String("user_id", userID))
	key := profile.Key(userID)

	current := newUserMarker
	existing, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		current = existing.Render()
	case errors.Is(err, domain.ErrNotFound):
	default:
		// a stale read only costs personalization, the update can still proceed
		log.Warn("Profile read failed, synthesizing from scratch", zap.Error(err))
	}

	raw, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System: systemPrompt,
		User:   fmt.Sprintf(userTemplate, current, in.UserMessage, in.AgentMessage),
	})
	if err != nil {
		return profile.Profile{}, fmt.Errorf("synthesize profile: %w", err)
	}

	updated, err := parseProfile(raw)
	if err != nil {
		return profile.Profile{}, err
	}
	updated.UserID = userID

	emb, err := s.embedder.Embed(ctx, updated.Summary)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("embed profile summary: %w", err)
	}

	if err := s.store.Upsert(ctx, key, updated, emb.Embedding); err != nil {
		return profile.Profile{}, fmt.Errorf("store profile: %w", err)
	}

	log.Info("Profile updated",
		zap.String("persona", updated.Persona),
		zap.String("interaction_style", updated.InteractionStyle),
	)
	return updated, nil
}

func parseProfile(raw string) (profile.Profile, error) {
	clean := strings.ReplaceAll(raw, "```json", "")
	clean = strings.TrimSpace(strings.ReplaceAll(clean, "```", ""))

	var p profile.Profile
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return profile.Profile{}, fmt.Errorf("decode synthesized profile: %w: %w", err, domain.ErrLLMProviderError)
	}
	if p.Summary == "" {
		p.Summary = defaultSummary
	}
	if p.Persona == "" {
		p.Persona = profile.DefaultPersona
	}
	if p.ContentPreferences == nil {
		p.ContentPreferences = map[string]bool{}
	}
	return p, nil
}
