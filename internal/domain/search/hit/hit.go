package hit

// Scored is a single search hit of one modality.
// ID is stable across modalities for the same underlying record.
type Scored struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Fused is the ranking unit after reciprocal rank fusion.
// Hit is the first-seen hit for the ID and is the payload source of truth.
type Fused struct {
	ID         string
	FusedScore float64
	Hit        Scored
}
