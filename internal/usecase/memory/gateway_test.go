package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/profile"
)

type mockProfileReader struct {
	keys  []string
	getFn func(ctx context.Context, key string) (profile.Profile, error)
}

func (m *mockProfileReader) Get(ctx context.Context, key string) (profile.Profile, error) {
	m.keys = append(m.keys, key)
	return m.getFn(ctx, key)
}

func TestLookup_StoredProfile(t *testing.T) {
	stored := profile.Profile{
		Name:               "Keshav",
		Persona:            "Presiding Officer",
		ContentPreferences: map[string]bool{profile.ShowTwitter: false},
	}
	reader := &mockProfileReader{getFn: func(context.Context, string) (profile.Profile, error) {
		return stored, nil
	}}
	gw := New(reader, time.Second)

	p, err := gw.Lookup(context.Background(), "officer_keshav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.keys[0] != "47af55c7-02e6-5fc4-ba20-e070a222ff55" {
		t.Errorf("unexpected key: %s", reader.keys[0])
	}
	if p.Persona != "Presiding Officer" || p.UserID != "officer_keshav" {
		t.Errorf("unexpected profile: %+v", p)
	}
	if p.Shows(profile.ShowTwitter) {
		t.Error("expected twitter to be hidden")
	}
}

func TestLookup_MissingProfileYieldsDefault(t *testing.T) {
	reader := &mockProfileReader{getFn: func(context.Context, string) (profile.Profile, error) {
		return profile.Profile{}, domain.ErrNotFound
	}}

	p, err := New(reader, 0).Lookup(context.Background(), "guest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Persona != profile.DefaultPersona {
		t.Errorf("persona: got %q", p.Persona)
	}
	if len(p.ContentPreferences) != 0 {
		t.Errorf("expected empty preferences, got %v", p.ContentPreferences)
	}
	if !p.Shows(profile.ShowURLs) {
		t.Error("absent preference must mean show")
	}
}

func TestLookup_StableAcrossCalls(t *testing.T) {
	reader := &mockProfileReader{getFn: func(context.Context, string) (profile.Profile, error) {
		return profile.Profile{Persona: "Journalist", ContentPreferences: map[string]bool{}}, nil
	}}
	gw := New(reader, 0)

	first, err := gw.Lookup(context.Background(), "reporter_1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := gw.Lookup(context.Background(), "reporter_1")
	if err != nil {
		t.Fatal(err)
	}
	if reader.keys[0] != reader.keys[1] {
		t.Errorf("keys differ: %s vs %s", reader.keys[0], reader.keys[1])
	}
	if first.Render() != second.Render() {
		t.Errorf("profiles differ: %s vs %s", first.Render(), second.Render())
	}
}

func TestLookup_StoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	reader := &mockProfileReader{getFn: func(context.Context, string) (profile.Profile, error) {
		return profile.Profile{}, storeErr
	}}

	_, err := New(reader, 0).Lookup(context.Background(), "guest")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestLookup_Timeout(t *testing.T) {
	reader := &mockProfileReader{getFn: func(ctx context.Context, _ string) (profile.Profile, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline on the lookup context")
		}
		<-ctx.Done()
		return profile.Profile{}, ctx.Err()
	}}

	_, err := New(reader, 10*time.Millisecond).Lookup(context.Background(), "guest")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLookup_EmptyUserID(t *testing.T) {
	reader := &mockProfileReader{getFn: func(context.Context, string) (profile.Profile, error) {
		t.Fatal("store must not be called")
		return profile.Profile{}, nil
	}}

	_, err := New(reader, 0).Lookup(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
