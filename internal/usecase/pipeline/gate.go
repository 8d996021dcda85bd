package pipeline

import (
	"context"
	"sync"
)

// ThreadGate serializes turns of one conversation thread.
// Different threads never wait on each other.
type ThreadGate struct {
	mu      sync.Mutex
	threads map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

// NewThreadGate creates an empty gate.
func NewThreadGate() *ThreadGate {
	return &ThreadGate{threads: make(map[string]*slot)}
}

// Acquire blocks until the thread is free or ctx is done.
// The returned release must be called exactly once.
func (g *ThreadGate) Acquire(ctx context.Context, threadID string) (func(), error) {
	g.mu.Lock()
	s, ok := g.threads[threadID]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		g.threads[threadID] = s
	}
	s.refs++
	g.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		g.unref(threadID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.sem
			g.unref(threadID, s)
		})
	}, nil
}

func (g *ThreadGate) unref(threadID string, s *slot) {
	g.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(g.threads, threadID)
	}
	g.mu.Unlock()
}

// active returns the number of tracked threads.
func (g *ThreadGate) active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.threads)
}
