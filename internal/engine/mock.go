package engine

import (
	"context"
	"image"
	"sync"

	"github.com/textsift/textsift/internal/aggregate"
)

// Mock is a scripted engine for tests and the CLI integration suite. Each
// Recognize call for a language pops the next detection set from that
// language's queue; an exhausted queue yields empty pages.
type Mock struct {
	Langs []string
	Err   error // returned by every Recognize call when set

	mu     sync.Mutex
	queues map[string][][]aggregate.Detection
	calls  int
}

// NewMock builds a mock for the given languages with empty queues.
func NewMock(langs ...string) *Mock {
	return &Mock{
		Langs:  langs,
		queues: make(map[string][][]aggregate.Detection),
	}
}

// Script appends detection sets to a language's queue, one per future
// Recognize call.
func (m *Mock) Script(lang string, pages ...[]aggregate.Detection) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queues == nil {
		m.queues = make(map[string][][]aggregate.Detection)
	}
	m.queues[lang] = append(m.queues[lang], pages...)
	return m
}

// Recognize pops the next scripted detection set for lang.
func (m *Mock) Recognize(ctx context.Context, _ image.Image, lang string) ([]aggregate.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	queue := m.queues[lang]
	if len(queue) == 0 {
		return []aggregate.Detection{}, nil
	}
	next := queue[0]
	m.queues[lang] = queue[1:]
	out := make([]aggregate.Detection, len(next))
	copy(out, next)
	return out, nil
}

// Languages returns the scripted language codes.
func (m *Mock) Languages() []string {
	out := make([]string, len(m.Langs))
	copy(out, m.Langs)
	return out
}

// Calls reports how many Recognize calls were made.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }
