// Package common provides small shared utilities: stage timing for run
// reports and memory statistics for the benchmark tool.
package common

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Timer measures one interval from its start.
type Timer struct {
	start time.Time
}

// StartTimer begins measuring.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started.
func (t Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stages accumulates named stage durations across a run, preserving the
// order in which stages were first recorded.
type Stages struct {
	order  []string
	totals map[string]time.Duration
}

// NewStages creates an empty stage accumulator.
func NewStages() *Stages {
	return &Stages{totals: make(map[string]time.Duration)}
}

// Add accumulates a duration under the stage name.
func (s *Stages) Add(name string, d time.Duration) {
	if _, ok := s.totals[name]; !ok {
		s.order = append(s.order, name)
	}
	s.totals[name] += d
}

// Get returns the accumulated duration for a stage, zero if unknown.
func (s *Stages) Get(name string) time.Duration {
	return s.totals[name]
}

// Names returns the stage names in first-recorded order.
func (s *Stages) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Total returns the sum over all stages.
func (s *Stages) Total() time.Duration {
	var sum time.Duration
	for _, d := range s.totals {
		sum += d
	}
	return sum
}

// String renders the stages as "name: dur" pairs in recorded order.
func (s *Stages) String() string {
	parts := make([]string, 0, len(s.order))
	for _, name := range s.order {
		parts = append(parts, fmt.Sprintf("%s: %v", name, s.totals[name]))
	}
	return strings.Join(parts, ", ")
}

// Slowest returns the stage names sorted by descending duration.
func (s *Stages) Slowest() []string {
	names := s.Names()
	sort.SliceStable(names, func(i, j int) bool {
		return s.totals[names[i]] > s.totals[names[j]]
	})
	return names
}
