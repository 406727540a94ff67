package executor

import (
	"sync"

	"aistep/internal/types"
)

// MemorySink is a DiagnosticsSink that keeps every recorded Diagnostic
// in order, for the CLI's run summary and for tests.
type MemorySink struct {
	mu    sync.Mutex
	steps []types.Diagnostic
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Record(d types.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, d)
}

// Steps returns a copy of every diagnostic recorded so far, in order.
func (s *MemorySink) Steps() []types.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Diagnostic, len(s.steps))
	copy(out, s.steps)
	return out
}

// FailureCount reports how many recorded steps ended in OutcomeErr.
func (s *MemorySink) FailureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.steps {
		if d.Outcome == types.OutcomeErr {
			n++
		}
	}
	return n
}
