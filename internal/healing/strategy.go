package healing

import (
	"context"

	"aistep/internal/types"
)

// Result is a strategy's successful outcome: a replacement handle and the
// confidence the strategy has in it, per spec.md §3's HealingStrategy record.
type Result struct {
	Handle     types.ElementHandle
	Confidence float64
}

// Strategy is one rung of the healing ladder: a name, a stable priority
// (higher value tried first, the reverse of the grammar registry's order),
// a trigger predicate, and the attempt itself.
type Strategy struct {
	Name     string
	Priority int
	Trigger  func(hc *Context) bool
	Try      func(ctx context.Context, hc *Context, e *Engine) (Result, error)

	// BypassConfidenceGate marks a strategy whose success is judged by
	// err == nil alone: it already performed the real action on the live
	// page (e.g. force-click's actionability-bypassing click), so a low
	// Result.Confidence is a diagnostics label, not a reason to treat an
	// action that already happened as having failed.
	BypassConfidenceGate bool
}
