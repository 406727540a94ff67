// Package healing implements the Self-Healing Engine of spec.md §4.3: a
// ranked strategy ladder that produces a replacement element handle after
// a recoverable action failure, or surfaces the original error unchanged.
package healing

import (
	"aistep/internal/page"
	"aistep/internal/types"
)

// FailureKind classifies why the original action failed, driving which
// strategies are eligible to trigger (spec.md §4.3's trigger-conditions
// column).
type FailureKind string

const (
	FailureNotVisible   FailureKind = "not-visible"
	FailureIntercepted  FailureKind = "intercepted"
	FailureDetached     FailureKind = "detached"
	FailureNotFound     FailureKind = "not-found"
	FailureNotActionable FailureKind = "not-actionable"
)

// ClassifyFailure maps one of the core's tagged error variants onto the
// FailureKind vocabulary the strategy ladder triggers on. The second
// return value is false when the error is not one the healing engine
// should ever see (caller already checked Recoverable() per spec.md §7).
func ClassifyFailure(err error) (FailureKind, bool) {
	switch e := err.(type) {
	case *types.ActionError:
		switch e.Kind {
		case types.ActionNotActionable:
			return FailureNotActionable, true
		case types.ActionIntercepted:
			return FailureIntercepted, true
		case types.ActionDetached:
			return FailureDetached, true
		case types.ActionNotFound:
			return FailureNotFound, true
		}
	case *types.TimeoutError:
		if e.VisibilityWait {
			return FailureNotVisible, true
		}
	case *types.ResolveError:
		if e.Reason == types.ResolveNotFound {
			return FailureNotFound, true
		}
	}
	return "", false
}

// Context carries everything a strategy needs to attempt a heal, per
// spec.md §4.3's "ctx carries the original targetDescription, the
// failing error, a snapshot of page URL ..., and the scenario's history".
type Context struct {
	TargetDescription string
	IntentKind        types.IntentKind // "" for page-level callers
	ElementKind       string           // tag/role of the element involved, for learning aggregation
	FailureKind       FailureKind
	OriginalErr       error
	PreviousHandle    *types.ElementHandle // nil if the original resolve itself failed
	Page              page.Page
}
