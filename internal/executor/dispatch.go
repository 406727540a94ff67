package executor

import (
	"context"
	"fmt"

	"aistep/internal/types"
)

// handlerFunc is one intent kind's effect: given the resolved handle (nil
// for page-level intents) it performs the effect and returns the value a
// query/generate/api-call/evaluate-js kind should store, or the zero
// Value for pure-effect action kinds.
type handlerFunc func(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error)

// dispatch routes an intent to its family's handler table, per spec.md
// §4.4's per-intent contracts.
func (e *Executor) dispatch(ctx context.Context, intent types.Intent, rc *RuntimeContext, handle *types.ElementHandle) (types.Value, error) {
	if h, ok := actionHandlers[intent.Kind]; ok {
		return h(ctx, e, rc, intent, handle)
	}
	if ev, ok := assertionEvaluators[intent.Kind]; ok {
		return noValue(), e.runAssertion(ctx, intent, rc, handle, ev)
	}
	if h, ok := queryHandlers[intent.Kind]; ok {
		return h(ctx, e, rc, intent, handle)
	}
	return types.Value{}, &types.InternalError{Msg: fmt.Sprintf("no executor handler registered for intent kind %q", intent.Kind)}
}

func noValue() types.Value { return types.Value{Kind: types.ValueNone} }
