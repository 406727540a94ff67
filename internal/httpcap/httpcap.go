// Package httpcap defines the HTTP capability consumed by the
// api-call/verify-api-response/get-api-response intents, per spec.md §6.
// The core depends only on this interface; the reference implementation
// (backed by go-resty/resty) lives in internal/adapters/restyhttp.
package httpcap

import "context"

// Request is one outbound HTTP call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// Response is the capability's result. JSON is populated (as a
// map[string]any or []any) when the response Content-Type permits
// parsing, per spec.md §4.4's api-call contract; Body always carries the
// raw text.
type Response struct {
	Status  int
	Headers map[string]string
	Body    string
	JSON    any
}

// Capability performs one HTTP request.
type Capability interface {
	Do(ctx context.Context, req Request) (Response, error)
}
