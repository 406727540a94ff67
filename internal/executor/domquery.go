package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"aistep/internal/types"
)

// urlParam reads one query-string parameter from a page URL, returning
// "" if absent or if rawURL doesn't parse — a malformed current URL is
// never expected to fail a get/verify-url-param step outright.
func urlParam(rawURL, name string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(name)
}

// evalOnElement runs script against a resolved element, passing the
// element's capability-native handle as the first evaluate argument —
// the same "live element + JS" shape as the teacher's rod-backed
// el.Eval(js, args...) calls in honeypot.go, generalised through the
// page capability's global Evaluate instead of a rod-specific method.
func evalOnElement(ctx context.Context, rc *RuntimeContext, handle types.ElementHandle, script string, extra ...any) (string, error) {
	args := append([]any{handle.Native}, extra...)
	return rc.Page.Evaluate(ctx, script, args)
}

// apiResponseField extracts "status" or "body" from the JSON blob
// doAPICall stashes under the "__apiResponse" scenario key.
func apiResponseField(raw string, field string) (string, error) {
	var parsed struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("parsing stored api response: %w", err)
	}
	switch field {
	case "status":
		return fmt.Sprintf("%d", parsed.Status), nil
	case "body":
		return parsed.Body, nil
	default:
		return "", fmt.Errorf("unknown api response field %q", field)
	}
}
