// Package restyhttp is the reference HTTP capability binding backed by
// github.com/go-resty/resty/v2, grounded on the compozy engine's use of
// resty as its outbound HTTP client (see other_examples' compozy go.mod).
// It implements httpcap.Capability for the api-call/verify-api-response/
// get-api-response intents (spec.md §4.4).
package restyhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"aistep/internal/httpcap"
)

// Client wraps a configured resty.Client as an httpcap.Capability.
type Client struct {
	rc *resty.Client
}

// New builds a Client with baseURL (may be "" for absolute request URLs)
// and a per-request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0)
	return &Client{rc: rc}
}

// Do issues one HTTP request and normalises the result into
// httpcap.Response, attempting a JSON decode of the body per spec.md
// §4.4's "parse as JSON when possible" api-call contract.
func (c *Client) Do(ctx context.Context, req httpcap.Request) (httpcap.Response, error) {
	r := c.rc.R().SetContext(ctx)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if req.Body != "" {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return httpcap.Response{}, fmt.Errorf("http %s %s: %w", req.Method, req.URL, err)
	}

	headers := map[string]string{}
	for k := range resp.Header() {
		headers[k] = resp.Header().Get(k)
	}

	out := httpcap.Response{
		Status:  resp.StatusCode(),
		Headers: headers,
		Body:    string(resp.Body()),
	}
	var parsed any
	if json.Unmarshal(resp.Body(), &parsed) == nil {
		out.JSON = parsed
	}
	return out, nil
}
