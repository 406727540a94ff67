package restyhttp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aistep/internal/adapters/restyhttp"
	"aistep/internal/httpcap"
)

func TestClient_Do_ParsesJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true,"count":3}`))
	}))
	defer ts.Close()

	c := restyhttp.New(ts.URL, 5*time.Second)
	resp, err := c.Do(context.Background(), httpcap.Request{Method: "POST", URL: "/widgets"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status)
	require.JSONEq(t, `{"ok":true,"count":3}`, resp.Body)

	parsed, ok := resp.JSON.(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, parsed["ok"])
}

func TestClient_Do_NonJSONBodyLeavesJSONNil(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text"))
	}))
	defer ts.Close()

	c := restyhttp.New(ts.URL, 5*time.Second)
	resp, err := c.Do(context.Background(), httpcap.Request{Method: "GET", URL: "/"})
	require.NoError(t, err)
	require.Equal(t, "plain text", resp.Body)
	require.Nil(t, resp.JSON)
}

func TestClient_Do_SendsHeadersAndBody(t *testing.T) {
	var gotHeader, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Test")
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
	}))
	defer ts.Close()

	c := restyhttp.New(ts.URL, 5*time.Second)
	_, err := c.Do(context.Background(), httpcap.Request{
		Method:  "PUT",
		URL:     "/echo",
		Headers: map[string]string{"X-Test": "abc"},
		Body:    "hello",
	})
	require.NoError(t, err)
	require.Equal(t, "abc", gotHeader)
	require.Equal(t, "hello", gotBody)
}
