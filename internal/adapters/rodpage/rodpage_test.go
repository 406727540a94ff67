//go:build integration

package rodpage_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aistep/internal/adapters/rodpage"
	"aistep/internal/page"
)

func TestRodPage_NavigateQueryClick(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><body>
			<button id="go">Click me</button>
			<script>document.getElementById('go').onclick = () => document.title = 'clicked'</script>
		</body></html>`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := rodpage.DefaultOptions()
	p, err := rodpage.New(ctx, opts)
	require.NoError(t, err)
	defer p.Close(ctx)

	require.NoError(t, p.Goto(ctx, ts.URL))

	handles, err := p.QueryCSS(ctx, "#go")
	require.NoError(t, err)
	require.Len(t, handles, 1)

	require.NoError(t, p.Click(ctx, handles[0], page.ClickOptions{}))

	title, err := p.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, "clicked", title)
}

func TestRodPage_StorageRoundTrips(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><body>ok</body></html>`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := rodpage.New(ctx, rodpage.DefaultOptions())
	require.NoError(t, err)
	defer p.Close(ctx)

	require.NoError(t, p.Goto(ctx, ts.URL))

	_, ok, err := p.GetStorageItem(ctx, page.StorageLocal, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, p.SetStorageItem(ctx, page.StorageLocal, "k", "v"))
	v, ok, err := p.GetStorageItem(ctx, page.StorageLocal, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestRodPage_RecentConsoleAndNetworkCaptureEvents(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		fmt.Fprintln(w, `<html><body>
			<script>
				console.log('hello from page');
				fetch('/ping');
			</script>
		</body></html>`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := rodpage.New(ctx, rodpage.DefaultOptions())
	require.NoError(t, err)
	defer p.Close(ctx)

	require.NoError(t, p.Goto(ctx, ts.URL))
	require.Eventually(t, func() bool {
		console, err := p.RecentConsole(ctx, 5)
		return err == nil && len(console) > 0
	}, 5*time.Second, 100*time.Millisecond)

	require.Eventually(t, func() bool {
		network, err := p.RecentNetwork(ctx, 5)
		return err == nil && len(network) > 0
	}, 5*time.Second, 100*time.Millisecond)
}
