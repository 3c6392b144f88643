package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gumtree-monitor/internal/observability"
)

func newTestRodFetcher(t *testing.T, timeoutMS int) *RodFetcher {
	t.Helper()
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("chromium not installed")
	}

	cfg := testConfig()
	cfg.Rod.Enabled = true
	cfg.Rod.ChromePath = bin
	cfg.HTTP.TotalTimeoutMS = timeoutMS

	rf, err := NewRodFetcher(cfg, observability.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rf.Close() })
	return rf
}

func TestRodFetchTimeoutClosesTab(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rf := newTestRodFetcher(t, 300)

	before, err := rf.browser.Pages()
	require.NoError(t, err)

	_, err = rf.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		after, err := rf.browser.Pages()
		return err == nil && len(after) == len(before)
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRodFetchReturnsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><article class="listing-maxi">rendered</article></body></html>`))
	}))
	defer srv.Close()

	rf := newTestRodFetcher(t, 20000)

	resp, err := rf.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "rendered")
}
