package driver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/require"

	"qubot/builder"
	"qubot/ui"
)

func TestDefaults(t *testing.T) {
	d := New(Config{})
	require.Equal(t, 30*time.Second, d.cfg.Timeout)
	require.Equal(t, 1, d.cfg.Retries, "Every fetch is tried at least once")
	require.NoError(t, d.Close(), "Closing an unstarted driver is a no-op")
}

// Needs a local Chrome; set QUBOT_BROWSER_TESTS to run.
func TestFetch(t *testing.T) {
	if os.Getenv("QUBOT_BROWSER_TESTS") == "" {
		t.Skip("QUBOT_BROWSER_TESTS not set")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no browser found")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a id="go" href="/next">Go</a></body></html>`))
	}))
	defer server.Close()

	d := New(Config{Headless: true, Timeout: 10 * time.Second})
	defer d.Close()

	page, err := d.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	tree, err := builder.Build(page)
	require.NoError(t, err)
	require.NotNil(t, tree.FindByMetadata(ui.Selector{ID: "go"}))
}
