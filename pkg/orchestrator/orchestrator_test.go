package orchestrator

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/harminx/harminx/pkg/harconfig"
)

func TestRunEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	harJSON := fmt.Sprintf(`{
		"log": {
			"entries": [
				{"request": {"method": "GET", "url": "%s/ping", "headers": [{"name": "X-Trace", "value": "1"}]}}
			]
		}
	}`, server.URL)

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.har")
	require.NoError(t, os.WriteFile(inputPath, []byte(harJSON), 0o644))

	cfg := harconfig.Default()
	cfg.InputHAR = inputPath
	cfg.ReportPath = filepath.Join(dir, "report.json")
	cfg.OutputHAR = filepath.Join(dir, "out.har")
	cfg.Client.RateLimit.MaxConcurrent = 2

	orch, err := New(cfg, logrus.New())
	require.NoError(t, err)

	entries, err := orch.Run(t.Context(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Matched)
	require.Equal(t, 0, entries[0].Headers.Final)

	require.FileExists(t, cfg.ReportPath)
	require.FileExists(t, cfg.OutputHAR)
}
