package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harminx/harminx/pkg/harmodel"
)

func TestBuildEntryRecordsCounts(t *testing.T) {
	body := `{"a":1}`
	status := 200
	item := harmodel.ProcessedRequest{
		Request: harmodel.RequestData{
			Index:    3,
			Method:   "POST",
			URL:      "http://a/x",
			Headers:  []harmodel.Header{{Name: "X-Foo", Value: "1"}, {Name: "X-Bar", Value: "2"}},
			BodyText: &body,
			MimeType: "application/json",
		},
		Baseline: harmodel.ResponseSnapshot{StatusCode: &status},
		Result: harmodel.MinimizationResult{
			Headers:          []harmodel.Header{{Name: "X-Foo", Value: "1"}},
			BodyText:         &body,
			HeaderCandidates: 2,
			BodyCandidates:   1,
			Matched:          true,
			Response:         &harmodel.ResponseSnapshot{StatusCode: &status},
		},
	}

	entry := BuildEntry("auto", item)

	require.Equal(t, 3, entry.Index)
	require.True(t, entry.Matched)
	require.Equal(t, 2, entry.Headers.Original)
	require.Equal(t, 1, entry.Headers.Final)
	require.Equal(t, 2, entry.Headers.Candidates)
	require.Equal(t, 1, entry.Body.Original)
}

func TestWriterWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	w := New(path, "")
	require.NoError(t, w.Write([]Entry{{Index: 0, Method: "GET"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []Entry
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 1)
	require.Equal(t, "GET", out[0].Method)
}

func TestWriterWritesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	w := New(path, "table")
	require.NoError(t, w.Write([]Entry{{Index: 0, Method: "GET", URL: "http://a/"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "INDEX")
	require.Contains(t, string(data), "http://a/")
}
