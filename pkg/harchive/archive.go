// Package harchive loads HAR 1.2 archives into the requests the rest of
// the pipeline operates on, and patches a matched minimization result
// back into the original archive structure for export.
//
// Grounded on original_source/har_minimizer/reporting.py's HarExporter
// (deepcopy-then-patch over the raw archive dict) and orchestrator.py's
// use of a loader that hands out RequestData plus a raw-archive handle
// for later export. The Python original keeps the archive as a plain
// dict; here it's map[string]interface{} for the same reason: an HAR
// archive carries many fields (timings, cache, cookies, response
// bodies) this tool never needs to understand, only to preserve
// byte-for-byte on unaffected entries.
package harchive

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"

	"github.com/harminx/harminx/pkg/harmodel"
)

// Archive holds a parsed HAR document: its requests ready for replay,
// and the raw generic structure to patch and re-export.
type Archive struct {
	raw map[string]interface{}
}

// Load reads and parses a HAR file from disk.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &Archive{raw: raw}, nil
}

// Requests extracts every entry's request as a harmodel.RequestData,
// indexed by its position in the archive (the index loaders and
// filters key off of, and the one later used to patch the archive back
// on export).
func (a *Archive) Requests() []harmodel.RequestData {
	entries := a.entries()
	out := make([]harmodel.RequestData, 0, len(entries))
	for i, entry := range entries {
		out = append(out, requestFromEntry(i, asMap(entry["request"])))
	}
	return out
}

func (a *Archive) entries() []map[string]interface{} {
	log := asMap(a.raw["log"])
	rawEntries, _ := log["entries"].([]interface{})
	out := make([]map[string]interface{}, 0, len(rawEntries))
	for _, e := range rawEntries {
		out = append(out, asMap(e))
	}
	return out
}

func requestFromEntry(index int, request map[string]interface{}) harmodel.RequestData {
	method, _ := request["method"].(string)
	rawURL, _ := request["url"].(string)

	var headers []harmodel.Header
	for _, h := range asSlice(request["headers"]) {
		hm := asMap(h)
		name, _ := hm["name"].(string)
		value, _ := hm["value"].(string)
		headers = append(headers, harmodel.Header{Name: name, Value: value})
	}

	var bodyText *string
	var mimeType string
	if postData := asMap(request["postData"]); postData != nil {
		if text, ok := postData["text"].(string); ok {
			bodyText = &text
		}
		mimeType, _ = postData["mimeType"].(string)
	}

	query := parseQuery(rawURL)
	path := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		path = parsed.Path
	}

	return harmodel.RequestData{
		Index:    index,
		Method:   method,
		URL:      rawURL,
		Path:     path,
		Query:    query,
		Headers:  headers,
		BodyText: bodyText,
		MimeType: mimeType,
	}
}

func parseQuery(rawURL string) map[string][]string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	values, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return nil
	}
	return map[string][]string(values)
}

// Write serializes the (possibly patched) archive back to path, creating
// parent directories as needed, matching reporting.py's HarExporter.write.
func (a *Archive) Write(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(a.raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}
