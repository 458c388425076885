package harchive

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/harminx/harminx/pkg/harmodel"
)

// Patch writes every matched minimization result back into the archive's
// entries, in place. Unmatched requests (baseline failed, or the final
// probe didn't agree) are left untouched, so the exported archive keeps
// their original headers and body. When includeMetadata is set, each
// patched entry also gets a "_minimized" block recording what changed.
func (a *Archive) Patch(processed []harmodel.ProcessedRequest, includeMetadata bool) {
	entries := a.entries()
	for _, item := range processed {
		if !item.Result.Matched {
			continue
		}
		if item.Request.Index < 0 || item.Request.Index >= len(entries) {
			continue
		}
		entry := entries[item.Request.Index]
		requestBlock := ensureMap(entry, "request")

		requestBlock["headers"] = headersToRaw(item.Result.Headers)

		if item.Result.BodyText != nil {
			postData := ensureMap(requestBlock, "postData")
			postData["text"] = *item.Result.BodyText
			if item.Request.MimeType != "" {
				if _, exists := postData["mimeType"]; !exists {
					postData["mimeType"] = item.Request.MimeType
				}
			}
		} else if postData := asMap(requestBlock["postData"]); postData != nil {
			if _, hasText := postData["text"]; hasText {
				original := ""
				if item.Request.BodyText != nil {
					original = *item.Request.BodyText
				}
				postData["text"] = original
			}
		}

		if includeMetadata {
			meta := ensureMap(entry, "_minimized")
			meta["original_header_count"] = len(item.Request.Headers)
			meta["final_header_count"] = len(item.Result.Headers)
			meta["header_candidates"] = item.Result.HeaderCandidates
			meta["body_candidates"] = item.Result.BodyCandidates
			meta["matched"] = item.Result.Matched
		}
	}
}

// Deduplicate drops entries whose method, base URL, normalized query,
// and body text exactly match an earlier entry, keeping the first
// occurrence. Mirrors reporting.py's HarExporter._deduplicate_entries.
func (a *Archive) Deduplicate() {
	log := asMap(a.raw["log"])
	if log == nil {
		return
	}
	entries := a.entries()
	seen := make(map[string]bool, len(entries))
	deduped := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		key := rawDedupKey(entry)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, interface{}(entry))
	}
	log["entries"] = deduped
}

func rawDedupKey(entry map[string]interface{}) string {
	request := asMap(entry["request"])
	rawURL, _ := request["url"].(string)
	method, _ := request["method"].(string)
	body := ""
	if postData := asMap(request["postData"]); postData != nil {
		if text, ok := postData["text"].(string); ok {
			body = text
		}
	}
	baseURL, _, _ := strings.Cut(rawURL, "?")
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s", strings.ToUpper(method), baseURL, normalizedQueryOf(rawURL), body)
}

func normalizedQueryOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	values, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(values[k], ","))
		b.WriteByte(';')
	}
	return b.String()
}

func ensureMap(parent map[string]interface{}, key string) map[string]interface{} {
	if existing := asMap(parent[key]); existing != nil {
		return existing
	}
	m := map[string]interface{}{}
	parent[key] = m
	return m
}

func headersToRaw(headers []harmodel.Header) []interface{} {
	out := make([]interface{}, 0, len(headers))
	for _, h := range headers {
		out = append(out, map[string]interface{}{"name": h.Name, "value": h.Value})
	}
	return out
}
