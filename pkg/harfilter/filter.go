// Package harfilter selects which recorded requests are eligible for
// minimization at all, before any replay happens.
//
// Grounded on original_source/har_minimizer/filtering.py's RequestFilter:
// the same method/host/url_regex/index_range filter, the same
// include_urls/include_regex scope allow-list, and the same dedup-key
// based identical-request collapsing.
package harfilter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/harmodel"
)

// Filter narrows a slice of requests down to the ones in scope for
// minimization.
type Filter struct {
	cfg        harconfig.FilterConfig
	scope      harconfig.ScopeConfig
	urlRegex   []*regexp.Regexp
	scopeRegex []*regexp.Regexp
}

// New compiles a Filter from its filter and scope configuration.
func New(cfg harconfig.FilterConfig, scope harconfig.ScopeConfig) (*Filter, error) {
	urlRegex, err := compileAll(cfg.URLRegex)
	if err != nil {
		return nil, err
	}
	scopeRegex, err := compileAll(scope.IncludeRegex)
	if err != nil {
		return nil, err
	}
	return &Filter{cfg: cfg, scope: scope, urlRegex: urlRegex, scopeRegex: scopeRegex}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Apply returns the subset of requests that pass both the filter and the
// scope allow-list, in original order, optionally deduplicated.
func (f *Filter) Apply(requests []harmodel.RequestData) []harmodel.RequestData {
	var kept []harmodel.RequestData
	for _, req := range requests {
		if !f.matchesFilter(req) {
			continue
		}
		if !f.matchesScope(req) {
			continue
		}
		kept = append(kept, req)
	}
	if f.cfg.DeduplicateIdentical {
		kept = deduplicate(kept)
	}
	return kept
}

func (f *Filter) matchesFilter(req harmodel.RequestData) bool {
	cfg := f.cfg

	if len(cfg.Methods) > 0 && !containsFold(cfg.Methods, req.Method) {
		return false
	}

	if len(cfg.Hosts) > 0 {
		host := hostOf(req.URL)
		if !contains(cfg.Hosts, host) {
			return false
		}
	}

	if len(cfg.URLRegex) > 0 && !matchesAny(f.urlRegex, req.URL) {
		return false
	}

	if cfg.IndexRange != nil {
		start, end := cfg.IndexRange[0], cfg.IndexRange[1]
		if req.Index < start || req.Index > end {
			return false
		}
	}

	return true
}

func (f *Filter) matchesScope(req harmodel.RequestData) bool {
	if len(f.scope.IncludeURLs) == 0 && len(f.scope.IncludeRegex) == 0 {
		return true
	}
	if contains(f.scope.IncludeURLs, req.URL) {
		return true
	}
	return matchesAny(f.scopeRegex, req.URL)
}

func hostOf(rawURL string) string {
	stripped := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if i := strings.IndexByte(stripped, '/'); i >= 0 {
		return stripped[:i]
	}
	return stripped
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, value string) bool {
	for _, re := range patterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// deduplicate collapses requests that share a dedup key, keeping the
// first occurrence, mirroring filtering.py's RequestFilter._deduplicate.
func deduplicate(requests []harmodel.RequestData) []harmodel.RequestData {
	seen := make(map[string]bool, len(requests))
	unique := make([]harmodel.RequestData, 0, len(requests))
	for _, req := range requests {
		key := DedupKey(req)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, req)
	}
	return unique
}

// DedupKey builds the identity string two requests must share to be
// considered duplicates: method, base URL (query stripped), normalized
// query parameters, and body text. pkg/harchive's export-time dedup pass
// does not call it; it builds the same identity from the raw archive
// entry with its own rawDedupKey.
func DedupKey(req harmodel.RequestData) string {
	baseURL, _, _ := strings.Cut(req.URL, "?")
	body := ""
	if req.BodyText != nil {
		body = *req.BodyText
	}
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s", strings.ToUpper(req.Method), baseURL, normalizeQuery(req.Query), body)
}

func normalizeQuery(query map[string][]string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(query[k], ","))
		b.WriteByte(';')
	}
	return b.String()
}
