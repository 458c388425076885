package minimizer

import (
	"context"
	"regexp"
	"strings"

	"github.com/harminx/harminx/pkg/harmodel"
)

// headerReduceResult is what header reduction hands back to the top-level
// minimizer.
type headerReduceResult struct {
	headers    []harmodel.Header
	candidates int
}

// reduceHeaders runs the greedy single-pass header reduction of spec
// §4.4.3: each header occurrence, by position, is an independent removal
// candidate (two "X-Foo" headers are two separate candidates), tried in
// the order they appear and kept removed only while the response stays
// equivalent to baseline.
func (m *Minimizer) reduceHeaders(
	ctx context.Context,
	request harmodel.RequestData,
	currentHeaders []harmodel.Header,
	currentBody *string,
	baseline harmodel.ResponseSnapshot,
	budget *probeBudget,
) headerReduceResult {
	cfg := m.cfg.Minimization.Headers
	if !cfg.Enabled || len(currentHeaders) == 0 {
		return headerReduceResult{headers: currentHeaders}
	}

	working := make([]harmodel.Header, len(currentHeaders))
	copy(working, currentHeaders)
	removed := make([]bool, len(working))

	protected := toSet(lowerAll(cfg.Protected))
	ignore := toSet(lowerAll(cfg.Ignore))

	// Ignored headers are excluded entirely: never sent in any probe,
	// never sent in the final output. Marking them removed up front
	// (and never toggling them back) makes liveHeaders drop them
	// unconditionally, on every code path below.
	for i, h := range working {
		if ignore[strings.ToLower(h.Name)] {
			removed[i] = true
		}
	}

	candidateRegex, err := compileHeaderRegex(cfg.CandidateRegex)
	if err != nil {
		// Unusable candidate_regex: treat as if no header qualifies for
		// removal, rather than failing the whole request. Ignored
		// headers still drop out via the pass above.
		return headerReduceResult{headers: liveHeaders(working, removed)}
	}

	indices := eligibleHeaderIndices(working, protected, ignore, candidateRegex)

	for _, i := range indices {
		if !budget.consume() {
			break
		}
		removed[i] = true
		trial := liveHeaders(working, removed)
		resp := m.client.Send(ctx, request, trial, currentBody)
		if !m.comparator.Equivalent(baseline, resp) {
			removed[i] = false
		}
	}

	return headerReduceResult{headers: liveHeaders(working, removed), candidates: len(indices)}
}

func eligibleHeaderIndices(headers []harmodel.Header, protected, ignore map[string]bool, candidateRegex []*regexp.Regexp) []int {
	var indices []int
	for i, h := range headers {
		name := strings.ToLower(h.Name)
		if protected[name] || ignore[name] {
			continue
		}
		if len(candidateRegex) > 0 && !matchesAny(candidateRegex, h.Name) {
			continue
		}
		indices = append(indices, i)
	}
	return indices
}

func liveHeaders(headers []harmodel.Header, removed []bool) []harmodel.Header {
	out := make([]harmodel.Header, 0, len(headers))
	for i, h := range headers {
		if !removed[i] {
			out = append(out, h)
		}
	}
	return out
}

func compileHeaderRegex(patterns []string) ([]*regexp.Regexp, error) {
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

func matchesAny(patterns []*regexp.Regexp, value string) bool {
	for _, re := range patterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
