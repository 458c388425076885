// Package comparator implements the response equivalence predicate: a pure
// function deciding whether a candidate response still matches a baseline
// under the configured rules.
//
// Grounded on spec §4.3. The rule set intentionally mirrors the original's
// ComparatorConfig dataclass field-for-field.
package comparator

import (
	"regexp"
	"strings"

	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/harmodel"
)

// Comparator evaluates (baseline, candidate) pairs against a fixed rule
// set. It holds no mutable state and is safe for concurrent use.
type Comparator struct {
	cfg          harconfig.ComparatorConfig
	regexRules   []*regexp.Regexp
}

// New compiles a Comparator from its configuration. Regex compilation
// happens once, up front, so Equivalent never fails mid-run on a bad
// pattern.
func New(cfg harconfig.ComparatorConfig) (*Comparator, error) {
	compiled := make([]*regexp.Regexp, 0, len(cfg.Regex))
	for _, pattern := range cfg.Regex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &Comparator{cfg: cfg, regexRules: compiled}, nil
}

// Equivalent reports whether candidate is equivalent to baseline under the
// configured rules. A candidate that isn't OK (transport failure, or no
// status code) is never equivalent, regardless of rule configuration. When
// no rule is configured at all, only the status-code check applies.
func (c *Comparator) Equivalent(baseline, candidate harmodel.ResponseSnapshot) bool {
	if !candidate.OK() {
		return false
	}

	anyConfigured := c.cfg.StatusCode || c.cfg.LengthCheck || len(c.cfg.NeedAll) > 0 ||
		len(c.cfg.NeedAny) > 0 || len(c.cfg.Regex) > 0

	if !anyConfigured {
		return statusMatches(baseline, candidate)
	}

	if c.cfg.StatusCode && !statusMatches(baseline, candidate) {
		return false
	}
	if c.cfg.LengthCheck && !lengthMatches(baseline, candidate, c.cfg.LengthTolerance) {
		return false
	}
	if !needAllSatisfied(candidate, c.cfg.NeedAll) {
		return false
	}
	if !needAnySatisfied(candidate, c.cfg.NeedAny) {
		return false
	}
	if !c.regexSatisfied(candidate) {
		return false
	}
	return true
}

func statusMatches(baseline, candidate harmodel.ResponseSnapshot) bool {
	if baseline.StatusCode == nil || candidate.StatusCode == nil {
		return false
	}
	return *baseline.StatusCode == *candidate.StatusCode
}

func lengthMatches(baseline, candidate harmodel.ResponseSnapshot, tolerance float64) bool {
	baseLen := float64(baseline.Length())
	candLen := float64(candidate.Length())
	diff := candLen - baseLen
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance*baseLen
}

func needAllSatisfied(candidate harmodel.ResponseSnapshot, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	body := candidateBody(candidate)
	for _, needle := range needles {
		if !strings.Contains(body, needle) {
			return false
		}
	}
	return true
}

func needAnySatisfied(candidate harmodel.ResponseSnapshot, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	body := candidateBody(candidate)
	for _, needle := range needles {
		if strings.Contains(body, needle) {
			return true
		}
	}
	return false
}

func (c *Comparator) regexSatisfied(candidate harmodel.ResponseSnapshot) bool {
	if len(c.regexRules) == 0 {
		return true
	}
	body := candidateBody(candidate)

	if strings.EqualFold(c.cfg.Logic, "OR") {
		for _, re := range c.regexRules {
			if re.MatchString(body) {
				return true
			}
		}
		return false
	}

	for _, re := range c.regexRules {
		if !re.MatchString(body) {
			return false
		}
	}
	return true
}

func candidateBody(candidate harmodel.ResponseSnapshot) string {
	if candidate.Body == nil {
		return ""
	}
	return *candidate.Body
}
