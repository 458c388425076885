package minimizer

import (
	"context"
	"strings"

	"github.com/harminx/harminx/pkg/harmodel"
)

// ResolveBodyKind determines how a request body should be parsed for field
// enumeration, per spec §4.4.4. An explicit body_type always wins; "auto"
// inspects the mime type first, then falls back to sniffing valid JSON,
// then finally to raw (no candidates).
func ResolveBodyKind(request harmodel.RequestData, configuredType string) harmodel.BodyKind {
	if request.BodyText == nil {
		return harmodel.BodyKindRaw
	}

	switch strings.ToLower(configuredType) {
	case "json":
		return harmodel.BodyKindJSON
	case "form":
		return harmodel.BodyKindForm
	case "raw":
		return harmodel.BodyKindRaw
	}

	mime := strings.ToLower(request.MimeType)
	switch {
	case strings.Contains(mime, "application/json"):
		return harmodel.BodyKindJSON
	case strings.Contains(mime, "application/x-www-form-urlencoded"):
		return harmodel.BodyKindForm
	}

	if _, err := parseJSON(*request.BodyText); err == nil {
		return harmodel.BodyKindJSON
	}
	return harmodel.BodyKindRaw
}

// CountBodyFields reports how many top-level-and-nested fields (json),
// pairs (form), or zero (raw/absent) a body has, used for the report's
// original/final body counts.
func CountBodyFields(kind harmodel.BodyKind, body *string) int {
	if body == nil {
		return 0
	}
	switch kind {
	case harmodel.BodyKindJSON:
		root, err := parseJSON(*body)
		if err != nil {
			return 0
		}
		return len(enumerateJSONCandidates(root))
	case harmodel.BodyKindForm:
		return len(parseForm(*body))
	default:
		return 0
	}
}

// bodyReduceResult is what body reduction hands back to the top-level
// minimizer.
type bodyReduceResult struct {
	body       *string
	candidates int
}

// reduceBody runs the greedy single-pass body reduction described in
// spec §4.4.4: one candidate field tried for removal at a time, in
// enumeration order, kept removed only if the resulting probe is still
// equivalent to baseline.
func (m *Minimizer) reduceBody(
	ctx context.Context,
	request harmodel.RequestData,
	currentHeaders []harmodel.Header,
	currentBody *string,
	baseline harmodel.ResponseSnapshot,
	budget *probeBudget,
) bodyReduceResult {
	cfg := m.cfg.Minimization.Body
	if !cfg.Enabled || currentBody == nil {
		return bodyReduceResult{body: currentBody}
	}

	kind := ResolveBodyKind(request, cfg.BodyType)
	switch kind {
	case harmodel.BodyKindJSON:
		return m.reduceJSONBody(ctx, request, currentHeaders, *currentBody, baseline, budget)
	case harmodel.BodyKindForm:
		return m.reduceFormBody(ctx, request, currentHeaders, *currentBody, baseline, budget)
	default:
		// raw, and BodyParseError downgrades (§7): no candidates, body
		// reduction is a no-op.
		return bodyReduceResult{body: currentBody}
	}
}

func (m *Minimizer) reduceJSONBody(
	ctx context.Context,
	request harmodel.RequestData,
	currentHeaders []harmodel.Header,
	currentBody string,
	baseline harmodel.ResponseSnapshot,
	budget *probeBudget,
) bodyReduceResult {
	cfg := m.cfg.Minimization.Body

	root, err := parseJSON(currentBody)
	if err != nil {
		// BodyParseError (§7): downgrade to a no-op for this request.
		return bodyReduceResult{body: &currentBody}
	}

	all := enumerateJSONCandidates(root)
	eligible := filterJSONCandidates(all, cfg.OnlyKeys, cfg.ProtectedKeys, cfg.TreatEmptyAsAbsent)

	for _, cand := range eligible {
		if !budget.consume() {
			break
		}
		cand.node.setRemoved(true)
		trialBody := serializeJSON(root)
		resp := m.client.Send(ctx, request, currentHeaders, &trialBody)
		if !m.comparator.Equivalent(baseline, resp) {
			cand.node.setRemoved(false)
		}
	}

	final := serializeJSON(root)
	return bodyReduceResult{body: &final, candidates: len(eligible)}
}

func filterJSONCandidates(all []jsonCandidate, onlyKeys, protectedKeys []string, treatEmptyAsAbsent bool) []jsonCandidate {
	onlySet := toSet(onlyKeys)
	protectedSet := toSet(protectedKeys)

	eligible := make([]jsonCandidate, 0, len(all))
	for _, c := range all {
		if len(onlySet) > 0 && !onlySet[c.topLevelKey] {
			continue
		}
		if protectedSet[c.topLevelKey] {
			continue
		}
		if treatEmptyAsAbsent && c.node.value().isEmpty() {
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible
}

func (m *Minimizer) reduceFormBody(
	ctx context.Context,
	request harmodel.RequestData,
	currentHeaders []harmodel.Header,
	currentBody string,
	baseline harmodel.ResponseSnapshot,
	budget *probeBudget,
) bodyReduceResult {
	cfg := m.cfg.Minimization.Body

	pairs := parseForm(currentBody)
	onlySet := toSet(cfg.OnlyKeys)
	protectedSet := toSet(cfg.ProtectedKeys)

	eligible := make([]*formPair, 0, len(pairs))
	for _, p := range pairs {
		if len(onlySet) > 0 && !onlySet[p.name] {
			continue
		}
		if protectedSet[p.name] {
			continue
		}
		if cfg.TreatEmptyAsAbsent && p.isEmptyValue() {
			continue
		}
		eligible = append(eligible, p)
	}

	for _, p := range eligible {
		if !budget.consume() {
			break
		}
		p.setRemoved(true)
		trialBody := serializeForm(pairs)
		resp := m.client.Send(ctx, request, currentHeaders, &trialBody)
		if !m.comparator.Equivalent(baseline, resp) {
			p.setRemoved(false)
		}
	}

	final := serializeForm(pairs)
	return bodyReduceResult{body: &final, candidates: len(eligible)}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
