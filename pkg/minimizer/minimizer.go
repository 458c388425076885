// Package minimizer implements the request minimization algorithm of spec
// §4.4: given a recorded request and its baseline response, greedily strip
// headers and body fields whose absence doesn't change the response under
// the configured comparator.
package minimizer

import (
	"context"
	"strings"

	"github.com/harminx/harminx/pkg/comparator"
	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/harmodel"
	"github.com/harminx/harminx/pkg/httpclient"
	"github.com/harminx/harminx/pkg/internal/utils"
	"github.com/harminx/harminx/pkg/logging"
)

// probeBudget caps the number of trial requests a single Process call may
// issue across both the header and body phases, per spec §4.4.6 /
// max_rounds_per_request. Baseline and final probes are not drawn from it.
type probeBudget struct {
	remaining int
}

func newProbeBudget(max int) *probeBudget {
	return &probeBudget{remaining: max}
}

func (b *probeBudget) consume() bool {
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// Minimizer reduces one request at a time. It holds no per-request state
// and is safe for concurrent use by multiple orchestrator workers, which
// all share its single *httpclient.Client.
type Minimizer struct {
	client     *httpclient.Client
	comparator *comparator.Comparator
	cfg        harconfig.Config
	log        logging.Logger
}

// New builds a Minimizer from its collaborators.
func New(client *httpclient.Client, cmp *comparator.Comparator, cfg harconfig.Config, log logging.Logger) *Minimizer {
	return &Minimizer{client: client, comparator: cmp, cfg: cfg, log: log}
}

// Process runs the full minimization pipeline for one request: baseline
// probe, ordered header/body reduction phases, and a final probe that
// decides whether the reduced request is accepted or the original is kept
// (spec §4.4.1–§4.4.6).
func (m *Minimizer) Process(ctx context.Context, request harmodel.RequestData) harmodel.ProcessedRequest {
	if m.log != nil {
		m.log.WithField("index", request.Index).
			WithField("method", request.Method).
			WithField("url", utils.SanitizeForLog(request.URL)).
			Debug("minimizing request")
	}

	// Ignored headers are never sent, not even on the baseline probe.
	ignore := toSet(lowerAll(m.cfg.Minimization.Headers.Ignore))
	sendHeaders := make([]harmodel.Header, 0, len(request.Headers))
	for _, h := range request.Headers {
		if !ignore[strings.ToLower(h.Name)] {
			sendHeaders = append(sendHeaders, h)
		}
	}

	baseline := m.client.Send(ctx, request, sendHeaders, request.BodyText)

	if !baseline.OK() {
		// Can't minimize against a baseline that itself failed; the
		// request passes through unchanged and unmatched.
		return harmodel.ProcessedRequest{
			Request:  request,
			Baseline: baseline,
			Result: harmodel.MinimizationResult{
				Headers:  request.Headers,
				BodyText: request.BodyText,
				Matched:  false,
				Response: nil,
			},
		}
	}

	budget := newProbeBudget(m.cfg.MaxRoundsPerRequest)

	currentHeaders := sendHeaders
	currentBody := request.BodyText
	var headerCandidates, bodyCandidates int

	for _, step := range resolvedOrder(m.cfg.Minimization.Order) {
		switch step {
		case "headers":
			res := m.reduceHeaders(ctx, request, currentHeaders, currentBody, baseline, budget)
			currentHeaders = res.headers
			headerCandidates = res.candidates
		case "body":
			res := m.reduceBody(ctx, request, currentHeaders, currentBody, baseline, budget)
			currentBody = res.body
			bodyCandidates = res.candidates
		}
	}

	final := m.client.Send(ctx, request, currentHeaders, currentBody)
	matched := m.comparator.Equivalent(baseline, final)

	result := harmodel.MinimizationResult{
		Matched:          matched,
		HeaderCandidates: headerCandidates,
		BodyCandidates:   bodyCandidates,
	}

	if matched {
		result.Headers = currentHeaders
		result.BodyText = currentBody
		result.Response = &final
	} else {
		// §4.4.5: a non-equivalent final probe reverts the whole
		// request to its original headers and body, not a partial
		// rollback of only the last phase.
		result.Headers = request.Headers
		result.BodyText = request.BodyText
		result.Response = &baseline
	}

	return harmodel.ProcessedRequest{Request: request, Baseline: baseline, Result: result}
}

func resolvedOrder(configured []string) []string {
	if len(configured) == 0 {
		return []string{"headers", "body"}
	}
	return configured
}
