// Package report builds and writes the per-request minimization report:
// one entry per processed request recording baseline/final status and
// length, header/body candidate and survivor counts, and any error.
//
// Grounded on original_source/har_minimizer/reporting.py's ReportWriter
// and orchestrator.py's MinimizationOrchestrator._build_report_entry,
// which assembles the same fields from a ProcessedRequest.
package report

import (
	"github.com/harminx/harminx/pkg/harmodel"
	"github.com/harminx/harminx/pkg/minimizer"
)

// FieldCounts captures how many fields (headers or body keys) a request
// started with, how many were tried as removal candidates, and how many
// survived minimization.
type FieldCounts struct {
	Original   int `json:"original"`
	Candidates int `json:"candidates"`
	Final      int `json:"final"`
}

// Entry is one row of the minimization report.
type Entry struct {
	Index           int                 `json:"index"`
	Method          string              `json:"method"`
	URL             string              `json:"url"`
	Path            string              `json:"path"`
	Query           map[string][]string `json:"query"`
	BaselineStatus  *int                `json:"baseline_status"`
	BaselineLength  int                 `json:"baseline_length"`
	FinalStatus     *int                `json:"final_status"`
	FinalLength     int                 `json:"final_length"`
	Matched         bool                `json:"matched_baseline"`
	Headers         FieldCounts         `json:"headers"`
	Body            FieldCounts         `json:"body"`
	MinimizedHeaders []harmodel.Header  `json:"minimized_headers"`
	MinimizedBody   *string             `json:"minimized_body"`
	Error           string              `json:"error,omitempty"`
}

// BuildEntry assembles a report Entry from one processed request, the
// same shape _build_report_entry produces.
func BuildEntry(bodyTypeConfig string, item harmodel.ProcessedRequest) Entry {
	request := item.Request
	baseline := item.Baseline
	result := item.Result

	kind := minimizer.ResolveBodyKind(request, bodyTypeConfig)
	originalBodyFields := minimizer.CountBodyFields(kind, request.BodyText)
	finalBodyFields := minimizer.CountBodyFields(kind, result.BodyText)

	var errMsg string
	switch {
	case !baseline.OK():
		errMsg = baseline.Error
	case result.Response != nil && result.Response.Error != "":
		errMsg = result.Response.Error
	}

	var finalStatus *int
	var finalLength int
	if result.Response != nil {
		finalStatus = result.Response.StatusCode
		finalLength = result.Response.Length()
	}

	return Entry{
		Index:          request.Index,
		Method:         request.Method,
		URL:            request.URL,
		Path:           request.Path,
		Query:          request.Query,
		BaselineStatus: baseline.StatusCode,
		BaselineLength: baseline.Length(),
		FinalStatus:    finalStatus,
		FinalLength:    finalLength,
		Matched:        result.Matched,
		Headers: FieldCounts{
			Original:   len(request.Headers),
			Candidates: result.HeaderCandidates,
			Final:      len(result.Headers),
		},
		Body: FieldCounts{
			Original:   originalBodyFields,
			Candidates: result.BodyCandidates,
			Final:      finalBodyFields,
		},
		MinimizedHeaders: result.Headers,
		MinimizedBody:    result.BodyText,
		Error:            errMsg,
	}
}
