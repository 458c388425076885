// Package orchestrator drives one full minimization run: load the
// archive, filter it down to in-scope requests, minimize each one
// across a bounded worker pool, then write the report and (optionally)
// the updated archive.
//
// Grounded on original_source/har_minimizer/orchestrator.py's
// MinimizationOrchestrator, with the ThreadPoolExecutor fan-out replaced
// by golang.org/x/sync/errgroup.Group.SetLimit, the same bounded-worker
// pattern docker/model-runner's scheduler.go uses for its own run loop.
package orchestrator

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/harminx/harminx/pkg/comparator"
	"github.com/harminx/harminx/pkg/harchive"
	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/harfilter"
	"github.com/harminx/harminx/pkg/harmodel"
	"github.com/harminx/harminx/pkg/httpclient"
	"github.com/harminx/harminx/pkg/logging"
	"github.com/harminx/harminx/pkg/minimizer"
	"github.com/harminx/harminx/pkg/ratelimit"
	"github.com/harminx/harminx/pkg/report"
)

// Orchestrator wires together every component the spec names: a rate
// limiter and HTTP client shared by all workers, a comparator, a
// request filter, and the minimizer that uses all three.
type Orchestrator struct {
	cfg       harconfig.Config
	filter    *harfilter.Filter
	minimizer *minimizer.Minimizer
	log       logging.Logger
}

// New builds an Orchestrator from a fully-resolved configuration.
func New(cfg harconfig.Config, log logging.Logger) (*Orchestrator, error) {
	limiter := ratelimit.New(cfg.Client.RateLimit.RequestsPerSecond)
	client := httpclient.New(cfg.Client, limiter)

	cmp, err := comparator.New(cfg.Comparator)
	if err != nil {
		return nil, err
	}

	filter, err := harfilter.New(cfg.Filters, cfg.Scope)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:       cfg,
		filter:    filter,
		minimizer: minimizer.New(client, cmp, cfg, log),
		log:       log,
	}, nil
}

// Run executes the full pipeline and returns the report entries it
// wrote, in archive order. reportFormat selects "json" (default) or
// "table" for the on-disk report.
func (o *Orchestrator) Run(ctx context.Context, reportFormat string) ([]report.Entry, error) {
	archive, err := harchive.Load(o.cfg.InputHAR)
	if err != nil {
		return nil, err
	}

	all := archive.Requests()
	filtered := o.filter.Apply(all)
	o.log.WithField("loaded", len(all)).WithField("in_scope", len(filtered)).Info("archive loaded and filtered")

	processed, err := o.processAll(ctx, filtered)
	if err != nil {
		return nil, err
	}

	entries := make([]report.Entry, len(processed))
	for i, p := range processed {
		entries[i] = report.BuildEntry(o.cfg.Minimization.Body.BodyType, p)
	}

	writer := report.New(o.cfg.ReportPath, reportFormat)
	if err := writer.Write(entries); err != nil {
		return nil, err
	}
	o.log.WithField("path", o.cfg.ReportPath).Info("minimization report written")

	if o.cfg.OutputHAR != "" {
		archive.Patch(processed, o.cfg.UpdateHARMetadata)
		if o.cfg.Output.DeduplicateIdentical {
			archive.Deduplicate()
		}
		if err := archive.Write(o.cfg.OutputHAR); err != nil {
			return nil, err
		}
		o.log.WithField("path", o.cfg.OutputHAR).Info("updated archive written")
	}

	return entries, nil
}

func (o *Orchestrator) processAll(ctx context.Context, requests []harmodel.RequestData) ([]harmodel.ProcessedRequest, error) {
	maxWorkers := o.cfg.Client.RateLimit.MaxConcurrent
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	processed := make([]harmodel.ProcessedRequest, len(requests))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxWorkers)

	for i, req := range requests {
		group.Go(func() error {
			processed[i] = o.minimizer.Process(groupCtx, req)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(processed, func(i, j int) bool {
		return processed[i].Request.Index < processed[j].Request.Index
	})
	return processed, nil
}
