// Package pipeline drives a full lead generation run: gather evidence from
// every source, resolve identities, enrich candidates, then score and rank.
package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leadgen/internal/enrich"
	"leadgen/internal/lead"
	"leadgen/internal/logger"
	"leadgen/internal/resolve"
	"leadgen/internal/scoring"
	"leadgen/internal/sources"
)

const defaultConcurrency = 4

// Options selects which stages run and how the result is ordered.
type Options struct {
	Enrich    bool
	Score     bool
	SortKey   scoring.SortKey
	Ascending bool
	// Concurrency bounds parallel enrichment. Candidates are enriched
	// concurrently with each other; the enrichers for one candidate run in
	// their configured order because later ones read what earlier ones wrote.
	Concurrency int
}

type Pipeline struct {
	sources   []sources.Source
	enrichers []enrich.Enricher
	resolver  *resolve.Resolver
	scorer    *scoring.Scorer
	ranker    *scoring.Ranker
	logger    *zap.Logger
}

func New(
	srcs []sources.Source,
	enrichers []enrich.Enricher,
	resolver *resolve.Resolver,
	scorer *scoring.Scorer,
	ranker *scoring.Ranker,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		sources:   srcs,
		enrichers: enrichers,
		resolver:  resolver,
		scorer:    scorer,
		ranker:    ranker,
		logger:    logger,
	}
}

// Run executes the pipeline for the given criteria and returns the ranked
// candidate list. A failing source or enricher degrades the result instead of
// aborting the run; only a cancelled context or an invalid sort key is fatal.
func (p *Pipeline) Run(ctx context.Context, criteria *sources.Criteria, opts *Options) (*lead.Candidates, error) {
	if opts == nil {
		opts = &Options{Enrich: true, Score: true}
	}

	records, err := p.gather(ctx, criteria)
	if err != nil {
		return nil, err
	}
	p.logger.Info("gathered source records",
		zap.Int("sources", len(p.sources)),
		zap.Int("records", len(records)),
	)

	candidates := p.resolver.Resolve(records)
	p.logger.Info("resolved identities",
		zap.Int("records", len(records)),
		zap.Int("candidates", candidates.Len()),
	)

	if opts.Enrich && len(p.enrichers) > 0 {
		if err := p.enrich(ctx, candidates, opts.Concurrency); err != nil {
			return nil, err
		}
		p.logger.Info("enriched candidates",
			zap.Int("enrichers", len(p.enrichers)),
			zap.Int("candidates", candidates.Len()),
		)
	}

	if opts.Score {
		for _, cand := range candidates.Items {
			cand.Score = p.scorer.Score(cand)
		}
		p.logger.Info("scored candidates", zap.Int("candidates", candidates.Len()))
	}

	key := opts.SortKey
	if key == "" {
		key = scoring.SortByScore
	}
	return p.ranker.Rank(candidates, key, opts.Ascending)
}

// gather queries all sources concurrently. The flattened record list keeps
// source configuration order so resolution is reproducible run to run.
func (p *Pipeline) gather(ctx context.Context, criteria *sources.Criteria) ([]*lead.SourceRecord, error) {
	results := make([][]*lead.SourceRecord, len(p.sources))

	group, ctx := errgroup.WithContext(ctx)
	for i, src := range p.sources {
		group.Go(func() error {
			slog := logger.WithCommonFields(p.logger, src.Name(), "gather")

			records, err := src.Fetch(ctx, criteria)
			if err != nil {
				slog.Warn("source failed, continuing without it", zap.Error(err))
				return ctx.Err()
			}
			slog.Debug("source returned records", zap.Int("records", len(records)))
			results[i] = records
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var records []*lead.SourceRecord
	for _, batch := range results {
		records = append(records, batch...)
	}
	return records, nil
}

// enrich runs every enricher over every candidate. Each candidate is owned by
// exactly one goroutine, so enrichers can read and the merge can write its
// attributes without locking.
func (p *Pipeline) enrich(ctx context.Context, candidates *lead.Candidates, concurrency int) error {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, cand := range candidates.Items {
		group.Go(func() error {
			for _, enricher := range p.enrichers {
				if err := ctx.Err(); err != nil {
					return err
				}

				result, err := enricher.Enrich(ctx, cand)
				if err != nil {
					logger.WithCommonFields(p.logger, enricher.Name(), "enrich").Warn(
						"enricher failed for candidate",
						zap.String("candidate", cand.FullName),
						zap.Error(err),
					)
					continue
				}
				if result == nil {
					continue
				}

				for field, value := range result.Fields {
					resolve.MergeField(cand, field, value, result.SourceID, result.Priority)
				}
			}
			return nil
		})
	}

	return group.Wait()
}
