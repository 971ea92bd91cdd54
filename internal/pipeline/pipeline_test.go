package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"leadgen/internal/enrich"
	"leadgen/internal/lead"
	"leadgen/internal/resolve"
	"leadgen/internal/scoring"
	"leadgen/internal/sources"
)

type fakeSource struct {
	name     string
	priority int
	records  []*lead.SourceRecord
	err      error
}

func (f *fakeSource) Name() string  { return f.name }
func (f *fakeSource) Priority() int { return f.priority }

func (f *fakeSource) Fetch(_ context.Context, _ *sources.Criteria) ([]*lead.SourceRecord, error) {
	return f.records, f.err
}

type fakeEnricher struct {
	name   string
	result *enrich.Result
	err    error
}

func (f *fakeEnricher) Name() string { return f.name }

func (f *fakeEnricher) Enrich(_ context.Context, _ *lead.Candidate) (*enrich.Result, error) {
	return f.result, f.err
}

func record(source string, priority int, name, title string) *lead.SourceRecord {
	return &lead.SourceRecord{
		SourceID: source,
		Priority: priority,
		FullName: name,
		Title:    title,
	}
}

func newPipeline(srcs []sources.Source, enrichers []enrich.Enricher, logger *zap.Logger) *Pipeline {
	return New(
		srcs,
		enrichers,
		resolve.New(nil, logger),
		scoring.NewScorer(scoring.DefaultWeights(), scoring.DefaultVocabulary(), logger),
		scoring.NewRanker(logger),
		logger,
	)
}

func TestRunGathersResolvesScoresAndRanks(t *testing.T) {
	t.Parallel()

	srcs := []sources.Source{
		&fakeSource{name: "orcid", priority: lead.PriorityRegistry, records: []*lead.SourceRecord{
			record("orcid", lead.PriorityRegistry, "Dr. Jane Doe", "Director of Toxicology"),
		}},
		&fakeSource{name: "pubmed", priority: lead.PriorityPublication, records: []*lead.SourceRecord{
			record("pubmed", lead.PriorityPublication, "Jane Doe", "Researcher"),
			record("pubmed", lead.PriorityPublication, "John Smith", "Principal Scientist"),
		}},
	}

	result, err := newPipeline(srcs, nil, zap.NewNop()).Run(context.Background(), &sources.Criteria{}, &Options{Score: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Len() != 2 {
		t.Fatalf("expected the two Jane Doe records to merge, got %d candidates", result.Len())
	}

	jane := result.FindByKey(lead.IdentityKey("Dr. Jane Doe"))
	if jane == nil {
		t.Fatalf("jane not found in %v", result.Names())
	}
	if title, _ := jane.StringAttr(lead.FieldTitle); title != "Director of Toxicology" {
		t.Fatalf("the registry title must win, got %q", title)
	}
	if jane.Score == nil {
		t.Fatalf("expected candidates to be scored")
	}

	for i, cand := range result.Items {
		if cand.Rank != i+1 {
			t.Fatalf("expected rank %d at position %d, got %d", i+1, i, cand.Rank)
		}
	}
	if result.Items[0].Total() < result.Items[1].Total() {
		t.Fatalf("expected descending score order, got %d then %d",
			result.Items[0].Total(), result.Items[1].Total())
	}
}

func TestRunSourceFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	srcs := []sources.Source{
		&fakeSource{name: "conference", priority: lead.PriorityConference, err: errors.New("feed unavailable")},
		&fakeSource{name: "orcid", priority: lead.PriorityRegistry, records: []*lead.SourceRecord{
			record("orcid", lead.PriorityRegistry, "Jane Doe", "Scientist"),
		}},
	}

	result, err := newPipeline(srcs, nil, zap.New(core)).Run(context.Background(), &sources.Criteria{}, &Options{})
	if err != nil {
		t.Fatalf("a failing source must not fail the run: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("expected the healthy source's candidate, got %d", result.Len())
	}

	if logs.FilterMessage("source failed, continuing without it").Len() != 1 {
		t.Fatalf("expected a warning for the failed source")
	}
}

func TestRunEnrichmentMergesWithProvenance(t *testing.T) {
	t.Parallel()

	srcs := []sources.Source{
		&fakeSource{name: "pubmed", priority: lead.PriorityPublication, records: []*lead.SourceRecord{
			{
				SourceID: "pubmed",
				Priority: lead.PriorityPublication,
				FullName: "Jane Doe",
				Location: "Cambridge, Massachusetts",
			},
		}},
	}

	normalized := enrich.NewResult("location")
	normalized.Fields[lead.FieldLocation] = "Cambridge, MA"

	weak := &enrich.Result{
		SourceID: "serp",
		Priority: lead.PrioritySearch,
		Fields:   map[string]any{lead.FieldLocation: "somewhere on the web"},
	}

	enrichers := []enrich.Enricher{
		&fakeEnricher{name: "location", result: normalized},
		&fakeEnricher{name: "serp", result: weak},
	}

	result, err := newPipeline(srcs, enrichers, zap.NewNop()).Run(context.Background(), &sources.Criteria{}, &Options{Enrich: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cand := result.Items[0]
	loc, _ := cand.StringAttr(lead.FieldLocation)
	if loc != "Cambridge, MA" {
		t.Fatalf("expected the enriched location to win and the search tier to lose, got %q", loc)
	}
	if attr := cand.Attributes[lead.FieldLocation]; attr.SourceID != "location" {
		t.Fatalf("expected location provenance, got %q", attr.SourceID)
	}
}

func TestRunEnricherFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	srcs := []sources.Source{
		&fakeSource{name: "orcid", priority: lead.PriorityRegistry, records: []*lead.SourceRecord{
			record("orcid", lead.PriorityRegistry, "Jane Doe", "Scientist"),
		}},
	}
	enrichers := []enrich.Enricher{
		&fakeEnricher{name: "hunter", err: errors.New("rate limited")},
	}

	result, err := newPipeline(srcs, enrichers, zap.New(core)).Run(context.Background(), &sources.Criteria{}, &Options{Enrich: true})
	if err != nil {
		t.Fatalf("a failing enricher must not fail the run: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("expected the candidate to survive, got %d", result.Len())
	}
	if logs.FilterMessage("enricher failed for candidate").Len() != 1 {
		t.Fatalf("expected a warning for the failed enricher")
	}
}

func TestRunSkipsStagesWhenDisabled(t *testing.T) {
	t.Parallel()

	srcs := []sources.Source{
		&fakeSource{name: "orcid", priority: lead.PriorityRegistry, records: []*lead.SourceRecord{
			record("orcid", lead.PriorityRegistry, "Jane Doe", "Director of Toxicology"),
		}},
	}
	enrichers := []enrich.Enricher{
		&fakeEnricher{name: "hunter", result: func() *enrich.Result {
			r := enrich.NewResult("hunter")
			r.Fields[lead.FieldEmail] = "jane@acme.bio"
			return r
		}()},
	}

	result, err := newPipeline(srcs, enrichers, zap.NewNop()).Run(context.Background(), &sources.Criteria{}, &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cand := result.Items[0]
	if _, ok := cand.StringAttr(lead.FieldEmail); ok {
		t.Fatalf("enrichment must not run when disabled")
	}
	if cand.Score != nil {
		t.Fatalf("scoring must not run when disabled")
	}
	if cand.Rank != 1 {
		t.Fatalf("ranking always runs, got rank %d", cand.Rank)
	}
}

func TestRunRejectsInvalidSortKey(t *testing.T) {
	t.Parallel()

	if _, err := newPipeline(nil, nil, zap.NewNop()).Run(
		context.Background(), &sources.Criteria{}, &Options{SortKey: "priority"},
	); err == nil {
		t.Fatalf("expected an error for an unknown sort key")
	}
}

func TestRunCancelledContextAborts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srcs := []sources.Source{
		&fakeSource{name: "conference", priority: lead.PriorityConference, err: context.Canceled},
	}

	if _, err := newPipeline(srcs, nil, zap.NewNop()).Run(ctx, &sources.Criteria{}, &Options{}); err == nil {
		t.Fatalf("expected the cancelled context to abort the run")
	}
}
