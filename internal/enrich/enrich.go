// Package enrich defines the contract between the pipeline and its
// enrichment collaborators. Enrichers read a resolved candidate and propose
// new field values; only the reconciler writes them back, so provenance rules
// hold for enriched data too.
package enrich

import (
	"context"

	"leadgen/internal/lead"
)

// Result is the outcome of one enrichment pass over one candidate. Fields
// maps attribute names to proposed values; the pipeline merges them with the
// result's provenance.
type Result struct {
	SourceID string
	Priority int
	Fields   map[string]any
}

// NewResult seeds an empty result with enrichment provenance.
func NewResult(sourceID string) *Result {
	return &Result{
		SourceID: sourceID,
		Priority: lead.PriorityEnrichment,
		Fields:   make(map[string]any),
	}
}

// Enricher is one enrichment collaborator. A nil result with a nil error
// means the enricher had nothing to contribute. An error never aborts the
// pipeline; the affected fields simply stay unknown.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, c *lead.Candidate) (*Result, error)
}
