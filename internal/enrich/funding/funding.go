// Package funding attaches public grant information to candidates whose
// organization is known.
package funding

import (
	"context"

	"go.uber.org/zap"

	"leadgen/internal/enrich"
	"leadgen/internal/lead"
	"leadgen/internal/sources/grants"
)

const SourceID = "funding"

type Enricher struct {
	grants *grants.Client
	logger *zap.Logger
}

func New(client *grants.Client, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{grants: client, logger: logger}
}

func (e *Enricher) Name() string { return SourceID }

// Enrich looks up grants for the candidate's organization. Organizations
// without any awards contribute nothing rather than an empty summary.
func (e *Enricher) Enrich(ctx context.Context, cand *lead.Candidate) (*enrich.Result, error) {
	organization, ok := cand.StringAttr(lead.FieldOrganization)
	if !ok {
		return nil, nil
	}

	info, err := e.grants.OrganizationFunding(ctx, organization)
	if err != nil {
		return nil, err
	}
	if info == nil || len(info.Grants) == 0 {
		return nil, nil
	}

	result := enrich.NewResult(SourceID)
	result.Fields[lead.FieldFunding] = info
	return result, nil
}
