package funding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"leadgen/internal/lead"
	"leadgen/internal/sources/grants"
)

func newTestEnricher(t *testing.T, handler http.Handler) *Enricher {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := grants.New(zap.NewNop())
	client.APIURL = srv.URL
	return New(client, zap.NewNop())
}

func candidateWithOrganization(org string) *lead.Candidate {
	cand := lead.NewCandidate("jane doe", "Jane Doe")
	cand.Attributes[lead.FieldOrganization] = lead.Attribute{
		Value: org, SourceID: "orcid", Priority: lead.PriorityRegistry,
	}
	return cand
}

func TestEnrichAttachesFunding(t *testing.T) {
	t.Parallel()

	enricher := newTestEnricher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [
			{"project_num": "R01-1", "project_title": "Liver organoids", "fiscal_year": 2024, "award_amount": 250000, "contact_pi_name": "DOE, JANE"}
		]}`))
	}))

	result, err := enricher.Enrich(context.Background(), candidateWithOrganization("Acme Bio"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatalf("expected a result")
	}

	info, ok := result.Fields[lead.FieldFunding].(*lead.FundingInfo)
	if !ok {
		t.Fatalf("expected funding info, got %T", result.Fields[lead.FieldFunding])
	}
	if len(info.Grants) != 1 || info.TotalAmount != 250000 {
		t.Fatalf("unexpected funding summary: %+v", info)
	}
	if result.Priority != lead.PriorityEnrichment {
		t.Fatalf("expected enrichment priority, got %d", result.Priority)
	}
}

func TestEnrichNoGrantsNoResult(t *testing.T) {
	t.Parallel()

	enricher := newTestEnricher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))

	result, err := enricher.Enrich(context.Background(), candidateWithOrganization("Acme Bio"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result for an organization without awards, got %+v", result)
	}
}

func TestEnrichUnknownOrganizationSkipsLookup(t *testing.T) {
	t.Parallel()

	enricher := newTestEnricher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no API call expected without an organization")
	}))

	result, err := enricher.Enrich(context.Background(), lead.NewCandidate("jane doe", "Jane Doe"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result, got %+v", result)
	}
}
