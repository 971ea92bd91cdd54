package filtering

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"leadgen/internal/lead"
	"leadgen/internal/store"
)

func scoredCandidate(name, org string, score int) *lead.Candidate {
	cand := lead.NewCandidate(lead.IdentityKey(name), name)
	cand.Attributes[lead.FieldOrganization] = lead.Attribute{
		Value: org, SourceID: "orcid", Priority: lead.PriorityRegistry,
	}
	cand.Score = &lead.ScoreResult{Total: score}
	return cand
}

func TestMinScoreDropsBelowFloor(t *testing.T) {
	t.Parallel()

	leads := &lead.Candidates{Items: []*lead.Candidate{
		scoredCandidate("Jane Doe", "Acme Bio", 80),
		scoredCandidate("John Smith", "Beta Labs", 40),
	}}

	result, err := Run(context.Background(), zap.NewNop(), []Filter{NewMinScore(50)}, leads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 || result.Items[0].FullName != "Jane Doe" {
		t.Fatalf("expected only the lead above the floor, got %v", result.Names())
	}
}

func TestMinScoreFloorIsInclusive(t *testing.T) {
	t.Parallel()

	leads := &lead.Candidates{Items: []*lead.Candidate{
		scoredCandidate("Jane Doe", "Acme Bio", 50),
	}}

	result, err := Run(context.Background(), zap.NewNop(), []Filter{NewMinScore(50)}, leads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("a lead at exactly the floor must survive")
	}
}

func TestMinScoreZeroIsDisabled(t *testing.T) {
	t.Parallel()

	if NewMinScore(0).IsEnabled() {
		t.Fatalf("a zero floor must disable the filter")
	}
}

func TestExcludedOrganizationsMatchesCaseInsensitively(t *testing.T) {
	t.Parallel()

	leads := &lead.Candidates{Items: []*lead.Candidate{
		scoredCandidate("Jane Doe", "Acme Bio Inc", 80),
		scoredCandidate("John Smith", "Beta Labs", 70),
	}}

	result, err := Run(context.Background(), zap.NewNop(), []Filter{
		NewExcludedOrganizations([]string{"acme bio"}),
	}, leads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 || result.Items[0].FullName != "John Smith" {
		t.Fatalf("expected the blocklisted organization to be dropped, got %v", result.Names())
	}
}

func TestExcludedOrganizationsKeepsUnknown(t *testing.T) {
	t.Parallel()

	cand := lead.NewCandidate("jane doe", "Jane Doe")
	leads := &lead.Candidates{Items: []*lead.Candidate{cand}}

	result, err := Run(context.Background(), zap.NewNop(), []Filter{
		NewExcludedOrganizations([]string{"acme"}),
	}, leads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("a lead without an organization must not match a blocklist entry")
	}
}

func TestAlreadyContactedDropsWorkedLeads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	contacted := scoredCandidate("Jane Doe", "Acme Bio", 80)
	fresh := scoredCandidate("John Smith", "Beta Labs", 70)

	if _, err := db.SaveCandidates(ctx, &lead.Candidates{Items: []*lead.Candidate{contacted}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, err := db.GetByIdentityKey(ctx, contacted.IdentityKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := db.UpdateStatus(ctx, stored.ID, store.StatusContacted, ""); err != nil {
		t.Fatalf("update status: %v", err)
	}

	result, err := Run(ctx, zap.NewNop(), []Filter{NewAlreadyContacted(db)}, &lead.Candidates{
		Items: []*lead.Candidate{contacted, fresh},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 || result.Items[0].FullName != "John Smith" {
		t.Fatalf("expected the contacted lead to be dropped, got %v", result.Names())
	}
}

func TestAlreadyContactedKeepsNewAndUnsaved(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	saved := scoredCandidate("Jane Doe", "Acme Bio", 80)
	if _, err := db.SaveCandidates(ctx, &lead.Candidates{Items: []*lead.Candidate{saved}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := Run(ctx, zap.NewNop(), []Filter{NewAlreadyContacted(db)}, &lead.Candidates{
		Items: []*lead.Candidate{saved, scoredCandidate("John Smith", "Beta Labs", 70)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 2 {
		t.Fatalf("a saved-but-new lead and an unsaved lead must both survive, got %v", result.Names())
	}
}

func TestDisabledFiltersAreSkipped(t *testing.T) {
	t.Parallel()

	leads := &lead.Candidates{Items: []*lead.Candidate{
		scoredCandidate("Jane Doe", "Acme Bio", 10),
	}}

	result, err := Run(context.Background(), zap.NewNop(), []Filter{
		NewMinScore(0),
		NewExcludedOrganizations(nil),
		NewAlreadyContacted(nil),
	}, leads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("disabled filters must not drop anything")
	}
}
