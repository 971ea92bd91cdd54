package lead

import (
	"encoding/json"
	"os"
	"testing"
)

func TestStringAttrFiltersEmptyAndUnknown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  any
		wantOK bool
		want   string
	}{
		{"populated", "Acme Bio", true, "Acme Bio"},
		{"padded", "  Acme Bio  ", true, "Acme Bio"},
		{"empty", "", false, ""},
		{"whitespace", "   ", false, ""},
		{"unknown sentinel", Unknown, false, ""},
		{"wrong type", 42, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cand := NewCandidate("jane doe", "Jane Doe")
			cand.Attributes[FieldOrganization] = Attribute{Value: tt.value, SourceID: "s", Priority: 1}

			got, ok := cand.StringAttr(FieldOrganization)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("StringAttr = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStringAttrAbsentField(t *testing.T) {
	t.Parallel()

	cand := NewCandidate("jane doe", "Jane Doe")
	if _, ok := cand.StringAttr(FieldEmail); ok {
		t.Fatalf("absent field must not report as populated")
	}
}

func TestTypedAccessorsTolerateWrongTypes(t *testing.T) {
	t.Parallel()

	cand := NewCandidate("jane doe", "Jane Doe")
	cand.Attributes[FieldEmailConfidence] = Attribute{Value: "ninety", SourceID: "s", Priority: 1}
	cand.Attributes[FieldPublications] = Attribute{Value: "not a list", SourceID: "s", Priority: 1}
	cand.Attributes[FieldResearch] = Attribute{Value: 7, SourceID: "s", Priority: 1}

	if got := cand.IntAttr(FieldEmailConfidence); got != 0 {
		t.Fatalf("expected zero for a mistyped int field, got %d", got)
	}
	if got := cand.Publications(); got != nil {
		t.Fatalf("expected nil for a mistyped publication list, got %v", got)
	}
	if got := cand.Research(); got != nil {
		t.Fatalf("expected nil for mistyped research, got %v", got)
	}
}

func TestTotalUnscoredIsZero(t *testing.T) {
	t.Parallel()

	cand := NewCandidate("jane doe", "Jane Doe")
	if cand.Total() != 0 {
		t.Fatalf("unscored candidate must total zero")
	}

	cand.Score = &ScoreResult{Total: 42}
	if cand.Total() != 42 {
		t.Fatalf("expected 42, got %d", cand.Total())
	}
}

func TestFindByKey(t *testing.T) {
	t.Parallel()

	jane := NewCandidate("jane doe", "Jane Doe")
	candidates := &Candidates{Items: []*Candidate{jane, NewCandidate("john roe", "John Roe")}}

	if got := candidates.FindByKey("jane doe"); got != jane {
		t.Fatalf("expected to find jane doe, got %v", got)
	}
	if got := candidates.FindByKey("nobody"); got != nil {
		t.Fatalf("expected nil for an unknown key, got %v", got)
	}
}

func TestReportByOrganizationGroupsAndFallsBackToUnknown(t *testing.T) {
	t.Parallel()

	withOrg := NewCandidate("jane doe", "Jane Doe")
	withOrg.Attributes[FieldOrganization] = Attribute{Value: "Acme Bio", SourceID: "s", Priority: 4}
	withOrg.Attributes[FieldTitle] = Attribute{Value: "Director", SourceID: "s", Priority: 4}
	withOrg.Score = &ScoreResult{Total: 80}
	withOrg.Rank = 1

	sameOrg := NewCandidate("john roe", "John Roe")
	sameOrg.Attributes[FieldOrganization] = Attribute{Value: "Acme Bio", SourceID: "s", Priority: 4}

	orphan := NewCandidate("alex poe", "Alex Poe")

	report := (&Candidates{Items: []*Candidate{withOrg, sameOrg, orphan}}).ReportByOrganization()

	if got := len(report["Acme Bio"]); got != 2 {
		t.Fatalf("expected 2 entries under Acme Bio, got %d", got)
	}
	if got := len(report[Unknown]); got != 1 {
		t.Fatalf("expected 1 entry under %s, got %d", Unknown, got)
	}

	entry := report["Acme Bio"][0]
	if entry["name"] != "Jane Doe" || entry["score"] != "80" || entry["rank"] != "1" || entry["title"] != "Director" {
		t.Fatalf("unexpected report entry: %v", entry)
	}
}

func TestDumpToTmpFileWritesValidJSON(t *testing.T) {
	t.Parallel()

	cand := NewCandidate("jane doe", "Jane Doe")
	cand.Attributes[FieldOrganization] = Attribute{Value: "Acme Bio", SourceID: "registry", Priority: PriorityRegistry}
	cand.Score = &ScoreResult{Total: 55, Breakdown: map[string]int{"title_relevance": 15}}

	path, err := (&Candidates{Items: []*Candidate{cand}}).DumpToTmpFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(decoded))
	}
	if decoded[0]["identity_key"] != "jane doe" {
		t.Fatalf("unexpected identity key: %v", decoded[0]["identity_key"])
	}
}
