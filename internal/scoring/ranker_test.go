package scoring

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"leadgen/internal/lead"
)

func scoredCandidate(name string, total int) *lead.Candidate {
	cand := lead.NewCandidate(lead.IdentityKey(name), name)
	cand.Score = &lead.ScoreResult{Total: total, ComputedAt: time.Now()}
	return cand
}

func TestRankTiesKeepInputOrderAndGetDistinctRanks(t *testing.T) {
	t.Parallel()

	first := scoredCandidate("Jane Doe", 85)
	second := scoredCandidate("John Roe", 95)
	third := scoredCandidate("Alex Poe", 85)

	ranked, err := NewRanker(zap.NewNop()).Rank(
		&lead.Candidates{Items: []*lead.Candidate{first, second, third}},
		SortByScore, false,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Rank != 2 || second.Rank != 1 || third.Rank != 3 {
		t.Fatalf("expected ranks 2,1,3 for input positions, got %d,%d,%d",
			first.Rank, second.Rank, third.Rank)
	}
	if ranked.Items[0] != second || ranked.Items[1] != first || ranked.Items[2] != third {
		t.Fatalf("expected stable descending order, got %v", ranked.Names())
	}
}

func TestRankAssignsEveryRankExactlyOnce(t *testing.T) {
	t.Parallel()

	items := []*lead.Candidate{
		scoredCandidate("a", 40),
		scoredCandidate("b", 40),
		scoredCandidate("c", 90),
		scoredCandidate("d", 10),
		scoredCandidate("e", 40),
	}

	ranked, err := NewRanker(zap.NewNop()).Rank(&lead.Candidates{Items: items}, SortByScore, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[int]bool, len(items))
	for _, cand := range ranked.Items {
		if cand.Rank < 1 || cand.Rank > len(items) {
			t.Fatalf("rank %d for %q out of range", cand.Rank, cand.FullName)
		}
		if seen[cand.Rank] {
			t.Fatalf("rank %d assigned twice", cand.Rank)
		}
		seen[cand.Rank] = true
	}
}

func TestRankIsReproducible(t *testing.T) {
	t.Parallel()

	build := func() *lead.Candidates {
		return &lead.Candidates{Items: []*lead.Candidate{
			scoredCandidate("Jane Doe", 70),
			scoredCandidate("John Roe", 70),
			scoredCandidate("Alex Poe", 55),
		}}
	}

	ranker := NewRanker(zap.NewNop())
	first, err := ranker.Rank(build(), SortByScore, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ranker.Rank(build(), SortByScore, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first.Items {
		if first.Items[i].FullName != second.Items[i].FullName {
			t.Fatalf("position %d differs between runs: %q vs %q",
				i, first.Items[i].FullName, second.Items[i].FullName)
		}
		if first.Items[i].Rank != second.Items[i].Rank {
			t.Fatalf("rank for %q differs between runs", first.Items[i].FullName)
		}
	}
}

func TestRankAscendingReversesOrder(t *testing.T) {
	t.Parallel()

	items := &lead.Candidates{Items: []*lead.Candidate{
		scoredCandidate("low", 10),
		scoredCandidate("high", 90),
	}}

	ranked, err := NewRanker(zap.NewNop()).Rank(items, SortByScore, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranked.Items[0].FullName != "low" || ranked.Items[0].Rank != 1 {
		t.Fatalf("ascending sort must put the lowest score first")
	}
}

func TestRankByStringKeys(t *testing.T) {
	t.Parallel()

	alpha := scoredCandidate("Zoe Last", 10)
	alpha.Attributes[lead.FieldOrganization] = lead.Attribute{Value: "acme bio", SourceID: "s", Priority: 4}
	alpha.Attributes[lead.FieldLocation] = lead.Attribute{Value: "Boston, MA", SourceID: "s", Priority: 4}

	beta := scoredCandidate("Amy First", 90)
	beta.Attributes[lead.FieldOrganization] = lead.Attribute{Value: "Zenith Labs", SourceID: "s", Priority: 4}
	beta.Attributes[lead.FieldLocation] = lead.Attribute{Value: "austin, TX", SourceID: "s", Priority: 4}

	tests := []struct {
		key       SortKey
		wantFirst string
	}{
		{SortByName, "Amy First"},
		{SortByOrganization, "Zoe Last"},
		{SortByLocation, "Amy First"},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			t.Parallel()

			ranked, err := NewRanker(zap.NewNop()).Rank(
				&lead.Candidates{Items: []*lead.Candidate{alpha, beta}}, tt.key, true,
			)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ranked.Items[0].FullName != tt.wantFirst {
				t.Fatalf("key %s: expected %q first, got %q", tt.key, tt.wantFirst, ranked.Items[0].FullName)
			}
		})
	}
}

func TestRankRejectsInvalidSortKey(t *testing.T) {
	t.Parallel()

	_, err := NewRanker(zap.NewNop()).Rank(&lead.Candidates{}, SortKey("priority"), false)
	if err == nil {
		t.Fatalf("expected an error for an unknown sort key")
	}
}

func TestParseSortKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    SortKey
		wantErr bool
	}{
		{"score", SortByScore, false},
		{" Name ", SortByName, false},
		{"ORGANIZATION", SortByOrganization, false},
		{"location", SortByLocation, false},
		{"priority", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSortKey(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("input %q: expected an error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("input %q: expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestFilterByScoreBoundsAreInclusive(t *testing.T) {
	t.Parallel()

	items := &lead.Candidates{Items: []*lead.Candidate{
		scoredCandidate("below", 49),
		scoredCandidate("at min", 50),
		scoredCandidate("inside", 75),
		scoredCandidate("at max", 90),
		scoredCandidate("above", 91),
	}}

	filtered := NewRanker(zap.NewNop()).FilterByScore(items, 50, 90)
	if filtered.Len() != 3 {
		t.Fatalf("expected 3 candidates inside [50, 90], got %v", filtered.Names())
	}
	for _, cand := range filtered.Items {
		if total := cand.Total(); total < 50 || total > 90 {
			t.Fatalf("candidate %q with total %d escaped the filter", cand.FullName, total)
		}
	}
}

func TestFilterByScoreTreatsUnscoredAsZero(t *testing.T) {
	t.Parallel()

	unscored := lead.NewCandidate("jane doe", "Jane Doe")
	items := &lead.Candidates{Items: []*lead.Candidate{unscored, scoredCandidate("high", 80)}}

	filtered := NewRanker(zap.NewNop()).FilterByScore(items, 1, 100)
	if filtered.Len() != 1 || filtered.Items[0].FullName != "high" {
		t.Fatalf("unscored candidates must count as zero, got %v", filtered.Names())
	}
}

func TestTopReturnsHighestScoresInRankOrder(t *testing.T) {
	t.Parallel()

	items := &lead.Candidates{Items: []*lead.Candidate{
		scoredCandidate("third", 30),
		scoredCandidate("first", 95),
		scoredCandidate("second", 60),
	}}

	top, err := NewRanker(zap.NewNop()).Top(items, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if top.Len() != 2 {
		t.Fatalf("expected 2 candidates, got %d", top.Len())
	}
	if top.Items[0].FullName != "first" || top.Items[1].FullName != "second" {
		t.Fatalf("expected [first second], got %v", top.Names())
	}

	oversized, err := NewRanker(zap.NewNop()).Top(items, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oversized.Len() != 3 {
		t.Fatalf("expected the full set when n exceeds it, got %d", oversized.Len())
	}
}
