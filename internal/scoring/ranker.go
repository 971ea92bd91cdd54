package scoring

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"leadgen/internal/lead"
)

// SortKey selects the attribute the ranking engine orders by.
type SortKey string

const (
	SortByScore        SortKey = "score"
	SortByName         SortKey = "name"
	SortByOrganization SortKey = "organization"
	SortByLocation     SortKey = "location"
)

// ParseSortKey validates a user-supplied sort key. An unknown key is a
// programming or configuration error and fails loudly.
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case SortByScore, SortByName, SortByOrganization, SortByLocation:
		return key, nil
	default:
		return "", fmt.Errorf("invalid sort key: %q", s)
	}
}

// Ranker total-orders scored candidates and assigns dense ranks.
type Ranker struct {
	logger *zap.Logger
}

func NewRanker(logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{logger: logger}
}

// Rank stably sorts the candidates by the chosen key and assigns ranks 1..N
// by enumeration position. Ties keep their original relative order and get
// consecutive distinct ranks, not shared ones, so rank assignment is
// reproducible across runs with identical input.
func (r *Ranker) Rank(candidates *lead.Candidates, key SortKey, ascending bool) (*lead.Candidates, error) {
	less, err := comparatorFor(key)
	if err != nil {
		return nil, err
	}

	items := make([]*lead.Candidate, len(candidates.Items))
	copy(items, candidates.Items)

	sort.SliceStable(items, func(i, j int) bool {
		if ascending {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
	})

	for idx, cand := range items {
		cand.Rank = idx + 1
	}

	r.logger.Debug("ranked candidates",
		zap.String("sort_key", string(key)),
		zap.Bool("ascending", ascending),
		zap.Int("count", len(items)),
	)

	return &lead.Candidates{Items: items}, nil
}

// FilterByScore keeps candidates whose total falls inside [min, max].
func (r *Ranker) FilterByScore(candidates *lead.Candidates, min, max int) *lead.Candidates {
	filtered := &lead.Candidates{}
	for _, cand := range candidates.Items {
		if total := cand.Total(); total >= min && total <= max {
			filtered.Items = append(filtered.Items, cand)
		}
	}
	return filtered
}

// Top ranks by score descending and returns the first n candidates.
func (r *Ranker) Top(candidates *lead.Candidates, n int) (*lead.Candidates, error) {
	ranked, err := r.Rank(candidates, SortByScore, false)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n > ranked.Len() {
		n = ranked.Len()
	}
	return &lead.Candidates{Items: ranked.Items[:n]}, nil
}

func comparatorFor(key SortKey) (func(a, b *lead.Candidate) bool, error) {
	switch key {
	case SortByScore:
		return func(a, b *lead.Candidate) bool {
			return a.Total() < b.Total()
		}, nil
	case SortByName:
		return stringComparator(func(c *lead.Candidate) string { return c.FullName }), nil
	case SortByOrganization:
		return stringComparator(func(c *lead.Candidate) string {
			org, _ := c.StringAttr(lead.FieldOrganization)
			return org
		}), nil
	case SortByLocation:
		return stringComparator(func(c *lead.Candidate) string {
			loc, _ := c.StringAttr(lead.FieldLocation)
			return loc
		}), nil
	default:
		return nil, fmt.Errorf("invalid sort key: %q", key)
	}
}

func stringComparator(field func(*lead.Candidate) string) func(a, b *lead.Candidate) bool {
	return func(a, b *lead.Candidate) bool {
		return strings.ToLower(field(a)) < strings.ToLower(field(b))
	}
}
