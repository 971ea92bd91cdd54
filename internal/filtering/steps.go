package filtering

import (
	"context"
	"strings"

	"leadgen/internal/lead"
	"leadgen/internal/store"
)

type minScoreFilter struct {
	min int
}

// NewMinScore creates a filter that drops leads scoring below the floor.
func NewMinScore(min int) Filter {
	return &minScoreFilter{min: min}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) IsEnabled() bool { return f.min > 0 }

func (f *minScoreFilter) Apply(_ context.Context, leads *lead.Candidates) (*lead.Candidates, Step, error) {
	initial := leads.Len()

	kept := &lead.Candidates{}
	for _, cand := range leads.Items {
		if cand.Total() >= f.min {
			kept.Items = append(kept.Items, cand)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - kept.Len(), Left: kept.Len()}, nil
}

type organizationsFilter struct {
	excluded []string
}

// NewExcludedOrganizations creates a filter that removes leads at blocklisted
// organizations, typically existing customers or competitors.
func NewExcludedOrganizations(organizations []string) Filter {
	return &organizationsFilter{excluded: organizations}
}

func (f *organizationsFilter) Name() string { return "excluded_organizations" }

func (f *organizationsFilter) IsEnabled() bool { return len(f.excluded) > 0 }

func (f *organizationsFilter) Apply(_ context.Context, leads *lead.Candidates) (*lead.Candidates, Step, error) {
	initial := leads.Len()

	kept := &lead.Candidates{}
	for _, cand := range leads.Items {
		org, _ := cand.StringAttr(lead.FieldOrganization)
		if !f.matches(org) {
			kept.Items = append(kept.Items, cand)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - kept.Len(), Left: kept.Len()}, nil
}

func (f *organizationsFilter) matches(organization string) bool {
	if organization == "" {
		return false
	}
	lower := strings.ToLower(organization)
	for _, excluded := range f.excluded {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(excluded))) {
			return true
		}
	}
	return false
}

type contactedFilter struct {
	db *store.Store
}

// NewAlreadyContacted creates a filter that removes leads whose saved
// outreach status has moved beyond new, so repeated runs never resurface
// someone already being worked.
func NewAlreadyContacted(db *store.Store) Filter {
	return &contactedFilter{db: db}
}

func (f *contactedFilter) Name() string { return "already_contacted" }

func (f *contactedFilter) IsEnabled() bool { return f.db != nil }

func (f *contactedFilter) Apply(ctx context.Context, leads *lead.Candidates) (*lead.Candidates, Step, error) {
	initial := leads.Len()

	kept := &lead.Candidates{}
	for _, cand := range leads.Items {
		stored, err := f.db.GetByIdentityKey(ctx, cand.IdentityKey)
		if err != nil {
			return nil, Step{}, err
		}
		if stored != nil && stored.Status != store.StatusNew {
			continue
		}
		kept.Items = append(kept.Items, cand)
	}

	return kept, Step{Initial: initial, Dropped: initial - kept.Len(), Left: kept.Len()}, nil
}
