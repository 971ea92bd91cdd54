package sources

import (
	"context"

	"leadgen/internal/lead"
)

// Criteria is the search brief shared by every ingestion source. Each source
// picks the parts it can act on and ignores the rest.
type Criteria struct {
	Titles      []string `mapstructure:"titles"`
	Locations   []string `mapstructure:"locations"`
	Keywords    []string `mapstructure:"keywords"`
	Conferences []string `mapstructure:"conferences"`
	Limit       int      `mapstructure:"limit"`
}

// Source is one ingestion collaborator. Fetch returns every evidence fragment
// it could find for the criteria; a source that finds nothing returns an empty
// slice, not an error.
type Source interface {
	Name() string
	Priority() int
	Fetch(ctx context.Context, criteria *Criteria) ([]*lead.SourceRecord, error)
}
