package resolve

import (
	"strings"

	"go.uber.org/zap"

	"leadgen/internal/lead"
)

const defaultMinSharedTokens = 2

// Config tunes identity resolution. The token threshold is configurable
// because the overlap rule is a quality tradeoff with common names, not a
// guaranteed-correct identity scheme.
type Config struct {
	// MinSharedTokens is how many lowercase name tokens a secondary-source
	// record must share with an existing candidate's raw name to be merged
	// into it instead of seeding a new candidate.
	MinSharedTokens int `mapstructure:"min-shared-tokens"`
}

// Resolver dedups source records into candidates. Exact identity-key matches
// always merge; records from secondary sources additionally get a fuzzy
// token-overlap pass, since registry identifiers are authoritative while
// publication and conference bylines are noisy.
type Resolver struct {
	minSharedTokens int
	logger          *zap.Logger
}

func New(cfg *Config, logger *zap.Logger) *Resolver {
	min := defaultMinSharedTokens
	if cfg != nil && cfg.MinSharedTokens > 0 {
		min = cfg.MinSharedTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		minSharedTokens: min,
		logger:          logger,
	}
}

// Resolve merges the given records into candidates, one per person. Records
// without a usable name are dropped with a warning. The output order is the
// discovery order of identity keys, which makes re-resolution of the same
// record set reproducible.
func (r *Resolver) Resolve(records []*lead.SourceRecord) *lead.Candidates {
	candidates := &lead.Candidates{}
	byKey := make(map[string]*lead.Candidate)

	dropped := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		name := strings.TrimSpace(rec.FullName)
		if name == "" {
			dropped++
			r.logger.Warn("dropping source record without a name",
				zap.String("source", rec.SourceID),
			)
			continue
		}

		key := lead.IdentityKey(name)
		cand, ok := byKey[key]
		if !ok {
			if rec.Priority < lead.PriorityRegistry {
				cand = r.fuzzyMatch(candidates, name)
			}
			if cand == nil {
				cand = lead.NewCandidate(key, name)
				candidates.Items = append(candidates.Items, cand)
			}
			// a fuzzily absorbed key must keep pointing at its holder, or a
			// later record with the same exact key would seed a duplicate
			byKey[key] = cand
		}

		Merge(cand, rec)
	}

	if dropped > 0 {
		r.logger.Warn("dropped unusable source records", zap.Int("count", dropped))
	}

	return candidates
}

// fuzzyMatch looks for an existing candidate whose raw name shares enough
// lowercase tokens with the record's raw name. Honorific tokens count, which
// mirrors how noisy bylines overlap in practice.
func (r *Resolver) fuzzyMatch(candidates *lead.Candidates, name string) *lead.Candidate {
	for _, cand := range candidates.Items {
		if lead.SharedTokens(cand.FullName, name) >= r.minSharedTokens {
			r.logger.Debug("merging record into existing candidate by token overlap",
				zap.String("record_name", name),
				zap.String("candidate_name", cand.FullName),
			)
			return cand
		}
	}
	return nil
}
