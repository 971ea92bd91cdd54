// Package filtering narrows a ranked lead list before it is presented:
// score floors, organization blocklists and already-contacted leads are
// dropped by sequential filter steps.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"leadgen/internal/lead"
)

// Filter represents a single filtering step applied to leads.
type Filter interface {
	Name() string
	IsEnabled() bool
	Apply(ctx context.Context, leads *lead.Candidates) (*lead.Candidates, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the supplied filters sequentially and returns the remaining
// leads.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, leads *lead.Candidates) (*lead.Candidates, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, leads)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		leads = next
	}

	return leads, nil
}
