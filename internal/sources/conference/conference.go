// Package conference covers presenter discovery for the big toxicology
// meetings (SOT, AACR, ACT). None of them publish a machine-readable
// programme, so every search currently comes back empty; the source still
// participates in the pipeline so its records slot in as soon as a feed
// exists.
package conference

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadgen/internal/lead"
	"leadgen/internal/sources"
)

const SourceID = "conference"

// known maps a conference code to its public site.
var known = map[string]string{
	"SOT":  "https://www.toxicology.org",
	"AACR": "https://www.aacr.org",
	"ACT":  "https://www.actox.org",
}

type Client struct {
	logger *zap.Logger
	now    func() time.Time
}

func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{logger: logger, now: time.Now}
}

func (c *Client) Name() string { return SourceID }

func (c *Client) Priority() int { return lead.PriorityConference }

// Fetch walks the configured conferences and collects whatever presenter
// records each programme yields. Unknown conference codes are warned about
// and skipped.
func (c *Client) Fetch(ctx context.Context, criteria *sources.Criteria) ([]*lead.SourceRecord, error) {
	year := c.now().Year()

	var records []*lead.SourceRecord
	for _, name := range criteria.Conferences {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		code := strings.ToUpper(strings.TrimSpace(name))
		site, ok := known[code]
		if !ok {
			c.logger.Warn("unknown conference", zap.String("conference", name))
			continue
		}

		presenters := c.searchProgramme(code, site, criteria.Keywords, year)
		records = append(records, presenters...)
	}

	return records, nil
}

// searchProgramme would extract presenters from a conference programme. The
// societies only publish their abstract databases behind interactive search
// forms, so there is nothing to parse yet.
func (c *Client) searchProgramme(code, site string, keywords []string, year int) []*lead.SourceRecord {
	c.logger.Warn("conference programme has no machine-readable feed",
		zap.String("conference", code),
		zap.String("site", site),
		zap.Int("year", year),
		zap.Strings("skipped_keywords", keywords),
	)
	return nil
}
