package scoring

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadgen/internal/lead"
)

// Sub-score names as they appear in every breakdown.
const (
	SubTitleRelevance  = "title_relevance"
	SubPublications    = "publication_count"
	SubLocationQuality = "location_quality"
	SubOrganization    = "organization_found"
	SubContact         = "email_found"
	SubCompanySignals  = "company_signals"
)

const maxTotal = 100

// Scorer computes a bounded propensity score from a candidate's reconciled
// attributes. It performs no I/O: every enrichment result it consumes must
// already be attached to the candidate.
type Scorer struct {
	weights Weights
	vocab   Vocabulary
	logger  *zap.Logger
	now     func() time.Time
	subs    []subScore
}

type subScore struct {
	name   string
	weight int
	fn     func(*lead.Candidate, int) int
}

func NewScorer(weights Weights, vocab Vocabulary, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scorer{
		weights: weights,
		vocab:   vocab,
		logger:  logger,
		now:     time.Now,
	}
	s.subs = []subScore{
		{SubTitleRelevance, weights.TitleRelevance, s.titleRelevance},
		{SubPublications, weights.Publications, s.publications},
		{SubLocationQuality, weights.LocationQuality, s.locationQuality},
		{SubOrganization, weights.Organization, s.organization},
		{SubContact, weights.Contact, s.contact},
		{SubCompanySignals, weights.CompanySignals, s.companySignals},
	}
	return s
}

// Score evaluates all sub-scores independently. Each is clamped to
// [0, weight] before summation and a failure in one sub-score degrades it to
// zero without aborting the rest, so a missing enrichment field produces a
// low score instead of a crashed pipeline. The total is capped at 100.
func (s *Scorer) Score(c *lead.Candidate) *lead.ScoreResult {
	result := &lead.ScoreResult{
		Breakdown:  make(map[string]int, len(s.subs)),
		ComputedAt: s.now(),
	}

	for _, sub := range s.subs {
		value, err := s.runSub(sub.name, sub.fn, c, sub.weight)
		if err != nil {
			s.logger.Warn("sub-score failed, degrading to zero",
				zap.String("sub_score", sub.name),
				zap.String("candidate", c.FullName),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", sub.name, err))
			value = 0
		}
		value = clamp(value, sub.weight)
		result.Breakdown[sub.name] = value
		result.Total += value
	}

	if result.Total > maxTotal {
		result.Total = maxTotal
	}
	return result
}

// runSub isolates one sub-score computation, turning a panic into an error.
func (s *Scorer) runSub(name string, fn func(*lead.Candidate, int) int, c *lead.Candidate, weight int) (value int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("computing %s: %v", name, r)
		}
	}()
	return fn(c, weight), nil
}

func (s *Scorer) titleRelevance(c *lead.Candidate, weight int) int {
	title, ok := c.StringAttr(lead.FieldTitle)
	if !ok {
		return 0
	}
	title = strings.ToLower(title)
	if title == "researcher" {
		// the generic fallback title carries no signal
		return 0
	}

	for _, kw := range s.vocab.HighRelevanceTitles {
		if strings.Contains(title, kw) {
			return weight
		}
	}
	for _, kw := range s.vocab.MediumRelevanceTitles {
		if strings.Contains(title, kw) {
			return weight / 2
		}
	}
	return 0
}

func (s *Scorer) publications(c *lead.Candidate, weight int) int {
	pubs := c.Publications()
	if len(pubs) == 0 {
		return 0
	}

	var base int
	switch count := len(pubs); {
	case count >= 10:
		base = weight
	case count >= 5:
		base = weight * 3 / 4
	case count >= 2:
		base = weight / 2
	default:
		base = weight / 4
	}

	relevant := 0
	for _, pub := range pubs {
		title := strings.ToLower(pub.Title)
		for _, kw := range s.vocab.RelevantTopics {
			if strings.Contains(title, kw) {
				relevant++
				break
			}
		}
	}

	if relevant > 0 {
		bonus := relevant * 3
		if bonus > weight/4 {
			bonus = weight / 4
		}
		return clamp(base+bonus, weight)
	}
	return base
}

func (s *Scorer) locationQuality(c *lead.Candidate, weight int) int {
	location, ok := c.StringAttr(lead.FieldLocation)
	if !ok {
		return 0
	}
	location = strings.ToLower(location)

	for _, hub := range s.vocab.PrimaryHubs {
		if strings.Contains(location, hub) {
			return weight
		}
	}
	for _, hub := range s.vocab.SecondaryHubs {
		if strings.Contains(location, hub) {
			return weight / 2
		}
	}
	return 0
}

func (s *Scorer) organization(c *lead.Candidate, weight int) int {
	attr, ok := c.Attr(lead.FieldOrganization)
	if !ok {
		return 0
	}
	value, isString := attr.Value.(string)
	if !isString || strings.TrimSpace(value) == "" || value == lead.Unknown {
		return 0
	}

	// a registry profile is self-reported; without company research
	// corroborating the organization it only earns half weight
	if attr.Priority == lead.PriorityRegistry && c.Research() == nil {
		return weight / 2
	}
	return weight
}

func (s *Scorer) contact(c *lead.Candidate, weight int) int {
	email, ok := c.StringAttr(lead.FieldEmail)
	if !ok || !strings.Contains(email, "@") {
		return 0
	}

	switch confidence := c.IntAttr(lead.FieldEmailConfidence); {
	case confidence >= 80:
		return weight
	case confidence >= 50:
		return weight * 3 / 4
	case confidence > 0:
		return weight / 2
	default:
		// found but never scored by the discovery service
		return weight / 2
	}
}

func (s *Scorer) companySignals(c *lead.Candidate, weight int) int {
	research := c.Research()
	if research == nil {
		return 0
	}

	score := 0
	if research.Uses3DModels {
		score += weight / 2
	}
	if len(research.Technologies) > 0 {
		score += weight / 4
	}
	if research.JobPostings {
		score += weight / 4
	}
	if research.OpenToNAMs {
		score += weight / 4
	}
	return clamp(score, weight)
}

func clamp(value, weight int) int {
	if value < 0 {
		return 0
	}
	if value > weight {
		return weight
	}
	return value
}
