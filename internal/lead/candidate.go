package lead

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Attribute is one reconciled field value together with the source that won
// it. Presence in the Attributes map means "known"; absence means the field
// was never populated by any source.
type Attribute struct {
	Value    any
	SourceID string
	Priority int
}

// Candidate is the merged representation of one person across all sources.
// It is created on the first sighting of a new identity key, mutated by every
// subsequent merge and by scoring, and left alone after ranking.
type Candidate struct {
	IdentityKey string
	// FullName is the raw name of the first record that seeded the
	// candidate, kept for display and for the fuzzy token-overlap pass.
	FullName   string
	Attributes map[string]Attribute
	// Evidence lists every merged source record in discovery order.
	Evidence []*SourceRecord
	Score    *ScoreResult
	// Rank is assigned by the ranking engine; zero means unranked.
	Rank int
}

// NewCandidate seeds an empty candidate for the given identity key.
func NewCandidate(key, fullName string) *Candidate {
	return &Candidate{
		IdentityKey: key,
		FullName:    fullName,
		Attributes:  make(map[string]Attribute),
	}
}

// Attr returns the attribute for the field and whether it is populated.
func (c *Candidate) Attr(field string) (Attribute, bool) {
	attr, ok := c.Attributes[field]
	return attr, ok
}

// StringAttr returns a string-valued field. The second return is false when
// the field is absent, empty or the Unknown sentinel.
func (c *Candidate) StringAttr(field string) (string, bool) {
	attr, ok := c.Attributes[field]
	if !ok {
		return "", false
	}
	s, ok := attr.Value.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || s == Unknown {
		return "", false
	}
	return s, true
}

// IntAttr returns an int-valued field, zero when absent.
func (c *Candidate) IntAttr(field string) int {
	attr, ok := c.Attributes[field]
	if !ok {
		return 0
	}
	if v, ok := attr.Value.(int); ok {
		return v
	}
	return 0
}

// BoolAttr returns a bool-valued field, false when absent.
func (c *Candidate) BoolAttr(field string) bool {
	attr, ok := c.Attributes[field]
	if !ok {
		return false
	}
	v, _ := attr.Value.(bool)
	return v
}

// Publications returns the accumulated publication list.
func (c *Candidate) Publications() []Publication {
	attr, ok := c.Attributes[FieldPublications]
	if !ok {
		return nil
	}
	pubs, _ := attr.Value.([]Publication)
	return pubs
}

// Conferences returns the accumulated conference appearances.
func (c *Candidate) Conferences() []Appearance {
	attr, ok := c.Attributes[FieldConferences]
	if !ok {
		return nil
	}
	apps, _ := attr.Value.([]Appearance)
	return apps
}

// Keywords returns the accumulated research keywords.
func (c *Candidate) Keywords() []string {
	attr, ok := c.Attributes[FieldKeywords]
	if !ok {
		return nil
	}
	kw, _ := attr.Value.([]string)
	return kw
}

// Research returns attached company research, nil when absent.
func (c *Candidate) Research() *CompanyResearch {
	attr, ok := c.Attributes[FieldResearch]
	if !ok {
		return nil
	}
	r, _ := attr.Value.(*CompanyResearch)
	return r
}

// Funding returns attached funding info, nil when absent.
func (c *Candidate) Funding() *FundingInfo {
	attr, ok := c.Attributes[FieldFunding]
	if !ok {
		return nil
	}
	f, _ := attr.Value.(*FundingInfo)
	return f
}

// LocationInfo returns attached location analysis, nil when absent.
func (c *Candidate) LocationInfo() *LocationInfo {
	attr, ok := c.Attributes[FieldLocationInfo]
	if !ok {
		return nil
	}
	l, _ := attr.Value.(*LocationInfo)
	return l
}

// Total returns the score total, zero when unscored.
func (c *Candidate) Total() int {
	if c.Score == nil {
		return 0
	}
	return c.Score.Total
}

// Candidates is an ordered collection of resolved candidates.
type Candidates struct {
	Items []*Candidate
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// FindByKey returns the candidate with the given identity key, or nil.
func (c *Candidates) FindByKey(key string) *Candidate {
	for _, cand := range c.Items {
		if cand.IdentityKey == key {
			return cand
		}
	}
	return nil
}

// Names returns the display names of all candidates in order.
func (c *Candidates) Names() []string {
	names := make([]string, 0, len(c.Items))
	for _, cand := range c.Items {
		names = append(names, cand.FullName)
	}
	return names
}

// ReportByOrganization groups candidates under their organization for the
// interactive report action.
func (c *Candidates) ReportByOrganization() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, cand := range c.Items {
		org, ok := cand.StringAttr(FieldOrganization)
		if !ok {
			org = Unknown
		}

		entry := map[string]string{
			"name":  cand.FullName,
			"score": strconv.Itoa(cand.Total()),
		}
		if title, ok := cand.StringAttr(FieldTitle); ok {
			entry["title"] = title
		}
		if loc, ok := cand.StringAttr(FieldLocation); ok {
			entry["location"] = loc
		}
		if email, ok := cand.StringAttr(FieldEmail); ok {
			entry["email"] = email
		}
		if cand.Rank > 0 {
			entry["rank"] = strconv.Itoa(cand.Rank)
		}
		report[org] = append(report[org], entry)
	}
	return report
}

// DumpToTmpFile writes the candidate list as indented JSON to a temp file and
// returns its name.
func (c *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "leads_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.export()); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// export flattens candidates into a JSON-friendly shape. Attribute values are
// emitted alongside their provenance so downstream reporting can reconstruct
// why a candidate scored as it did.
func (c *Candidates) export() []map[string]any {
	out := make([]map[string]any, 0, len(c.Items))
	for _, cand := range c.Items {
		attrs := make(map[string]any, len(cand.Attributes))
		for field, attr := range cand.Attributes {
			attrs[field] = map[string]any{
				"value":    attr.Value,
				"source":   attr.SourceID,
				"priority": attr.Priority,
			}
		}

		entry := map[string]any{
			"identity_key": cand.IdentityKey,
			"name":         cand.FullName,
			"attributes":   attrs,
			"evidence":     len(cand.Evidence),
		}
		if cand.Score != nil {
			entry["score"] = cand.Score
		}
		if cand.Rank > 0 {
			entry["rank"] = cand.Rank
		}
		out = append(out, entry)
	}
	return out
}

// Describe renders a one-line summary for logging.
func (c *Candidate) Describe() string {
	org, _ := c.StringAttr(FieldOrganization)
	return fmt.Sprintf("%s (%s)", c.FullName, org)
}
