package resolve

import (
	"strings"

	"leadgen/internal/lead"
)

// Merge folds one source record into a candidate: every populated scalar
// field goes through the priority rule, list fields accumulate, and the
// record itself is appended to the evidence trail.
func Merge(c *lead.Candidate, rec *lead.SourceRecord) {
	MergeField(c, lead.FieldTitle, rec.Title, rec.SourceID, rec.Priority)
	MergeField(c, lead.FieldOrganization, rec.Organization, rec.SourceID, rec.Priority)
	MergeField(c, lead.FieldLocation, rec.Location, rec.SourceID, rec.Priority)
	MergeField(c, lead.FieldEmail, rec.Email, rec.SourceID, rec.Priority)

	if len(rec.Keywords) > 0 {
		MergeField(c, lead.FieldKeywords, rec.Keywords, rec.SourceID, rec.Priority)
	}
	if len(rec.Publications) > 0 {
		MergeField(c, lead.FieldPublications, rec.Publications, rec.SourceID, rec.Priority)
	}
	if len(rec.Conferences) > 0 {
		MergeField(c, lead.FieldConferences, rec.Conferences, rec.SourceID, rec.Priority)
	}

	c.Evidence = append(c.Evidence, rec)
}

// MergeField applies the provenance rule for a single field: a new value wins
// only when the field is currently unknown or the new source has a strictly
// higher priority. On equal priority the first-seen value stays, so merges
// are stable regardless of how often a source repeats itself. List-valued
// fields accumulate instead of competing.
func MergeField(c *lead.Candidate, field string, value any, sourceID string, priority int) {
	switch v := value.(type) {
	case string:
		mergeString(c, field, v, sourceID, priority)
	case []string:
		mergeStrings(c, field, v, sourceID, priority)
	case []lead.Publication:
		mergePublications(c, field, v, sourceID, priority)
	case []lead.Appearance:
		mergeAppearances(c, field, v, sourceID, priority)
	case nil:
		// never looked up; nothing to reconcile
	default:
		// structured enrichment values (research, funding, confidence
		// numbers) follow the plain scalar rule
		mergeScalar(c, field, v, sourceID, priority)
	}
}

func mergeString(c *lead.Candidate, field, value, sourceID string, priority int) {
	value = strings.TrimSpace(value)
	// The Unknown placeholder means "looked up, found nothing". It never
	// overwrites a real value and never wins a field, no matter how
	// trusted the source.
	if value == "" || value == lead.Unknown {
		return
	}
	mergeScalar(c, field, value, sourceID, priority)
}

func mergeScalar(c *lead.Candidate, field string, value any, sourceID string, priority int) {
	current, ok := c.Attributes[field]
	if ok && priority <= current.Priority {
		return
	}
	c.Attributes[field] = lead.Attribute{
		Value:    value,
		SourceID: sourceID,
		Priority: priority,
	}
}

func mergeStrings(c *lead.Candidate, field string, values []string, sourceID string, priority int) {
	existing := make([]string, 0, len(values))
	seen := make(map[string]struct{})

	if current, ok := c.Attributes[field]; ok {
		if list, ok := current.Value.([]string); ok {
			existing = list
			for _, v := range list {
				seen[strings.ToLower(v)] = struct{}{}
			}
			// list fields keep their first winner's provenance
			sourceID = current.SourceID
			priority = current.Priority
		}
	}

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || v == lead.Unknown {
			continue
		}
		if _, ok := seen[strings.ToLower(v)]; ok {
			continue
		}
		seen[strings.ToLower(v)] = struct{}{}
		existing = append(existing, v)
	}

	if len(existing) == 0 {
		return
	}
	c.Attributes[field] = lead.Attribute{Value: existing, SourceID: sourceID, Priority: priority}
}

func mergePublications(c *lead.Candidate, field string, pubs []lead.Publication, sourceID string, priority int) {
	existing := make([]lead.Publication, 0, len(pubs))
	seen := make(map[string]struct{})

	if current, ok := c.Attributes[field]; ok {
		if list, ok := current.Value.([]lead.Publication); ok {
			existing = list
			for _, p := range list {
				seen[publicationKey(p)] = struct{}{}
			}
			sourceID = current.SourceID
			priority = current.Priority
		}
	}

	for _, p := range pubs {
		key := publicationKey(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		existing = append(existing, p)
	}

	if len(existing) == 0 {
		return
	}
	c.Attributes[field] = lead.Attribute{Value: existing, SourceID: sourceID, Priority: priority}
}

func mergeAppearances(c *lead.Candidate, field string, apps []lead.Appearance, sourceID string, priority int) {
	existing := make([]lead.Appearance, 0, len(apps))
	seen := make(map[lead.Appearance]struct{})

	if current, ok := c.Attributes[field]; ok {
		if list, ok := current.Value.([]lead.Appearance); ok {
			existing = list
			for _, a := range list {
				seen[a] = struct{}{}
			}
			sourceID = current.SourceID
			priority = current.Priority
		}
	}

	for _, a := range apps {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		existing = append(existing, a)
	}

	if len(existing) == 0 {
		return
	}
	c.Attributes[field] = lead.Attribute{Value: existing, SourceID: sourceID, Priority: priority}
}

func publicationKey(p lead.Publication) string {
	if p.ID != "" {
		return p.ID
	}
	return strings.ToLower(p.Title)
}
