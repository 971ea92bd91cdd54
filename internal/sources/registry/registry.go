// Package registry discovers researcher profiles through the ORCID public
// API. ORCID records are curated by the researchers themselves, which makes
// this the most trusted ingestion source.
package registry

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadgen/internal/lead"
	"leadgen/internal/sources"
	"leadgen/internal/utils"
)

const (
	SourceID = "orcid"

	publicAPIURL = "https://pub.orcid.org/v3.0"
	// Max rows the search endpoint returns per request.
	maxRows = 100

	rateLimitDelay = time.Second
)

type Client struct {
	http      *sources.Client
	logger    *zap.Logger
	APIURL    string
	RateLimit time.Duration
}

func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:      sources.NewClient(logger),
		logger:    logger,
		APIURL:    publicAPIURL,
		RateLimit: rateLimitDelay,
	}
}

func (c *Client) Name() string { return SourceID }

func (c *Client) Priority() int { return lead.PriorityRegistry }

// Fetch searches ORCID for profiles matching the criteria's titles and
// keywords, then pulls the full record for each hit. A profile that cannot be
// fetched is skipped with a warning rather than failing the whole search.
func (c *Client) Fetch(ctx context.Context, criteria *sources.Criteria) ([]*lead.SourceRecord, error) {
	terms := append(append([]string{}, criteria.Titles...), criteria.Keywords...)
	query := strings.TrimSpace(strings.Join(terms, " "))
	if query == "" {
		return nil, nil
	}

	limit := criteria.Limit
	if limit <= 0 || limit > maxRows {
		limit = maxRows
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("rows", strconv.Itoa(limit))

	var search searchResponse
	if err := c.http.GetJSON(ctx, c.APIURL+"/search", q, &search); err != nil {
		return nil, fmt.Errorf("searching orcid: %w", err)
	}

	c.logger.Debug("got search response from orcid",
		zap.String("query", query),
		zap.Int("hits", len(search.Result)),
	)

	records := make([]*lead.SourceRecord, 0, len(search.Result))
	for _, hit := range search.Result {
		id := hit.Identifier.Path
		if id == "" {
			continue
		}

		record, err := c.fetchRecord(ctx, id)
		if err != nil {
			c.logger.Warn("skipping orcid profile",
				zap.String("orcid_id", id),
				zap.Error(err),
			)
			continue
		}
		records = append(records, record)

		if err := utils.WaitFor(ctx, c.RateLimit); err != nil {
			return records, err
		}
	}

	return records, nil
}

func (c *Client) fetchRecord(ctx context.Context, id string) (*lead.SourceRecord, error) {
	var record orcidRecord
	if err := c.http.GetJSON(ctx, fmt.Sprintf("%s/%s/record", c.APIURL, id), nil, &record); err != nil {
		return nil, err
	}
	return record.toSourceRecord(id), nil
}

// ORCID wraps most strings in either {"value": ...} or {"content": ...}
// depending on the section. orcidValue flattens both.
type orcidValue struct {
	Value   string `json:"value"`
	Content string `json:"content"`
}

func (v orcidValue) String() string {
	if v.Value != "" {
		return v.Value
	}
	return v.Content
}

type searchResponse struct {
	Result []struct {
		Identifier struct {
			Path string `json:"path"`
		} `json:"orcid-identifier"`
	} `json:"result"`
}

type orcidRecord struct {
	Person struct {
		Name struct {
			GivenNames orcidValue `json:"given-names"`
			FamilyName orcidValue `json:"family-name"`
		} `json:"name"`
		Addresses struct {
			Address []struct {
				City    orcidValue `json:"city"`
				Region  orcidValue `json:"region"`
				Country orcidValue `json:"country"`
			} `json:"address"`
		} `json:"addresses"`
		Emails struct {
			Email []struct {
				Email string `json:"email"`
			} `json:"email"`
		} `json:"emails"`
		Keywords struct {
			Keyword []orcidValue `json:"keyword"`
		} `json:"keywords"`
	} `json:"person"`
	Activities struct {
		Employments struct {
			Summaries []struct {
				RoleTitle    string `json:"role-title"`
				Organization struct {
					Name string `json:"name"`
				} `json:"organization"`
			} `json:"employment-summary"`
		} `json:"employments"`
	} `json:"activities-summary"`
}

func (r *orcidRecord) toSourceRecord(id string) *lead.SourceRecord {
	fullName := strings.TrimSpace(
		r.Person.Name.GivenNames.String() + " " + r.Person.Name.FamilyName.String(),
	)

	title := ""
	organization := ""
	if len(r.Activities.Employments.Summaries) > 0 {
		// the first employment summary is the current one
		current := r.Activities.Employments.Summaries[0]
		title = current.RoleTitle
		organization = current.Organization.Name
	}
	if title == "" {
		title = "Researcher"
	}
	if organization == "" {
		organization = lead.Unknown
	}

	location := lead.Unknown
	if len(r.Person.Addresses.Address) > 0 {
		addr := r.Person.Addresses.Address[0]
		parts := make([]string, 0, 3)
		for _, p := range []string{addr.City.String(), addr.Region.String(), addr.Country.String()} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			location = strings.Join(parts, ", ")
		}
	}

	email := ""
	if len(r.Person.Emails.Email) > 0 {
		email = r.Person.Emails.Email[0].Email
	}

	keywords := make([]string, 0, len(r.Person.Keywords.Keyword))
	for _, kw := range r.Person.Keywords.Keyword {
		if s := kw.String(); s != "" {
			keywords = append(keywords, s)
		}
	}

	return &lead.SourceRecord{
		SourceID:     SourceID,
		Priority:     lead.PriorityRegistry,
		FullName:     fullName,
		Title:        title,
		Organization: organization,
		Location:     location,
		Email:        email,
		Keywords:     keywords,
		Payload:      "https://orcid.org/" + id,
	}
}
