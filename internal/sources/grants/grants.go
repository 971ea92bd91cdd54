// Package grants looks up public research funding through the NIH RePORTER
// v2 API. Funding attaches to a candidate's organization during enrichment
// rather than seeding identities of its own.
package grants

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"leadgen/internal/lead"
	"leadgen/internal/sources"
)

const (
	SourceID = "nih_reporter"

	apiURL = "https://api.reporter.nih.gov"

	searchPath = "/v2/projects/search"
	// The detail endpoints page at most this many projects per call.
	maxProjects = 10
)

type Client struct {
	http   *sources.Client
	logger *zap.Logger
	APIURL string
}

func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   sources.NewClient(logger),
		logger: logger,
		APIURL: apiURL,
	}
}

// OrganizationFunding returns NIH grants awarded to the named organization.
// An organization with no grants yields an empty FundingInfo, not an error.
func (c *Client) OrganizationFunding(ctx context.Context, organization string) (*lead.FundingInfo, error) {
	organization = strings.TrimSpace(organization)
	if organization == "" || organization == lead.Unknown {
		return nil, nil
	}

	payload := searchRequest{
		Criteria: searchCriteria{OrgNames: []string{organization}},
		Offset:   0,
		Limit:    maxProjects,
	}

	var resp searchResponse
	if err := c.http.PostJSON(ctx, c.APIURL+searchPath, payload, &resp); err != nil {
		return nil, fmt.Errorf("searching nih reporter: %w", err)
	}

	projects, err := decodeProjects(resp.Results)
	if err != nil {
		return nil, fmt.Errorf("decoding nih reporter projects: %w", err)
	}

	info := &lead.FundingInfo{
		Organization: organization,
		Source:       "NIH RePORTER",
		Grants:       make([]lead.Grant, 0, len(projects)),
	}
	for _, project := range projects {
		info.Grants = append(info.Grants, project.toGrant())
		info.TotalAmount += project.AwardAmount
	}

	c.logger.Debug("got funding from nih reporter",
		zap.String("organization", organization),
		zap.Int("grants", len(info.Grants)),
	)

	return info, nil
}

type searchRequest struct {
	Criteria searchCriteria `json:"criteria"`
	Offset   int            `json:"offset"`
	Limit    int            `json:"limit"`
}

type searchCriteria struct {
	OrgNames []string `json:"org_names"`
}

// The project list is decoded in two steps: raw maps first, then a typed
// decode. RePORTER extends its result schema regularly and the generic pass
// keeps unknown fields from failing the whole search.
type searchResponse struct {
	Results []map[string]any `json:"results"`
}

func decodeProjects(items []map[string]any) ([]project, error) {
	var projects []project

	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &projects,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, err
	}
	return projects, nil
}

type project struct {
	ProjectNum   string  `json:"project_num"`
	ProjectTitle string  `json:"project_title"`
	FiscalYear   int     `json:"fiscal_year"`
	AwardAmount  float64 `json:"award_amount"`
	Organization struct {
		OrgName string `json:"org_name"`
	} `json:"organization"`
	ContactPIName string `json:"contact_pi_name"`
}

func (p project) toGrant() lead.Grant {
	return lead.Grant{
		ID:     p.ProjectNum,
		Title:  p.ProjectTitle,
		Agency: "NIH",
		Year:   p.FiscalYear,
		Amount: p.AwardAmount,
		PIName: p.ContactPIName,
	}
}
