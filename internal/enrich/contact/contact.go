// Package contact discovers and verifies work email addresses through the
// Hunter.io API.
package contact

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"leadgen/internal/enrich"
	"leadgen/internal/lead"
	"leadgen/internal/sources"
)

const (
	SourceID = "hunter"

	apiURL = "https://api.hunter.io/v2"

	// Confidence assigned to an address the person published themselves.
	selfReportedConfidence = 90
	defaultConfidence      = 85
)

var domainPattern = regexp.MustCompile(`@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

type Client struct {
	http   *sources.Client
	logger *zap.Logger
	APIURL string
	apiKey string
}

func New(logger *zap.Logger, apiKey string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   sources.NewClient(logger),
		logger: logger,
		APIURL: apiURL,
		apiKey: apiKey,
	}
}

func (c *Client) Name() string { return SourceID }

// Enrich finds an email for the candidate. A self-reported address is kept
// and only annotated with confidence; otherwise Hunter's finder is queried
// against the best known company domain and the hit is run through the
// verifier. Without a usable domain the candidate is left untouched.
func (c *Client) Enrich(ctx context.Context, cand *lead.Candidate) (*enrich.Result, error) {
	if email, ok := cand.StringAttr(lead.FieldEmail); ok {
		result := enrich.NewResult(SourceID)
		result.Fields[lead.FieldEmailConfidence] = selfReportedConfidence
		c.logger.Debug("candidate already has an address",
			zap.String("candidate", cand.FullName),
			zap.String("email", email),
		)
		return result, nil
	}

	first, last := lead.SplitName(cand.FullName)
	if first == "" || last == "" {
		return nil, nil
	}

	domain := c.domainFor(cand)
	if domain == "" {
		c.logger.Debug("no company domain for candidate", zap.String("candidate", cand.FullName))
		return nil, nil
	}

	found, err := c.findEmail(ctx, first, last, domain)
	if err != nil {
		return nil, err
	}
	if found.Email == "" {
		return nil, nil
	}

	confidence := found.Score
	if confidence == 0 {
		confidence = defaultConfidence
	}

	verified := len(found.Sources) > 0
	if status, err := c.verifyEmail(ctx, found.Email); err != nil {
		c.logger.Warn("email verification failed", zap.String("email", found.Email), zap.Error(err))
	} else if status == "deliverable" {
		verified = true
	}

	result := enrich.NewResult(SourceID)
	result.Fields[lead.FieldEmail] = found.Email
	result.Fields[lead.FieldEmailConfidence] = confidence
	result.Fields[lead.FieldEmailVerified] = verified
	return result, nil
}

// domainFor picks the candidate's company domain: company research wins,
// falling back to an address domain spotted in a publication affiliation.
func (c *Client) domainFor(cand *lead.Candidate) string {
	if research := cand.Research(); research != nil && research.Domain != "" {
		return research.Domain
	}

	for _, pub := range cand.Publications() {
		if m := domainPattern.FindStringSubmatch(pub.Affiliation); m != nil {
			return m[1]
		}
	}
	return ""
}

type finderData struct {
	Email   string `json:"email"`
	Score   int    `json:"score"`
	Sources []any  `json:"sources"`
}

func (c *Client) findEmail(ctx context.Context, first, last, domain string) (*finderData, error) {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("first_name", first)
	q.Set("last_name", last)
	q.Set("api_key", c.apiKey)

	var resp struct {
		Data finderData `json:"data"`
	}
	if err := c.http.GetJSON(ctx, c.APIURL+"/email-finder", q, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) verifyEmail(ctx context.Context, email string) (string, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("api_key", c.apiKey)

	var resp struct {
		Data struct {
			Result string `json:"result"`
		} `json:"data"`
	}
	if err := c.http.GetJSON(ctx, c.APIURL+"/email-verifier", q, &resp); err != nil {
		return "", err
	}
	return strings.ToLower(resp.Data.Result), nil
}
