// Package company researches a candidate's organization for technographic
// and intent signals through SerpAPI web, news and scholar searches. For
// candidates without a known organization it runs a person search instead
// and proposes the organization it finds at the lowest provenance tier.
package company

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"leadgen/internal/enrich"
	"leadgen/internal/lead"
	"leadgen/internal/sources"
)

const (
	SourceID = "serp"

	apiURL = "https://serpapi.com"

	intentScoreCap = 100
	// Above this intent score an organization counts as open to new
	// approach methodologies.
	namsThreshold = 50
)

// Technology vocabulary searched for in snippets and candidate evidence.
var defaultKeywords = []string{
	"3d cell culture",
	"organ-on-chip",
	"organoid",
	"spheroid",
	"in vitro model",
	"hepatic model",
	"drug safety",
	"toxicology",
	"nams",
	"microphysiological",
}

var jobTerms = []string{"job", "career", "hiring", "position", "opening"}

var (
	atPattern       = regexp.MustCompile(`\bat\s+([A-Z][A-Za-z\s&]+?)(?:\s+in\s+|,|\.|$)`)
	basedInPattern  = regexp.MustCompile(`\b(?:based in|located in|in)\s+([A-Z][A-Za-z\s,]+?)(?:\.|,|$)`)
	wwwPrefixRegexp = regexp.MustCompile(`^www\.`)
)

// Verdict is an AI classifier's reading of the collected search snippets.
type Verdict struct {
	Uses3DModels bool
	OpenToNAMs   bool
	Technologies []string
}

// IntentClassifier replaces keyword matching with a model-based verdict when
// configured.
type IntentClassifier interface {
	Classify(ctx context.Context, organization string, snippets []string) (*Verdict, error)
}

type Client struct {
	http       *sources.Client
	logger     *zap.Logger
	APIURL     string
	apiKey     string
	keywords   []string
	classifier IntentClassifier
}

func New(logger *zap.Logger, apiKey string, classifier IntentClassifier) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:       sources.NewClient(logger),
		logger:     logger,
		APIURL:     apiURL,
		apiKey:     apiKey,
		keywords:   defaultKeywords,
		classifier: classifier,
	}
}

func (c *Client) Name() string { return SourceID }

func (c *Client) Enrich(ctx context.Context, cand *lead.Candidate) (*enrich.Result, error) {
	organization, ok := cand.StringAttr(lead.FieldOrganization)
	if !ok {
		return c.searchPerson(ctx, cand)
	}
	return c.research(ctx, cand, organization)
}

// research collects signals about the organization. Individual search
// failures degrade that signal to its zero value instead of failing the
// whole lookup.
func (c *Client) research(ctx context.Context, cand *lead.Candidate, organization string) (*enrich.Result, error) {
	research := &lead.CompanyResearch{Organization: organization}

	research.Technologies = c.evidenceTechnologies(cand)
	research.Uses3DModels = len(research.Technologies) > 0

	var snippets []string

	if website, domain, err := c.findWebsite(ctx, organization); err != nil {
		c.logger.Warn("website lookup failed", zap.String("organization", organization), zap.Error(err))
	} else {
		research.Website = website
		research.Domain = domain
	}

	if hits, relevant, jobSnippets, err := c.checkJobPostings(ctx, organization); err != nil {
		c.logger.Warn("job posting check failed", zap.String("organization", organization), zap.Error(err))
	} else {
		research.JobPostingHits = hits
		research.JobPostings = relevant
		snippets = append(snippets, jobSnippets...)
	}

	if mentions, mentionSnippets, err := c.findMentions(ctx, organization); err != nil {
		c.logger.Warn("mention search failed", zap.String("organization", organization), zap.Error(err))
	} else {
		research.Mentions = mentions
		snippets = append(snippets, mentionSnippets...)
	}

	if count, err := c.countScholarHits(ctx, organization); err != nil {
		c.logger.Warn("scholar search failed", zap.String("organization", organization), zap.Error(err))
	} else {
		research.ScholarCount = count
	}

	if c.classifier != nil && len(snippets) > 0 {
		if verdict, err := c.classifier.Classify(ctx, organization, snippets); err != nil {
			c.logger.Warn("intent classification failed", zap.String("organization", organization), zap.Error(err))
		} else if verdict != nil {
			research.Uses3DModels = verdict.Uses3DModels
			research.Technologies = mergeKeywords(research.Technologies, verdict.Technologies)
		}
	}

	research.IntentScore = intentScore(research)
	research.OpenToNAMs = research.IntentScore > namsThreshold

	result := enrich.NewResult(SourceID)
	result.Fields[lead.FieldResearch] = research
	return result, nil
}

// searchPerson tries to place a candidate with an unknown organization by
// searching for them directly. Whatever it finds is proposed at the search
// tier so any other source can still override it.
func (c *Client) searchPerson(ctx context.Context, cand *lead.Candidate) (*enrich.Result, error) {
	results, err := c.searchSerp(ctx, "google", fmt.Sprintf("%q researcher", cand.FullName), 5, "")
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	snippet := results[0].Snippet

	fields := make(map[string]any)
	if m := atPattern.FindStringSubmatch(snippet); m != nil {
		fields[lead.FieldOrganization] = strings.TrimSpace(m[1])
	}
	if m := basedInPattern.FindStringSubmatch(snippet); m != nil {
		fields[lead.FieldLocation] = strings.TrimSpace(m[1])
	}
	if len(fields) == 0 {
		return nil, nil
	}

	return &enrich.Result{
		SourceID: SourceID,
		Priority: lead.PrioritySearch,
		Fields:   fields,
	}, nil
}

// evidenceTechnologies scans what the pipeline already knows about the
// candidate, their keywords and publication titles, for the technology
// vocabulary.
func (c *Client) evidenceTechnologies(cand *lead.Candidate) []string {
	var haystack strings.Builder
	for _, kw := range cand.Keywords() {
		haystack.WriteString(strings.ToLower(kw))
		haystack.WriteString(" ")
	}
	for _, pub := range cand.Publications() {
		haystack.WriteString(strings.ToLower(pub.Title))
		haystack.WriteString(" ")
	}

	text := haystack.String()
	var found []string
	for _, kw := range c.keywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return found
}

func (c *Client) findWebsite(ctx context.Context, organization string) (website, domain string, err error) {
	results, err := c.searchSerp(ctx, "google", organization+" official website", 3, "")
	if err != nil {
		return "", "", err
	}
	if len(results) == 0 || results[0].Link == "" {
		return "", "", nil
	}

	link := results[0].Link
	parsed, err := url.Parse(link)
	if err != nil {
		return "", "", nil
	}
	return link, wwwPrefixRegexp.ReplaceAllString(parsed.Hostname(), ""), nil
}

func (c *Client) checkJobPostings(ctx context.Context, organization string) (hits int, relevant bool, snippets []string, err error) {
	query := fmt.Sprintf("%s jobs %s", organization, strings.Join(c.keywords[:3], " OR "))
	results, err := c.searchSerp(ctx, "google", query, 10, "nws")
	if err != nil {
		return 0, false, nil, err
	}

	for _, result := range results {
		text := strings.ToLower(result.Title + " " + result.Snippet)
		if !containsAny(text, jobTerms) {
			continue
		}
		hits++
		snippets = append(snippets, result.Snippet)
		if containsAny(text, c.keywords) {
			relevant = true
		}
	}
	return hits, relevant, snippets, nil
}

func (c *Client) findMentions(ctx context.Context, organization string) (mentions, snippets []string, err error) {
	query := organization + " " + strings.Join(c.keywords[:3], " ")
	results, err := c.searchSerp(ctx, "google", query, 5, "")
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	for _, result := range results {
		text := strings.ToLower(result.Title + " " + result.Snippet)
		snippets = append(snippets, result.Snippet)
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) && !seen[kw] {
				seen[kw] = true
				mentions = append(mentions, kw)
			}
		}
	}
	return mentions, snippets, nil
}

func (c *Client) countScholarHits(ctx context.Context, organization string) (int, error) {
	query := organization + " " + strings.Join(c.keywords[:3], " OR ")
	results, err := c.searchSerp(ctx, "google_scholar", query, 10, "")
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

func (c *Client) searchSerp(ctx context.Context, engine, query string, num int, tbm string) ([]organicResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("api_key", c.apiKey)
	q.Set("engine", engine)
	q.Set("num", strconv.Itoa(num))
	if tbm != "" {
		q.Set("tbm", tbm)
	}

	var resp struct {
		OrganicResults []organicResult `json:"organic_results"`
	}
	if err := c.http.GetJSON(ctx, c.APIURL+"/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.OrganicResults, nil
}

// intentScore mirrors the weighting used for the company_signals sub-score:
// the strongest signal is direct model usage, then hiring, then mentions and
// scholarly output.
func intentScore(research *lead.CompanyResearch) int {
	score := 0
	if research.Uses3DModels {
		score += 40
	}
	score += len(research.Technologies) * 10
	if research.JobPostings {
		score += 20
	}
	score += len(research.Mentions) * 10

	scholar := research.ScholarCount * 5
	if scholar > 20 {
		scholar = 20
	}
	score += scholar

	if score > intentScoreCap {
		score = intentScoreCap
	}
	return score
}

func mergeKeywords(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, kw := range existing {
		seen[strings.ToLower(kw)] = true
	}
	for _, kw := range extra {
		if kw = strings.TrimSpace(kw); kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		existing = append(existing, kw)
	}
	return existing
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
