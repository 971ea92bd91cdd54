// Package pubindex finds recently published authors through the PubMed
// E-utilities API. Each matching article yields one evidence record for its
// corresponding author.
package pubindex

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
	SourceID = "pubmed"

	eutilsURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	// NCBI allows at most 3 requests per second without an API key.
	rateLimitDelay = 340 * time.Millisecond

	defaultMaxResults = 50
	// Publication window for the primary search pass.
	lookbackDays = 730
)

type Client struct {
	http      *sources.Client
	logger    *zap.Logger
	APIURL    string
	RateLimit time.Duration
	// Email identifies the caller to NCBI, recommended by their usage policy.
	Email  string
	APIKey string
	now    func() time.Time
}

func New(logger *zap.Logger, email, apiKey string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:      sources.NewClient(logger),
		logger:    logger,
		APIURL:    eutilsURL,
		RateLimit: rateLimitDelay,
		Email:     email,
		APIKey:    apiKey,
		now:       time.Now,
	}
}

func (c *Client) Name() string { return SourceID }

func (c *Client) Priority() int { return lead.PriorityPublication }

// Fetch searches for articles matching the criteria keywords within the
// lookback window, retrying without the date filter when the window turns up
// nothing. Every article becomes one record for its corresponding author.
func (c *Client) Fetch(ctx context.Context, criteria *sources.Criteria) ([]*lead.SourceRecord, error) {
	if len(criteria.Keywords) == 0 {
		return nil, nil
	}

	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultMaxResults
	}

	keywordQuery := strings.Join(criteria.Keywords, " OR ")
	now := c.now()
	from := now.AddDate(0, 0, -lookbackDays)
	dated := fmt.Sprintf("%s AND %s:%s[Publication Date]",
		keywordQuery, from.Format("2006/01/02"), now.Format("2006/01/02"))

	ids, err := c.search(ctx, dated, limit)
	if err != nil {
		return nil, fmt.Errorf("searching pubmed: %w", err)
	}

	if len(ids) == 0 {
		// the date window is often too strict for niche keywords
		c.logger.Debug("no results in publication window, retrying without date filter")
		if err := utils.WaitFor(ctx, c.RateLimit); err != nil {
			return nil, err
		}
		ids, err = c.search(ctx, keywordQuery, limit)
		if err != nil {
			return nil, fmt.Errorf("searching pubmed: %w", err)
		}
	}

	if len(ids) == 0 {
		return nil, nil
	}

	if err := utils.WaitFor(ctx, c.RateLimit); err != nil {
		return nil, err
	}

	articles, err := c.fetchArticles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching pubmed articles: %w", err)
	}

	records := make([]*lead.SourceRecord, 0, len(articles))
	for _, art := range articles {
		if record := art.toSourceRecord(); record != nil {
			records = append(records, record)
		}
	}

	c.logger.Debug("got articles from pubmed",
		zap.Int("articles", len(articles)),
		zap.Int("records", len(records)),
	)

	return records, nil
}

// FindAuthorPublications looks up publications by a named author, optionally
// restricted to an affiliation. Enrichment uses it to backfill organizations
// for registry profiles that list none.
func (c *Client) FindAuthorPublications(ctx context.Context, authorName, affiliation string, max int) ([]lead.Publication, error) {
	if strings.TrimSpace(authorName) == "" {
		return nil, nil
	}
	if max <= 0 {
		max = 10
	}

	query := fmt.Sprintf("%q[Author]", authorName)
	if affiliation != "" {
		query += fmt.Sprintf(" AND %q[Affiliation]", affiliation)
	}

	ids, err := c.search(ctx, query, max)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if err := utils.WaitFor(ctx, c.RateLimit); err != nil {
		return nil, err
	}

	articles, err := c.fetchArticles(ctx, ids)
	if err != nil {
		return nil, err
	}

	pubs := make([]lead.Publication, 0, len(articles))
	for _, art := range articles {
		pubs = append(pubs, art.toPublication())
	}
	return pubs, nil
}

func (c *Client) search(ctx context.Context, term string, max int) ([]string, error) {
	q := c.baseQuery()
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retmax", strconv.Itoa(max))
	q.Set("retmode", "json")

	var result struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := c.http.GetJSON(ctx, c.APIURL+"/esearch.fcgi", q, &result); err != nil {
		return nil, err
	}
	return result.ESearchResult.IDList, nil
}

func (c *Client) fetchArticles(ctx context.Context, ids []string) ([]pubmedArticle, error) {
	q := c.baseQuery()
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")

	var set articleSet
	if err := c.http.GetXML(ctx, c.APIURL+"/efetch.fcgi", q, &set); err != nil {
		return nil, err
	}
	return set.Articles, nil
}

func (c *Client) baseQuery() url.Values {
	q := url.Values{}
	if c.Email != "" {
		q.Set("email", c.Email)
	}
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	return q
}

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID    string         `xml:"MedlineCitation>PMID"`
	Title   string         `xml:"MedlineCitation>Article>ArticleTitle"`
	Journal string         `xml:"MedlineCitation>Article>Journal>Title"`
	Year    string         `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
	Authors []pubmedAuthor `xml:"MedlineCitation>Article>AuthorList>Author"`
}

type pubmedAuthor struct {
	LastName     string   `xml:"LastName"`
	ForeName     string   `xml:"ForeName"`
	Affiliations []string `xml:"AffiliationInfo>Affiliation"`
}

// toSourceRecord builds an evidence record for the article's corresponding
// author, conventionally the last listed one. Articles without a usable
// author yield nil.
func (a *pubmedArticle) toSourceRecord() *lead.SourceRecord {
	author, affiliation := a.correspondingAuthor()
	if author == "" {
		return nil
	}

	organization := ExtractOrganization(affiliation)
	if organization == "" {
		organization = lead.Unknown
	}

	return &lead.SourceRecord{
		SourceID:     SourceID,
		Priority:     lead.PriorityPublication,
		FullName:     author,
		Title:        "Researcher",
		Organization: organization,
		Location:     extractLocation(affiliation),
		Publications: []lead.Publication{a.toPublication()},
		Payload:      affiliation,
	}
}

func (a *pubmedArticle) toPublication() lead.Publication {
	_, affiliation := a.correspondingAuthor()
	return lead.Publication{
		ID:          a.PMID,
		Title:       a.Title,
		Journal:     a.Journal,
		Year:        a.Year,
		Affiliation: affiliation,
	}
}

func (a *pubmedArticle) correspondingAuthor() (name, affiliation string) {
	for i := len(a.Authors) - 1; i >= 0; i-- {
		author := a.Authors[i]
		if author.ForeName == "" || author.LastName == "" {
			continue
		}
		name = author.ForeName + " " + author.LastName
		if len(author.Affiliations) > 0 {
			affiliation = author.Affiliations[0]
		}
		return name, affiliation
	}
	return "", ""
}

// ExtractOrganization pulls the main organization name out of an affiliation
// string such as "Department of Toxicology, Acme Bio, Cambridge, MA, USA".
func ExtractOrganization(affiliation string) string {
	affiliation = strings.TrimSpace(affiliation)
	if affiliation == "" {
		return ""
	}

	parts := strings.Split(affiliation, ",")
	limit := len(parts)
	if limit > 3 {
		limit = 3
	}

	for _, part := range parts[:limit] {
		part = strings.TrimSpace(part)
		lower := strings.ToLower(part)

		if containsAny(lower, "department", "school", "college of", "institute of", "center for") {
			continue
		}
		if containsAny(lower, "university", "college", "institute", "hospital", "medical",
			"pharma", "biotech", "labs", "inc", "llc") {
			return part
		}
		if words := strings.Fields(part); len(words) <= 4 && len(part) > 5 {
			return part
		}
	}

	return strings.TrimSpace(parts[0])
}

// extractLocation takes the trailing components of an affiliation, which is
// where city and country usually sit.
func extractLocation(affiliation string) string {
	parts := strings.Split(affiliation, ",")
	if len(parts) < 2 {
		return lead.Unknown
	}

	tail := parts[len(parts)-2:]
	for i, p := range tail {
		tail[i] = strings.TrimSpace(p)
	}
	return strings.Join(tail, ", ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
