package lead

// Unknown marks a field that a source looked up but could not determine.
// It is distinct from the empty string, which means the source never
// reported the field at all. Unknown never wins a merge and never scores
// as a present value.
const Unknown = "Unknown"

// Provenance priorities. A higher value overwrites a lower one during
// field reconciliation. Enrichment results sit above raw source strings
// because they are derived from them (normalized locations, verified
// contact addresses).
const (
	PrioritySearch      = 1
	PriorityConference  = 2
	PriorityPublication = 3
	PriorityRegistry    = 4
	PriorityEnrichment  = 5
)

// Attribute field names shared between sources, the reconciler and the scorer.
const (
	FieldTitle           = "title"
	FieldOrganization    = "organization"
	FieldLocation        = "location"
	FieldEmail           = "email"
	FieldEmailConfidence = "email_confidence"
	FieldEmailVerified   = "email_verified"
	FieldKeywords        = "keywords"
	FieldPublications    = "publications"
	FieldConferences     = "conference_activity"
	FieldResearch        = "company_research"
	FieldFunding         = "funding"
	FieldLocationInfo    = "location_analysis"
)

// SourceRecord is one fragment of evidence about a person, as emitted by a
// single ingestion source. Records are immutable once created.
type SourceRecord struct {
	SourceID     string
	Priority     int
	FullName     string
	Title        string
	Organization string
	Location     string
	Email        string
	Keywords     []string
	Publications []Publication
	Conferences  []Appearance
	// Payload keeps the source-specific blob (a citation, a registry id)
	// for audit. The resolver never parses it.
	Payload any
}

// Publication is a single indexed article attributed to a candidate.
type Publication struct {
	ID          string
	Title       string
	Journal     string
	Year        string
	Affiliation string
}

// Appearance is a single conference activity entry for a candidate.
type Appearance struct {
	Conference  string
	Year        int
	Session     string
	Affiliation string
}

// CompanyResearch holds technographic and intent signals discovered about a
// candidate's organization.
type CompanyResearch struct {
	Organization   string
	Website        string
	Domain         string
	Uses3DModels   bool
	Technologies   []string
	JobPostings    bool
	JobPostingHits int
	Mentions       []string
	ScholarCount   int
	IntentScore    int
	OpenToNAMs     bool
}

// LocationInfo is the result of location analysis for a candidate.
type LocationInfo struct {
	Normalized   string
	State        string
	HubName      string
	IsHub        bool
	IsPrimaryHub bool
	IsRemote     bool
	Latitude     float64
	Longitude    float64
	Geocoded     bool
}

// FundingInfo summarizes grants found for a candidate's organization.
type FundingInfo struct {
	Organization string
	Source       string
	Grants       []Grant
	TotalAmount  float64
}

// Grant is a single funding award.
type Grant struct {
	ID     string
	Title  string
	Agency string
	Year   int
	Amount float64
	PIName string
}
