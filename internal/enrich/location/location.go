// Package location normalizes candidate locations and flags industry hub
// membership. Geocoding through the Google Maps API is optional and only
// used when a key is configured.
package location

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
	SourceID = "location"

	geocodeAPIURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

// Config carries the hub vocabulary and the optional geocoding key.
type Config struct {
	PrimaryHubs   []string `mapstructure:"primary-hubs"`
	SecondaryHubs []string `mapstructure:"secondary-hubs"`
	GeocodeAPIKey string   `mapstructure:"geocode-api-key"`
}

// Hub cities where the relevant industry clusters.
var defaultPrimaryHubs = []string{
	"Cambridge, MA",
	"Boston, MA",
	"San Francisco, CA",
	"San Diego, CA",
	"Research Triangle Park, NC",
	"Basel, Switzerland",
	"London, UK",
}

var defaultSecondaryHubs = []string{
	"Seattle, WA",
	"New York, NY",
}

var stateAbbreviations = map[string]string{
	"Massachusetts":  "MA",
	"California":     "CA",
	"North Carolina": "NC",
	"Washington":     "WA",
	"New York":       "NY",
	"Texas":          "TX",
	"Illinois":       "IL",
}

var statePattern = regexp.MustCompile(`\b([A-Z]{2})\b`)

type Analyzer struct {
	primaryHubs   []string
	secondaryHubs []string
	geocodeKey    string
	http          *sources.Client
	logger        *zap.Logger
	GeocodeAPIURL string
}

func New(cfg *Config, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	primary := cfg.PrimaryHubs
	if len(primary) == 0 {
		primary = defaultPrimaryHubs
	}
	secondary := cfg.SecondaryHubs
	if len(secondary) == 0 {
		secondary = defaultSecondaryHubs
	}

	return &Analyzer{
		primaryHubs:   primary,
		secondaryHubs: secondary,
		geocodeKey:    cfg.GeocodeAPIKey,
		http:          sources.NewClient(logger),
		logger:        logger,
		GeocodeAPIURL: geocodeAPIURL,
	}
}

func (a *Analyzer) Name() string { return SourceID }

// Enrich normalizes the candidate's location and attaches the analysis. The
// normalized string is proposed back as the location field so downstream
// scoring sees consistent spellings.
func (a *Analyzer) Enrich(ctx context.Context, cand *lead.Candidate) (*enrich.Result, error) {
	raw, ok := cand.StringAttr(lead.FieldLocation)
	if !ok {
		return nil, nil
	}

	normalized := Normalize(raw)
	info := &lead.LocationInfo{
		Normalized: normalized,
		State:      extractState(normalized),
		IsRemote:   isRemote(normalized),
	}

	if hub, primary := a.matchHub(normalized); hub != "" {
		info.HubName = hub
		info.IsHub = true
		info.IsPrimaryHub = primary
	}

	if a.geocodeKey != "" {
		lat, lng, found, err := a.geocode(ctx, normalized)
		if err != nil {
			a.logger.Warn("geocoding failed", zap.String("location", normalized), zap.Error(err))
		} else if found {
			info.Latitude = lat
			info.Longitude = lng
			info.Geocoded = true
		}
	}

	result := enrich.NewResult(SourceID)
	result.Fields[lead.FieldLocation] = normalized
	result.Fields[lead.FieldLocationInfo] = info
	return result, nil
}

// Normalize collapses whitespace and abbreviates spelled-out state names.
func Normalize(location string) string {
	location = strings.Join(strings.Fields(location), " ")
	for full, abbrev := range stateAbbreviations {
		location = strings.ReplaceAll(location, full, abbrev)
	}
	return strings.TrimSpace(location)
}

func (a *Analyzer) matchHub(location string) (name string, primary bool) {
	lower := strings.ToLower(location)
	for _, hub := range a.primaryHubs {
		if hubMatches(lower, hub) {
			return hub, true
		}
	}
	for _, hub := range a.secondaryHubs {
		if hubMatches(lower, hub) {
			return hub, false
		}
	}
	return "", false
}

func hubMatches(locationLower, hub string) bool {
	hubLower := strings.ToLower(hub)
	return strings.Contains(locationLower, hubLower) || strings.Contains(hubLower, locationLower)
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.Contains(lower, "remote") || strings.Contains(lower, "work from home")
}

func extractState(location string) string {
	if m := statePattern.FindStringSubmatch(location); m != nil {
		return m[1]
	}
	return ""
}

func (a *Analyzer) geocode(ctx context.Context, location string) (lat, lng float64, found bool, err error) {
	q := url.Values{}
	q.Set("address", location)
	q.Set("key", a.geocodeKey)

	var resp struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := a.http.GetJSON(ctx, a.GeocodeAPIURL, q, &resp); err != nil {
		return 0, 0, false, err
	}
	if len(resp.Results) == 0 {
		return 0, 0, false, nil
	}

	loc := resp.Results[0].Geometry.Location
	return loc.Lat, loc.Lng, true, nil
}
