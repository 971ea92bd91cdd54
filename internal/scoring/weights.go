package scoring

// Weights configures the maximum contribution of every sub-score. The struct
// is passed by value into the scorer, so concurrent runs with different
// presets cannot interfere with each other.
type Weights struct {
	TitleRelevance  int `mapstructure:"title-relevance"`
	Publications    int `mapstructure:"publications"`
	LocationQuality int `mapstructure:"location-quality"`
	Organization    int `mapstructure:"organization"`
	Contact         int `mapstructure:"contact"`
	CompanySignals  int `mapstructure:"company-signals"`
}

// DefaultWeights sums to 100, the score ceiling.
func DefaultWeights() Weights {
	return Weights{
		TitleRelevance:  30,
		Publications:    25,
		LocationQuality: 15,
		Organization:    10,
		Contact:         10,
		CompanySignals:  10,
	}
}

// Vocabulary holds the tiered keyword and hub lists the scorer matches
// against. Lists are checked high tier first; within a tier the declared
// order decides, so results are deterministic for a fixed list.
type Vocabulary struct {
	HighRelevanceTitles   []string `mapstructure:"high-relevance-titles"`
	MediumRelevanceTitles []string `mapstructure:"medium-relevance-titles"`
	RelevantTopics        []string `mapstructure:"relevant-topics"`
	PrimaryHubs           []string `mapstructure:"primary-hubs"`
	SecondaryHubs         []string `mapstructure:"secondary-hubs"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		HighRelevanceTitles: []string{
			"toxicology", "toxicologist", "safety", "drug safety",
			"preclinical", "hepatic", "liver", "dili", "3d", "in vitro",
		},
		MediumRelevanceTitles: []string{
			"director", "senior", "lead", "principal", "head",
			"phd", "md", "scientist", "research", "pharmacology",
		},
		RelevantTopics: []string{
			"dili", "liver", "3d", "organoid", "spheroid",
			"toxicology", "hepatic", "in vitro",
		},
		PrimaryHubs: []string{
			"cambridge", "boston", "san francisco", "bay area",
			"san diego", "basel",
		},
		SecondaryHubs: []string{
			"new york", "seattle", "austin", "raleigh", "phoenix", "denver",
		},
	}
}
