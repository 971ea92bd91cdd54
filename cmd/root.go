package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"leadgen/internal/enrich/location"
	"leadgen/internal/resolve"
	"leadgen/internal/scoring"
	"leadgen/internal/sources"
)

const (
	app = "leadgen"
)

type Config struct {
	Search   *sources.Criteria `mapstructure:"search"`
	Database string            `mapstructure:"database"`
	Resolver *resolve.Config   `mapstructure:"resolver"`
	Scoring  *ScoringConfig    `mapstructure:"scoring"`
	Sources  *SourcesConfig    `mapstructure:"sources"`
	Enrich   *EnrichConfig     `mapstructure:"enrich"`
	Exclude  *ExcludeConfig    `mapstructure:"exclude"`
	Keys     *KeysConfig       `mapstructure:"keys"`
}

type ScoringConfig struct {
	Weights    *scoring.Weights    `mapstructure:"weights"`
	Vocabulary *scoring.Vocabulary `mapstructure:"vocabulary"`
	MinScore   int                 `mapstructure:"min-score"`
}

type SourcesConfig struct {
	PubMedEmail string `mapstructure:"pubmed-email"`
}

type ExcludeConfig struct {
	Organizations []string `mapstructure:"organizations"`
}

type EnrichConfig struct {
	Location    *location.Config `mapstructure:"location"`
	Concurrency int              `mapstructure:"concurrency"`
	AI          *AIConfig        `mapstructure:"ai"`
}

type AIConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

// KeysConfig points at the files holding API credentials. Every key is
// optional; a source or enricher without its key is skipped with a warning.
type KeysConfig struct {
	SerpFile    string `mapstructure:"serp-file"`
	HunterFile  string `mapstructure:"hunter-file"`
	GeminiFile  string `mapstructure:"gemini-file"`
	GeocodeFile string `mapstructure:"geocode-file"`
	PubMedFile  string `mapstructure:"pubmed-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "leadgen is a cli for finding and ranking researcher leads across public sources",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"keys.serp-file":    "SERP_API_KEY_FILE",
		"keys.hunter-file":  "HUNTER_API_KEY_FILE",
		"keys.gemini-file":  "GEMINI_API_KEY_FILE",
		"keys.geocode-file": "GEOCODE_API_KEY_FILE",
		"keys.pubmed-file":  "PUBMED_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is leadgen.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func (c *Config) weights() scoring.Weights {
	if c.Scoring != nil && c.Scoring.Weights != nil {
		return *c.Scoring.Weights
	}
	return scoring.DefaultWeights()
}

func (c *Config) vocabulary() scoring.Vocabulary {
	if c.Scoring != nil && c.Scoring.Vocabulary != nil {
		return *c.Scoring.Vocabulary
	}
	return scoring.DefaultVocabulary()
}

func (c *Config) keys() *KeysConfig {
	if c.Keys != nil {
		return c.Keys
	}
	return &KeysConfig{}
}
