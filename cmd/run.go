package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"leadgen/internal/enrich"
	"leadgen/internal/enrich/company"
	"leadgen/internal/enrich/company/gemini"
	"leadgen/internal/enrich/contact"
	"leadgen/internal/enrich/funding"
	"leadgen/internal/enrich/location"
	"leadgen/internal/filtering"
	"leadgen/internal/lead"
	"leadgen/internal/logger"
	"leadgen/internal/pipeline"
	"leadgen/internal/report"
	"leadgen/internal/resolve"
	"leadgen/internal/scoring"
	"leadgen/internal/secrets"
	"leadgen/internal/sources"
	"leadgen/internal/sources/conference"
	"leadgen/internal/sources/grants"
	"leadgen/internal/sources/pubindex"
	"leadgen/internal/sources/registry"
	"leadgen/internal/store"
)

const (
	PromptShowTop      = "Show top leads"
	PromptReportByOrg  = "Report by organization"
	PromptExportCSV    = "Export leads to CSV"
	PromptSaveDatabase = "Save leads to database"
	PromptDumpToFile   = "Dump leads to file"
	PromptExit         = "Exit"

	defaultDatabase = "leads.db"
	defaultCSV      = "leads.csv"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{
		PromptShowTop, PromptReportByOrg, PromptExportCSV,
		PromptSaveDatabase, PromptDumpToFile, PromptExit,
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the leadgen main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("top", "t", 10, "how many leads the top table shows")
	runCmd.Flags().BoolP("auto-approve", "y", false, "export and save results without the interactive prompt")
	runCmd.Flags().Bool("skip-enrich", false, "skip the enrichment stage")
	runCmd.Flags().Bool("skip-score", false, "skip scoring and rank by name instead")
	runCmd.Flags().Bool("include-contacted", false, "keep leads already contacted in previous runs")
	runCmd.Flags().Bool("dry-run", false, "show the ranked leads and exit without writing anything")
	runCmd.Flags().StringP("output", "o", defaultCSV, "csv file for exported leads")
	runCmd.Flags().String("database", defaultDatabase, "sqlite database for saved leads")

	viper.BindPFlag("database", runCmd.Flags().Lookup("database"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the leadgen", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Search == nil || (len(config.Search.Keywords) == 0 && len(config.Search.Titles) == 0) {
		logger.Fatal("search criteria are required under search.keywords or search.titles")
	}

	skipEnrich := flagBool(cmd, "skip-enrich")
	skipScore := flagBool(cmd, "skip-score")

	srcs := buildSources(config, logger)
	var enrichers []enrich.Enricher
	if !skipEnrich {
		enrichers = buildEnrichers(ctx, config, logger)
	}

	sortKey := scoring.SortByScore
	if skipScore {
		sortKey = scoring.SortByName
	}

	concurrency := 0
	if config.Enrich != nil {
		concurrency = config.Enrich.Concurrency
	}

	ranker := scoring.NewRanker(logger)
	pl := pipeline.New(
		srcs,
		enrichers,
		resolve.New(config.Resolver, logger),
		scoring.NewScorer(config.weights(), config.vocabulary(), logger),
		ranker,
		logger,
	)

	logger.Info("starting the search",
		zap.Strings("keywords", config.Search.Keywords),
		zap.Strings("titles", config.Search.Titles),
	)

	leads, err := pl.Run(ctx, config.Search, &pipeline.Options{
		Enrich:      !skipEnrich,
		Score:       !skipScore,
		SortKey:     sortKey,
		Concurrency: concurrency,
	})
	if err != nil {
		logger.Fatal("running the pipeline", zap.Error(err))
	}

	filters, cleanup := prepareFilters(cmd, config, skipScore, logger)
	defer cleanup()

	leads, err = filtering.Run(ctx, logger, filters, leads)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if leads.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no leads found"))
		return
	}

	if flagBool(cmd, "dry-run") {
		if err := handleAction(PromptShowTop, cmd, leads, ranker, logger); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		logger.Info("dry run, nothing written", zap.Int("count", leads.Len()))
		return
	}

	if flagBool(cmd, "auto-approve") {
		for _, action := range []string{PromptExportCSV, PromptSaveDatabase} {
			if err := handleAction(action, cmd, leads, ranker, logger); err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of leads", zap.Int("count", leads.Len()))

		if err := handleAction(action, cmd, leads, ranker, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, cmd *cobra.Command, leads *lead.Candidates, ranker *scoring.Ranker, logger *zap.Logger) error {
	switch action {
	case PromptShowTop:
		top, err := ranker.Top(leads, flagInt(cmd, "top"))
		if err != nil {
			return err
		}
		fmt.Println(report.RenderTable(top))
		return nil
	case PromptReportByOrg:
		fmt.Println(report.RenderByOrganization(leads))
		return nil
	case PromptExportCSV:
		output := cmd.Flag("output").Value.String()
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create csv file: %w", err)
		}
		defer file.Close()

		if err := report.WriteCSV(file, leads); err != nil {
			return err
		}
		logger.Info("exported leads to csv", zap.String("filename", output), zap.Int("count", leads.Len()))
		return nil
	case PromptSaveDatabase:
		dbPath := viper.GetString("database")
		db, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open lead database: %w", err)
		}
		defer db.Close()

		saved, err := db.SaveCandidates(context.Background(), leads)
		if err != nil {
			return fmt.Errorf("save leads: %w", err)
		}
		logger.Info("saved leads to database", zap.String("database", dbPath), zap.Int("count", saved))
		return nil
	case PromptDumpToFile:
		filename, err := leads.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// prepareFilters builds the post-ranking filter chain. The already-contacted
// filter only engages when a lead database from a previous run exists; the
// returned cleanup closes it.
func prepareFilters(cmd *cobra.Command, config *Config, skipScore bool, logger *zap.Logger) ([]filtering.Filter, func()) {
	minScore := 0
	if !skipScore && config.Scoring != nil {
		minScore = config.Scoring.MinScore
	}

	var excludedOrgs []string
	if config.Exclude != nil {
		excludedOrgs = config.Exclude.Organizations
	}

	steps := []filtering.Filter{
		filtering.NewMinScore(minScore),
		filtering.NewExcludedOrganizations(excludedOrgs),
	}

	cleanup := func() {}
	if !flagBool(cmd, "include-contacted") {
		dbPath := viper.GetString("database")
		if _, err := os.Stat(dbPath); err == nil {
			db, err := store.Open(dbPath)
			if err != nil {
				logger.Warn("skipping already-contacted filter", zap.Error(err))
			} else {
				steps = append(steps, filtering.NewAlreadyContacted(db))
				cleanup = func() { db.Close() }
			}
		}
	}

	return steps, cleanup
}

// buildSources assembles the ingestion sources. None of them require
// credentials; the PubMed client only gets politeness parameters when
// configured.
func buildSources(config *Config, logger *zap.Logger) []sources.Source {
	email := ""
	if config.Sources != nil {
		email = config.Sources.PubMedEmail
	}

	pubmedKey := ""
	if key, err := loadKey("pubmed api key", config.keys().PubMedFile); err == nil {
		pubmedKey = key
	}

	return []sources.Source{
		registry.New(logger),
		pubindex.New(logger, email, pubmedKey),
		conference.New(logger),
	}
}

// buildEnrichers assembles the enrichment chain in dependency order: company
// research runs first because contact discovery reads the domain it finds.
// Enrichers missing their credentials are skipped with a warning.
func buildEnrichers(ctx context.Context, config *Config, logger *zap.Logger) []enrich.Enricher {
	keys := config.keys()
	var enrichers []enrich.Enricher

	if serpKey, err := loadKey("serpapi key", keys.SerpFile); err != nil {
		logger.Warn("skipping company research",
			zap.Error(err),
			zap.String("hint", "set keys.serp-file or SERP_API_KEY_FILE"),
		)
	} else {
		enrichers = append(enrichers, company.New(logger, serpKey, buildClassifier(ctx, config, logger)))
	}

	locCfg := &location.Config{}
	if config.Enrich != nil && config.Enrich.Location != nil {
		locCfg = config.Enrich.Location
	}
	if geocodeKey, err := loadKey("geocode api key", keys.GeocodeFile); err == nil {
		locCfg.GeocodeAPIKey = geocodeKey
	}
	enrichers = append(enrichers, location.New(locCfg, logger))

	enrichers = append(enrichers, funding.New(grants.New(logger), logger))

	if hunterKey, err := loadKey("hunter api key", keys.HunterFile); err != nil {
		logger.Warn("skipping contact discovery",
			zap.Error(err),
			zap.String("hint", "set keys.hunter-file or HUNTER_API_KEY_FILE"),
		)
	} else {
		enrichers = append(enrichers, contact.New(logger, hunterKey))
	}

	return enrichers
}

func buildClassifier(ctx context.Context, config *Config, log *zap.Logger) company.IntentClassifier {
	if config.Enrich == nil || config.Enrich.AI == nil || !config.Enrich.AI.Enabled {
		return nil
	}
	ai := config.Enrich.AI

	apiKey, err := loadKey("gemini api key", config.keys().GeminiFile)
	if err != nil {
		log.Warn("skipping ai intent classification",
			zap.Error(err),
			zap.String("hint", "set keys.gemini-file or GEMINI_API_KEY_FILE"),
		)
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, ai.Model)
	if err != nil {
		log.Warn("skipping ai intent classification", zap.Error(err))
		return nil
	}

	classifierLogger := logger.WithFields(log, logger.StringFields(
		logger.StringField{Key: "provider", Value: "gemini"},
		logger.StringField{Key: "model", Value: generator.Model()},
	)...)
	return gemini.NewClassifier(generator, classifierLogger, ai.MaxLogLength)
}

func loadKey(name, file string) (string, error) {
	if strings.TrimSpace(file) == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}
	return secrets.Load(secrets.Source{Name: name, File: file})
}

func flagBool(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)
	return flag != nil && strings.EqualFold(flag.Value.String(), "true")
}

func flagInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0
	}
	return v
}
