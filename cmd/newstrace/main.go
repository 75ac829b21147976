package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newstrace/internal/api"
	"newstrace/internal/checkpoint"
	"newstrace/internal/config"
	"newstrace/internal/engine"
	"newstrace/internal/extract"
	"newstrace/internal/fetcher"
	"newstrace/internal/graph"
	"newstrace/internal/observability"
	"newstrace/internal/resolver"
	"newstrace/internal/robots"
	"newstrace/internal/storage"
)

var (
	cfgFile     string
	verbose     bool
	logFormat   string
	outputDir   string
	fetcherType string
	depth       int
	concurrent  int
	budget      string
	minProfiles int
	noRobots    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newstrace",
		Short: "NewsTrace — journalist profile discovery for news outlets",
		Long: `NewsTrace takes a media outlet's name, finds its official website,
crawls it politely, and builds journalist profiles: name, beat, latest
article, and article count. Results are checkpointed continuously and a
journalist-beat graph is derived from the final profile set.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [outlet name or URL]",
		Short: "Scrape one outlet and write its journalist profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScrape,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for data.json, graph.json, profiles.csv")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher type: http or browser")
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "maximum crawl depth (0 = config default)")
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "number of concurrent workers (0 = config default)")
	cmd.Flags().StringVar(&budget, "budget", "", "total crawl time budget, e.g. 40s")
	cmd.Flags().IntVar(&minProfiles, "min-profiles", 0, "stop once this many profiles are found (0 = config default)")
	cmd.Flags().BoolVar(&noRobots, "no-robots", false, "ignore robots.txt (for test targets only)")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	outlet := strings.TrimSpace(strings.Join(args, " "))

	cfg, logger, err := loadSetup()
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(logger)
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		eng.SetMetrics(metrics)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := eng.Run(ctx, outlet)
	if err != nil {
		logger.Error("scrape failed", "outlet", outlet, "reason", result.Reason, "error", err)
	}

	g := graph.Build(result.Profiles)

	archive, aerr := buildArchive(cfg, logger)
	if aerr != nil {
		return aerr
	}
	defer archive.Close()
	if err := archive.SaveResult(ctx, outlet, result, g); err != nil {
		logger.Error("export failed", "error", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("\nScrape complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Outlet:    %s\n", result.OutletName)
	if result.Website != "" {
		fmt.Printf("   Website:   %s\n", result.Website)
	}
	fmt.Printf("   Profiles:  %d\n", len(result.Profiles))
	fmt.Printf("   Graph:     %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	if result.Reason != "" && result.Reason != "ok" {
		fmt.Printf("   Reason:    %s\n", result.Reason)
	}
	if result.Stats != nil {
		fmt.Printf("   Pages:     %d fetched, %d failed\n", result.Stats.PagesFetched, result.Stats.PagesFailed)
	}
	fmt.Printf("   Output:    %s\n", cfg.Storage.OutputDir)

	return nil
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher type: http or browser")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSetup()
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := api.NewServer(cfg.API, eng, logger)

	archive, err := buildArchive(cfg, logger)
	if err != nil {
		return err
	}
	defer archive.Close()
	server.SetArchive(archive)

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(logger)
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		eng.SetMetrics(metrics)
		server.SetMetrics(metrics)
	}

	server.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Resolver:\n")
			fmt.Printf("  Probe Timeout:      %s\n", cfg.Resolver.ProbeTimeout)
			fmt.Printf("  Max Probes:         %d\n", cfg.Resolver.MaxProbes)
			fmt.Printf("  Budget:             %s\n", cfg.Resolver.Budget)
			fmt.Printf("  TLDs:               %s\n", strings.Join(cfg.Resolver.TLDs, " "))
			fmt.Printf("\nEngine:\n")
			fmt.Printf("  Concurrency:        %d\n", cfg.Engine.Concurrency)
			fmt.Printf("  Per-Host Limit:     %d\n", cfg.Engine.PerHostLimit)
			fmt.Printf("  Max Depth:          %d\n", cfg.Engine.MaxDepth)
			fmt.Printf("  Request Timeout:    %s\n", cfg.Engine.RequestTimeout)
			fmt.Printf("  Job Budget:         %s\n", cfg.Engine.JobBudget)
			fmt.Printf("  Politeness Delay:   %s\n", cfg.Engine.PolitenessDelay)
			fmt.Printf("  Respect robots.txt: %v\n", cfg.Engine.RespectRobotsTxt)
			fmt.Printf("  Min Profiles:       %d\n", cfg.Engine.MinProfiles)
			fmt.Printf("  Max Pages:          %d\n", cfg.Engine.MaxPages)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:               %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Follow Redirects:   %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:      %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output Dir:         %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Mongo URI set:      %v\n", cfg.Storage.MongoURI != "")
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Port:               %d\n", cfg.API.Port)
			fmt.Printf("  Request Timeout:    %s\n", cfg.API.RequestTimeout)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:               %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("NewsTrace %s\n", config.Version)
		},
	}
}

// loadSetup loads config, applies CLI overrides, and builds the logger.
func loadSetup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg), nil
}

// buildEngine wires the resolver, robots gate, fetcher, extractor, and
// checkpoint store into an engine. The returned cleanup closes the fetcher.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, func(), error) {
	client := &http.Client{Timeout: cfg.Engine.RequestTimeout}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create fetcher: %w", err)
	}

	store, err := checkpoint.New(cfg.Checkpoint.Dir, cfg.Checkpoint.FileName, logger)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("create checkpoint store: %w", err)
	}

	eng := engine.New(cfg, logger)
	eng.SetResolver(resolver.New(cfg.Resolver, client, logger))
	eng.SetRobots(robots.NewGate(cfg.Engine.RespectRobotsTxt, client, logger))
	eng.SetFetcher(f)
	eng.SetExtractor(extract.New(logger))
	eng.SetCheckpoint(store)

	cleanup := func() {
		if err := f.Close(); err != nil {
			logger.Warn("fetcher close failed", "error", err)
		}
	}
	return eng, cleanup, nil
}

// buildArchive assembles the export backends: always file, plus MongoDB
// when a URI is configured.
func buildArchive(cfg *config.Config, logger *slog.Logger) (storage.Archive, error) {
	file, err := storage.NewFileArchive(cfg.Storage.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("create file archive: %w", err)
	}
	if cfg.Storage.MongoURI == "" {
		return file, nil
	}

	mongo, err := storage.NewMongoArchive(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, logger)
	if err != nil {
		logger.Warn("mongodb unavailable, continuing with file archive only", "error", err)
		return file, nil
	}
	return storage.NewMultiArchive(file, mongo), nil
}

// setupLogger creates a structured logger per the logging config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if logFormat != "" {
		cfg.Logging.Format = strings.ToLower(logFormat)
	}
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
	if depth > 0 {
		cfg.Engine.MaxDepth = depth
	}
	if concurrent > 0 {
		cfg.Engine.Concurrency = concurrent
	}
	if budget != "" {
		if d, err := time.ParseDuration(budget); err == nil {
			cfg.Engine.JobBudget = d
		}
	}
	if minProfiles > 0 {
		cfg.Engine.MinProfiles = minProfiles
	}
	if noRobots {
		cfg.Engine.RespectRobotsTxt = false
	}
}
