package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webstitch/internal/config"
	"github.com/nao1215/webstitch/internal/crawler"
	"github.com/nao1215/webstitch/internal/database"
	"github.com/nao1215/webstitch/internal/extract"
	"github.com/nao1215/webstitch/internal/fetcher"
	"github.com/nao1215/webstitch/internal/log"
	"github.com/nao1215/webstitch/internal/model"
	"github.com/nao1215/webstitch/internal/report"
)

// NewStitchCmd creates the stitch command.
func NewStitchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stitch <start-url>",
		Short: "Crawl a chain of pages and stitch them into one document",
		Long: `Stitch starts at the given URL, extracts the content fragment of the page,
follows the "next" link, and repeats until the chain ends. The fragments are
assembled into a single HTML document in chain order.

Pages are fetched concurrently; a failed page ends its branch of the chain
but already-collected chapters are still written.

Examples:
  # Stitch with the default selectors (main content, rel="next" link)
  webstitch stitch https://book.example.com/chapter-1

  # Custom selectors for content and next link
  webstitch stitch -s "article.chapter" -n "a.next-chapter" https://book.example.com/chapter-1

  # Limit the chain and write to a custom file
  webstitch stitch --max-chapters 20 -o book.html https://book.example.com/chapter-1

  # Emit the run summary as JSON
  webstitch stitch --json https://book.example.com/chapter-1

  # Use a custom configuration file
  webstitch stitch -c myconfig.yaml https://book.example.com/chapter-1

Configuration file (.webstitch) example:
  defaults:
    contentSelector: "main"
    nextSelector: "a[rel='next']"
  sites:
    book.example.com:
      contentSelector: "article.chapter"
      nextSelector: "a.next-chapter"
      cookie: "session_id=abc123"`,
		Args: cobra.ExactArgs(1),
		RunE: runStitchCmd,
	}

	// Selector flags
	cmd.Flags().StringP("selector", "s", config.DefaultContentSelector,
		"CSS selector for the content fragment of each page")
	cmd.Flags().StringP("next-selector", "n", config.DefaultNextSelector,
		"CSS selector for the next-page link (empty disables chain following)")
	cmd.Flags().String("next-attr", "",
		"Attribute on the next-page element holding the URL (default: href)")

	// Crawl behavior flags
	cmd.Flags().IntP("concurrency", "C", config.DefaultConcurrency,
		"Maximum number of in-flight page fetches")
	cmd.Flags().IntP("max-chapters", "p", config.DefaultMaxChapters,
		"Maximum number of pages to crawl (0 = unlimited)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"Route requests through this proxy URL")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webstitch in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"File path for the stitched HTML document")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().String("report", "",
		"Write the run summary to the specified file instead of stdout")
	cmd.Flags().Bool("no-archive", false,
		"Do not save the completed run to the history database")

	return cmd
}

// runStitchCmd executes the stitch command.
func runStitchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runStitch(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags, the optional
// configuration file, and the start URL argument.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.StartURL = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.ContentSelector, err = cmd.Flags().GetString("selector")
	if err != nil {
		return nil, err
	}

	cfg.NextSelector, err = cmd.Flags().GetString("next-selector")
	if err != nil {
		return nil, err
	}

	cfg.NextAttr, err = cmd.Flags().GetString("next-attr")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.MaxChapters, err = cmd.Flags().GetInt("max-chapters")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ProxyURL, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	noArchive, err := cmd.Flags().GetBool("no-archive")
	if err != nil {
		return nil, err
	}
	cfg.SaveToArchive = !noArchive
	cfg.DBDir = config.XDGDataDir()

	// Site-specific settings override flags left at their defaults.
	applySiteConfig(cmd, cfg)

	return cfg, nil
}

// applySiteConfig merges the site entry for the start URL's host into cfg.
// Explicit flags win over the config file; only flags the user did not set
// are overridden.
func applySiteConfig(cmd *cobra.Command, cfg *config.Config) {
	parsed, err := url.Parse(cfg.StartURL)
	if err != nil || parsed.Host == "" {
		return
	}

	site := cfg.SiteConfigs.ForHost(parsed.Host)

	if site.ContentSelector != "" && !cmd.Flags().Changed("selector") {
		cfg.ContentSelector = site.ContentSelector
	}
	if site.NextSelector != "" && !cmd.Flags().Changed("next-selector") {
		cfg.NextSelector = site.NextSelector
	}
	if site.NextAttr != "" && !cmd.Flags().Changed("next-attr") {
		cfg.NextAttr = site.NextAttr
	}
	if site.MaxChapters != 0 && !cmd.Flags().Changed("max-chapters") {
		cfg.MaxChapters = site.MaxChapters
	}
}

// runStitch executes the crawl and writes the outputs.
func runStitch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting stitch",
		"startURL", cfg.StartURL,
		"contentSelector", cfg.ContentSelector,
		"nextSelector", cfg.NextSelector,
		"concurrency", cfg.Concurrency,
		"maxChapters", cfg.MaxChapters,
	)

	// Site entry for the start host may carry authentication material.
	var site config.SiteConfig
	if parsed, err := url.Parse(cfg.StartURL); err == nil {
		site = cfg.SiteConfigs.ForHost(parsed.Host)
	}

	fetchOpts := []fetcher.Option{
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
	}
	if site.Cookie != "" {
		fetchOpts = append(fetchOpts, fetcher.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		fetchOpts = append(fetchOpts, fetcher.WithHeaders(site.Headers))
	}
	if cfg.ProxyURL != "" {
		fetchOpts = append(fetchOpts, fetcher.WithProxy(cfg.ProxyURL))
	}
	client := fetcher.New(fetchOpts...)

	extractor, err := extract.New(extract.SelectorConfig{
		Content:  cfg.ContentSelector,
		Next:     cfg.NextSelector,
		NextAttr: cfg.NextAttr,
	})
	if err != nil {
		return err
	}

	chain, err := crawler.NewChain(client, extractor,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithMaxChapters(cfg.MaxChapters),
		crawler.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	stitchReport := model.NewStitchReport(cfg.StartURL)
	startTime := time.Now()

	results, runErr := chain.Run(ctx, cfg.StartURL)
	stitchReport.Elapsed = time.Since(startTime)
	stitchReport.Results = results

	if len(results) > 0 {
		if err := writeDocument(cfg, stitchReport); err != nil {
			return err
		}
		fmt.Printf("Stitched %d chapters into %s (%d failures, %s)\n",
			stitchReport.SuccessCount(),
			cfg.OutputFile,
			stitchReport.FailureCount(),
			stitchReport.Elapsed.Round(time.Millisecond),
		)
	}

	if err := outputSummary(cfg, stitchReport); err != nil {
		logger.Error("summary failed", "error", err)
	}

	if cfg.SaveToArchive {
		if err := archiveRun(ctx, cfg, stitchReport, logger); err != nil {
			logger.Error("failed to archive run", "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("crawl interrupted: %w", runErr)
	}
	if len(results) == 0 {
		return fmt.Errorf("no pages crawled from %s", cfg.StartURL)
	}
	return nil
}

// writeDocument writes the stitched HTML document to cfg.OutputFile.
func writeDocument(cfg *config.Config, stitchReport *model.StitchReport) error {
	dir := filepath.Dir(cfg.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := report.NewHTMLWriter(f).Write(stitchReport); err != nil {
		return fmt.Errorf("failed to write stitched document: %w", err)
	}
	return nil
}

// outputSummary renders the run summary in the configured format.
func outputSummary(cfg *config.Config, stitchReport *model.StitchReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(stitchReport)
	return err
}

// archiveRun saves the completed run to the history database.
func archiveRun(ctx context.Context, cfg *config.Config, stitchReport *model.StitchReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	runID, err := db.SaveRun(ctx, stitchReport)
	if err != nil {
		return err
	}

	logger.Info("run archived", "runID", runID, "dir", cfg.DBDir)
	return nil
}
