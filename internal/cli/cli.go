package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/pfrederiksen/nba-schedule/internal/browser"
	"github.com/pfrederiksen/nba-schedule/internal/cache"
	"github.com/pfrederiksen/nba-schedule/internal/config"
	"github.com/pfrederiksen/nba-schedule/internal/crawler"
	"github.com/pfrederiksen/nba-schedule/internal/extraction"
	"github.com/pfrederiksen/nba-schedule/internal/filter"
	"github.com/pfrederiksen/nba-schedule/internal/game"
	"github.com/pfrederiksen/nba-schedule/internal/logger"
	"github.com/pfrederiksen/nba-schedule/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitNewGames = 2
)

const (
	strategyCSS = "css"
	strategyLLM = "llm"
)

var (
	flagURL         string
	flagStrategy    string
	flagProvider    string
	flagAPIToken    string
	flagBaseURL     string
	flagCSSSchema   string
	flagInputFormat string
	flagCacheMode   string
	flagPageTimeout time.Duration
	flagEngine      string
	flagShowUI      bool
	flagProxy       string
	flagFormat      string
	flagOutput      string
	flagDataDir     string
	flagNewOnly     bool
	flagRefresh     bool
	flagTeams       []string
	flagSort        string
	flagValidOnly   bool
	flagShowUsage   bool
	flagVerbose     bool
)

// exitCode is set by runCrawl for outcomes that are not errors (failed crawl, new games)
var exitCode = ExitSuccess

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nba-schedule",
		Short: "Extract NBA matchups from a schedule page",
		Long: `A CLI tool that renders an NBA schedule page in a headless browser and extracts
the away and home team of every game, either with CSS selectors or with an LLM.
Settings can also come from NBA_SCHEDULE_* environment variables or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawl,
	}

	// Source and strategy
	cmd.Flags().StringVar(&flagURL, "url", "", "Schedule page URL (default $NBA_SCHEDULE_URL or "+config.DefaultURL+")")
	cmd.Flags().StringVar(&flagStrategy, "strategy", strategyCSS, "Extraction strategy: css or llm")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider as provider/model (default $NBA_SCHEDULE_LLM_PROVIDER or "+config.DefaultProvider+")")
	cmd.Flags().StringVar(&flagAPIToken, "api-token", "", "LLM API token (default $NBA_SCHEDULE_LLM_API_TOKEN)")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "LLM API base URL (default depends on provider)")
	cmd.Flags().StringVar(&flagCSSSchema, "css-schema", "", "JSON file with a CSS extraction schema (default: built-in NBA schema)")
	cmd.Flags().StringVar(&flagInputFormat, "input-format", "", "Content handed to the LLM: markdown, html or raw_html")

	// Fetching
	cmd.Flags().StringVar(&flagCacheMode, "cache-mode", string(cache.ModeBypass), "Page cache: enabled, disabled, read_only, write_only or bypass")
	cmd.Flags().DurationVar(&flagPageTimeout, "page-timeout", 0, "Page load timeout (default $NBA_SCHEDULE_PAGE_TIMEOUT or 80s)")
	cmd.Flags().StringVar(&flagEngine, "engine", string(browser.EngineRod), "Browser engine: rod, chromedp or http")
	cmd.Flags().BoolVar(&flagShowUI, "show-ui", false, "Run the browser with a visible window")
	cmd.Flags().StringVar(&flagProxy, "proxy", "", "Proxy server for the browser (default $NBA_SCHEDULE_PROXY)")

	// Output
	cmd.Flags().StringVar(&flagFormat, "format", string(FormatRaw), "Output format: raw, json or text")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Data directory for snapshots and the page cache (default $NBA_SCHEDULE_DATA_DIR or "+config.DefaultDataDir+")")
	cmd.Flags().BoolVar(&flagNewOnly, "new-only", false, "Only report games not seen in the previous run (exit code 2 when any)")
	cmd.Flags().BoolVar(&flagRefresh, "refresh", false, "With --new-only, refresh the snapshot without reporting new games")
	cmd.Flags().StringSliceVar(&flagTeams, "team", nil, "Filter by team (repeatable; prefix with away: or home: to match one side)")
	cmd.Flags().StringVar(&flagSort, "sort", string(SortNone), "Sort games: none, away or home")
	cmd.Flags().BoolVar(&flagValidOnly, "valid-only", false, "Drop rows missing either team")
	cmd.Flags().BoolVar(&flagShowUsage, "show-usage", false, "Print LLM token usage to stderr")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")

	return cmd
}

// runOptions is the resolved flag/env/default configuration for one invocation
type runOptions struct {
	url         string
	strategy    string
	format      OutputFormat
	sortOrder   SortOrder
	cacheMode   cache.Mode
	engine      browser.Engine
	inputFormat extraction.InputFormat
	pageTimeout time.Duration
	dataDir     string
	proxy       string
	teamFilter  *filter.Filter
	cfg         *config.Config
}

// resolveOptions validates flags and merges them over the environment
func resolveOptions(cfg *config.Config) (*runOptions, error) {
	opts := &runOptions{cfg: cfg}

	opts.strategy = strings.ToLower(strings.TrimSpace(flagStrategy))
	if opts.strategy != strategyCSS && opts.strategy != strategyLLM {
		return nil, fmt.Errorf("invalid strategy: %s (must be 'css' or 'llm')", flagStrategy)
	}

	// Validate format
	opts.format = OutputFormat(strings.ToLower(flagFormat))
	if opts.format != FormatRaw && opts.format != FormatText && opts.format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'raw', 'json' or 'text')", flagFormat)
	}

	var err error
	if opts.sortOrder, err = parseSortOrder(flagSort); err != nil {
		return nil, err
	}
	if opts.cacheMode, err = cache.ParseMode(flagCacheMode); err != nil {
		return nil, err
	}
	if opts.engine, err = browser.ParseEngine(flagEngine); err != nil {
		return nil, err
	}
	if flagInputFormat != "" {
		if opts.inputFormat, err = extraction.ParseInputFormat(flagInputFormat); err != nil {
			return nil, err
		}
	}
	if opts.teamFilter, err = filter.Parse(flagTeams); err != nil {
		return nil, fmt.Errorf("parsing --team: %w", err)
	}
	if flagPageTimeout < 0 {
		return nil, fmt.Errorf("invalid page timeout: %s", flagPageTimeout)
	}
	if flagRefresh && !flagNewOnly {
		return nil, fmt.Errorf("--refresh requires --new-only")
	}

	opts.url = firstNonEmpty(flagURL, cfg.URL)
	opts.dataDir = firstNonEmpty(flagDataDir, cfg.DataDir)
	opts.proxy = firstNonEmpty(flagProxy, cfg.Proxy)
	opts.pageTimeout = cfg.PageTimeout
	if flagPageTimeout > 0 {
		opts.pageTimeout = flagPageTimeout
	}

	return opts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// runCrawl is the main command logic
func runCrawl(cmd *cobra.Command, args []string) error {
	exitCode = ExitSuccess
	stderr := cmd.ErrOrStderr()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, stderr))

	opts, err := resolveOptions(cfg)
	if err != nil {
		return err
	}

	llmStrategy, runCfg, err := buildRunConfig(opts)
	if err != nil {
		return err
	}

	logger.Debug("Starting crawl", logger.Fields{
		"url":      opts.url,
		"strategy": runCfg.Strategy.Name(),
		"engine":   string(opts.engine),
		"cache":    string(opts.cacheMode),
		"timeout":  opts.pageTimeout.String(),
		"data_dir": opts.dataDir,
		"new_only": flagNewOnly,
		"filter":   opts.teamFilter.String(),
		"provider": llmStrategy.Config().Provider,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := crawl(ctx, opts, runCfg, stderr)
	if err != nil {
		return err
	}

	if flagShowUsage && opts.strategy == strategyLLM {
		writeUsage(stderr, llmStrategy.Usage())
	}

	if !result.Success {
		logger.Error("Crawl failed", logger.Fields{"url": result.URL}, fmt.Errorf("%s", result.ErrorMessage))
		fmt.Fprintf(stderr, "Crawl failed: %s\n", result.ErrorMessage)
		exitCode = ExitError
		return nil
	}

	out, closeOut, err := openOutput(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	output := &OutputResult{
		URL:       result.URL,
		CheckedAt: time.Now().UTC(),
		Strategy:  runCfg.Strategy.Name(),
		Raw:       result.ExtractedContent,
	}
	if opts.strategy == strategyLLM {
		usage := llmStrategy.Usage()
		output.Usage = &usage
	}

	games, err := processGames(result, opts, output)
	if err != nil {
		return err
	}
	output.Games = games
	output.GameCount = len(games)

	if flagVerbose {
		logger.LogMetrics()
	}

	if err := WriteOutput(out, output, opts.format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if flagNewOnly && !flagRefresh && output.GameCount > 0 {
		exitCode = ExitNewGames
	}
	return nil
}

// buildRunConfig constructs both strategies and returns the run configuration for the
// selected one. The LLM strategy is always built so its usage can be reported.
func buildRunConfig(opts *runOptions) (*extraction.LLMStrategy, crawler.RunConfig, error) {
	llmCfg := extraction.NBALLMConfig(
		firstNonEmpty(flagProvider, opts.cfg.LLMProvider),
		firstNonEmpty(flagAPIToken, opts.cfg.LLMAPIToken),
		firstNonEmpty(flagBaseURL, opts.cfg.LLMBaseURL),
	)
	if opts.inputFormat != "" {
		llmCfg.InputFormat = opts.inputFormat
	}
	llmStrategy, err := extraction.NewLLMStrategy(llmCfg)
	if err != nil {
		return nil, crawler.RunConfig{}, fmt.Errorf("creating LLM strategy: %w", err)
	}

	var runCfg crawler.RunConfig
	switch opts.strategy {
	case strategyLLM:
		runCfg = crawler.LLMRunConfig(llmStrategy)
	default:
		schema := extraction.NBACSSSchema()
		if flagCSSSchema != "" {
			data, err := os.ReadFile(flagCSSSchema)
			if err != nil {
				return nil, crawler.RunConfig{}, fmt.Errorf("reading CSS schema: %w", err)
			}
			if schema, err = extraction.ParseCSSSchema(data); err != nil {
				return nil, crawler.RunConfig{}, err
			}
		}
		cssStrategy, err := extraction.NewCSSStrategy(schema)
		if err != nil {
			return nil, crawler.RunConfig{}, fmt.Errorf("creating CSS strategy: %w", err)
		}
		runCfg = crawler.CSSRunConfig(cssStrategy)
	}

	runCfg.CacheMode = opts.cacheMode
	runCfg.PageTimeout = opts.pageTimeout
	return llmStrategy, runCfg, nil
}

// crawl opens the page cache and browser, runs one crawl and releases both
func crawl(ctx context.Context, opts *runOptions, runCfg crawler.RunConfig, stderr io.Writer) (*crawler.Result, error) {
	var crawlerOpts []crawler.Option
	if opts.cacheMode.CanRead() || opts.cacheMode.CanWrite() {
		store, err := openCache(ctx, opts)
		if err != nil {
			return nil, err
		}
		crawlerOpts = append(crawlerOpts, crawler.WithCache(store))
	}

	c, err := crawler.New(crawler.BrowserConfig{
		Engine:   opts.engine,
		Headless: !flagShowUI,
		Proxy:    opts.proxy,
		Verbose:  flagVerbose,
	}, crawlerOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating crawler: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("Closing crawler", logger.Fields{"error": err.Error()})
		}
	}()

	stop := startSpinner(stderr, fmt.Sprintf(" Crawling %s", opts.url))
	defer stop()

	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	return c.Run(ctx, opts.url, runCfg), nil
}

// openCache returns a Redis-backed store when a Redis URL is configured and a file store
// under the data directory otherwise
func openCache(ctx context.Context, opts *runOptions) (cache.Store, error) {
	if opts.cfg.RedisURL != "" {
		store, err := cache.NewRedisStore(ctx, opts.cfg.RedisURL, opts.cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("opening redis cache: %w", err)
		}
		return store, nil
	}

	dir, err := storage.ExpandPath(opts.dataDir)
	if err != nil {
		return nil, fmt.Errorf("expanding data dir: %w", err)
	}
	store, err := cache.NewFileStore(filepath.Join(dir, "cache"), opts.cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("opening file cache: %w", err)
	}
	removed, err := store.CleanExpired()
	if err != nil {
		logger.Warn("Cleaning page cache", logger.Fields{"error": err.Error()})
	} else {
		logger.Debug("Cleaned page cache", logger.Fields{"removed": removed})
	}
	return store, nil
}

// processGames turns the extracted records into games and applies the post-processing flags
func processGames(result *crawler.Result, opts *runOptions, output *OutputResult) ([]*game.Game, error) {
	var records []map[string]any
	if err := json.Unmarshal([]byte(result.ExtractedContent), &records); err != nil {
		return nil, fmt.Errorf("decoding extracted content: %w", err)
	}

	games := game.Dedupe(game.FromRecords(records, result.URL))
	if flagValidOnly {
		games = game.OnlyValid(games)
	}
	games = opts.teamFilter.Apply(games)
	sortGames(games, opts.sortOrder)

	logger.Debug("Processed games", logger.Fields{
		"records": len(records),
		"games":   len(games),
	})

	if !flagNewOnly {
		return games, nil
	}

	store, err := storage.New(opts.dataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	var previous *game.Snapshot
	if !flagRefresh {
		previous, err = store.LoadSnapshot(result.URL)
		if err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		logger.Debug("Loaded previous snapshot", logger.Fields{"games": len(previous.Games)})
	}

	diff := game.Diff(previous, games)

	if err := store.CreateSnapshotFromGames(games, result.URL); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	output.NewOnly = true
	if flagRefresh {
		return []*game.Game{}, nil
	}
	if opts.sortOrder != SortNone {
		sortGames(diff.NewGames, opts.sortOrder)
	}
	output.ByTeam = diff.ByTeam
	return diff.NewGames, nil
}

// openOutput returns the --output file, or fallback when none was given
func openOutput(fallback io.Writer) (io.Writer, func(), error) {
	if flagOutput == "" {
		return fallback, func() {}, nil
	}

	f, err := os.Create(flagOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Warn("Closing output file", logger.Fields{"path": flagOutput, "error": err.Error()})
		}
	}, nil
}

// startSpinner shows a spinner on w while crawling, only when w is a terminal
func startSpinner(w io.Writer, suffix string) func() {
	f, ok := w.(*os.File)
	if !ok || flagVerbose || !isatty.IsTerminal(f.Fd()) {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = suffix
	s.Start()
	return s.Stop
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := NewRootCmd()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(exitCode)
}
