package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/medusecase/internal/cache"
	"github.com/ppiankov/medusecase/internal/dataset"
	"github.com/ppiankov/medusecase/internal/enrich"
	"github.com/ppiankov/medusecase/internal/llm"
	"github.com/ppiankov/medusecase/internal/model"
	"github.com/ppiankov/medusecase/internal/pipeline"
	"github.com/ppiankov/medusecase/internal/progress"
	"github.com/ppiankov/medusecase/internal/worker"
)

var (
	noCache    bool
	noProgress bool
	preflight  bool
	sampleRows int
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Add a Usecase column to a medicine dataset",
	Long: `Enrich fills the Usecase column of a medicine CSV in two passes:
- Lookup pass: common medicines are resolved from a built-in table
- Model pass: remaining rows are sent to the model in batches, with
  randomized delays, checkpoints and a cooldown after rate limits

If the output file already exists it is used as the input, so an
interrupted run resumes where it stopped.

Example:
  medusecase enrich
  medusecase enrich --input medicines.csv --output medicines_with_usecases.csv
  medusecase enrich --provider openai --model gpt-4o-mini --rpm 60`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	def := model.DefaultConfig()
	f := enrichCmd.Flags()

	// Files
	f.StringP("input", "i", def.Input, "input CSV")
	f.StringP("output", "o", def.Output, "output CSV (resumed from when present)")
	f.Int("batch-size", def.BatchSize, "rows per batch")
	f.Int("checkpoint-every", def.CheckpointEvery, "save after this many resolved rows")

	// Model
	f.String("provider", def.LLM.Provider, "LLM provider (gemini, openai, anthropic, ollama)")
	f.String("model", def.LLM.Model, "model name (provider default when another provider is chosen)")
	f.String("base-url", "", "custom API endpoint")
	f.Duration("request-timeout", def.LLM.Timeout, "timeout for a single model request")
	f.Float64("rpm", def.LLM.RequestsPerMinute, "max model requests per minute (0 = unlimited)")
	f.Int("max-attempts", def.LLM.MaxAttempts, "attempts per row when rate limited")
	f.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	f.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Throttling
	f.Duration("batch-delay-min", def.Throttle.BatchDelay.Min, "minimum delay before each batch")
	f.Duration("batch-delay-max", def.Throttle.BatchDelay.Max, "maximum delay before each batch")
	f.Duration("row-delay-min", def.Throttle.RowDelay.Min, "minimum delay after each row")
	f.Duration("row-delay-max", def.Throttle.RowDelay.Max, "maximum delay after each row")
	f.Duration("cooldown-min", def.Throttle.Cooldown.Min, "minimum wait after a rate limit")
	f.Duration("cooldown-max", def.Throttle.Cooldown.Max, "maximum wait after a rate limit")

	// Cache and output
	f.BoolVar(&noCache, "no-cache", false, "disable the response cache")
	f.String("cache-dir", def.Cache.Dir, "response cache directory (empty = memory only)")
	f.String("progress-log", def.Progress.LogFile, "append-only progress log (empty = disabled)")
	f.BoolVar(&noProgress, "no-progress", false, "hide progress bars")
	f.BoolVar(&preflight, "preflight", false, "check the provider is reachable before starting")
	f.IntVar(&sampleRows, "sample", 10, "rows to print after the run")

	bindFlags(map[string]string{
		"input":            "input",
		"output":           "output",
		"batch-size":       "batch_size",
		"checkpoint-every": "checkpoint_every",
		"provider":         "llm.provider",
		"model":            "llm.model",
		"base-url":         "llm.base_url",
		"request-timeout":  "llm.timeout",
		"rpm":              "llm.requests_per_minute",
		"max-attempts":     "llm.max_attempts",
		"http-proxy":       "llm.http_proxy",
		"https-proxy":      "llm.https_proxy",
		"batch-delay-min":  "throttle.batch_delay.min",
		"batch-delay-max":  "throttle.batch_delay.max",
		"row-delay-min":    "throttle.row_delay.min",
		"row-delay-max":    "throttle.row_delay.max",
		"cooldown-min":     "throttle.cooldown.min",
		"cooldown-max":     "throttle.cooldown.max",
		"cache-dir":        "cache.dir",
		"progress-log":     "progress.log_file",
	})
}

func bindFlags(keys map[string]string) {
	for flag, key := range keys {
		_ = viper.BindPFlag(key, enrichCmd.Flags().Lookup(flag))
	}
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noProgress {
		cfg.Progress.Bars = false
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := cfg.Input
	if dataset.Exists(cfg.Output) {
		fmt.Fprintf(os.Stderr, "Output file %s already exists. Resuming from last saved state.\n", cfg.Output)
		input = cfg.Output
	}

	fmt.Fprintf(os.Stderr, "⚙️  Reading dataset from %s...\n", input)
	ds, err := dataset.Load(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d medicines\n", ds.Len())

	provider, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}
	if preflight {
		if !provider.IsAvailable(ctx) {
			return fmt.Errorf("provider %s is not reachable", provider.Name())
		}
		fmt.Fprintf(os.Stderr, "✓ Provider %s is reachable\n", provider.Name())
	}

	provider = llm.WithRetry(provider, llm.RetryPolicy{
		MaxAttempts: cfg.LLM.MaxAttempts,
		BaseDelay:   cfg.LLM.BackoffBase,
		MaxDelay:    cfg.LLM.BackoffMax,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			if cfg.Progress.Verbose {
				fmt.Fprintf(os.Stderr, "⚠️  Rate limited (attempt %d), retrying in %v\n", attempt, wait)
			}
		},
	})

	plog, err := progress.Open(cfg.Progress.LogFile)
	if err != nil {
		return err
	}
	defer plog.Close()
	plog.RunStarted(input, cfg.Output, ds.Len(), provider.Name(), cfg.LLM.Model)

	querier := enrich.NewQuerier(provider, enrich.Options{
		Model:   cfg.LLM.Model,
		Cache:   cache.New(cfg.Cache),
		Limiter: worker.NewLimiter(cfg.LLM.RequestsPerMinute, 1),
	})

	p := pipeline.NewPipeline(cfg, pipeline.Deps{
		Querier: querier,
		Saver:   dataset.Store{Path: cfg.Output},
		Log:     plog,
		Out:     os.Stderr,
	})

	if cfg.Progress.Verbose {
		fmt.Fprintf(os.Stderr, "  Provider:     %s/%s\n", provider.Name(), cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "  Batch size:   %d\n", cfg.BatchSize)
		fmt.Fprintf(os.Stderr, "  Cache:        %v\n", cfg.Cache.Enabled)
		fmt.Fprintf(os.Stderr, "  Progress log: %s\n", cfg.Progress.LogFile)
		fmt.Fprintln(os.Stderr)
	}

	stats, err := p.Run(ctx, ds)
	if err != nil {
		plog.Error("run aborted", err)
		return fmt.Errorf("enrich: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Processing complete. Enhanced dataset saved to %s\n", cfg.Output)
	printSample(os.Stdout, ds, sampleRows)
	printStats(os.Stdout, stats)
	return nil
}
