package model

import "time"

// Config holds every knob of an enrichment run.
// It is built once by the CLI and passed down explicitly; nothing reads globals.
type Config struct {
	Input           string `yaml:"input" mapstructure:"input"`                       // Dataset to read
	Output          string `yaml:"output" mapstructure:"output"`                     // Dataset to write (resumed from when present)
	BatchSize       int    `yaml:"batch_size" mapstructure:"batch_size"`             // Rows per batch in the query pass
	CheckpointEvery int    `yaml:"checkpoint_every" mapstructure:"checkpoint_every"` // Pending resolutions that force a save

	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Throttle ThrottleConfig `yaml:"throttle" mapstructure:"throttle"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Progress ProgressConfig `yaml:"progress" mapstructure:"progress"`
}

// LLMConfig selects and tunes the generative model
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`

	// RequestsPerMinute caps outgoing calls (0 disables the limiter)
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	// Retry policy for rate-limit errors
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
	BackoffMax  time.Duration `yaml:"backoff_max" mapstructure:"backoff_max"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ThrottleConfig holds the randomized politeness delays
type ThrottleConfig struct {
	BatchDelay DelayRange `yaml:"batch_delay" mapstructure:"batch_delay"` // Before each batch
	RowDelay   DelayRange `yaml:"row_delay" mapstructure:"row_delay"`     // After each queried row
	Cooldown   DelayRange `yaml:"cooldown" mapstructure:"cooldown"`       // After an exhausted rate limit
}

// DelayRange is a uniform [Min, Max] interval
type DelayRange struct {
	Min time.Duration `yaml:"min" mapstructure:"min"`
	Max time.Duration `yaml:"max" mapstructure:"max"`
}

// CacheConfig controls the model response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ProgressConfig controls human-facing progress output
type ProgressConfig struct {
	LogFile string `yaml:"log_file" mapstructure:"log_file"` // Append-only progress log ("" disables)
	Bars    bool   `yaml:"bars" mapstructure:"bars"`         // Console progress bars
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the stock settings: Gemini flash, batches of 50, a save every 20 rows
func DefaultConfig() *Config {
	return &Config{
		Input:           "A_Z_medicines_dataset_of_India.csv",
		Output:          "a_z_medicines_with_usecases.csv",
		BatchSize:       50,
		CheckpointEvery: 20,
		LLM: LLMConfig{
			Provider:          "gemini",
			Model:             "gemini-2.0-flash-001",
			Timeout:           30 * time.Second,
			MaxTokens:         256,
			Temperature:       0.2,
			RequestsPerMinute: 0,
			MaxAttempts:       3,
			BackoffBase:       time.Second,
			BackoffMax:        30 * time.Second,
		},
		Throttle: ThrottleConfig{
			BatchDelay: DelayRange{Min: 1500 * time.Millisecond, Max: 5 * time.Second},
			RowDelay:   DelayRange{Min: 500 * time.Millisecond, Max: 2 * time.Second},
			Cooldown:   DelayRange{Min: 60 * time.Second, Max: 120 * time.Second},
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".medusecase-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Progress: ProgressConfig{
			LogFile: "medicine_usecase_progress.log",
			Bars:    true,
		},
	}
}
