package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/medusecase/internal/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := loadConfig(viper.New())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BatchSize != 50 || cfg.CheckpointEvery != 20 {
		t.Errorf("unexpected batching: %+v", cfg)
	}
	if cfg.LLM.Model != "gemini-2.0-flash-001" {
		t.Errorf("unexpected model %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "g-key" {
		t.Errorf("expected key from env, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("batch_size", 10)
	v.Set("llm.provider", "openai")
	v.Set("throttle.cooldown.min", "5s")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("expected batch size 10, got %d", cfg.BatchSize)
	}
	if cfg.LLM.Model != "" {
		t.Errorf("expected gemini model to be dropped for openai, got %q", cfg.LLM.Model)
	}
	if cfg.Throttle.Cooldown.Min != 5*time.Second || cfg.Throttle.Cooldown.Max != 120*time.Second {
		t.Errorf("unexpected cooldown: %+v", cfg.Throttle.Cooldown)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("expected OpenAI key, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadConfig_EnvOnlyKeys(t *testing.T) {
	t.Setenv("MEDUSECASE_CACHE_ENABLED", "false")
	t.Setenv("MEDUSECASE_LLM_TEMPERATURE", "0.9")
	t.Setenv("MEDUSECASE_PROGRESS_BARS", "false")
	t.Setenv("MEDUSECASE_LLM_BACKOFF_BASE", "3s")
	t.Setenv("MEDUSECASE_THROTTLE_ROW_DELAY_MAX", "4s")
	t.Setenv("MEDUSECASE_LLM_API_KEY", "env-key")

	v := viper.New()
	configureEnv(v)

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cache.Enabled {
		t.Error("expected cache disabled from env")
	}
	if cfg.LLM.Temperature != 0.9 {
		t.Errorf("expected temperature 0.9, got %v", cfg.LLM.Temperature)
	}
	if cfg.Progress.Bars {
		t.Error("expected progress bars disabled from env")
	}
	if cfg.LLM.BackoffBase != 3*time.Second {
		t.Errorf("expected backoff 3s, got %v", cfg.LLM.BackoffBase)
	}
	if cfg.Throttle.RowDelay.Max != 4*time.Second || cfg.Throttle.RowDelay.Min != 500*time.Millisecond {
		t.Errorf("unexpected row delay: %+v", cfg.Throttle.RowDelay)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("expected api key from env, got %q", cfg.LLM.APIKey)
	}
	// Untouched keys keep their defaults
	if cfg.BatchSize != 50 || cfg.Cache.MemoryTTL != time.Hour {
		t.Errorf("expected defaults for unset keys: %+v", cfg)
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := model.DefaultConfig()
	err := requireAPIKey(cfg)
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY or GOOGLE_API_KEY") {
		t.Errorf("expected missing key error, got %v", err)
	}

	cfg.LLM.Provider = "ollama"
	if err := requireAPIKey(cfg); err != nil {
		t.Errorf("ollama needs no key: %v", err)
	}
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".medusecase", "config.yaml")

	if err := initConfigFile(path); err != nil {
		t.Fatalf("initConfigFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.LLM.Provider != "gemini" || cfg.Progress.LogFile != "medicine_usecase_progress.log" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if err := initConfigFile(path); err == nil {
		t.Error("expected error when the file already exists")
	}
}

func TestRedact(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "secret"

	var buf bytes.Buffer
	if err := writeConfig(&buf, redact(cfg)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "secret") {
		t.Error("api key leaked into output")
	}
	if cfg.LLM.APIKey != "secret" {
		t.Error("redact must not modify the original")
	}
}

func TestWriteStats(t *testing.T) {
	ds, err := model.NewDataset(
		[]string{"name", "short_composition1"},
		[][]string{{"Dolo 650", "Paracetamol (650mg)"}, {"X", ""}, {"Y", ""}},
	)
	if err != nil {
		t.Fatal(err)
	}
	ds.SetUsecase(0, "fever, pain")
	ds.SetUsecase(1, model.Unknown)

	var text bytes.Buffer
	if err := writeStats(&text, ds, "text", 10); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Total medicines:                 3",
		"Medicines with usecases:         1",
		"Medicines with unknown usecases: 1",
		"Medicines with missing usecases: 1",
		"Paracetamol (650mg)",
	} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("missing %q in:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := writeStats(&js, ds, "json", 0); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `"resolved": 1`) {
		t.Errorf("unexpected json: %s", js.String())
	}

	if err := writeStats(&js, ds, "xml", 0); err == nil {
		t.Error("expected error for unknown format")
	}
}
