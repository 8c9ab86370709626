package cli

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/ppiankov/medusecase/internal/llm"
	"github.com/ppiankov/medusecase/internal/model"
)

// loadConfig merges defaults, the config file, MEDUSECASE_* env vars and
// bound flags into a Config
func loadConfig(v *viper.Viper) (*model.Config, error) {
	// Unmarshal only sees keys viper knows about; registering every key
	// makes MEDUSECASE_* reach fields that have no flag
	registerDefaults(v, reflect.ValueOf(*model.DefaultConfig()), "")

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	// Gemini's model name means nothing to other providers; let them pick
	// their own default unless one was chosen explicitly.
	provider := strings.ToLower(cfg.LLM.Provider)
	if provider != "gemini" && provider != "google" && cfg.LLM.Model == model.DefaultConfig().LLM.Model {
		cfg.LLM.Model = ""
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = apiKeyFromEnv(cfg.LLM.Provider)
	}
	if provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	return cfg, nil
}

func apiKeyFromEnv(provider string) string {
	for _, name := range llm.APIKeyEnv(provider) {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// requireAPIKey returns an error naming the variables to set
func requireAPIKey(cfg *model.Config) error {
	env := llm.APIKeyEnv(cfg.LLM.Provider)
	if len(env) == 0 || cfg.LLM.APIKey != "" {
		return nil
	}
	return fmt.Errorf("%s environment variable not set", strings.Join(env, " or "))
}

// configureEnv maps MEDUSECASE_LLM_PROVIDER to llm.provider and so on
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("MEDUSECASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// registerDefaults walks a config struct and sets a viper default for every
// leaf, keyed by the dotted mapstructure path
func registerDefaults(v *viper.Viper, val reflect.Value, prefix string) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if name == "" || name == "-" {
			continue
		}

		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		fv := val.Field(i)
		if fv.Kind() == reflect.Struct {
			registerDefaults(v, fv, key)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}
