// Package config loads newsguard configuration from defaults, a YAML file and
// the environment, and validates the result.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/newsguard/internal/model"
)

// EnvPrefix is the prefix for all newsguard environment variables.
const EnvPrefix = "NEWSGUARD"

// Vendor environment variables, consulted only when the NEWSGUARD_* form is unset.
var searchKeyEnv = map[string]string{
	"google": "GOOGLE_API_KEY",
	"jina":   "JINA_API_KEY",
}

var llmKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "newsguard", "config.yaml")
}

// DefaultCacheDir returns the disk cache location under the XDG cache home.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "newsguard")
}

// Load reads configuration into v from path (or the default location when
// empty) and returns the merged, validated config. A missing file is not an error.
func Load(v *viper.Viper, path string) (*model.Config, error) {
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg model.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	applyVendorEnv(&cfg)
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir()
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key of the default config with viper so that
// AutomaticEnv can override keys that never appear in the file.
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return eris.Wrap(err, "config: unmarshal defaults")
	}
	for key, val := range flatten("", tree) {
		v.SetDefault(key, val)
	}
	// Keys omitted from YAML output when empty still need to be bindable.
	for _, key := range []string{
		"search.api_key", "search.engine_id", "search.base_url",
		"llm.api_key", "llm.base_url",
		"http.http_proxy", "http.https_proxy", "http.no_proxy",
		"cache.dir",
	} {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
	return nil
}

func flatten(prefix string, in map[string]any) map[string]any {
	out := make(map[string]any)
	for k, val := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		// The trust table is a structured list value; keep it whole.
		if nested, ok := val.(map[string]any); ok && key != "trust.table" {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = val
	}
	return out
}

func applyVendorEnv(cfg *model.Config) {
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv(searchKeyEnv[cfg.Search.Provider])
	}
	if cfg.Search.EngineID == "" {
		cfg.Search.EngineID = os.Getenv("GOOGLE_CSE_ID")
	}
	if cfg.LLM.APIKey == "" {
		if name, ok := llmKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(name)
		}
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct constraints.
func Validate(cfg *model.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return eris.Errorf("config: invalid %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return eris.Wrap(err, "config: validate")
	}
	return nil
}

// Marshal renders cfg as YAML with secrets redacted.
func Marshal(cfg *model.Config) ([]byte, error) {
	redacted := *cfg
	redacted.Search.APIKey = redact(cfg.Search.APIKey)
	redacted.LLM.APIKey = redact(cfg.LLM.APIKey)
	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return nil, eris.Wrap(err, "config: marshal")
	}
	return data, nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
