// Package config loads apibridge configuration with viper. Precedence, from
// lowest to highest: built-in defaults, an optional apibridge.toml in the
// working directory, then APIBRIDGE_* environment variables.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config holds runtime settings for the pipeline and CLI.
type Config struct {
	Crawl  CrawlConfig  `mapstructure:"crawl"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Output OutputConfig `mapstructure:"output"`
}

// CrawlConfig controls the documentation crawler.
type CrawlConfig struct {
	MaxPages     int     `mapstructure:"max_pages"`
	DelaySeconds float64 `mapstructure:"delay_seconds"`
}

// LLMConfig configures the model client.
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// OutputConfig controls artifact serialization.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "json" or "yaml"
	JSON   bool   `mapstructure:"json"`   // machine-readable progress/logs
}

// SetDefaults registers default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("crawl.max_pages", 15)
	v.SetDefault("crawl.delay_seconds", 1.0)
	v.SetDefault("llm.model", "openai/gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("output.format", "json")
	v.SetDefault("output.json", false)
}

// Load reads configuration from defaults, an optional apibridge.toml in the
// working directory, and APIBRIDGE_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("APIBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	v.SetConfigName("apibridge")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile reads configuration from a specific TOML file.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", path)
	}
	return &config, nil
}
