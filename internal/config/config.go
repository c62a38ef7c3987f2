// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	BaseURL         string    `yaml:"base_url" mapstructure:"base_url"`
	Tags            []string  `yaml:"tags" mapstructure:"tags"`
	DisruptionsTags []string  `yaml:"disruptions_tags" mapstructure:"disruptions_tags"`
	HDX             HDXConfig `yaml:"hdx" mapstructure:"hdx"`
	Run             RunConfig `yaml:"run" mapstructure:"run"`
	Log             LogConfig `yaml:"log" mapstructure:"log"`
}

// HDXConfig holds catalog credentials and dataset ownership defaults.
type HDXConfig struct {
	Site       string `yaml:"site" mapstructure:"site"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	OwnerOrg   string `yaml:"owner_org" mapstructure:"owner_org"`
	Maintainer string `yaml:"maintainer" mapstructure:"maintainer"`
}

// RunConfig configures a single pipeline invocation.
type RunConfig struct {
	TempDir   string `yaml:"temp_dir" mapstructure:"temp_dir"`
	PageSize  int    `yaml:"page_size" mapstructure:"page_size"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	DryRun    bool   `yaml:"dry_run" mapstructure:"dry_run"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PORTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("base_url", "https://services9.arcgis.com/weJ1QsnbMYJlCHdG/arcgis/rest/services")
	v.SetDefault("tags", []string{"ports", "trade"})
	v.SetDefault("disruptions_tags", []string{"hazards and risk", "ports", "trade"})
	v.SetDefault("hdx.site", "https://data.humdata.org")
	v.SetDefault("run.temp_dir", "/tmp/portwatch")
	v.SetDefault("run.page_size", 1000)
	v.SetDefault("run.user_agent", "portwatch-cli/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that required settings are present for the given mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "run":
		if c.BaseURL == "" {
			problems = append(problems, "base_url is required")
		}
		if c.Run.PageSize < 1 || c.Run.PageSize > 32000 {
			problems = append(problems, "run.page_size must be between 1 and 32000")
		}
		if !c.Run.DryRun {
			if c.HDX.Site == "" {
				problems = append(problems, "hdx.site is required")
			}
			if c.HDX.APIKey == "" {
				problems = append(problems, "hdx.api_key is required (or set run.dry_run)")
			}
		}
	case "countries":
		if c.BaseURL == "" {
			problems = append(problems, "base_url is required")
		}
		if c.Run.PageSize < 1 || c.Run.PageSize > 32000 {
			problems = append(problems, "run.page_size must be between 1 and 32000")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
