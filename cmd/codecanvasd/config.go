package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// config is the server configuration. Values come from defaults, then an
// optional YAML file, then CODECANVAS_* environment variables.
type config struct {
	Addr            string        `mapstructure:"addr"`
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ThinkingBudget  int           `mapstructure:"thinking_budget"`
	ErrorText       string        `mapstructure:"error_text"`
	OTLPEndpoint    string        `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool          `mapstructure:"otlp_insecure"`
	TraceSampleRate float64       `mapstructure:"trace_sample_rate"`
	Debug           bool          `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("provider", "")
	v.SetDefault("model", "")
	v.SetDefault("upstream_timeout", time.Duration(0))
	v.SetDefault("max_body_bytes", int64(1<<20))
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("thinking_budget", 0)
	v.SetDefault("error_text", "Error generating explanation. Please try again.")
	v.SetDefault("otlp_endpoint", "")
	v.SetDefault("otlp_insecure", false)
	v.SetDefault("trace_sample_rate", 1.0)
	v.SetDefault("debug", false)
}

// loadConfig reads configuration from path (optional) and the environment.
func loadConfig(path string) (config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CODECANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.UpstreamTimeout < 0 {
		errs = append(errs, errors.New("upstream_timeout must not be negative"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max_body_bytes must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.ThinkingBudget < 0 {
		errs = append(errs, errors.New("thinking_budget must not be negative"))
	}
	// otel.NewTracerProvider samples everything for ratios <= 0.
	if c.TraceSampleRate <= 0 || c.TraceSampleRate > 1 {
		errs = append(errs, errors.New("trace_sample_rate must be in (0, 1]"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
