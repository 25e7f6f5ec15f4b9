package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "FALPROXY"

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_address", "127.0.0.1:8080")

	v.SetDefault("provider.base_url", "https://fal.run")
	v.SetDefault("provider.timeout", "0s")

	v.SetDefault("defaults.model", "fal-ai/flux/schnell")
	v.SetDefault("defaults.image_size", "square_hd")
	v.SetDefault("defaults.num_inference_steps", 4)

	v.SetDefault("cors.allow_origin", "*")
	v.SetDefault("monitor.interval", "0s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads the optional config file, applies FALPROXY_* environment
// overrides, and validates the result. An empty configFile means defaults and
// environment only.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var configuration Config
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return errors.New("listen_address is required")
	}
	if c.Provider.BaseURL == "" {
		return errors.New("provider.base_url is required")
	}
	u, err := url.Parse(c.Provider.BaseURL)
	if err != nil {
		return fmt.Errorf("provider.base_url is invalid: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("provider.base_url must be an absolute http(s) URL, got %q", c.Provider.BaseURL)
	}
	if c.Provider.Timeout < 0 {
		return errors.New("provider.timeout must not be negative")
	}
	if strings.TrimSpace(c.Defaults.Model) == "" {
		return errors.New("defaults.model is required")
	}
	if c.Defaults.NumInferenceSteps <= 0 {
		return errors.New("defaults.num_inference_steps must be positive")
	}
	return nil
}
