package config

import "time"

// ProviderConfig describes where generation requests are forwarded.
type ProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultsConfig holds the values used when a request omits a field.
type DefaultsConfig struct {
	Model             string `mapstructure:"model"`
	ImageSize         string `mapstructure:"image_size"`
	NumInferenceSteps int    `mapstructure:"num_inference_steps"`
}

type CORSConfig struct {
	AllowOrigin string `mapstructure:"allow_origin"`
}

type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds the application configuration.
type Config struct {
	ListenAddress string         `mapstructure:"listen_address"`
	Provider      ProviderConfig `mapstructure:"provider"`
	Defaults      DefaultsConfig `mapstructure:"defaults"`
	CORS          CORSConfig     `mapstructure:"cors"`
	Monitor       MonitorConfig  `mapstructure:"monitor"`
	Log           LogConfig      `mapstructure:"log"`
}
