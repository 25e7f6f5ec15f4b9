package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type CliConfig struct {
	ConfigFile string
	Debug      bool
}

// BindFlags registers the command line flags on fs and binds the ones that
// override config keys to v.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) (*CliConfig, error) {
	args := &CliConfig{}
	fs.StringVarP(&args.ConfigFile, "config", "c", "", "Path to the config file")
	fs.BoolVarP(&args.Debug, "debug", "d", false, "Enable debug mode")
	fs.String("listen", "", "Address to listen on (overrides listen_address)")
	fs.String("provider-url", "", "Provider base URL (overrides provider.base_url)")

	bindings := map[string]string{
		"listen_address":    "listen",
		"provider.base_url": "provider-url",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("binding flag --%s to %s: %w", name, key, err)
		}
	}
	return args, nil
}
