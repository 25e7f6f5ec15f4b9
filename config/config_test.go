package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestLoadConfig(t *testing.T) {
	Convey("LoadConfig", t, func() {
		Convey("without a file uses the defaults", func() {
			cfg, err := LoadConfig(viper.New(), "")
			So(err, ShouldBeNil)
			So(cfg.ListenAddress, ShouldEqual, "127.0.0.1:8080")
			So(cfg.Provider.BaseURL, ShouldEqual, "https://fal.run")
			So(cfg.Provider.Timeout, ShouldEqual, time.Duration(0))
			So(cfg.Defaults.Model, ShouldEqual, "fal-ai/flux/schnell")
			So(cfg.Defaults.ImageSize, ShouldEqual, "square_hd")
			So(cfg.Defaults.NumInferenceSteps, ShouldEqual, 4)
			So(cfg.CORS.AllowOrigin, ShouldEqual, "*")
			So(cfg.Log.Level, ShouldEqual, "info")
		})

		Convey("a config file is read", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			content := "listen_address: 0.0.0.0:9000\ndefaults:\n  model: fal-ai/flux/dev\n  image_size: landscape_4_3\n"
			So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

			cfg, err := LoadConfig(viper.New(), path)
			So(err, ShouldBeNil)
			So(cfg.ListenAddress, ShouldEqual, "0.0.0.0:9000")
			So(cfg.Defaults.Model, ShouldEqual, "fal-ai/flux/dev")
			So(cfg.Defaults.ImageSize, ShouldEqual, "landscape_4_3")
			So(cfg.Defaults.NumInferenceSteps, ShouldEqual, 4)
		})

		Convey("a missing config file is an error", func() {
			_, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "error reading config file")
		})

		Convey("flags override the defaults", func() {
			v := viper.New()
			fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			args, err := BindFlags(fs, v)
			So(err, ShouldBeNil)
			So(fs.Parse([]string{"--listen", ":7000", "-d", "--config", ""}), ShouldBeNil)

			cfg, err := LoadConfig(v, args.ConfigFile)
			So(err, ShouldBeNil)
			So(args.Debug, ShouldBeTrue)
			So(cfg.ListenAddress, ShouldEqual, ":7000")
			So(cfg.Provider.BaseURL, ShouldEqual, "https://fal.run")
		})
	})
}

func TestLoadConfig_Env(t *testing.T) {
	Convey("environment variables override the defaults", t, func() {
		t.Setenv("FALPROXY_PROVIDER_BASE_URL", "http://localhost:9999")
		t.Setenv("FALPROXY_DEFAULTS_NUM_INFERENCE_STEPS", "8")
		t.Setenv("FALPROXY_PROVIDER_TIMEOUT", "45s")

		cfg, err := LoadConfig(viper.New(), "")
		So(err, ShouldBeNil)
		So(cfg.Provider.BaseURL, ShouldEqual, "http://localhost:9999")
		So(cfg.Provider.Timeout, ShouldEqual, 45*time.Second)
		So(cfg.Defaults.NumInferenceSteps, ShouldEqual, 8)
	})
}

func TestConfig_Validate(t *testing.T) {
	Convey("Validate", t, func() {
		valid := func() *Config {
			return &Config{
				ListenAddress: ":8080",
				Provider:      ProviderConfig{BaseURL: "https://fal.run"},
				Defaults:      DefaultsConfig{Model: "fal-ai/flux/schnell", ImageSize: "square_hd", NumInferenceSteps: 4},
			}
		}

		Convey("accepts a complete config", func() {
			So(valid().Validate(), ShouldBeNil)
		})

		Convey("rejects a relative provider URL", func() {
			cfg := valid()
			cfg.Provider.BaseURL = "fal.run"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("rejects a non-http provider URL", func() {
			cfg := valid()
			cfg.Provider.BaseURL = "ftp://fal.run"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("rejects an empty listen address", func() {
			cfg := valid()
			cfg.ListenAddress = ""
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("rejects non-positive default steps", func() {
			cfg := valid()
			cfg.Defaults.NumInferenceSteps = 0
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("rejects a blank default model", func() {
			cfg := valid()
			cfg.Defaults.Model = " "
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}

func TestCredential(t *testing.T) {
	Convey("EnvCredential reads FAL_KEY on every call", t, func() {
		source := EnvCredential()

		t.Setenv("FAL_KEY", "")
		key, err := source()
		So(err, ShouldBeNil)
		So(key, ShouldEqual, "")

		t.Setenv("FAL_KEY", "first")
		key, err = source()
		So(err, ShouldBeNil)
		So(key, ShouldEqual, "first")

		t.Setenv("FAL_KEY", "rotated")
		key, _ = source()
		So(key, ShouldEqual, "rotated")
	})

	Convey("StaticCredential returns its key", t, func() {
		key, err := StaticCredential("abc")()
		So(err, ShouldBeNil)
		So(key, ShouldEqual, "abc")
	})
}
