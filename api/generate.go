// Package api holds the serverless function entry points.
package api

import (
	"net/http"
	"sync"

	"github.com/spf13/viper"

	"falproxy/config"
	"falproxy/handler"
	"falproxy/logging"
)

var (
	proxy     http.Handler
	setupOnce sync.Once
)

// newProxy builds the proxy from environment-only configuration. A bad
// configuration yields a handler that reports it on every request.
func newProxy() http.Handler {
	cfg, err := config.LoadConfig(viper.New(), "")
	if err != nil {
		logging.GetLogger().WithError(err).Errorln("invalid proxy configuration")
		return handler.ConfigErrorHandler(err)
	}
	logging.InitLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	return handler.NewHTTPHandler(cfg, config.EnvCredential(), nil)
}

// Handler is the serverless function entry point for image generation.
func Handler(w http.ResponseWriter, r *http.Request) {
	setupOnce.Do(func() {
		proxy = newProxy()
	})
	proxy.ServeHTTP(w, r)
}
