package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"falproxy/config"
	"falproxy/handler"
	"falproxy/logging"
	"falproxy/manager"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:          "falproxy",
		Short:        "Relay image-generation requests to fal.ai with a server-held key",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the proxy server",
	}
	args, err := config.BindFlags(serveCmd.Flags(), v)
	if err != nil {
		panic(err)
	}
	serveCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), v, args)
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	return rootCmd
}

func runServe(ctx context.Context, v *viper.Viper, args *config.CliConfig) error {
	cfg, err := config.LoadConfig(v, args.ConfigFile)
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if args.Debug {
		level = logrus.DebugLevel
	}
	log := logging.InitLogger(level, cfg.Log.Format)

	monitor := manager.NewActivityMonitor(cfg.Monitor.Interval)
	defer monitor.Shutdown()

	httpHandler := handler.NewHTTPHandler(cfg, config.EnvCredential(), monitor)

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s, forwarding to %s", cfg.ListenAddress, cfg.Provider.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorf("Server failed to start: %v", err)
			return err
		}
		return nil
	case <-ctx.Done():
		log.Infoln("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
