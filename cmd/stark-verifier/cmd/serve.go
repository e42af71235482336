package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/metrics"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/server"
	starkverifier "github.com/vybium/vybium-stark-verifier/pkg/stark-verifier"
)

const (
	flagAddr    = "addr"
	flagMetrics = "metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the verifier over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String(flagAddr, ":8080", "listen address")
	serveCmd.Flags().Bool(flagMetrics, true, "expose prometheus metrics at /metrics")
	_ = viper.BindPFlag(flagAddr, serveCmd.Flags().Lookup(flagAddr))
	_ = viper.BindPFlag(flagMetrics, serveCmd.Flags().Lookup(flagMetrics))
}

func runServe(_ *cobra.Command, _ []string) error {
	var (
		opts       []starkverifier.Option
		serverOpts []server.Option
	)
	if viper.GetBool(flagMetrics) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, starkverifier.WithMetrics(metrics.NewPrometheusCollector(reg)))
		serverOpts = append(serverOpts, server.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	config, log, v, err := setup(opts...)
	if err != nil {
		return err
	}

	srv := server.NewServer(config.ListenAddr, server.New(v, log, serverOpts...))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", config.ListenAddr).Bool("vk_verification", config.VKVerification).Msg("verifier listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
