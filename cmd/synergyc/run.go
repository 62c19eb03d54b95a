// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package main

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

	"github.com/tenthirtyam/go-synergy"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	server       string
	name         string
	width        int
	height       int
	socks5       string
	logLevel     string
	logFormat    string
	metricsAddr  string
	dialTimeout  time.Duration
	pollTimeout  time.Duration
	pollInterval time.Duration
	idleTimeout  time.Duration
}

// defaultIdleTimeout allows a few missed server keepalives before the
// session is considered dead.
const defaultIdleTimeout = 3*synergy.ServerKeepAlivePeriod + time.Second

func runCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to a Synergy server",
		Long: `Connect to a Synergy server and stay connected until interrupted.

The server address and screen name may also be set with SYNERGY_SERVER and
SYNERGY_NAME. Flags given on the command line take precedence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyEnv(cmd)
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", "", "Server address as host[:port]")
	flags.StringVar(&opts.name, "name", synergy.DefaultClientName, "Screen name announced to the server")
	flags.IntVar(&opts.width, "width", synergy.DefaultWidth, "Screen width in pixels")
	flags.IntVar(&opts.height, "height", synergy.DefaultHeight, "Screen height in pixels")
	flags.StringVar(&opts.socks5, "socks5", "", "Dial the server through this SOCKS5 proxy")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json, zap)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.DurationVar(&opts.dialTimeout, "dial-timeout", synergy.DefaultDialTimeout, "Timeout for each connection attempt")
	flags.DurationVar(&opts.pollTimeout, "poll-timeout", synergy.DefaultPollTimeout, "Read deadline of a single receive")
	flags.DurationVar(&opts.pollInterval, "poll-interval", synergy.DefaultPollInterval, "Pause after a receive that returned no data")
	flags.DurationVar(&opts.idleTimeout, "idle-timeout", defaultIdleTimeout, "Reconnect after this long without server traffic")

	return cmd
}

// applyEnv fills server and name from the environment unless the flags were set.
func (o *runOptions) applyEnv(cmd *cobra.Command) {
	if v := os.Getenv("SYNERGY_SERVER"); v != "" && !cmd.Flags().Changed("server") {
		o.server = v
	}
	if v := os.Getenv("SYNERGY_NAME"); v != "" && !cmd.Flags().Changed("name") {
		o.name = v
	}
}

func run(parent context.Context, opts *runOptions) error {
	if opts.server == "" {
		return errors.New("no server address: use --server or SYNERGY_SERVER")
	}
	if parent == nil {
		parent = context.Background()
	}

	logger, flush, err := newLogger(opts.logFormat, opts.logLevel, os.Stderr)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transportOpts := []synergy.NetTransportOption{
		synergy.WithDialTimeout(opts.dialTimeout),
		synergy.WithPollTimeout(opts.pollTimeout),
		synergy.WithTransportLogger(logger),
	}
	if opts.socks5 != "" {
		transportOpts = append(transportOpts, synergy.WithSOCKS5(opts.socks5))
	}
	transport := synergy.NewNetTransport(opts.server, transportOpts...)

	clientOpts := []synergy.Option{
		synergy.WithClientName(opts.name),
		synergy.WithScreenSize(opts.width, opts.height),
		synergy.WithIdleTimeout(opts.idleTimeout),
		synergy.WithPollInterval(opts.pollInterval),
		synergy.WithLogger(logger),
		synergy.WithDeviceSink(&logSink{logger: logger.With(synergy.Field{Key: "component", Value: "sink"})}),
	}

	var metricsServer *http.Server
	if opts.metricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		clientOpts = append(clientOpts,
			synergy.WithMetrics(synergy.NewPrometheusMetrics(synergy.WithPrometheusRegistry(registry))))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Serving metrics", synergy.Field{Key: "addr", Value: opts.metricsAddr})
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", synergy.Field{Key: "error", Value: err})
			}
		}()
	}

	client, err := synergy.New(transport, clientOpts...)
	if err != nil {
		_ = transport.Close()
		return err
	}

	logger.Info("Starting client",
		synergy.Field{Key: "server", Value: transport.Addr()},
		synergy.Field{Key: "name", Value: opts.name})

	runner := synergy.NewRunner(client)
	runner.Start()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case <-runner.Dead():
	}

	err = runner.Stop()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	return err
}
