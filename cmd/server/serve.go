package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pulseaid/internal/platform/httpserver"
	"pulseaid/internal/platform/kafka"
	"pulseaid/pkg/platform/events"
)

const (
	ledgerTopicPartitions  = 6
	ledgerTopicReplication = 1
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the ledger event relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := httpserver.New(cfg.Server, a.handler)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "pulseaid listening", "addr", cfg.Server.Addr, "backend", cfg.Server.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := kafka.EnsureTopic(ctx, producer.Client(), cfg.Kafka.Topic, ledgerTopicPartitions, ledgerTopicReplication); err != nil {
			return err
		}

		relay := events.NewRelay(a.outbox, producer,
			events.WithInterval(cfg.Kafka.RelayInterval),
			events.WithBatchSize(cfg.Kafka.RelayBatch),
			events.WithRelayLogger(logger),
			events.WithRelayMetrics(a.eventMetrics),
		)
		g.Go(func() error {
			logger.InfoContext(gctx, "ledger relay started", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.InfoContext(ctx, "kafka not configured; ledger events stay in the outbox")
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
