package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"pulseaid/internal/attestor"
	campaignhandler "pulseaid/internal/campaign/handler"
	campaignmetrics "pulseaid/internal/campaign/metrics"
	campaignservice "pulseaid/internal/campaign/service"
	campaignstore "pulseaid/internal/campaign/store"
	escrowhandler "pulseaid/internal/escrow/handler"
	escrowmetrics "pulseaid/internal/escrow/metrics"
	escrowservice "pulseaid/internal/escrow/service"
	escrowstore "pulseaid/internal/escrow/store"
	"pulseaid/internal/fees"
	institutionhandler "pulseaid/internal/institution/handler"
	institutionmetrics "pulseaid/internal/institution/metrics"
	institutionservice "pulseaid/internal/institution/service"
	institutionstore "pulseaid/internal/institution/store"
	"pulseaid/internal/ledger"
	"pulseaid/internal/platform/config"
	"pulseaid/internal/platform/metrics"
	"pulseaid/internal/platform/postgres"
	"pulseaid/internal/platform/redis"
	"pulseaid/internal/platform/walletauth"
	proofhandler "pulseaid/internal/proof/handler"
	proofmetrics "pulseaid/internal/proof/metrics"
	proofservice "pulseaid/internal/proof/service"
	proofstore "pulseaid/internal/proof/store"
	"pulseaid/internal/ratelimit"
	"pulseaid/internal/reputation"
	httptransport "pulseaid/internal/transport/http"
	"pulseaid/pkg/platform/circuit"
	"pulseaid/pkg/platform/events"
	eventstore "pulseaid/pkg/platform/events/store/memory"
	pgoutbox "pulseaid/pkg/platform/events/store/postgres"
	"pulseaid/pkg/platform/middleware/idempotency"
	"pulseaid/pkg/platform/tx"
)

// stores is one storage backend's set of module stores.
type stores struct {
	institutions institutionservice.Store
	campaigns    campaignStore
	escrow       escrowservice.Store
	proofs       proofStore
	outbox       events.Outbox
	runner       tx.Runner
}

// campaignStore is what both the campaign service and the institution directory need.
type campaignStore interface {
	campaignservice.Store
	institutionservice.CampaignDirectory
}

type proofStore interface {
	proofservice.Store
	campaignservice.ProofReader
}

// reputationOracle is read by the proof validator and written by governance.
type reputationOracle interface {
	proofservice.ReputationOracle
	reputation.Registry
}

// app holds the wired process. Close releases connections in reverse order of opening.
type app struct {
	handler      http.Handler
	outbox       events.Outbox
	eventMetrics *events.Metrics
	closers      []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	healthChecks := map[string]httptransport.HealthCheck{}

	var st stores
	switch cfg.Server.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		healthChecks["postgres"] = db.PingContext
		st = postgresStores(db, cfg)
		logger.InfoContext(ctx, "using postgres storage")
	default:
		st = memoryStores()
		logger.InfoContext(ctx, "using in-memory storage")
	}
	a.outbox = st.outbox

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		nonces    walletauth.NonceStore
		idemStore idempotency.Store
		limits    ratelimit.Store
		oracle    reputationOracle
	)
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
		healthChecks["redis"] = rdb.Health
		nonces = walletauth.NewRedisNonceStore(rdb.Client)
		idemStore = idempotency.NewRedisStore(rdb.Client)
		if limits, err = ratelimit.NewRedisStore(rdb.Client); err != nil {
			a.Close()
			return nil, err
		}
		primary, err := reputation.NewRedis(rdb.Client, cfg.Reputation.HashKey, cfg.Reputation.DefaultWeight)
		if err != nil {
			a.Close()
			return nil, err
		}
		// Configured weights stand in while Redis is unreachable.
		oracle = reputation.NewFallback(primary,
			reputation.NewStatic(cfg.Reputation.Weights, cfg.Reputation.DefaultWeight),
			circuit.New("reputation-redis"),
			logger,
		)
		logger.InfoContext(ctx, "using redis for sessions, idempotency, rate limits and reputation")
	} else {
		nonces = walletauth.NewInMemoryNonceStore()
		idemStore = idempotency.NewInMemoryStore()
		limits = ratelimit.NewInMemoryStore()
		oracle = reputation.NewStatic(cfg.Reputation.Weights, cfg.Reputation.DefaultWeight)
	}

	verifier, err := newAttestor(cfg.Attestation, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.eventMetrics = events.NewMetrics()
	publisher := events.NewPublisher(st.outbox,
		events.WithLogger(logger),
		events.WithMetrics(a.eventMetrics),
	)

	proto := cfg.Protocol
	sink, err := fees.NewSink(publisher, proto.Treasury,
		fees.WithLogger(logger),
		fees.WithMetrics(fees.NewMetrics()),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	institutions, err := institutionservice.New(st.institutions, verifier, st.runner, publisher,
		institutionservice.Config{
			MinStake:          proto.MinStake,
			VerificationDelay: proto.VerificationDelay,
			Treasury:          proto.Treasury,
		},
		institutionservice.WithLogger(logger),
		institutionservice.WithMetrics(institutionmetrics.New()),
		institutionservice.WithCampaignDirectory(st.campaigns),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("institution service: %w", err)
	}

	vault, err := escrowservice.New(st.escrow, st.runner, publisher,
		escrowservice.Config{Treasury: proto.Treasury},
		escrowservice.WithLogger(logger),
		escrowservice.WithMetrics(escrowmetrics.New()),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("escrow service: %w", err)
	}

	campaigns, err := campaignservice.New(st.campaigns, institutions, vault, st.runner, publisher,
		campaignservice.Config{
			Collateral:  proto.CampaignCollateral,
			MaxDuration: proto.MaxCampaignDuration,
		},
		campaignservice.WithLogger(logger),
		campaignservice.WithMetrics(campaignmetrics.New()),
		campaignservice.WithProofReader(st.proofs),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("campaign service: %w", err)
	}

	proofs, err := proofservice.New(st.proofs, campaigns, vault, oracle, sink, st.runner, publisher,
		proofservice.Config{
			ChallengePeriod:    proto.ChallengePeriod,
			DisputePeriod:      proto.DisputePeriod,
			ChallengeThreshold: proto.ChallengeThreshold,
			StorageFee:         proto.StorageFee,
			RewardPool:         proto.DisputeRewardPool,
		},
		proofservice.WithLogger(logger),
		proofservice.WithMetrics(proofmetrics.New()),
		proofservice.WithReputationTracker(institutions),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("proof service: %w", err)
	}

	stats, err := ledger.New(institutions, campaigns)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ledger stats: %w", err)
	}

	sessions := walletauth.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTL, nonces)

	a.handler = httptransport.NewRouter(httptransport.Config{
		AdminToken:     cfg.Auth.AdminToken,
		RequestTimeout: cfg.Server.RequestTimeout,
		Tokens:         sessions,
		Idempotency:    idemStore,
		IdempotencyTTL: cfg.Server.IdempotencyTTL,
		Metrics:        metrics.New(),
		HealthChecks:   healthChecks,
		RateLimit: ratelimit.NewMiddleware(limits, ratelimit.Limit{
			Requests: cfg.RateLimit.WritesPerWindow,
			Window:   cfg.RateLimit.Window,
		}, logger, ratelimit.WithMetrics(ratelimit.NewMetrics())),
	}, logger,
		walletauth.NewHandler(sessions, logger),
		institutionhandler.New(institutions, logger),
		campaignhandler.New(campaigns, logger),
		escrowhandler.New(vault, logger),
		proofhandler.New(proofs, logger),
		reputation.NewHandler(oracle, logger),
		ledger.NewHandler(stats, logger),
	)
	return a, nil
}

func memoryStores() stores {
	return stores{
		institutions: institutionstore.NewInMemoryStore(),
		campaigns:    campaignstore.NewInMemoryStore(),
		escrow:       escrowstore.NewInMemoryStore(),
		proofs:       proofstore.NewInMemoryStore(),
		outbox:       eventstore.NewInMemoryStore(),
		runner:       tx.NewShardedRunner(),
	}
}

func postgresStores(db *sql.DB, cfg config.Config) stores {
	return stores{
		institutions: institutionstore.NewPostgres(db),
		campaigns:    campaignstore.NewPostgres(db),
		escrow:       escrowstore.NewPostgres(db),
		proofs:       proofstore.NewPostgres(db),
		outbox:       pgoutbox.New(db),
		runner:       tx.NewSQLRunner(db, cfg.Server.RequestTimeout),
	}
}

// newAttestor trusts signed claims from the configured attestors, or every claim when
// none are configured.
func newAttestor(cfg config.AttestationConfig, logger *slog.Logger) (institutionservice.IdentityAttestor, error) {
	if len(cfg.TrustedAttestors) == 0 {
		logger.Warn("no trusted attestors configured; accepting unsigned identity claims")
		return attestor.NewStatic(), nil
	}
	return attestor.NewSigned(cfg.TrustedAttestors, attestor.WithLogger(logger))
}
