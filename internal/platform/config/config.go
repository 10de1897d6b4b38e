// Package config loads process configuration from the environment. An optional .env file
// in the working directory is read first; real environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"pulseaid/pkg/domain"
	strs "pulseaid/pkg/platform/strings"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	Server      Server
	Protocol    Protocol
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	Log         LogConfig
	Attestation AttestationConfig
	Reputation  ReputationConfig
	RateLimit   RateLimitConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Backend         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	IdempotencyTTL  time.Duration
}

// Protocol holds the economic and timing parameters of the ledger.
type Protocol struct {
	MinStake            domain.Amount
	VerificationDelay   time.Duration
	CampaignCollateral  domain.Amount
	MaxCampaignDuration time.Duration
	ChallengePeriod     time.Duration
	DisputePeriod       time.Duration
	ChallengeThreshold  domain.Weight
	StorageFee          domain.Amount
	DisputeRewardPool   domain.Amount
	Treasury            common.Address
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
	RelayBatch    int
}

// Enabled reports whether ledger events should be relayed to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	SessionTTL    time.Duration
	AdminToken    string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttestationConfig selects the identity attestor.
type AttestationConfig struct {
	// TrustedAttestors are the addresses whose signed claims are accepted.
	// When empty, the static attestor accepts every claim (development only).
	TrustedAttestors []common.Address
}

// ReputationConfig selects the voting weight source. Weights are read from the Redis hash
// named by HashKey when Redis is configured; Weights seeds the static oracle otherwise.
type ReputationConfig struct {
	HashKey       string
	DefaultWeight domain.Weight
	Weights       map[common.Address]domain.Weight
}

// RateLimitConfig bounds authenticated writes per wallet. Zero WritesPerWindow disables it.
type RateLimitConfig struct {
	WritesPerWindow int
	Window          time.Duration
}

// DefaultProtocol returns the protocol parameters used when nothing is configured.
func DefaultProtocol() Protocol {
	return Protocol{
		MinStake:            domain.MustEther("0.05"),
		VerificationDelay:   time.Hour,
		CampaignCollateral:  domain.MustEther("0.01"),
		MaxCampaignDuration: 365 * 24 * time.Hour,
		ChallengePeriod:     48 * time.Hour,
		DisputePeriod:       72 * time.Hour,
		ChallengeThreshold:  100,
		StorageFee:          domain.MustEther("0.001"),
		DisputeRewardPool:   domain.MustEther("0.01"),
		Treasury:            common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
	}
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	p := envParser{errs: &errs}

	protocol := DefaultProtocol()
	protocol.MinStake = p.amount("PULSEAID_MIN_STAKE", protocol.MinStake)
	protocol.VerificationDelay = p.duration("PULSEAID_VERIFICATION_DELAY", protocol.VerificationDelay)
	protocol.CampaignCollateral = p.amount("PULSEAID_CAMPAIGN_COLLATERAL", protocol.CampaignCollateral)
	protocol.MaxCampaignDuration = p.duration("PULSEAID_MAX_CAMPAIGN_DURATION", protocol.MaxCampaignDuration)
	protocol.ChallengePeriod = p.duration("PULSEAID_CHALLENGE_PERIOD", protocol.ChallengePeriod)
	protocol.DisputePeriod = p.duration("PULSEAID_DISPUTE_PERIOD", protocol.DisputePeriod)
	protocol.ChallengeThreshold = domain.Weight(p.int("PULSEAID_CHALLENGE_THRESHOLD", int(protocol.ChallengeThreshold)))
	protocol.StorageFee = p.amount("PULSEAID_STORAGE_FEE", protocol.StorageFee)
	protocol.DisputeRewardPool = p.amount("PULSEAID_DISPUTE_REWARD_POOL", protocol.DisputeRewardPool)
	protocol.Treasury = p.address("PULSEAID_TREASURY", protocol.Treasury)

	cfg := Config{
		Server: Server{
			Addr:            p.str("PULSEAID_ADDR", ":8080"),
			Backend:         p.str("PULSEAID_STORAGE_BACKEND", BackendMemory),
			RequestTimeout:  p.duration("PULSEAID_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: p.duration("PULSEAID_SHUTDOWN_TIMEOUT", 10*time.Second),
			IdempotencyTTL:  p.duration("PULSEAID_IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Protocol: protocol,
		Database: DatabaseConfig{
			URL:          p.str("DATABASE_URL", ""),
			MaxOpenConns: p.int("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns: p.int("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       p.list("KAFKA_BROKERS"),
			Topic:         p.str("KAFKA_LEDGER_TOPIC", "pulseaid.ledger"),
			RelayInterval: p.duration("KAFKA_RELAY_INTERVAL", time.Second),
			RelayBatch:    p.int("KAFKA_RELAY_BATCH", 100),
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey: p.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     p.str("JWT_ISSUER", "pulseaid"),
			SessionTTL:    p.duration("JWT_SESSION_TTL", 12*time.Hour),
			AdminToken:    p.str("PULSEAID_ADMIN_TOKEN", ""),
		},
		Log: LogConfig{
			Level:  p.str("LOG_LEVEL", "info"),
			Format: p.str("LOG_FORMAT", "json"),
		},
		Reputation: ReputationConfig{
			HashKey:       p.str("PULSEAID_REPUTATION_KEY", "pulseaid:reputation"),
			DefaultWeight: domain.Weight(p.int("PULSEAID_DEFAULT_WEIGHT", 0)),
			Weights:       p.weights("PULSEAID_REPUTATION_WEIGHTS"),
		},
		RateLimit: RateLimitConfig{
			WritesPerWindow: p.int("PULSEAID_RATE_LIMIT_WRITES", 60),
			Window:          p.duration("PULSEAID_RATE_LIMIT_WINDOW", time.Minute),
		},
	}
	for _, raw := range strs.DedupeFold(p.list("PULSEAID_TRUSTED_ATTESTORS")) {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("PULSEAID_TRUSTED_ATTESTORS: %w", err))
			continue
		}
		cfg.Attestation.TrustedAttestors = append(cfg.Attestation.TrustedAttestors, addr)
	}

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Server.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return errors.New("PULSEAID_STORAGE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("PULSEAID_STORAGE_BACKEND: unknown storage backend %q", c.Server.Backend)
	}
	if c.Protocol.MaxCampaignDuration <= 0 {
		return errors.New("PULSEAID_MAX_CAMPAIGN_DURATION must be positive")
	}
	if c.Protocol.ChallengeThreshold == 0 {
		return errors.New("PULSEAID_CHALLENGE_THRESHOLD must be positive")
	}
	return nil
}

type envParser struct {
	errs *[]error
}

func (p envParser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p envParser) list(key string) []string {
	return strs.SplitList(p.str(key, ""))
}

func (p envParser) int(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		*p.errs = append(*p.errs, fmt.Errorf("%s: expected a non-negative integer, got %q", key, raw))
		return def
	}
	return v
}

func (p envParser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		*p.errs = append(*p.errs, fmt.Errorf("%s: expected a duration, got %q", key, raw))
		return def
	}
	return v
}

// amount accepts ether with a unit suffix ("0.05eth") or a plain wei integer.
func (p envParser) amount(key string, def domain.Amount) domain.Amount {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	var (
		v   domain.Amount
		err error
	)
	if eth, ok := strings.CutSuffix(strings.ToLower(raw), "eth"); ok {
		v, err = domain.ParseEther(strings.TrimSpace(eth))
	} else {
		v, err = domain.ParseAmount(raw)
	}
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

// weights parses "0xabc=120,0xdef=40" pairs.
func (p envParser) weights(key string) map[common.Address]domain.Weight {
	pairs := p.list(key)
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[common.Address]domain.Weight, len(pairs))
	for _, pair := range pairs {
		raw, w, ok := strings.Cut(pair, "=")
		if !ok {
			*p.errs = append(*p.errs, fmt.Errorf("%s: expected address=weight, got %q", key, pair))
			continue
		}
		addr, err := domain.ParseAddress(strings.TrimSpace(raw))
		if err != nil {
			*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(w), 10, 64)
		if err != nil {
			*p.errs = append(*p.errs, fmt.Errorf("%s: invalid weight %q", key, w))
			continue
		}
		out[addr] = domain.Weight(v)
	}
	return out
}

func (p envParser) address(key string, def common.Address) common.Address {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return addr
}
