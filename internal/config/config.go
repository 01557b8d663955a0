package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Handshake holds the companion handshake tuning parameters.
type Handshake struct {
	// ProbeTimeout bounds the companion connectivity probe.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	// GracePeriod is how long local audio is deferred after notifying a worn
	// companion before falling back to ringing on the device.
	GracePeriod time.Duration `yaml:"grace_period"`
	// PostAckFallback is the shorter escalation delay armed when the
	// companion acknowledges after the grace period already fired.
	// Must be shorter than GracePeriod.
	PostAckFallback time.Duration `yaml:"post_ack_fallback"`
}

// Config holds connection and tuning parameters shared by the wake-engine binaries.
type Config struct {
	// EngineAddress is the gRPC address of the engine control API.
	EngineAddress string `yaml:"engine_addr"`
	// CompanionAddress is the gRPC address of the wrist companion agent.
	CompanionAddress string `yaml:"companion_addr"`
	// RedisAddress is the Redis instance backing the recent-fire cache and
	// the dismissal broadcast channel.
	RedisAddress string `yaml:"redis_addr"`
	// DatabasePath is the SQLite file holding alarms and wake history.
	DatabasePath string `yaml:"database_path"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// FireCacheTTL is how long a fired definition stays in the recent-fire cache.
	FireCacheTTL time.Duration `yaml:"fire_cache_ttl"`
	// Handshake tunes the companion handshake timers.
	Handshake Handshake `yaml:"handshake"`
}

const (
	// DefaultConfigFilename is the default filename for shared settings.
	DefaultConfigFilename = "alarm-clock-settings.yaml"

	// DefaultDatabaseFilename is the default filename for the SQLite store.
	DefaultDatabaseFilename = "alarm-clock.db"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFireCacheTTL is the default recent-fire cache lifetime.
	DefaultFireCacheTTL = 90 * time.Second

	// DefaultProbeTimeout bounds the companion connectivity probe by default.
	DefaultProbeTimeout = 2 * time.Second

	// DefaultGracePeriod is the default wrist-alert grace period.
	DefaultGracePeriod = 30 * time.Second

	// DefaultPostAckFallback is the default post-acknowledgement escalation delay.
	DefaultPostAckFallback = 10 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEngineSocketRequired is returned when the engine address is missing.
	errEngineSocketRequired = errors.New("engine address must be provided")
	// errFallbackNotShorter is returned when the post-ack fallback is not
	// shorter than the grace period.
	errFallbackNotShorter = errors.New("post-ack fallback must be shorter than grace period")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, verifies address formats and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.EngineAddress == "" {
		return errEngineSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.EngineAddress); err != nil {
		return fmt.Errorf("invalid engine socket: %w", err)
	}

	if cfg.CompanionAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.CompanionAddress); err != nil {
			return fmt.Errorf("invalid companion socket: %w", err)
		}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.FireCacheTTL <= 0 {
		cfg.FireCacheTTL = DefaultFireCacheTTL
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDatabaseFilename
	}

	if cfg.Handshake.ProbeTimeout <= 0 {
		cfg.Handshake.ProbeTimeout = DefaultProbeTimeout
	}

	if cfg.Handshake.GracePeriod <= 0 {
		cfg.Handshake.GracePeriod = DefaultGracePeriod
	}

	if cfg.Handshake.PostAckFallback <= 0 {
		cfg.Handshake.PostAckFallback = DefaultPostAckFallback
	}

	if cfg.Handshake.PostAckFallback >= cfg.Handshake.GracePeriod {
		return errFallbackNotShorter
	}

	return nil
}
