package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
)

// Config represents the complete configuration for the moderation indexer.
type Config struct {
	// Chain contains the node connection configuration
	Chain ChainConfig `yaml:"chain" json:"chain" toml:"chain"`

	// Contracts lists the protocol contracts to monitor
	Contracts ContractsConfig `yaml:"contracts" json:"contracts" toml:"contracts"`

	// Database contains the projection database configuration
	Database DatabaseConfig `yaml:"database" json:"database" toml:"database"`

	// Maintenance contains optional database maintenance settings
	Maintenance *MaintenanceConfig `yaml:"maintenance,omitempty" json:"maintenance,omitempty" toml:"maintenance,omitempty"`

	// Reconciler contains write retry and queue settings
	Reconciler ReconcilerConfig `yaml:"reconciler" json:"reconciler" toml:"reconciler"`

	// Supervisor contains transport supervision settings
	Supervisor SupervisorConfig `yaml:"supervisor" json:"supervisor" toml:"supervisor"`

	// Notifier contains the optional Redis change notification settings
	Notifier *NotifierConfig `yaml:"notifier,omitempty" json:"notifier,omitempty" toml:"notifier,omitempty"`

	// Rewards contains the optional epoch checkpoint watcher settings
	Rewards *RewardsConfig `yaml:"rewards,omitempty" json:"rewards,omitempty" toml:"rewards,omitempty"`

	// API contains the optional operator API settings
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`
}

// ChainConfig represents the node connection configuration.
type ChainConfig struct {
	// RPCURL is the JSON-RPC endpoint used for range queries and head lookups
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// WSURL is the optional WebSocket endpoint used for push subscriptions.
	// When empty and RPCURL is a ws:// or wss:// URL, RPCURL is used for both.
	// When no socket endpoint is available the indexer polls.
	WSURL string `yaml:"ws_url,omitempty" json:"ws_url,omitempty" toml:"ws_url,omitempty"`

	// ChainID is the expected chain id. Zero disables the startup check.
	ChainID uint64 `yaml:"chain_id" json:"chain_id" toml:"chain_id"`

	// ChunkSize is the block range per eth_getLogs call
	ChunkSize uint64 `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`
}

// ApplyDefaults sets default values for optional chain configuration fields.
func (c *ChainConfig) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 2000
	}
	if c.Retry == nil {
		c.Retry = &RetryConfig{}
	}
	c.Retry.ApplyDefaults()
}

// PushURL returns the endpoint to use for subscriptions, or "" when only polling is possible.
func (c *ChainConfig) PushURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	if isSocketURL(c.RPCURL) {
		return c.RPCURL
	}
	return ""
}

func isSocketURL(url string) bool {
	url = internalcommon.ToLowerWithTrim(url)
	return strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://")
}

// ContractConfig represents one monitored contract.
type ContractConfig struct {
	// Address is the contract address to monitor
	Address string `yaml:"address" json:"address" toml:"address"`

	// StartBlock is the first block to backfill when no cursor exists yet
	StartBlock uint64 `yaml:"start_block" json:"start_block" toml:"start_block"`
}

// IsSet reports whether the contract is configured.
func (c ContractConfig) IsSet() bool {
	return c.Address != ""
}

// ContractsConfig lists the protocol contracts. Only ContentRegistry is required.
type ContractsConfig struct {
	ContentRegistry ContractConfig `yaml:"content_registry" json:"content_registry" toml:"content_registry"`
	ModerationGame  ContractConfig `yaml:"moderation_game" json:"moderation_game" toml:"moderation_game"`
	StakingVault    ContractConfig `yaml:"staking_vault" json:"staking_vault" toml:"staking_vault"`
	StakingRewards  ContractConfig `yaml:"staking_rewards" json:"staking_rewards" toml:"staking_rewards"`
}

// NamedContract pairs a contract configuration with its role name.
type NamedContract struct {
	Name string
	ContractConfig
}

// Contract role names. They match the decoder contract kinds.
const (
	ContractContentRegistry = "content_registry"
	ContractModerationGame  = "moderation_game"
	ContractStakingVault    = "staking_vault"
	ContractStakingRewards  = "staking_rewards"
)

// Configured returns the configured contracts in a stable order.
func (c ContractsConfig) Configured() []NamedContract {
	all := []NamedContract{
		{Name: ContractContentRegistry, ContractConfig: c.ContentRegistry},
		{Name: ContractModerationGame, ContractConfig: c.ModerationGame},
		{Name: ContractStakingVault, ContractConfig: c.StakingVault},
		{Name: ContractStakingRewards, ContractConfig: c.StakingRewards},
	}

	configured := make([]NamedContract, 0, len(all))
	for _, contract := range all {
		if contract.IsSet() {
			configured = append(configured, contract)
		}
	}

	return configured
}

// Stream is a group of contracts whose logs are fetched through one filter so
// that they reach the reconciler in chain order relative to each other.
type Stream struct {
	Name      string
	Contracts []NamedContract
}

// Stream names.
const (
	StreamModeration = "moderation"
	StreamStaking    = "staking"
)

// Streams groups the configured contracts into streams. The moderation game
// refers to content created by the registry, so both share one stream.
func (c ContractsConfig) Streams() []Stream {
	groups := []Stream{
		{Name: StreamModeration, Contracts: []NamedContract{
			{Name: ContractContentRegistry, ContractConfig: c.ContentRegistry},
			{Name: ContractModerationGame, ContractConfig: c.ModerationGame},
		}},
		{Name: StreamStaking, Contracts: []NamedContract{
			{Name: ContractStakingVault, ContractConfig: c.StakingVault},
			{Name: ContractStakingRewards, ContractConfig: c.StakingRewards},
		}},
	}

	streams := make([]Stream, 0, len(groups))
	for _, g := range groups {
		members := make([]NamedContract, 0, len(g.Contracts))
		for _, contract := range g.Contracts {
			if contract.IsSet() {
				members = append(members, contract)
			}
		}
		if len(members) > 0 {
			streams = append(streams, Stream{Name: g.Name, Contracts: members})
		}
	}

	return streams
}

// Validate checks that the required contract is present and every address parses.
func (c ContractsConfig) Validate() error {
	if !c.ContentRegistry.IsSet() {
		return fmt.Errorf("contracts.content_registry.address is required")
	}

	seen := make(map[common.Address]string)
	for _, contract := range c.Configured() {
		if !common.IsHexAddress(contract.Address) {
			return fmt.Errorf("contracts.%s.address: invalid address %q", contract.Name, contract.Address)
		}

		addr := common.HexToAddress(contract.Address)
		if other, ok := seen[addr]; ok {
			return fmt.Errorf("contracts.%s.address: duplicates contracts.%s.address", contract.Name, other)
		}
		seen[addr] = contract.Name
	}

	return nil
}

// RetryConfig represents retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff internalcommon.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff internalcommon.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = internalcommon.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = internalcommon.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// Validate checks if the retry configuration is valid.
func (r *RetryConfig) Validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if r.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be at least 1")
	}
	if r.MaxBackoff.Duration < r.InitialBackoff.Duration {
		return fmt.Errorf("max_backoff must not be lower than initial_backoff")
	}
	return nil
}

// ReconcilerConfig configures the single writer that applies events.
type ReconcilerConfig struct {
	// QueueSize is the capacity of the ordered submission queue
	QueueSize int `yaml:"queue_size" json:"queue_size" toml:"queue_size"`

	// Retry bounds the transactional write retries before a log is dead-lettered
	Retry RetryConfig `yaml:"retry" json:"retry" toml:"retry"`
}

// ApplyDefaults sets default values for optional reconciler configuration fields.
func (r *ReconcilerConfig) ApplyDefaults() {
	if r.QueueSize == 0 {
		r.QueueSize = 64
	}
	if r.Retry.InitialBackoff.Duration == 0 {
		r.Retry.InitialBackoff = internalcommon.NewDuration(200 * time.Millisecond) //nolint:mnd
	}
	if r.Retry.MaxBackoff.Duration == 0 {
		r.Retry.MaxBackoff = internalcommon.NewDuration(10 * time.Second) //nolint:mnd
	}
	r.Retry.ApplyDefaults()
}

// SupervisorConfig configures transport supervision.
type SupervisorConfig struct {
	// PollInterval is the interval between range pulls in poll mode
	PollInterval internalcommon.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// StaleTimeout is how long the push stream may stay silent (no log, no head) before reconnecting
	StaleTimeout internalcommon.Duration `yaml:"stale_timeout" json:"stale_timeout" toml:"stale_timeout"`

	// FlushInterval is how long a partially received block is held before it is applied
	FlushInterval internalcommon.Duration `yaml:"flush_interval" json:"flush_interval" toml:"flush_interval"`

	// ReconnectInitialBackoff is the first reconnect delay
	ReconnectInitialBackoff internalcommon.Duration `yaml:"reconnect_initial_backoff" json:"reconnect_initial_backoff" toml:"reconnect_initial_backoff"` //nolint:lll

	// ReconnectMaxBackoff caps the reconnect delay
	ReconnectMaxBackoff internalcommon.Duration `yaml:"reconnect_max_backoff" json:"reconnect_max_backoff" toml:"reconnect_max_backoff"` //nolint:lll
}

// ApplyDefaults sets default values for optional supervisor configuration fields.
func (s *SupervisorConfig) ApplyDefaults() {
	if s.PollInterval.Duration == 0 {
		s.PollInterval = internalcommon.NewDuration(5 * time.Second) //nolint:mnd
	}
	if s.StaleTimeout.Duration == 0 {
		s.StaleTimeout = internalcommon.NewDuration(time.Minute)
	}
	if s.FlushInterval.Duration == 0 {
		s.FlushInterval = internalcommon.NewDuration(2 * time.Second) //nolint:mnd
	}
	if s.ReconnectInitialBackoff.Duration == 0 {
		s.ReconnectInitialBackoff = internalcommon.NewDuration(time.Second)
	}
	if s.ReconnectMaxBackoff.Duration == 0 {
		s.ReconnectMaxBackoff = internalcommon.NewDuration(time.Minute)
	}
}

// Validate checks if the supervisor configuration is valid.
func (s *SupervisorConfig) Validate() error {
	if s.FlushInterval.Duration >= s.StaleTimeout.Duration {
		return fmt.Errorf("supervisor.flush_interval must be lower than supervisor.stale_timeout")
	}
	if s.ReconnectMaxBackoff.Duration < s.ReconnectInitialBackoff.Duration {
		return fmt.Errorf("supervisor.reconnect_max_backoff must not be lower than supervisor.reconnect_initial_backoff")
	}
	return nil
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	// WAL mode is recommended for better concurrency
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys enables foreign key constraint enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
}

// Validate checks if the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if d.JournalMode != "" &&
		!slices.Contains([]string{"WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY"}, d.JournalMode) {
		return fmt.Errorf("database.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	if d.Synchronous != "" && !slices.Contains([]string{"FULL", "NORMAL", "OFF"}, d.Synchronous) {
		return fmt.Errorf("database.synchronous must be one of: FULL, NORMAL, OFF")
	}

	return nil
}

// MaintenanceConfig configures database maintenance behavior.
type MaintenanceConfig struct {
	// Enabled controls whether background maintenance runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// CheckInterval is how often to run maintenance (e.g., "30m", "1h")
	CheckInterval internalcommon.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`

	// VacuumOnStartup runs maintenance immediately on startup
	VacuumOnStartup bool `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`

	// WALCheckpointMode controls the WAL checkpoint aggressiveness
	// Options: PASSIVE, FULL, RESTART, TRUNCATE
	WALCheckpointMode string `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// ApplyDefaults sets default values for optional maintenance configuration fields.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = internalcommon.NewDuration(30 * time.Minute) //nolint:mnd
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
}

// Validate checks if the maintenance configuration is valid.
func (m *MaintenanceConfig) Validate() error {
	if m.WALCheckpointMode != "" {
		validModes := []string{"PASSIVE", "FULL", "RESTART", "TRUNCATE"}
		if !slices.Contains(validModes, m.WALCheckpointMode) {
			return fmt.Errorf("maintenance.wal_checkpoint_mode: must be one of: PASSIVE, FULL, RESTART, TRUNCATE")
		}
	}

	return nil
}

// NotifierConfig configures publication of applied-event notices to Redis.
type NotifierConfig struct {
	// Enabled controls whether notices are published
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// RedisURL is the Redis connection URL (redis://[user:pass@]host:port/db)
	RedisURL string `yaml:"redis_url" json:"redis_url" toml:"redis_url"`

	// Channel is the pub/sub channel notices are published on
	Channel string `yaml:"channel" json:"channel" toml:"channel"`

	// PublishTimeout bounds a single publish call
	PublishTimeout internalcommon.Duration `yaml:"publish_timeout" json:"publish_timeout" toml:"publish_timeout"`
}

// ApplyDefaults sets default values for optional notifier configuration fields.
func (n *NotifierConfig) ApplyDefaults() {
	if n.RedisURL == "" {
		n.RedisURL = "redis://localhost:6379/0"
	}
	if n.Channel == "" {
		n.Channel = "moderation-indexer:events"
	}
	if n.PublishTimeout.Duration == 0 {
		n.PublishTimeout = internalcommon.NewDuration(2 * time.Second) //nolint:mnd
	}
}

// Validate checks if the notifier configuration is valid.
func (n *NotifierConfig) Validate() error {
	if n.Enabled && n.Channel == "" {
		return fmt.Errorf("notifier.channel is required when the notifier is enabled")
	}
	return nil
}

// RewardsConfig configures the epoch checkpoint watcher.
type RewardsConfig struct {
	// Enabled controls whether the watcher runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// Schedule is a cron spec with seconds for the check ("@every 1h", "0 0 * * * *")
	Schedule string `yaml:"schedule" json:"schedule" toml:"schedule"`

	// BlocksPerEpoch is the epoch length in blocks
	BlocksPerEpoch uint64 `yaml:"blocks_per_epoch" json:"blocks_per_epoch" toml:"blocks_per_epoch"`

	// MinStake is the minimum stake (decimal wei) for a staker to be counted in a snapshot
	MinStake string `yaml:"min_stake" json:"min_stake" toml:"min_stake"`
}

// ApplyDefaults sets default values for optional rewards configuration fields.
func (r *RewardsConfig) ApplyDefaults() {
	if r.Schedule == "" {
		r.Schedule = "@every 1h"
	}
	if r.BlocksPerEpoch == 0 {
		r.BlocksPerEpoch = 50400 // one week of 12s blocks
	}
	if r.MinStake == "" {
		r.MinStake = "0"
	}
}

// Validate checks if the rewards configuration is valid.
func (r *RewardsConfig) Validate() error {
	if _, err := internalcommon.ParseAmount(r.MinStake); err != nil {
		return fmt.Errorf("rewards.min_stake: %w", err)
	}
	return nil
}

// APIConfig configures the operator API.
type APIConfig struct {
	// Enabled controls whether the API server is started
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout internalcommon.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response
	WriteTimeout internalcommon.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout
	IdleTimeout internalcommon.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// MaxPageSize caps the limit query parameter
	MaxPageSize int `yaml:"max_page_size" json:"max_page_size" toml:"max_page_size"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = internalcommon.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = internalcommon.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = internalcommon.NewDuration(time.Minute)
	}
	if a.MaxPageSize == 0 {
		a.MaxPageSize = 500
	}
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - supervisor: Transport supervision, backfill and live forwarding
	//   - log-source: Range queries and subscriptions
	//   - decoder: Event decoding
	//   - reconciler: Event application
	//   - store: Projection storage
	//   - maintenance: Database maintenance
	//   - notifier: Redis notifications
	//   - rewards: Epoch checkpoint watcher
	//   - api: Operator API
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[internalcommon.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := internalcommon.AllComponents[internalcommon.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[internalcommon.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return internalcommon.ToLowerWithTrim(level)
	}
	return internalcommon.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return internalcommon.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Chain.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Reconciler.ApplyDefaults()
	c.Supervisor.ApplyDefaults()

	if c.Maintenance != nil {
		c.Maintenance.ApplyDefaults()
	}
	if c.Notifier != nil {
		c.Notifier.ApplyDefaults()
	}
	if c.Rewards != nil {
		c.Rewards.ApplyDefaults()
	}
	if c.API != nil {
		c.API.ApplyDefaults()
	}
	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}
	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
// Any error here aborts startup before events are processed.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}

	if c.Chain.WSURL != "" && !isSocketURL(c.Chain.WSURL) {
		return fmt.Errorf("chain.ws_url must be a ws:// or wss:// URL")
	}

	if c.Chain.Retry != nil {
		if err := c.Chain.Retry.Validate(); err != nil {
			return fmt.Errorf("chain.retry: %w", err)
		}
	}

	if err := c.Contracts.Validate(); err != nil {
		return err
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.Reconciler.QueueSize < 1 {
		return fmt.Errorf("reconciler.queue_size must be at least 1")
	}

	if err := c.Reconciler.Retry.Validate(); err != nil {
		return fmt.Errorf("reconciler.retry: %w", err)
	}

	if err := c.Supervisor.Validate(); err != nil {
		return err
	}

	if c.Maintenance != nil {
		if err := c.Maintenance.Validate(); err != nil {
			return err
		}
	}

	if c.Notifier != nil {
		if err := c.Notifier.Validate(); err != nil {
			return err
		}
	}

	if c.Rewards != nil {
		if err := c.Rewards.Validate(); err != nil {
			return err
		}
		if c.Rewards.Enabled && !c.Contracts.StakingVault.IsSet() {
			return fmt.Errorf("rewards: contracts.staking_vault.address is required when rewards are enabled")
		}
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}
