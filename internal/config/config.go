// Package config loads the service configuration from YAML with
// environment-variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Prediction PredictionConfig `yaml:"prediction"`
	Risk       RiskConfig       `yaml:"risk"`
	Position   PositionConfig   `yaml:"position"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Server     ServerConfig     `yaml:"server"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

type StorageConfig struct {
	PostgresDSN      string   `yaml:"postgres_dsn"`
	ClickhouseDSN    string   `yaml:"clickhouse_dsn"`
	UseMemory        bool     `yaml:"use_memory"`
	OpportunityTTL   Duration `yaml:"opportunity_ttl"`
	PredictionTTL    Duration `yaml:"prediction_ttl"`
	SweepInterval    Duration `yaml:"sweep_interval"`
	SnapshotInterval Duration `yaml:"snapshot_interval"`
}

type IngestionConfig struct {
	DexEndpoint      string   `yaml:"dex_endpoint"`
	ToolsEndpoint    string   `yaml:"tools_endpoint"`
	TrendingEndpoint string   `yaml:"trending_endpoint"`
	DexInterval      Duration `yaml:"dex_interval"`
	ToolsInterval    Duration `yaml:"tools_interval"`
	TrendingInterval Duration `yaml:"trending_interval"`
}

type EnrichmentConfig struct {
	SocialBaseURL   string   `yaml:"social_base_url"`
	WhaleBaseURL    string   `yaml:"whale_base_url"`
	SocialTTL       Duration `yaml:"social_ttl"`
	WhaleTTL        Duration `yaml:"whale_ttl"`
	RefreshInterval Duration `yaml:"refresh_interval"`
	RequestTimeout  Duration `yaml:"request_timeout"`
}

type PredictionConfig struct {
	Interval Duration `yaml:"interval"`
}

type RiskConfig struct {
	MaxPositions        int      `yaml:"max_positions"`
	MinConfidence       float64  `yaml:"min_confidence"`
	MinExpectedReturn   float64  `yaml:"min_expected_return"`
	MaxRiskScore        float64  `yaml:"max_risk_score"`
	MinNotional         float64  `yaml:"min_notional"`
	MaxPositionFraction float64  `yaml:"max_position_fraction"`
	SafetyBaseURL       string   `yaml:"safety_base_url"`
	SafetyTimeout       Duration `yaml:"safety_timeout"`
	ExecutionInterval   Duration `yaml:"execution_interval"`
}

type PositionConfig struct {
	StopLossPct       float64  `yaml:"stop_loss_pct"`
	TakeProfitPct     float64  `yaml:"take_profit_pct"`
	MaxHoldingTime    Duration `yaml:"max_holding_time"`
	MaxSettleAttempts int      `yaml:"max_settle_attempts"`
	SettleTimeout     Duration `yaml:"settle_timeout"`
	SettleDelay       Duration `yaml:"settle_delay"`
	MonitorInterval   Duration `yaml:"monitor_interval"`
}

type LedgerConfig struct {
	InitialBalance float64 `yaml:"initial_balance"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			UseMemory:        true,
			OpportunityTTL:   Duration{15 * time.Minute},
			PredictionTTL:    Duration{10 * time.Minute},
			SweepInterval:    Duration{time.Minute},
			SnapshotInterval: Duration{time.Minute},
		},
		Ingestion: IngestionConfig{
			DexInterval:      Duration{30 * time.Second},
			ToolsInterval:    Duration{60 * time.Second},
			TrendingInterval: Duration{120 * time.Second},
		},
		Enrichment: EnrichmentConfig{
			SocialTTL:       Duration{30 * time.Minute},
			WhaleTTL:        Duration{time.Hour},
			RefreshInterval: Duration{time.Minute},
			RequestTimeout:  Duration{10 * time.Second},
		},
		Prediction: PredictionConfig{Interval: Duration{5 * time.Second}},
		Risk: RiskConfig{
			MaxPositions:        3,
			MinConfidence:       0.80,
			MinExpectedReturn:   0.20,
			MaxRiskScore:        0.40,
			MinNotional:         1.0,
			MaxPositionFraction: 0.3,
			SafetyTimeout:       Duration{5 * time.Second},
			ExecutionInterval:   Duration{time.Second},
		},
		Position: PositionConfig{
			StopLossPct:       0.25,
			TakeProfitPct:     2.0,
			MaxHoldingTime:    Duration{30 * time.Minute},
			MaxSettleAttempts: 5,
			SettleTimeout:     Duration{10 * time.Second},
			SettleDelay:       Duration{100 * time.Millisecond},
			MonitorInterval:   Duration{5 * time.Second},
		},
		Ledger: LedgerConfig{InitialBalance: 10.0},
		Server: ServerConfig{ListenAddr: ":8080"},
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides. An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides deployment-specific values. Secrets stay out of
// the YAML file this way.
func (c *Config) applyEnv() {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("SOCIAL_BASE_URL"); v != "" {
		c.Enrichment.SocialBaseURL = v
	}
	if v := os.Getenv("WHALE_BASE_URL"); v != "" {
		c.Enrichment.WhaleBaseURL = v
	}
	if v := os.Getenv("SAFETY_BASE_URL"); v != "" {
		c.Risk.SafetyBaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if !c.Storage.UseMemory && (c.Storage.PostgresDSN == "" || c.Storage.ClickhouseDSN == "") {
		return fmt.Errorf("postgres_dsn and clickhouse_dsn are required unless use_memory is set")
	}
	if c.Risk.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be > 0")
	}
	if c.Risk.MaxPositionFraction <= 0 || c.Risk.MaxPositionFraction > 1 {
		return fmt.Errorf("max_position_fraction must be in (0,1]")
	}
	if c.Position.StopLossPct <= 0 || c.Position.StopLossPct >= 1 {
		return fmt.Errorf("stop_loss_pct must be in (0,1)")
	}
	if c.Position.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct must be > 0")
	}
	if c.Ledger.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be > 0")
	}
	if c.Storage.OpportunityTTL.Duration <= 0 || c.Storage.PredictionTTL.Duration <= 0 {
		return fmt.Errorf("store TTLs must be > 0")
	}
	return nil
}
