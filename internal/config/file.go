package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration: analysis settings plus storage wiring.
type File struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	RFM      RFMConfig      `yaml:"rfm"`
	Privacy  PrivacyConfig  `yaml:"privacy"`
	Campaign CampaignConfig `yaml:"campaign"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AnalysisConfig holds the analysis window. Dates use YYYY-MM-DD.
type AnalysisConfig struct {
	StartDate   string  `yaml:"start_date"`
	EndDate     string  `yaml:"end_date"`
	MinPurchase float64 `yaml:"min_purchase"`
}

// RFMConfig holds the segmentation bucket boundaries.
type RFMConfig struct {
	RecencyDays   []float64 `yaml:"recency_days"`
	FrequencyBins []float64 `yaml:"frequency_bins"`
	MonetaryBins  []float64 `yaml:"monetary_bins"`
}

// PrivacyConfig holds pseudonymization and noise settings.
type PrivacyConfig struct {
	AnonymizeIDs    *bool    `yaml:"anonymize_ids"`
	AddNoise        *bool    `yaml:"add_noise"`
	NoiseLevel      *float64 `yaml:"noise_level"`
	Seed            *int64   `yaml:"seed"`
	PseudonymPrefix string   `yaml:"pseudonym_prefix"`
	HashLength      int      `yaml:"hash_length"`
	CacheTTLMinutes int      `yaml:"cache_ttl_minutes"`
}

// CampaignConfig holds campaign performance thresholds.
type CampaignConfig struct {
	MinConversionRate float64 `yaml:"min_conversion_rate"`
	MaxCPA            float64 `yaml:"max_cpa"`
}

// StorageConfig holds connection strings. Empty values disable a backend.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	MySQLDSN      string `yaml:"mysql_dsn"`
	RedisAddr     string `yaml:"redis_addr"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" | "text"
}

// CacheTTL returns the Redis pseudonym cache TTL.
func (c PrivacyConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// Load reads and parses the configuration file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	f.applyDefaults()
	return &f, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first when present. An empty path starts from defaults.
func LoadFromEnv(path string) (*File, error) {
	_ = godotenv.Load()

	var f *File
	if path == "" {
		f = &File{}
		f.applyDefaults()
	} else {
		var err error
		f, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("SEGMENT_START_DATE"); v != "" {
		f.Analysis.StartDate = v
	}
	if v := os.Getenv("SEGMENT_END_DATE"); v != "" {
		f.Analysis.EndDate = v
	}
	if v := os.Getenv("SEGMENT_NOISE_LEVEL"); v != "" {
		level, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: SEGMENT_NOISE_LEVEL: %v", ErrInvalidConfig, err)
		}
		f.Privacy.NoiseLevel = &level
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		f.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		f.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		f.Storage.MySQLDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		f.Storage.RedisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		f.Logging.Level = v
	}

	return f, nil
}

func (f *File) applyDefaults() {
	def := Default()

	if f.Analysis.StartDate == "" {
		f.Analysis.StartDate = def.Window.Start.Format(time.DateOnly)
	}
	if f.Analysis.EndDate == "" {
		f.Analysis.EndDate = def.Window.End.Format(time.DateOnly)
	}
	if len(f.RFM.RecencyDays) == 0 {
		f.RFM.RecencyDays = def.Boundaries.Recency
	}
	if len(f.RFM.FrequencyBins) == 0 {
		f.RFM.FrequencyBins = def.Boundaries.Frequency
	}
	if len(f.RFM.MonetaryBins) == 0 {
		f.RFM.MonetaryBins = def.Boundaries.Monetary
	}
	if f.Privacy.AnonymizeIDs == nil {
		f.Privacy.AnonymizeIDs = &def.Privacy.AnonymizeIDs
	}
	if f.Privacy.AddNoise == nil {
		f.Privacy.AddNoise = &def.Privacy.AddNoise
	}
	if f.Privacy.NoiseLevel == nil {
		level := def.Privacy.NoiseLevel
		f.Privacy.NoiseLevel = &level
	}
	if f.Privacy.Seed == nil {
		seed := def.Privacy.Seed
		f.Privacy.Seed = &seed
	}
	if f.Privacy.PseudonymPrefix == "" {
		f.Privacy.PseudonymPrefix = def.Privacy.PseudonymPrefix
	}
	if f.Privacy.HashLength == 0 {
		f.Privacy.HashLength = def.Privacy.HashLength
	}
	if f.Privacy.CacheTTLMinutes == 0 {
		f.Privacy.CacheTTLMinutes = 60
	}
	if f.Campaign.MinConversionRate == 0 {
		f.Campaign.MinConversionRate = def.Thresholds.MinConversionRate
	}
	if f.Campaign.MaxCPA == 0 {
		f.Campaign.MaxCPA = def.Thresholds.MaxCPA
	}
	if f.Logging.Level == "" {
		f.Logging.Level = "info"
	}
	if f.Logging.Format == "" {
		f.Logging.Format = "json"
	}
}

// AnalysisConfig converts the file into a validated, immutable Config.
func (f *File) AnalysisConfig() (Config, error) {
	start, err := ParseDate(f.Analysis.StartDate)
	if err != nil {
		return Config{}, fmt.Errorf("%w: start_date: %v", ErrInvalidConfig, err)
	}
	end, err := ParseDate(f.Analysis.EndDate)
	if err != nil {
		return Config{}, fmt.Errorf("%w: end_date: %v", ErrInvalidConfig, err)
	}

	cfg := Config{
		Window: Window{Start: start, End: end},
		Boundaries: Boundaries{
			Recency:   f.RFM.RecencyDays,
			Frequency: f.RFM.FrequencyBins,
			Monetary:  f.RFM.MonetaryBins,
		},
		Thresholds: Thresholds{
			MinConversionRate: f.Campaign.MinConversionRate,
			MaxCPA:            f.Campaign.MaxCPA,
		},
		MinPurchase: f.Analysis.MinPurchase,
	}
	if f.Privacy.AnonymizeIDs != nil {
		cfg.Privacy.AnonymizeIDs = *f.Privacy.AnonymizeIDs
	}
	if f.Privacy.AddNoise != nil {
		cfg.Privacy.AddNoise = *f.Privacy.AddNoise
	}
	if f.Privacy.NoiseLevel != nil {
		cfg.Privacy.NoiseLevel = *f.Privacy.NoiseLevel
	}
	if f.Privacy.Seed != nil {
		cfg.Privacy.Seed = *f.Privacy.Seed
	}
	cfg.Privacy.PseudonymPrefix = f.Privacy.PseudonymPrefix
	cfg.Privacy.HashLength = f.Privacy.HashLength

	return New(cfg)
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}
