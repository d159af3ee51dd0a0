package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Cache struct {
		NearbyTTLSeconds       int `yaml:"nearby_ttl_seconds"`
		DetailTTLSeconds       int `yaml:"detail_ttl_seconds"`
		ScoreTTLSeconds        int `yaml:"score_ttl_seconds"`
		SummaryTTLSeconds      int `yaml:"summary_ttl_seconds"`
		TimeAnalysisTTLSeconds int `yaml:"time_analysis_ttl_seconds"`
	} `yaml:"cache"`

	Search struct {
		MinRadiusMeters float64 `yaml:"min_radius_meters"`
		MaxRadiusMeters float64 `yaml:"max_radius_meters"`
		MinLimit        int     `yaml:"min_limit"`
		MaxLimit        int     `yaml:"max_limit"`
	} `yaml:"search"`

	Ratings struct {
		PerUserPerMinute int `yaml:"per_user_per_minute"`
	} `yaml:"ratings"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

// BackupConfig controls the periodic SQLite file backup.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/lettuce.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) NearbyTTL() time.Duration {
	return ttlOrDefault(c.Cache.NearbyTTLSeconds, 5*time.Minute)
}

func (c *Config) DetailTTL() time.Duration {
	return ttlOrDefault(c.Cache.DetailTTLSeconds, 10*time.Minute)
}

func (c *Config) ScoreTTL() time.Duration {
	return ttlOrDefault(c.Cache.ScoreTTLSeconds, time.Minute)
}

func (c *Config) SummaryTTL() time.Duration {
	return ttlOrDefault(c.Cache.SummaryTTLSeconds, 10*time.Minute)
}

func (c *Config) TimeAnalysisTTL() time.Duration {
	return ttlOrDefault(c.Cache.TimeAnalysisTTLSeconds, time.Hour)
}

func (c *Config) RadiusBounds() (min, max float64) {
	min, max = c.Search.MinRadiusMeters, c.Search.MaxRadiusMeters
	if min <= 0 {
		min = 100
	}
	if max <= 0 {
		max = 50000
	}
	return min, max
}

func (c *Config) LimitBounds() (min, max int) {
	min, max = c.Search.MinLimit, c.Search.MaxLimit
	if min <= 0 {
		min = 1
	}
	if max <= 0 {
		max = 100
	}
	return min, max
}

func (c *Config) RatingsPerMinute() int {
	if c.Ratings.PerUserPerMinute <= 0 {
		return 10
	}
	return c.Ratings.PerUserPerMinute
}

func ttlOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
