package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port                 int           `yaml:"port" default:"8080"`
		ReadTimeout          time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout         time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout      time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequestThreshold time.Duration `yaml:"slow_request_threshold" default:"500ms"`
		CORS                 bool          `yaml:"cors" default:"true"`
		// CORSOrigins lists browser origins allowed to call the API; empty admits any.
		CORSOrigins          []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
		// AggregateTopic enables error-log aggregation to Kafka when brokers are configured.
		AggregateTopic    string        `yaml:"aggregate_topic"`
		AggregateInterval time.Duration `yaml:"aggregate_interval" default:"30s"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" default:"5"`
		Burst int     `yaml:"burst" default:"10"`
	} `yaml:"rate_limit"`
	Forecast struct {
		DefaultTimezone string        `yaml:"default_timezone" default:"UTC"`
		CacheTTL        time.Duration `yaml:"cache_ttl" default:"30s"`
		Pairs           []Pair        `yaml:"pairs"`
	} `yaml:"forecast"`
	Markets  []Market `yaml:"markets"`
	Calendar struct {
		// Source is one of static, exchange, none.
		Source       string        `yaml:"source" default:"static"`
		HolidaysFile string        `yaml:"holidays_file"`
		HolidaysURL  string        `yaml:"holidays_url"`
		Timeout      time.Duration `yaml:"timeout" default:"250ms"`
		ProbeTimeout time.Duration `yaml:"probe_timeout" default:"5s"`
	} `yaml:"calendar"`
	Timezone struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"timezone"`
	Tier struct {
		// FailureThreshold is the number of provider failures of one kind that demote the tier.
		// 0 disables process-wide demotion.
		FailureThreshold int `yaml:"failure_threshold" default:"1"`
		LookaheadDays    int `yaml:"lookahead_days" default:"14"`
	} `yaml:"tier"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"fxcast.predictions"`
		TierTopic    string        `yaml:"tier_topic" default:"fxcast.tier"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"snappy"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		Async        bool          `yaml:"async" default:"true"`
	} `yaml:"kafka"`
}

// Pair is a supported currency pair and its reference-rate model parameters.
type Pair struct {
	Symbol        string  `yaml:"symbol"`
	ReferenceRate float64 `yaml:"reference_rate"`
	DailyDrift    float64 `yaml:"daily_drift"`
	Market        string  `yaml:"market"`
}

// Market is a trading venue: its timezone, session window and holiday data keys.
type Market struct {
	ID         string `yaml:"id"`
	Zone       string `yaml:"zone"`
	Open       string `yaml:"open"`
	Close      string `yaml:"close"`
	HolidaySet string `yaml:"holiday_set"`
	Exchange   string `yaml:"exchange"`
}

// DefaultMarkets are used when the config file lists none.
func DefaultMarkets() []Market {
	return []Market{
		{ID: "Tokyo", Zone: "Asia/Tokyo", Open: "09:00", Close: "15:00", HolidaySet: "JP", Exchange: "XTKS"},
		{ID: "London", Zone: "Europe/London", Open: "08:00", Close: "16:30", HolidaySet: "UK", Exchange: "XLON"},
		{ID: "New_York", Zone: "America/New_York", Open: "09:30", Close: "16:00", HolidaySet: "US", Exchange: "XNYS"},
		{ID: "UTC", Zone: "UTC", Open: "00:00", Close: "24:00"},
	}
}

// DefaultPairs are used when the config file lists none.
func DefaultPairs() []Pair {
	return []Pair{
		{Symbol: "USD/JPY", ReferenceRate: 147.49, DailyDrift: 0.0005},
		{Symbol: "EUR/JPY", ReferenceRate: 173.16, DailyDrift: 0.0003},
		{Symbol: "EUR/USD", ReferenceRate: 1.174, DailyDrift: -0.0002},
	}
}

// Default returns a config populated only from defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	c.fillDefaults()
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.fillDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (if present), then config from YAML, then overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DEFAULT_TIMEZONE"); v != "" {
		c.Forecast.DefaultTimezone = v
	}
	if v := os.Getenv("CALENDAR_SOURCE"); v != "" {
		c.Calendar.Source = v
	}
	if v := os.Getenv("HOLIDAYS_URL"); v != "" {
		c.Calendar.HolidaysURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, c.Validate()
}

func (c *Config) fillDefaults() {
	if len(c.Markets) == 0 {
		c.Markets = DefaultMarkets()
	}
	if len(c.Forecast.Pairs) == 0 {
		c.Forecast.Pairs = DefaultPairs()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Calendar.Source {
	case "static", "exchange", "none":
	default:
		return fmt.Errorf("calendar.source must be 'static', 'exchange' or 'none', got '%s'", c.Calendar.Source)
	}
	if c.Forecast.DefaultTimezone == "" {
		return fmt.Errorf("forecast.default_timezone is required")
	}
	if c.Tier.FailureThreshold < 0 {
		return fmt.Errorf("tier.failure_threshold cannot be negative")
	}
	if c.Tier.LookaheadDays < 1 {
		return fmt.Errorf("tier.lookahead_days must be at least 1")
	}
	seen := make(map[string]bool, len(c.Markets))
	for _, m := range c.Markets {
		if m.ID == "" || m.Zone == "" {
			return fmt.Errorf("markets: id and zone are required")
		}
		if seen[strings.ToLower(m.ID)] {
			return fmt.Errorf("markets: duplicate id '%s'", m.ID)
		}
		seen[strings.ToLower(m.ID)] = true
	}
	for _, p := range c.Forecast.Pairs {
		if p.Symbol == "" || p.ReferenceRate <= 0 {
			return fmt.Errorf("forecast.pairs: symbol and positive reference_rate are required")
		}
	}
	return nil
}
