package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sitepilot/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type GatewayConfig struct {
	KeyID         string `yaml:"key_id"`
	KeySecret     string `yaml:"key_secret"`
	WebhookSecret string `yaml:"webhook_secret"`
	CallbackURL   string `yaml:"callback_url"`
}

type SessionConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SMSConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type NotifyConfig struct {
	FounderEmail string `yaml:"founder_email"`
	Workers      int    `yaml:"workers"`
}

type MatcherConfig struct {
	Window time.Duration `yaml:"window"` // heuristic match recency window
}

type SweeperConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type PlanConfig struct {
	ID                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	Tier                 string `yaml:"tier"`
	PriceMonthly         int64  `yaml:"price_monthly"`
	PriceYearly          int64  `yaml:"price_yearly"`
	PriceOnetime         int64  `yaml:"price_onetime"`
	GatewayPlanIDMonthly string `yaml:"gateway_plan_id_monthly"`
	GatewayPlanIDYearly  string `yaml:"gateway_plan_id_yearly"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Session  SessionConfig  `yaml:"session"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	SMS      SMSConfig      `yaml:"sms"`
	Notify   NotifyConfig   `yaml:"notify"`
	Matcher  MatcherConfig  `yaml:"matcher"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Plans    []PlanConfig   `yaml:"plans"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 4
	}
	if cfg.Matcher.Window <= 0 {
		cfg.Matcher.Window = time.Hour
	}
	if cfg.Sweeper.Interval <= 0 {
		cfg.Sweeper.Interval = 5 * time.Minute
	}
	if cfg.Sweeper.StaleAfter <= 0 {
		cfg.Sweeper.StaleAfter = 24 * time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Gateway.WebhookSecret == "" {
		return nil, errors.New("gateway.webhook_secret is required")
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("session.secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// PlanCatalog converts the configured plans into domain models.
func (c *Config) PlanCatalog() []*model.Plan {
	out := make([]*model.Plan, 0, len(c.Plans))
	for _, p := range c.Plans {
		out = append(out, &model.Plan{
			ID:                   p.ID,
			Name:                 p.Name,
			Tier:                 p.Tier,
			PriceMonthly:         p.PriceMonthly,
			PriceYearly:          p.PriceYearly,
			PriceOnetime:         p.PriceOnetime,
			GatewayPlanIDMonthly: p.GatewayPlanIDMonthly,
			GatewayPlanIDYearly:  p.GatewayPlanIDYearly,
		})
	}
	return out
}
