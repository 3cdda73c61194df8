package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MpesaConfig struct {
	ConsumerKey    string        `yaml:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret"`
	Shortcode      string        `yaml:"shortcode"`
	Passkey        string        `yaml:"passkey"`
	CallbackURL    string        `yaml:"callback_url"`
	Sandbox        bool          `yaml:"sandbox"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"` // how long a purchase waits for the callback
}

type RouterConfig struct {
	Address  string `yaml:"address"` // host:port of the RouterOS API
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type WebConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mpesa    MpesaConfig    `yaml:"mpesa"`
	Router   RouterConfig   `yaml:"router"`
	Web      WebConfig      `yaml:"web"`

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
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Mpesa.ConfirmTimeout <= 0 {
		// Matches the provider's own STK prompt expiry window.
		cfg.Mpesa.ConfirmTimeout = 2 * time.Minute
	}
	if cfg.Router.Address == "" {
		cfg.Router.Address = "192.168.88.1:8728"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Mpesa.ConsumerKey == "" || cfg.Mpesa.ConsumerSecret == "" {
		return nil, errors.New("mpesa.consumer_key and mpesa.consumer_secret are required")
	}
	if cfg.Mpesa.Shortcode == "" || cfg.Mpesa.Passkey == "" {
		return nil, errors.New("mpesa.shortcode and mpesa.passkey are required")
	}
	if cfg.Mpesa.CallbackURL == "" {
		return nil, errors.New("mpesa.callback_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
