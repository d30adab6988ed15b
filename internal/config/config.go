package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Instance roles.
const (
	ModeHomeowner  = "homeowner"
	ModeManagement = "management"
)

const envPrefix = "FLUX"

type Config struct {
	Mode       string           `mapstructure:"mode"`
	Port       string           `mapstructure:"port"`
	LogLevel   string           `mapstructure:"log_level"`
	LogFormat  string           `mapstructure:"log_format"`
	DataDir    string           `mapstructure:"data_dir"`
	DB         DBConfig         `mapstructure:"db"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Homeowner  HomeownerConfig  `mapstructure:"homeowner"`
	Management ManagementConfig `mapstructure:"management"`
	Proxy      ProxyConfig      `mapstructure:"proxy"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// HomeownerConfig describes this instance as it appears in its own
// connection key.
type HomeownerConfig struct {
	URL            string `mapstructure:"url"`
	APIKey         string `mapstructure:"api_key"`
	Label          string `mapstructure:"label"`
	FirstName      string `mapstructure:"first_name"`
	LastName       string `mapstructure:"last_name"`
	Address        string `mapstructure:"address"`
	City           string `mapstructure:"city"`
	State          string `mapstructure:"state"`
	Zip            string `mapstructure:"zip"`
	Phone          string `mapstructure:"phone"`
	ZoneCount      int    `mapstructure:"zone_count"`
	HAToken        string `mapstructure:"ha_token"`
	ConnectionMode string `mapstructure:"connection_mode"`
}

type ManagementConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollConcurrency int           `mapstructure:"poll_concurrency"`
}

type ProxyConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeHomeowner)
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("data_dir", "data")
	v.SetDefault("db.path", "data/flux.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("homeowner.url", "")
	v.SetDefault("homeowner.api_key", "")
	v.SetDefault("homeowner.label", "")
	v.SetDefault("homeowner.first_name", "")
	v.SetDefault("homeowner.last_name", "")
	v.SetDefault("homeowner.address", "")
	v.SetDefault("homeowner.city", "")
	v.SetDefault("homeowner.state", "")
	v.SetDefault("homeowner.zip", "")
	v.SetDefault("homeowner.phone", "")
	v.SetDefault("homeowner.zone_count", 0)
	v.SetDefault("homeowner.ha_token", "")
	v.SetDefault("homeowner.connection_mode", "direct")
	v.SetDefault("management.poll_interval", 5*time.Minute)
	v.SetDefault("management.poll_concurrency", 4)
	v.SetDefault("proxy.timeout", 20*time.Second)
	v.SetDefault("proxy.insecure_skip_verify", false)
	v.SetDefault("rate_limit.per_minute", 120)
}

// Load reads config.yml from dir (if present), applies FLUX_* environment
// overrides and validates the result. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	switch c.Mode {
	case ModeHomeowner, ModeManagement:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if c.Auth.SigningKey == "" {
		return errors.New("config: auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: auth.token_ttl must be positive")
	}
	if c.Proxy.Timeout <= 0 {
		return errors.New("config: proxy.timeout must be positive")
	}
	if c.Management.PollConcurrency < 1 {
		c.Management.PollConcurrency = 1
	}
	return nil
}

// IsManagement reports whether this instance supervises customers.
func (c *Config) IsManagement() bool { return c.Mode == ModeManagement }
