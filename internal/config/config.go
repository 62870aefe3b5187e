package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Placeholder only. Any real deployment must override jwt.secret.
const insecureDefaultSecret = "change-me-jwt-secret-for-carnet-api-0000"

type Config struct {
	APIPort  int `yaml:"apiPort"`
	Database struct {
		Type     string `yaml:"type"` // "sqlite" or "postgres"
		Path     string `yaml:"path"` // sqlite file path
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Name     string `yaml:"name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
	JWT struct {
		Secret          string        `yaml:"secret"`
		AccessTokenTTL  time.Duration `yaml:"accessTokenTTL"`
		RefreshTokenTTL time.Duration `yaml:"refreshTokenTTL"`
	} `yaml:"jwt"`
	Auth struct {
		Strategy        string        `yaml:"strategy"` // "jwt" (default) or "opaque" (legacy)
		LoginRateLimit  int           `yaml:"loginRateLimit"`
		LoginRateWindow time.Duration `yaml:"loginRateWindow"`
	} `yaml:"auth"`
	Cleanup struct {
		Enabled bool `yaml:"enabled"`
		Hour    int  `yaml:"hour"` // Hour of day (0-23) the expired-token sweep runs
	} `yaml:"cleanup"`
	Redis struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"redis"`
	S3 struct {
		Enabled         bool   `yaml:"enabled"`
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"accessKeyID"`
		SecretAccessKey string `yaml:"secretAccessKey"`
	} `yaml:"s3"`
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			log.Printf("Warning: could not read config file: %s. Using defaults or environment variables.", err)
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg, v)
	return &cfg, nil
}

func applyDefaults(cfg *Config, v *viper.Viper) {
	if cfg.APIPort == 0 {
		cfg.APIPort = 8081
		log.Println("apiPort not specified, using default 8081")
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "/data/carnet.db"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = insecureDefaultSecret
		log.Println("WARNING: jwt.secret not specified, using the insecure built-in default")
	}
	if cfg.JWT.AccessTokenTTL == 0 {
		cfg.JWT.AccessTokenTTL = 24 * time.Hour
	}
	if cfg.JWT.RefreshTokenTTL == 0 {
		cfg.JWT.RefreshTokenTTL = 7 * 24 * time.Hour
	}

	if cfg.Auth.Strategy == "" {
		cfg.Auth.Strategy = "jwt"
	}
	if cfg.Auth.LoginRateLimit == 0 {
		cfg.Auth.LoginRateLimit = 10
	}
	if cfg.Auth.LoginRateWindow == 0 {
		cfg.Auth.LoginRateWindow = time.Minute
	}

	// Sweep defaults to 02:00 daily; enabled unless turned off explicitly
	if !v.IsSet("cleanup.enabled") {
		cfg.Cleanup.Enabled = true
	}
	if !v.IsSet("cleanup.hour") {
		cfg.Cleanup.Hour = 2
	}

	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.S3.Enabled && cfg.S3.Region == "" {
		cfg.S3.Region = "nyc3"
	}
}

// IsInsecureSecret reports whether the JWT secret is still the built-in
// placeholder
func (c *Config) IsInsecureSecret() bool {
	return c.JWT.Secret == insecureDefaultSecret
}
