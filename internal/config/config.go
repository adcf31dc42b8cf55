package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration values.
type Config struct {
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"file:retailpos.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"`
	ProductCSV  string `envconfig:"PRODUCT_CSV" default:""`

	MirrorEnabled bool   `envconfig:"MIRROR_ENABLED" default:"false"`
	MirrorTable   string `envconfig:"MIRROR_TABLE" default:"retailpos-mirror"`
	AWSRegion     string `envconfig:"AWS_REGION" default:"ap-northeast-2"`
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
