// Package config loads service configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HTTPAddr string `mapstructure:"http_addr"`
	// AdminAPIKey guards mutation endpoints (clone, cache bust).
	AdminAPIKey string `mapstructure:"admin_api_key"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | mysql | sqlite
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	MasterListTTL time.Duration `mapstructure:"master_list_ttl"`
}

type PricingConfig struct {
	// SourceTimeout bounds each leg of the dual-source rate comparison.
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
	// IslandProvinces lists province codes that attract the island surcharge.
	IslandProvinces []string `mapstructure:"island_provinces"`
	// ZTLZips lists postal codes inside limited-traffic zones.
	ZTLZips []string `mapstructure:"ztl_zips"`
}

type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("spedira")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/spedira")

	v.SetEnvPrefix("SPEDIRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_addr", ":8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.master_list_ttl", 5*time.Minute)
	v.SetDefault("pricing.source_timeout", 3*time.Second)
	v.SetDefault("pricing.island_provinces", []string{
		"PA", "CT", "ME", "AG", "CL", "EN", "RG", "SR", "TP", // Sicily
		"CA", "SS", "NU", "OR", "SU", // Sardinia
	})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
