package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	BindAddress string
	CORSOrigin  string
	Environment string
	// PublicURL is the externally reachable base URL, used when
	// generating QR join links for rooms.
	PublicURL string

	// API rate limiting (requests per second per client, with burst).
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() *Config {
	v := viper.New()

	v.SetDefault("PORT", "5001")
	v.SetDefault("BIND_ADDRESS", "0.0.0.0")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PUBLIC_URL", "http://localhost:5001")
	v.SetDefault("RATE_LIMIT_RPS", 2.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.AutomaticEnv()

	return &Config{
		Port:           v.GetString("PORT"),
		BindAddress:    v.GetString("BIND_ADDRESS"),
		CORSOrigin:     v.GetString("CORS_ORIGIN"),
		Environment:    v.GetString("ENVIRONMENT"),
		PublicURL:      v.GetString("PUBLIC_URL"),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
	}
}
