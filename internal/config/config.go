package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer           string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL          string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience         string        `mapstructure:"AUTH_AUDIENCE"`
	AutoPostPayments     bool          `mapstructure:"AUTO_POST_PAYMENTS"`
	ClearinghouseURL     string        `mapstructure:"CLEARINGHOUSE_URL"`
	ClearinghouseAPIKey  string        `mapstructure:"CLEARINGHOUSE_API_KEY"`
	ClearinghouseTimeout time.Duration `mapstructure:"CLEARINGHOUSE_TIMEOUT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("AUTO_POST_PAYMENTS", true)
	v.SetDefault("CLEARINGHOUSE_TIMEOUT", "30s")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTO_POST_PAYMENTS")
	v.BindEnv("CLEARINGHOUSE_URL")
	v.BindEnv("CLEARINGHOUSE_API_KEY")
	v.BindEnv("CLEARINGHOUSE_TIMEOUT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development,
// AUTH_ISSUER must be set so that real JWT authentication is enforced, and a
// clearinghouse endpoint must be configured for claim submission.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_ISSUER must be set when ENV=%q. "+
				"Refusing to start without authentication configuration", c.Env)
	}
	if c.IsProduction() && c.ClearinghouseURL == "" {
		return fmt.Errorf("CLEARINGHOUSE_URL is required in production")
	}
	if c.ClearinghouseTimeout < 0 {
		return fmt.Errorf("CLEARINGHOUSE_TIMEOUT must not be negative")
	}
	return nil
}
