package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"storefront/internal/logger"
	"storefront/internal/utils"
)

type Config struct {
	Port            string        `yaml:"port"`
	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"-"`
	RefreshTokenTTL time.Duration `yaml:"-"`
	ResetTokenTTL   time.Duration `yaml:"-"`

	AppURL string `yaml:"app_url"`

	MailAPIKey    string `yaml:"mail_api_key"`
	MailFromEmail string `yaml:"mail_from_email"`
	MailFromName  string `yaml:"mail_from_name"`
	MailBaseURL   string `yaml:"mail_base_url"`

	RedisAddr      string `yaml:"redis_addr"`
	CacheTTLSecs   int    `yaml:"cache_ttl_seconds"`
	PlaceholderTTF string `yaml:"placeholder_font"`

	// yaml-only mirrors of the TTL fields, in seconds
	AccessTokenTTLSecs  int `yaml:"access_token_ttl_seconds"`
	RefreshTokenTTLSecs int `yaml:"refresh_token_ttl_seconds"`
	ResetTokenTTLSecs   int `yaml:"reset_token_ttl_seconds"`
}

// LoadConfig reads configuration from the environment, then overlays the
// optional YAML file named by CONFIG_FILE. File values win over env.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:                utils.GetEnv("PORT", "8080", log),
		JWTSecretKey:        utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AppURL:              utils.GetEnv("APP_URL", "http://localhost:8080", log),
		MailAPIKey:          utils.GetEnv("MAIL_API_KEY", "", log),
		MailFromEmail:       utils.GetEnv("MAIL_FROM_EMAIL", "noreply@example.com", log),
		MailFromName:        utils.GetEnv("MAIL_FROM_NAME", "Storefront", log),
		MailBaseURL:         utils.GetEnv("MAIL_BASE_URL", "", log),
		RedisAddr:           utils.GetEnv("REDIS_ADDR", "", log),
		CacheTTLSecs:        utils.GetEnvAsInt("CACHE_TTL_SECONDS", 300, log),
		PlaceholderTTF:      utils.GetEnv("PLACEHOLDER_FONT", "", log),
		AccessTokenTTLSecs:  utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log),
		RefreshTokenTTLSecs: utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400*7, log),
		ResetTokenTTLSecs:   utils.GetEnvAsInt("RESET_TOKEN_TTL", 3600, log),
	}

	if path := utils.GetEnv("CONFIG_FILE", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
		log.Info("Loaded config overlay", "path", path)
	}

	cfg.AccessTokenTTL = time.Duration(cfg.AccessTokenTTLSecs) * time.Second
	cfg.RefreshTokenTTL = time.Duration(cfg.RefreshTokenTTLSecs) * time.Second
	cfg.ResetTokenTTL = time.Duration(cfg.ResetTokenTTLSecs) * time.Second
	return cfg, nil
}
