package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	LogMode                          string `mapstructure:"LOG_MODE"` // "development" or "production"
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	StorageBucket                    string `mapstructure:"STORAGE_BUCKET"`
	RewardFunctionURL                string `mapstructure:"REWARD_FUNCTION_URL"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`
	InviteCodeTTLHours               int    `mapstructure:"INVITE_CODE_TTL_HOURS"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("LOG_MODE", "development")
	viper.SetDefault("INVITE_CODE_TTL_HOURS", 48)

	for _, key := range []string{
		"PORT",
		"GIN_MODE",
		"LOG_MODE",
		"FIREBASE_PROJECT_ID",
		"GOOGLE_APPLICATION_CREDENTIALS",
		"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"STORAGE_BUCKET",
		"REWARD_FUNCTION_URL",
		"CLIENT_URL",
		"INVITE_CODE_TTL_HOURS",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, errors.New("failed to bind env var " + key + ": " + err.Error())
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.StorageBucket == "" {
		return nil, errors.New("STORAGE_BUCKET is required")
	}
	if cfg.InviteCodeTTLHours <= 0 {
		return nil, errors.New("INVITE_CODE_TTL_HOURS must be positive")
	}

	return &cfg, nil
}
