package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`
	Env     string `mapstructure:"ENV"` // "production" suppresses error details in responses

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	StorageBucket                    string `mapstructure:"STORAGE_BUCKET"`

	StripeSecretKey             string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret         string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePricePremiumMonthly   string `mapstructure:"STRIPE_PRICE_PREMIUM_MONTHLY"`
	StripePriceATSCredit        string `mapstructure:"STRIPE_PRICE_ATS_CREDIT"`
	StripePriceOptimization     string `mapstructure:"STRIPE_PRICE_OPTIMIZATION_CREDIT"`
	StripePriceProfessionalView string `mapstructure:"STRIPE_PRICE_REVIEW"`

	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	ClientURL string `mapstructure:"CLIENT_URL"`
}

// IsProduction reports whether error detail messages should be suppressed.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")

	for _, key := range []string{
		"PORT", "GIN_MODE", "ENV",
		"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"STORAGE_BUCKET",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
		"STRIPE_PRICE_PREMIUM_MONTHLY", "STRIPE_PRICE_ATS_CREDIT", "STRIPE_PRICE_OPTIMIZATION_CREDIT", "STRIPE_PRICE_REVIEW",
		"GEMINI_API_KEY", "GEMINI_MODEL",
		"CLIENT_URL",
	} {
		viper.BindEnv(key)
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
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	return &cfg, nil
}
