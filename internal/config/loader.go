package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the service.
type Config struct {
	ListenAddr   string
	DatabasePath string
	SessionTTL   time.Duration

	LinkedInClientID     string
	LinkedInClientSecret string
	LinkedInRedirectURL  string
	OAuthStateSecret     string

	AIGatewayURL string
	AIGatewayKey string

	CronSecret string
}

// Load parses configuration values from a local .env file, if present,
// and the process environment. Optional fields fall back to defaults;
// required values are validated and reported together.
func Load() (Config, error) {
	// Missing .env is fine; real deployments configure the process
	// environment directly.
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:   ":8080",
		DatabasePath: "postpilot.db",
		SessionTTL:   24 * time.Hour,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 1)

	if addr := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); addr != "" {
		cfg.ListenAddr = addr
	}
	if path := strings.TrimSpace(os.Getenv("DATABASE_PATH")); path != "" {
		cfg.DatabasePath = path
	}
	if ttlValue := strings.TrimSpace(os.Getenv("SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	required := []struct {
		key    string
		target *string
	}{
		{"LINKEDIN_CLIENT_ID", &cfg.LinkedInClientID},
		{"LINKEDIN_CLIENT_SECRET", &cfg.LinkedInClientSecret},
		{"LINKEDIN_REDIRECT_URL", &cfg.LinkedInRedirectURL},
		{"OAUTH_STATE_SECRET", &cfg.OAuthStateSecret},
		{"CRON_SECRET", &cfg.CronSecret},
	}
	for _, entry := range required {
		value := strings.TrimSpace(os.Getenv(entry.key))
		if value == "" {
			missing = append(missing, entry.key)
			continue
		}
		*entry.target = value
	}

	// The AI gateway is optional; without it the generate endpoint is
	// simply not wired.
	cfg.AIGatewayURL = strings.TrimSpace(os.Getenv("AI_GATEWAY_URL"))
	cfg.AIGatewayKey = strings.TrimSpace(os.Getenv("AI_GATEWAY_KEY"))

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
