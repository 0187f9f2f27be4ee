package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string        `env:"PORT,        default=8080"`
	Env        string        `env:"ENV,         default=development"`
	JWTSecret  string        `env:"JWT_SECRET"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`

	Firebase FirebaseConfig
	Redis    RedisConfig
}

// FirebaseConfig names the hosted backend: the document-store endpoint, the
// blob bucket, the identity API key, and the synthetic email domain that
// bare usernames are mapped onto at login.
type FirebaseConfig struct {
	APIKey              string `env:"FIREBASE_API_KEY"`
	DatabaseURL         string `env:"FIREBASE_DATABASE_URL"`
	StorageBucket       string `env:"FIREBASE_STORAGE_BUCKET"`
	UsernameEmailDomain string `env:"USERNAME_EMAIL_DOMAIN, default=users.quanlytn.local"`

	// Overridable endpoints, used by tests against local fakes.
	StorageURL        string `env:"FIREBASE_STORAGE_URL"`
	IdentitySignInURL string `env:"FIREBASE_IDENTITY_URL"`
	IdentityTokenURL  string `env:"FIREBASE_TOKEN_URL"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig
// and rejects missing or still-placeholder backend settings. A bad config
// is fatal to initialization; nothing retries it.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"JWT_SECRET":              c.JWTSecret,
		"FIREBASE_API_KEY":        c.Firebase.APIKey,
		"FIREBASE_DATABASE_URL":   c.Firebase.DatabaseURL,
		"FIREBASE_STORAGE_BUCKET": c.Firebase.StorageBucket,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("config: %s is not set", name)
		}
		if looksLikePlaceholder(value) {
			return fmt.Errorf("config: %s is still a placeholder value", name)
		}
	}
	return nil
}

// looksLikePlaceholder catches template values copied verbatim from setup
// instructions.
func looksLikePlaceholder(v string) bool {
	return strings.Contains(v, "PASTE_YOUR_") || strings.Contains(v, "CHANGE_ME")
}
