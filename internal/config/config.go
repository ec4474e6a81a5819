package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`
	Host        string `envconfig:"HOST" default:"http://localhost:8080"` // e.g. https://api.zenjournal.app
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017/zenjournal"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:""`
	PostgresURI   string `envconfig:"POSTGRES_URI" default:"postgres://localhost:5432/zenjournal?sslmode=disable"`
	RedisURI      string `envconfig:"REDIS_URI" default:"redis://localhost:6379/0"`

	JWTSecret           string        `envconfig:"JWT_SECRET" default:"your-secret-key-change-in-production"`
	PublicEntryCacheTTL time.Duration `envconfig:"PUBLIC_ENTRY_CACHE_TTL" default:"10m"`

	FrontendURL    string   `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	RawOrigins     string   `envconfig:"ALLOWED_ORIGINS" default:""`
	WebDir         string   `envconfig:"WEB_DIR" default:""` // SPA build served behind the gatekeeper
	AllowedOrigins []string `ignored:"true"`                 // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	AllowedHost    string   `ignored:"true"`                 // Hostname only for strict host check (production only)

	CloudinaryName      string `envconfig:"CLOUDINARY_CLOUD_NAME" default:""`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY" default:""`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET" default:""`
}

// Load parses the environment and derives CORS origins and the production host.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	// Older deployments set MONGO_URI
	if os.Getenv("MONGODB_URI") == "" {
		if legacy := os.Getenv("MONGO_URI"); legacy != "" {
			cfg.MongoURI = legacy
		}
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.resolveDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolveDerived() {
	if c.IsProduction() {
		c.AllowedHost = hostname(c.Host)
	}

	origins := parseOrigins(c.RawOrigins)
	if len(origins) == 0 {
		if u := strings.TrimSpace(c.FrontendURL); u != "" {
			origins = append(origins, u)
		}
	}
	// When HOST is an api subdomain (api.zenjournal.app), the apex and www origins are the frontend
	if h := hostname(c.Host); h != "" && h != "localhost" {
		parts := strings.Split(h, ".")
		if len(parts) >= 3 {
			domain := strings.Join(parts[1:], ".")
			for _, origin := range []string{"https://" + domain, "https://www." + domain} {
				if !containsOrigin(origins, origin) {
					origins = append(origins, origin)
				}
			}
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	c.AllowedOrigins = origins
}

// Validate rejects settings that are unsafe to run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.PublicEntryCacheTTL < 0 {
		return errors.New("PUBLIC_ENTRY_CACHE_TTL must not be negative")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryConfigured reports whether all upload credentials are present.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// hostname strips scheme, path and port from a URL-ish string.
func hostname(raw string) string {
	h := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}
