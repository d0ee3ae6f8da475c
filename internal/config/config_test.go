package config

import (
	"testing"
	"time"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MONGODB_URI", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when MONGODB_URI is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL_HOURS", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.TokenTTL() != 30*24*time.Hour {
		t.Fatalf("unexpected token ttl: %s", cfg.TokenTTL())
	}
	if cfg.IsProduction() {
		t.Fatal("expected development environment by default")
	}
	if cfg.RedisURL != "" {
		t.Fatalf("unexpected redis url: %s", cfg.RedisURL)
	}
	if len(cfg.AllowedOrigins()) != 2 {
		t.Fatalf("unexpected origins: %#v", cfg.AllowedOrigins())
	}
}

func TestAllowedOriginsTrimsEntries(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " https://a.example , ,https://b.example"}

	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[0] != "https://a.example" || origins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %#v", origins)
	}
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("LOGIN_MAX_ATTEMPTS", "many")

	if got := getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5); got != 5 {
		t.Fatalf("getEnvAsInt = %d, want 5", got)
	}
}
