package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "echo_test")
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	os.Setenv("WORKOS_API_KEY", "sk_test_key")
	os.Setenv("ADMIN_USER_IDS", "user_one, user_two,")
	defer func() {
		os.Unsetenv("MONGODB_URI")
		os.Unsetenv("MONGODB_DATABASE")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("WORKOS_API_KEY")
		os.Unsetenv("ADMIN_USER_IDS")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.WorkOS.APIKey == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	// default token window is 5 weeks
	if cfg.JWT.AccessTokenTTL != 5*7*24*time.Hour {
		t.Fatalf("unexpected access token TTL: %v", cfg.JWT.AccessTokenTTL)
	}
	if len(cfg.Auth.AdminIDs) != 2 || cfg.Auth.AdminIDs[0] != "user_one" || cfg.Auth.AdminIDs[1] != "user_two" {
		t.Fatalf("unexpected admin ids: %v", cfg.Auth.AdminIDs)
	}
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}
