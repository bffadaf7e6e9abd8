package config

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gemstone-market/identity/internal/config"
)

// Deterministic secrets for end-to-end runs. Never use outside tests.
const (
	TestAccessSecret  = "e2e-access-secret-0123456789abcdef"
	TestRefreshSecret = "e2e-refresh-secret-0123456789abcdef"
	TestEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

// LoadTestConfig returns a configuration backed by an in-memory sqlite
// database and the given redis address.
func LoadTestConfig(t *testing.T, redisAddr string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.App.GinMode = "test"
	cfg.App.LogLevel = "error"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Database.MaxOpenConns = 1
	cfg.Redis.Addr = redisAddr
	cfg.JWT.AccessSecret = TestAccessSecret
	cfg.JWT.RefreshSecret = TestRefreshSecret
	cfg.MFA.EncryptionKey = TestEncryptionKey
	cfg.MFA.MaxAttempts = 3
	cfg.Auth.HashCost = 4
	cfg.Auth.CleanupInterval = config.Duration(0)
	cfg.Notifications.DispatchTimeout = config.Duration(time.Second)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}
	return cfg
}
