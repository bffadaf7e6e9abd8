package repositories

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/infrastructure/database"
)

// setupTestDB creates a migrated in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(database.Options{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func createAccount(t *testing.T, db *gorm.DB, email string) *domain.Account {
	t.Helper()

	account := &domain.Account{
		Email:        email,
		PasswordHash: "hashed_password",
		Status:       domain.StatusPending,
	}
	if err := NewAccountRepository(db).Create(context.Background(), account); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return account
}
