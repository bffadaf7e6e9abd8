package migrations

import (
	"context"
	"database/sql"
	"time"
)

// Snapshot of the schema at version 1. Later versions add new snapshot types
// instead of editing these.

type account struct {
	ID                  uint   `gorm:"primaryKey"`
	Email               string `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash        string `gorm:"size:255;not null"`
	FirstName           string `gorm:"size:100"`
	LastName            string `gorm:"size:100"`
	Phone               string `gorm:"size:32"`
	Status              string `gorm:"size:16;not null;index"`
	EmailVerified       bool   `gorm:"not null;default:false"`
	TwoFactorSecret     string `gorm:"size:512"`
	TwoFactorEnabled    bool   `gorm:"not null;default:false"`
	RefreshToken        string `gorm:"size:1024"`
	PasswordResetToken  string `gorm:"size:128"`
	PasswordResetExpiry *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (account) TableName() string { return "accounts" }

type role struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:64;not null;uniqueIndex"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (role) TableName() string { return "roles" }

type permission struct {
	ID        uint      `gorm:"primaryKey"`
	Resource  string    `gorm:"size:64;not null;uniqueIndex:idx_permissions_pair"`
	Action    string    `gorm:"size:64;not null;uniqueIndex:idx_permissions_pair"`
	CreatedAt time.Time `gorm:"not null"`
}

func (permission) TableName() string { return "permissions" }

type accountRole struct {
	AccountID uint      `gorm:"primaryKey"`
	RoleID    uint      `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (accountRole) TableName() string { return "account_roles" }

type rolePermission struct {
	RoleID       uint      `gorm:"primaryKey"`
	PermissionID uint      `gorm:"primaryKey;index"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (rolePermission) TableName() string { return "role_permissions" }

type verificationToken struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID uint      `gorm:"not null;index:idx_verification_tokens_owner"`
	Token     string    `gorm:"size:64;not null;uniqueIndex"`
	Purpose   string    `gorm:"size:32;not null;index:idx_verification_tokens_owner"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Used      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (verificationToken) TableName() string { return "verification_tokens" }

func upIdentitySchema(driver string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		gormDB, err := openOnTx(driver, tx)
		if err != nil {
			return err
		}
		return gormDB.WithContext(ctx).AutoMigrate(
			&account{},
			&role{},
			&permission{},
			&accountRole{},
			&rolePermission{},
			&verificationToken{},
		)
	}
}

func downIdentitySchema(driver string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		gormDB, err := openOnTx(driver, tx)
		if err != nil {
			return err
		}
		return gormDB.WithContext(ctx).Migrator().DropTable(
			&verificationToken{},
			&rolePermission{},
			&accountRole{},
			&permission{},
			&role{},
			&account{},
		)
	}
}
