package repositories

import (
	"time"

	"github.com/gemstone-market/identity/domain"
)

// DBAccount represents the database model for Account (with GORM tags)
type DBAccount struct {
	ID                  uint   `gorm:"primaryKey"`
	Email               string `gorm:"uniqueIndex;size:255"`
	PasswordHash        string `gorm:"size:255"`
	FirstName           string `gorm:"size:100"`
	LastName            string `gorm:"size:100"`
	Phone               string `gorm:"size:32"`
	Status              string `gorm:"index;size:16"`
	EmailVerified       bool
	TwoFactorSecret     string `gorm:"size:512"`
	TwoFactorEnabled    bool
	RefreshToken        string `gorm:"size:1024"`
	PasswordResetToken  string `gorm:"size:128"`
	PasswordResetExpiry *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName returns the table name for GORM
func (DBAccount) TableName() string { return "accounts" }

type DBRole struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;size:64"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (DBRole) TableName() string { return "roles" }

type DBPermission struct {
	ID        uint   `gorm:"primaryKey"`
	Resource  string `gorm:"size:64;uniqueIndex:idx_permissions_pair"`
	Action    string `gorm:"size:64;uniqueIndex:idx_permissions_pair"`
	CreatedAt time.Time
}

func (DBPermission) TableName() string { return "permissions" }

type DBAccountRole struct {
	AccountID uint `gorm:"primaryKey"`
	RoleID    uint `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (DBAccountRole) TableName() string { return "account_roles" }

type DBRolePermission struct {
	RoleID       uint `gorm:"primaryKey"`
	PermissionID uint `gorm:"primaryKey"`
	CreatedAt    time.Time
}

func (DBRolePermission) TableName() string { return "role_permissions" }

type DBVerificationToken struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID uint      `gorm:"index:idx_verification_tokens_owner"`
	Token     string    `gorm:"uniqueIndex;size:64"`
	Purpose   string    `gorm:"size:32;index:idx_verification_tokens_owner"`
	ExpiresAt time.Time `gorm:"index"`
	Used      bool
	CreatedAt time.Time `gorm:"index"`
}

func (DBVerificationToken) TableName() string { return "verification_tokens" }

func accountToDB(a *domain.Account) *DBAccount {
	return &DBAccount{
		ID:                  a.ID,
		Email:               a.Email,
		PasswordHash:        a.PasswordHash,
		FirstName:           a.FirstName,
		LastName:            a.LastName,
		Phone:               a.Phone,
		Status:              string(a.Status),
		EmailVerified:       a.EmailVerified,
		TwoFactorSecret:     a.TwoFactorSecret,
		TwoFactorEnabled:    a.TwoFactorEnabled,
		RefreshToken:        a.RefreshToken,
		PasswordResetToken:  a.PasswordResetToken,
		PasswordResetExpiry: a.PasswordResetExpiry,
		LastLoginAt:         a.LastLoginAt,
	}
}

func accountToDomain(a *DBAccount) *domain.Account {
	return &domain.Account{
		ID:                  a.ID,
		Email:               a.Email,
		PasswordHash:        a.PasswordHash,
		FirstName:           a.FirstName,
		LastName:            a.LastName,
		Phone:               a.Phone,
		Status:              domain.AccountStatus(a.Status),
		EmailVerified:       a.EmailVerified,
		TwoFactorSecret:     a.TwoFactorSecret,
		TwoFactorEnabled:    a.TwoFactorEnabled,
		RefreshToken:        a.RefreshToken,
		PasswordResetToken:  a.PasswordResetToken,
		PasswordResetExpiry: a.PasswordResetExpiry,
		LastLoginAt:         a.LastLoginAt,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func tokenToDomain(t *DBVerificationToken) domain.VerificationToken {
	return domain.VerificationToken{
		ID:        t.ID,
		AccountID: t.AccountID,
		Token:     t.Token,
		Purpose:   domain.TokenPurpose(t.Purpose),
		ExpiresAt: t.ExpiresAt,
		Used:      t.Used,
		CreatedAt: t.CreatedAt,
	}
}
