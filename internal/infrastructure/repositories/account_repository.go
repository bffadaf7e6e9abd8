package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gemstone-market/identity/domain"
)

// AccountRepositoryImpl implements domain.AccountRepository using GORM
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create implements domain.AccountRepository
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	dbAccount := accountToDB(account)
	if err := r.db.WithContext(ctx).Create(dbAccount).Error; err != nil {
		return writeError("create account", err)
	}
	account.ID = dbAccount.ID
	account.CreatedAt = dbAccount.CreatedAt
	account.UpdatedAt = dbAccount.UpdatedAt
	return nil
}

// FindByID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "email = ?", email)
}

// LockForUpdate implements domain.AccountRepository. SQLite has no row locks
// and serializes writers instead; the driver drops the clause.
func (r *AccountRepositoryImpl) LockForUpdate(ctx context.Context, id uint) error {
	var dbAccount DBAccount
	err := r.lockQuery(ctx, id, &dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return storageError("lock account", err)
	}
	return nil
}

func (r *AccountRepositoryImpl) lockQuery(ctx context.Context, id uint, dest *DBAccount) *gorm.DB {
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		Take(dest)
}

func (r *AccountRepositoryImpl) findOne(ctx context.Context, query string, arg interface{}) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where(query, arg).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storageError("load account", err)
	}
	return accountToDomain(&dbAccount), nil
}

// UpdatePassword implements domain.AccountRepository. Any outstanding reset
// token mirrored on the account is cleared with it.
func (r *AccountRepositoryImpl) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.update(ctx, id, map[string]interface{}{
		"password_hash":         hash,
		"password_reset_token":  "",
		"password_reset_expiry": nil,
	})
}

// UpdateStatus implements domain.AccountRepository
func (r *AccountRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status domain.AccountStatus, emailVerified bool) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":         string(status),
		"email_verified": emailVerified,
	})
}

// SetRefreshToken implements domain.AccountRepository
func (r *AccountRepositoryImpl) SetRefreshToken(ctx context.Context, id uint, token string) error {
	return r.update(ctx, id, map[string]interface{}{"refresh_token": token})
}

// SwapRefreshToken implements domain.AccountRepository
func (r *AccountRepositoryImpl) SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&DBAccount{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", next)
	if res.Error != nil {
		return false, storageError("rotate refresh token", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// SetPasswordReset implements domain.AccountRepository
func (r *AccountRepositoryImpl) SetPasswordReset(ctx context.Context, id uint, token string, expiresAt time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"password_reset_token":  token,
		"password_reset_expiry": expiresAt,
	})
}

// TouchLastLogin implements domain.AccountRepository
func (r *AccountRepositoryImpl) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"last_login_at": at})
}

// SetTwoFactor implements domain.AccountRepository
func (r *AccountRepositoryImpl) SetTwoFactor(ctx context.Context, id uint, sealedSecret string, enabled bool) error {
	return r.update(ctx, id, map[string]interface{}{
		"two_factor_secret":  sealedSecret,
		"two_factor_enabled": enabled,
	})
}

func (r *AccountRepositoryImpl) update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return storageError("update account", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
