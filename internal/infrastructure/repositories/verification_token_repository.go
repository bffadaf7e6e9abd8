package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gemstone-market/identity/domain"
)

// VerificationTokenRepositoryImpl implements domain.VerificationTokenRepository using GORM
type VerificationTokenRepositoryImpl struct {
	db *gorm.DB
}

// NewVerificationTokenRepository creates a new verification token repository
func NewVerificationTokenRepository(db *gorm.DB) domain.VerificationTokenRepository {
	return &VerificationTokenRepositoryImpl{db: db}
}

// Create implements domain.VerificationTokenRepository
func (r *VerificationTokenRepositoryImpl) Create(ctx context.Context, token *domain.VerificationToken) error {
	dbToken := &DBVerificationToken{
		AccountID: token.AccountID,
		Token:     token.Token,
		Purpose:   string(token.Purpose),
		ExpiresAt: token.ExpiresAt,
		Used:      token.Used,
		CreatedAt: token.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(dbToken).Error; err != nil {
		return writeError("create verification token", err)
	}
	token.ID = dbToken.ID
	token.CreatedAt = dbToken.CreatedAt
	return nil
}

// InvalidateOutstanding implements domain.VerificationTokenRepository
func (r *VerificationTokenRepositoryImpl) InvalidateOutstanding(ctx context.Context, accountID uint, purpose domain.TokenPurpose, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&DBVerificationToken{}).
		Where("account_id = ? AND purpose = ? AND used = ? AND expires_at > ?", accountID, string(purpose), false, now).
		Update("used", true)
	if res.Error != nil {
		return 0, storageError("invalidate verification tokens", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkUsed implements domain.VerificationTokenRepository. The flip is
// conditional on used=false so two concurrent consumers cannot both win.
func (r *VerificationTokenRepositoryImpl) MarkUsed(ctx context.Context, token string, purpose domain.TokenPurpose, now time.Time) (uint, error) {
	var dbToken DBVerificationToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND purpose = ?", token, string(purpose)).
		First(&dbToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrInvalidToken
		}
		return 0, storageError("load verification token", err)
	}
	if dbToken.Used || !now.Before(dbToken.ExpiresAt) {
		return 0, domain.ErrInvalidToken
	}

	res := r.db.WithContext(ctx).Model(&DBVerificationToken{}).
		Where("id = ? AND used = ?", dbToken.ID, false).
		Update("used", true)
	if res.Error != nil {
		return 0, storageError("consume verification token", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrInvalidToken
	}
	return dbToken.AccountID, nil
}

// CountCreatedSince implements domain.VerificationTokenRepository
func (r *VerificationTokenRepositoryImpl) CountCreatedSince(ctx context.Context, accountID uint, purpose domain.TokenPurpose, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DBVerificationToken{}).
		Where("account_id = ? AND purpose = ? AND created_at >= ?", accountID, string(purpose), since).
		Count(&count).Error
	if err != nil {
		return 0, storageError("count verification tokens", err)
	}
	return count, nil
}

// ListOutstanding implements domain.VerificationTokenRepository
func (r *VerificationTokenRepositoryImpl) ListOutstanding(ctx context.Context, accountID uint, purpose domain.TokenPurpose, now time.Time) ([]domain.VerificationToken, error) {
	var dbTokens []DBVerificationToken
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND purpose = ? AND used = ? AND expires_at > ?", accountID, string(purpose), false, now).
		Order("created_at").
		Find(&dbTokens).Error
	if err != nil {
		return nil, storageError("list verification tokens", err)
	}

	tokens := make([]domain.VerificationToken, 0, len(dbTokens))
	for i := range dbTokens {
		tokens = append(tokens, tokenToDomain(&dbTokens[i]))
	}
	return tokens, nil
}

// DeleteStale implements domain.VerificationTokenRepository. Rows that expired,
// or were consumed, before the horizon are removed.
func (r *VerificationTokenRepositoryImpl) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR (used = ? AND created_at < ?)", before, true, before).
		Delete(&DBVerificationToken{})
	if res.Error != nil {
		return 0, storageError("delete stale verification tokens", res.Error)
	}
	return res.RowsAffected, nil
}
