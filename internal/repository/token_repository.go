package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kenacbank/auth-service/internal/domain"
	"github.com/kenacbank/auth-service/internal/observability"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository is the ledger of issued access tokens. The ledger is the
// authority for revocation; the token's own expiry claim is the authority
// for expiry. Rows are only ever flagged, never deleted.
type TokenRepository interface {
	Record(token string, userID uint) (*domain.UserToken, error)
	InvalidateAllActive(userID uint) (int64, error)
	IsCurrentlyValid(token string) (bool, error)
	FindByToken(token string) (*domain.UserToken, error)
	ListActiveByUserID(userID uint) ([]domain.UserToken, error)
}

type GormTokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) TokenRepository { return &GormTokenRepository{db: db} }

// Record inserts a fresh active ledger row, or resets the flags in place
// when the exact token string was already recorded (re-issuance).
func (r *GormTokenRepository) Record(token string, userID uint) (*domain.UserToken, error) {
	var rec domain.UserToken
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("token = ?", token).First(&rec).Error
		if err == nil {
			rec.Expired = false
			rec.Revoked = false
			return tx.Model(&rec).Updates(map[string]any{"expired": false, "revoked": false}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		rec = domain.UserToken{
			Token:     token,
			TokenType: domain.TokenTypeBearer,
			Expired:   false,
			Revoked:   false,
			UserID:    userID,
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user_token", "record", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user_token", "record", "success")
	return &rec, nil
}

// InvalidateAllActive flags every active token of the user as both revoked
// and expired in one batch update. Returns the number of rows touched.
func (r *GormTokenRepository) InvalidateAllActive(userID uint) (int64, error) {
	res := r.db.Model(&domain.UserToken{}).
		Where("user_id = ? AND revoked = ? AND expired = ?", userID, false, false).
		Updates(map[string]any{"revoked": true, "expired": true})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user_token", "invalidate_all_active", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "user_token", "invalidate_all_active", "success")
	return res.RowsAffected, nil
}

// IsCurrentlyValid reports whether a ledger row exists for the token with
// both flags clear. An unknown token is simply invalid, not an error.
func (r *GormTokenRepository) IsCurrentlyValid(token string) (bool, error) {
	var rec domain.UserToken
	err := r.db.Select("id", "revoked", "expired").Where("token = ?", token).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user_token", "is_currently_valid", "not_found")
			return false, nil
		}
		observability.RecordRepositoryOperation(context.Background(), "user_token", "is_currently_valid", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user_token", "is_currently_valid", "success")
	return !rec.Revoked && !rec.Expired, nil
}

func (r *GormTokenRepository) FindByToken(token string) (*domain.UserToken, error) {
	var rec domain.UserToken
	err := r.db.Preload("User").Where("token = ?", token).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user_token", "find_by_token", "not_found")
			return nil, ErrTokenNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user_token", "find_by_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user_token", "find_by_token", "success")
	return &rec, nil
}

func (r *GormTokenRepository) ListActiveByUserID(userID uint) ([]domain.UserToken, error) {
	var tokens []domain.UserToken
	err := r.db.Where("user_id = ? AND revoked = ? AND expired = ?", userID, false, false).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user_token", "list_active_by_user_id", "error")
		return tokens, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user_token", "list_active_by_user_id", "success")
	return tokens, nil
}
