package repository

import (
	"context"

	"digiwallet/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create 追加流水，只能在余额变更的事务内调用
func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, history *model.TransactionHistory) error {
	return tx.WithContext(ctx).Create(history).Error
}

// ListByUserID 按创建时间倒序查询用户流水
// limit 为 nil 时返回全部；offset 仅在指定 limit 时生效
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, limit, offset *int) ([]model.TransactionHistory, error) {
	query := r.db.WithContext(ctx).
		Model(&model.TransactionHistory{}).
		Select("transaction_histories.*").
		Joins("JOIN balances ON balances.id = transaction_histories.balance_id").
		Joins("JOIN users ON users.id = balances.user_id").
		Where("users.id = ?", userID).
		Order("transaction_histories.created_at DESC").
		Order("transaction_histories.id DESC")

	if limit != nil {
		query = query.Limit(*limit)
		if offset != nil {
			query = query.Offset(*offset)
		}
	}

	var histories []model.TransactionHistory
	if err := query.Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}
