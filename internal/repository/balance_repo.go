package repository

import (
	"context"
	"errors"

	"digiwallet/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetByUserID 非锁定读，用于余额查询与事务前的存在性校验
func (r *BalanceRepository) GetByUserID(ctx context.Context, userID int64) (*model.Balance, error) {
	var balance model.Balance
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// GetByUserIDForUpdate 在事务内对余额行加排他锁（SELECT ... FOR UPDATE）
// 锁持有到事务提交或回滚
func (r *BalanceRepository) GetByUserIDForUpdate(ctx context.Context, tx *gorm.DB, userID int64) (*model.Balance, error) {
	var balance model.Balance
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// EnsureForUpdate 不存在则创建值为0的余额行，然后加锁读取
// 插入使用 ON CONFLICT DO NOTHING，并发首次充值只会留下一行
func (r *BalanceRepository) EnsureForUpdate(ctx context.Context, tx *gorm.DB, userID int64, actor string) (*model.Balance, error) {
	newBalance := &model.Balance{
		UserID:    userID,
		Balance:   0,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(newBalance).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUserIDForUpdate(ctx, tx, userID)
}

// SetValue 写入新余额，调用方必须已持有该行的锁
func (r *BalanceRepository) SetValue(ctx context.Context, tx *gorm.DB, balanceID, value int64, actor string) error {
	result := tx.WithContext(ctx).
		Model(&model.Balance{}).
		Where("id = ?", balanceID).
		Updates(map[string]interface{}{
			"balance":    value,
			"version":    gorm.Expr("version + 1"),
			"updated_by": actor,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBalanceNotFound
	}
	return nil
}
