package model

import (
	"time"
)

// Balance 用户余额表
// 每个用户至多一行（user_id 唯一），首次充值时惰性创建
// 只能在同时追加 TransactionHistory 的事务中修改
type Balance struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"` // 最小货币单位
	Version   int       `gorm:"not null;default:0" json:"-"`       // 每次变更 +1，便于对账
	CreatedBy string    `gorm:"type:varchar(128)" json:"-"`
	UpdatedBy string    `gorm:"type:varchar(128)" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Balance) TableName() string {
	return "balances"
}
