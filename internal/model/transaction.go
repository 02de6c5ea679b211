package model

import (
	"time"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeTopUp   = "TOPUP"   // 充值
	TransactionTypePayment = "PAYMENT" // 服务支付
)

// ============================================================================
// 交易流水实体
// ============================================================================

// TransactionHistory 交易流水表
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除
// 2. 记录交易前后余额，TOPUP: after = before + amount；PAYMENT: after = before - amount
// 3. balance_after 必须等于提交时 Balance 行的值
type TransactionHistory struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	BalanceID     int64     `gorm:"index;not null" json:"-"`
	InvoiceNumber string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"invoice_number"`
	Amount        int64     `gorm:"not null" json:"total_amount"` // 恒为正数，方向由 Type 决定
	BalanceBefore int64     `gorm:"not null" json:"-"`
	BalanceAfter  int64     `gorm:"not null" json:"-"`
	Type          string    `gorm:"type:varchar(20);not null" json:"transaction_type"`
	ServiceCode   string    `gorm:"type:varchar(32)" json:"-"`
	Description   string    `gorm:"type:varchar(256)" json:"description"`
	CreatedBy     string    `gorm:"type:varchar(128)" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_on"`
}

func (TransactionHistory) TableName() string {
	return "transaction_histories"
}

// IsConsistent 校验前后余额与金额、类型是否匹配
func (h *TransactionHistory) IsConsistent() bool {
	if h.Amount <= 0 {
		return false
	}
	switch h.Type {
	case TransactionTypeTopUp:
		return h.BalanceAfter-h.BalanceBefore == h.Amount
	case TransactionTypePayment:
		return h.BalanceBefore-h.BalanceAfter == h.Amount
	default:
		return false
	}
}
