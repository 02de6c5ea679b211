package repository

import (
	"context"

	"digiwallet/internal/model"

	"gorm.io/gorm"
)

// LedgerTx 单个账务事务内可执行的操作
// 余额变更、流水追加与发件箱写入必须经由同一个 LedgerTx 完成
type LedgerTx interface {
	EnsureBalance(ctx context.Context, userID int64, actor string) (*model.Balance, error)
	LockBalance(ctx context.Context, userID int64) (*model.Balance, error)
	SetBalance(ctx context.Context, balanceID, value int64, actor string) error
	AppendHistory(ctx context.Context, history *model.TransactionHistory) error
	EnqueueOutbox(ctx context.Context, msg *model.OutboxMessage) error
}

// LedgerRepository 账务事务入口，组合余额、流水、发件箱仓储
type LedgerRepository struct {
	db          *gorm.DB
	balanceRepo *BalanceRepository
	txRepo      *TransactionRepository
	outboxRepo  *OutboxRepository
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{
		db:          db,
		balanceRepo: NewBalanceRepository(db),
		txRepo:      NewTransactionRepository(db),
		outboxRepo:  NewOutboxRepository(db),
	}
}

// ExecuteInTransaction fn 返回错误时整体回滚，否则提交
func (r *LedgerRepository) ExecuteInTransaction(ctx context.Context, fn func(tx LedgerTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{repo: r, tx: tx})
	})
}

// GetBalanceByUserID 事务外的非锁定读
func (r *LedgerRepository) GetBalanceByUserID(ctx context.Context, userID int64) (*model.Balance, error) {
	return r.balanceRepo.GetByUserID(ctx, userID)
}

type ledgerTx struct {
	repo *LedgerRepository
	tx   *gorm.DB
}

func (t *ledgerTx) EnsureBalance(ctx context.Context, userID int64, actor string) (*model.Balance, error) {
	return t.repo.balanceRepo.EnsureForUpdate(ctx, t.tx, userID, actor)
}

func (t *ledgerTx) LockBalance(ctx context.Context, userID int64) (*model.Balance, error) {
	return t.repo.balanceRepo.GetByUserIDForUpdate(ctx, t.tx, userID)
}

func (t *ledgerTx) SetBalance(ctx context.Context, balanceID, value int64, actor string) error {
	return t.repo.balanceRepo.SetValue(ctx, t.tx, balanceID, value, actor)
}

func (t *ledgerTx) AppendHistory(ctx context.Context, history *model.TransactionHistory) error {
	return t.repo.txRepo.Create(ctx, t.tx, history)
}

func (t *ledgerTx) EnqueueOutbox(ctx context.Context, msg *model.OutboxMessage) error {
	return t.repo.outboxRepo.Enqueue(ctx, t.tx, msg)
}
