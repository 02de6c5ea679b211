package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"digiwallet/internal/model"
	"digiwallet/internal/repository"
	"digiwallet/pkg/idgen"
)

// TransactionService 充值与支付
//
// 每次余额变更都在一个事务内完成：锁定余额行 → 校验 → 写余额 → 追加流水 → 写发件箱
// 余额行使用 SELECT ... FOR UPDATE，同一用户的变更在存储层串行
type TransactionService struct {
	store   LedgerStore
	catalog ServiceCatalog
	locker  UserLocker
	invoice func() string
	eventID func() int64
	topic   string
	now     func() time.Time
}

type TransactionOption func(*TransactionService)

// WithUserLocker 在行锁之外再加一层 Redis 用户锁
func WithUserLocker(locker UserLocker) TransactionOption {
	return func(s *TransactionService) {
		s.locker = locker
	}
}

// WithOutboxTopic 设置后每笔交易在同一事务内写入发件箱
func WithOutboxTopic(topic string) TransactionOption {
	return func(s *TransactionService) {
		s.topic = topic
	}
}

func WithInvoiceGenerator(gen func() string) TransactionOption {
	return func(s *TransactionService) {
		s.invoice = gen
	}
}

func NewTransactionService(store LedgerStore, catalog ServiceCatalog, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{
		store:   store,
		catalog: catalog,
		invoice: idgen.GenerateInvoiceNo,
		eventID: idgen.NextID,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PaymentResult 支付结果
type PaymentResult struct {
	InvoiceNumber   string    `json:"invoice_number"`
	ServiceCode     string    `json:"service_code"`
	ServiceName     string    `json:"service_name"`
	TransactionType string    `json:"transaction_type"`
	TotalAmount     int64     `json:"total_amount"`
	CreatedOn       time.Time `json:"created_on"`
}

// TopUp 充值，返回新余额
// 余额行不存在时在同一事务内创建
func (s *TransactionService) TopUp(ctx context.Context, identity model.Identity, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	unlock, err := s.lockUser(ctx, identity.UserID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var newBalance int64
	err = s.store.ExecuteInTransaction(ctx, func(tx repository.LedgerTx) error {
		balance, err := tx.EnsureBalance(ctx, identity.UserID, identity.Email)
		if err != nil {
			return fmt.Errorf("锁定余额失败: %w", err)
		}

		if amount > math.MaxInt64-balance.Balance {
			return fmt.Errorf("%w: 充值后余额超出上限", ErrInvalidAmount)
		}
		newBalance = balance.Balance + amount
		history := &model.TransactionHistory{
			BalanceID:     balance.ID,
			InvoiceNumber: s.invoice(),
			Amount:        amount,
			BalanceBefore: balance.Balance,
			BalanceAfter:  newBalance,
			Type:          model.TransactionTypeTopUp,
			Description:   "余额充值",
			CreatedBy:     identity.Email,
			CreatedAt:     s.now(),
		}
		return s.apply(ctx, tx, identity, balance, history)
	})
	if err != nil {
		return 0, storeError(err)
	}

	log.Printf("[Wallet] 充值成功: userID=%d, amount=%d, balance=%d", identity.UserID, amount, newBalance)
	return newBalance, nil
}

// Pay 按服务资费扣款
// 充足性校验与扣款基于同一份加锁读取的余额
func (s *TransactionService) Pay(ctx context.Context, identity model.Identity, serviceCode string) (*PaymentResult, error) {
	if serviceCode == "" {
		return nil, ErrServiceNotFound
	}

	if _, err := s.store.GetBalanceByUserID(ctx, identity.UserID); err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			return nil, ErrNoBalance
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	svc, err := s.catalog.GetService(ctx, serviceCode)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	unlock, err := s.lockUser(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var history *model.TransactionHistory
	err = s.store.ExecuteInTransaction(ctx, func(tx repository.LedgerTx) error {
		balance, err := tx.LockBalance(ctx, identity.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrBalanceNotFound) {
				return ErrNoBalance
			}
			return fmt.Errorf("锁定余额失败: %w", err)
		}
		if balance.Balance < svc.ServiceTariff {
			return ErrInsufficientFunds
		}

		history = &model.TransactionHistory{
			BalanceID:     balance.ID,
			InvoiceNumber: s.invoice(),
			Amount:        svc.ServiceTariff,
			BalanceBefore: balance.Balance,
			BalanceAfter:  balance.Balance - svc.ServiceTariff,
			Type:          model.TransactionTypePayment,
			ServiceCode:   svc.ServiceCode,
			Description:   svc.ServiceName,
			CreatedBy:     identity.Email,
			CreatedAt:     s.now(),
		}
		return s.apply(ctx, tx, identity, balance, history)
	})
	if err != nil {
		return nil, storeError(err)
	}

	log.Printf("[Wallet] 支付成功: userID=%d, service=%s, invoice=%s, amount=%d",
		identity.UserID, svc.ServiceCode, history.InvoiceNumber, history.Amount)

	return &PaymentResult{
		InvoiceNumber:   history.InvoiceNumber,
		ServiceCode:     svc.ServiceCode,
		ServiceName:     svc.ServiceName,
		TransactionType: model.TransactionTypePayment,
		TotalAmount:     history.Amount,
		CreatedOn:       history.CreatedAt,
	}, nil
}

// apply 写余额、追加流水、写发件箱，任一步失败由调用方的事务回滚
func (s *TransactionService) apply(ctx context.Context, tx repository.LedgerTx, identity model.Identity, balance *model.Balance, history *model.TransactionHistory) error {
	if !history.IsConsistent() {
		return fmt.Errorf("流水前后余额不一致: invoice=%s", history.InvoiceNumber)
	}
	if err := tx.SetBalance(ctx, balance.ID, history.BalanceAfter, identity.Email); err != nil {
		return fmt.Errorf("更新余额失败: %w", err)
	}
	if err := tx.AppendHistory(ctx, history); err != nil {
		return fmt.Errorf("记录流水失败: %w", err)
	}
	if s.topic == "" {
		return nil
	}

	payload, err := json.Marshal(model.TransactionEvent{
		EventID:         s.eventID(),
		InvoiceNumber:   history.InvoiceNumber,
		UserID:          identity.UserID,
		TransactionType: history.Type,
		ServiceCode:     history.ServiceCode,
		Amount:          history.Amount,
		BalanceBefore:   history.BalanceBefore,
		BalanceAfter:    history.BalanceAfter,
		CreatedOn:       history.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("序列化交易事件失败: %w", err)
	}
	msg := &model.OutboxMessage{
		MessageKey: history.InvoiceNumber,
		Topic:      s.topic,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := tx.EnqueueOutbox(ctx, msg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}

func (s *TransactionService) lockUser(ctx context.Context, userID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.LockUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return unlock, nil
}

// storeError 业务错误原样返回，其余归为 ErrStoreUnavailable
func storeError(err error) error {
	switch {
	case errors.Is(err, ErrNoBalance), errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInvalidAmount):
		return err
	default:
		log.Printf("[Wallet] 事务失败，已回滚: %v", err)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
