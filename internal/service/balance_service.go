package service

import (
	"context"
	"errors"
	"fmt"

	"digiwallet/internal/repository"
)

type BalanceService struct {
	store LedgerStore
}

func NewBalanceService(store LedgerStore) *BalanceService {
	return &BalanceService{store: store}
}

// GetBalance 查询余额，尚未充值过的用户返回 0
func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	balance, err := s.store.GetBalanceByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return balance.Balance, nil
}
