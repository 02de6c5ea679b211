package service

import (
	"context"
	"fmt"

	"digiwallet/internal/model"
)

type HistoryStore interface {
	ListByUserID(ctx context.Context, userID int64, limit, offset *int) ([]model.TransactionHistory, error)
}

type HistoryService struct {
	store HistoryStore
}

func NewHistoryService(store HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// ListHistory 按时间倒序返回流水
// limit 为 nil 返回全部；没有任何流水时返回 ErrHistoryNotFound
func (s *HistoryService) ListHistory(ctx context.Context, userID int64, limit, offset *int) ([]model.TransactionHistory, error) {
	if limit != nil && *limit < 0 {
		return nil, fmt.Errorf("limit 不能为负数: %d", *limit)
	}
	if offset != nil && *offset < 0 {
		return nil, fmt.Errorf("offset 不能为负数: %d", *offset)
	}

	histories, err := s.store.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(histories) == 0 {
		return nil, ErrHistoryNotFound
	}
	return histories, nil
}
