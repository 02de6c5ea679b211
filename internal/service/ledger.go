package service

import (
	"context"

	"digiwallet/internal/model"
	"digiwallet/internal/repository"
)

// LedgerStore 账务存储，由 repository.LedgerRepository 实现
type LedgerStore interface {
	ExecuteInTransaction(ctx context.Context, fn func(tx repository.LedgerTx) error) error
	GetBalanceByUserID(ctx context.Context, userID int64) (*model.Balance, error)
}

// ServiceCatalog 服务目录查询，未找到返回 ErrServiceNotFound
type ServiceCatalog interface {
	GetService(ctx context.Context, code string) (*model.Service, error)
}

// UserLocker 按用户加锁，返回的函数用于释放
type UserLocker interface {
	LockUser(ctx context.Context, userID int64) (func(), error)
}
