package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"digiwallet/internal/model"
	"digiwallet/internal/repository"
)

// fakeLedger 内存账务存储
// 事务之间完全串行，等价于对余额行加锁；fn 返回错误时丢弃工作副本
type fakeLedger struct {
	mu        sync.Mutex
	balances  map[int64]model.Balance // userID -> balance
	histories []model.TransactionHistory
	outbox    []model.OutboxMessage
	nextID    int64

	failHistory error
	failLock    error

	txCalls   int
	readCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[int64]model.Balance)}
}

func (f *fakeLedger) seedBalance(userID, value int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.balances[userID] = model.Balance{ID: f.nextID, UserID: userID, Balance: value}
}

func (f *fakeLedger) balanceOf(userID int64) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[userID]
	return b.Balance, ok
}

func (f *fakeLedger) historyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.histories)
}

func (f *fakeLedger) ExecuteInTransaction(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCalls++

	tx := &fakeTx{ledger: f, balances: make(map[int64]model.Balance, len(f.balances)), nextID: f.nextID}
	for k, v := range f.balances {
		tx.balances[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}

	f.balances = tx.balances
	f.nextID = tx.nextID
	f.histories = append(f.histories, tx.histories...)
	f.outbox = append(f.outbox, tx.outbox...)
	return nil
}

func (f *fakeLedger) GetBalanceByUserID(ctx context.Context, userID int64) (*model.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls++
	b, ok := f.balances[userID]
	if !ok {
		return nil, repository.ErrBalanceNotFound
	}
	return &b, nil
}

type fakeTx struct {
	ledger    *fakeLedger
	balances  map[int64]model.Balance
	histories []model.TransactionHistory
	outbox    []model.OutboxMessage
	nextID    int64
}

func (t *fakeTx) EnsureBalance(ctx context.Context, userID int64, actor string) (*model.Balance, error) {
	if _, ok := t.balances[userID]; !ok {
		t.nextID++
		t.balances[userID] = model.Balance{ID: t.nextID, UserID: userID, CreatedBy: actor}
	}
	return t.LockBalance(ctx, userID)
}

func (t *fakeTx) LockBalance(ctx context.Context, userID int64) (*model.Balance, error) {
	if t.ledger.failLock != nil {
		return nil, t.ledger.failLock
	}
	b, ok := t.balances[userID]
	if !ok {
		return nil, repository.ErrBalanceNotFound
	}
	return &b, nil
}

func (t *fakeTx) SetBalance(ctx context.Context, balanceID, value int64, actor string) error {
	for userID, b := range t.balances {
		if b.ID == balanceID {
			b.Balance = value
			b.Version++
			b.UpdatedBy = actor
			t.balances[userID] = b
			return nil
		}
	}
	return repository.ErrBalanceNotFound
}

func (t *fakeTx) AppendHistory(ctx context.Context, history *model.TransactionHistory) error {
	if t.ledger.failHistory != nil {
		return t.ledger.failHistory
	}
	for _, group := range [][]model.TransactionHistory{t.ledger.histories, t.histories} {
		for _, h := range group {
			if h.InvoiceNumber == history.InvoiceNumber {
				return fmt.Errorf("duplicate invoice %s", history.InvoiceNumber)
			}
		}
	}
	t.nextID++
	history.ID = t.nextID
	t.histories = append(t.histories, *history)
	return nil
}

func (t *fakeTx) EnqueueOutbox(ctx context.Context, msg *model.OutboxMessage) error {
	t.nextID++
	msg.ID = t.nextID
	t.outbox = append(t.outbox, *msg)
	return nil
}

type fakeCatalog struct {
	services map[string]model.Service
	err      error
}

func (c *fakeCatalog) GetService(ctx context.Context, code string) (*model.Service, error) {
	if c.err != nil {
		return nil, c.err
	}
	svc, ok := c.services[code]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &svc, nil
}

type fakeLocker struct {
	locked   atomic.Int32
	released atomic.Int32
	err      error
}

func (l *fakeLocker) LockUser(ctx context.Context, userID int64) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked.Add(1)
	return func() { l.released.Add(1) }, nil
}

// sequentialInvoices 并发测试中避免随机后缀碰撞
func sequentialInvoices() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("INV-TEST-%06d", n.Add(1))
	}
}

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64
	err    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*model.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeUserStore) UpdateName(ctx context.Context, id int64, firstName, lastName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.FirstName, u.LastName = firstName, lastName
	return nil
}

func (s *fakeUserStore) UpdateProfileImage(ctx context.Context, id int64, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ProfileImage = imageURL
	return nil
}

var errBoom = errors.New("boom")
