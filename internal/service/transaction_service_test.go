package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"digiwallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = model.Identity{UserID: 7, Email: "user@example.com"}

func newTestCatalog() *fakeCatalog {
	return &fakeCatalog{services: map[string]model.Service{
		"PULSA":   {ServiceCode: "PULSA", ServiceName: "Pulsa", ServiceTariff: 3000},
		"VOUCHER": {ServiceCode: "VOUCHER", ServiceName: "Voucher Game", ServiceTariff: 5000},
	}}
}

func newTestEngine(ledger *fakeLedger, opts ...TransactionOption) *TransactionService {
	opts = append([]TransactionOption{WithInvoiceGenerator(sequentialInvoices())}, opts...)
	return NewTransactionService(ledger, newTestCatalog(), opts...)
}

func TestTopUp_CreatesBalanceOnFirstCall(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestEngine(ledger)

	balance, err := svc.TopUp(context.Background(), testIdentity, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)

	stored, ok := ledger.balanceOf(testIdentity.UserID)
	require.True(t, ok)
	assert.Equal(t, int64(5000), stored)

	require.Len(t, ledger.histories, 1)
	h := ledger.histories[0]
	assert.Equal(t, model.TransactionTypeTopUp, h.Type)
	assert.Equal(t, int64(5000), h.Amount)
	assert.Equal(t, int64(0), h.BalanceBefore)
	assert.Equal(t, int64(5000), h.BalanceAfter)
	assert.Equal(t, testIdentity.Email, h.CreatedBy)
	assert.NotEmpty(t, h.InvoiceNumber)
}

func TestTopUp_InvalidAmount(t *testing.T) {
	for _, amount := range []int64{0, -1, -5000} {
		ledger := newFakeLedger()
		svc := newTestEngine(ledger)

		_, err := svc.TopUp(context.Background(), testIdentity, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount=%d", amount)
		assert.Zero(t, ledger.txCalls)
		assert.Zero(t, ledger.readCalls)
	}
}

func TestPay(t *testing.T) {
	tests := []struct {
		name        string
		seed        *int64
		code        string
		wantErr     error
		wantBalance int64
		wantHistory int
	}{
		{name: "deducts tariff", seed: ptr(int64(5000)), code: "PULSA", wantBalance: 2000, wantHistory: 1},
		{name: "exact balance", seed: ptr(int64(3000)), code: "PULSA", wantBalance: 0, wantHistory: 1},
		{name: "insufficient funds", seed: ptr(int64(1000)), code: "VOUCHER", wantErr: ErrInsufficientFunds, wantBalance: 1000},
		{name: "unknown service", seed: ptr(int64(5000)), code: "NOPE", wantErr: ErrServiceNotFound, wantBalance: 5000},
		{name: "empty service code", seed: ptr(int64(5000)), code: "", wantErr: ErrServiceNotFound, wantBalance: 5000},
		{name: "no balance row", code: "PULSA", wantErr: ErrNoBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newFakeLedger()
			if tt.seed != nil {
				ledger.seedBalance(testIdentity.UserID, *tt.seed)
			}
			svc := newTestEngine(ledger)

			result, err := svc.Pay(context.Background(), testIdentity, tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.code, result.ServiceCode)
				assert.Equal(t, model.TransactionTypePayment, result.TransactionType)
				assert.NotEmpty(t, result.InvoiceNumber)
				assert.False(t, result.CreatedOn.IsZero())
			}

			got, _ := ledger.balanceOf(testIdentity.UserID)
			assert.Equal(t, tt.wantBalance, got)
			assert.Equal(t, tt.wantHistory, ledger.historyCount())
		})
	}
}

func TestPay_HistoryEntry(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(testIdentity.UserID, 5000)
	svc := newTestEngine(ledger)

	result, err := svc.Pay(context.Background(), testIdentity, "PULSA")
	require.NoError(t, err)
	assert.Equal(t, "Pulsa", result.ServiceName)
	assert.Equal(t, int64(3000), result.TotalAmount)

	require.Len(t, ledger.histories, 1)
	h := ledger.histories[0]
	assert.Equal(t, model.TransactionTypePayment, h.Type)
	assert.Equal(t, int64(3000), h.Amount)
	assert.Equal(t, int64(5000), h.BalanceBefore)
	assert.Equal(t, int64(2000), h.BalanceAfter)
	assert.Equal(t, "Pulsa", h.Description)
	assert.Equal(t, result.InvoiceNumber, h.InvoiceNumber)
}

func TestPay_UnknownServiceDoesNotOpenTransaction(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(testIdentity.UserID, 5000)
	svc := newTestEngine(ledger)

	_, err := svc.Pay(context.Background(), testIdentity, "NOPE")
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.Zero(t, ledger.txCalls)
}

func TestTopUp_RollsBackWhenHistoryFails(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(testIdentity.UserID, 1000)
	ledger.failHistory = errBoom
	svc := newTestEngine(ledger)

	_, err := svc.TopUp(context.Background(), testIdentity, 500)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBoom)

	got, _ := ledger.balanceOf(testIdentity.UserID)
	assert.Equal(t, int64(1000), got)
	assert.Zero(t, ledger.historyCount())
}

func TestPay_RollsBackWhenHistoryFails(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(testIdentity.UserID, 5000)
	ledger.failHistory = errBoom
	svc := newTestEngine(ledger)

	_, err := svc.Pay(context.Background(), testIdentity, "PULSA")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	got, _ := ledger.balanceOf(testIdentity.UserID)
	assert.Equal(t, int64(5000), got)
}

func TestTopUp_FirstCallRollbackLeavesNoBalanceRow(t *testing.T) {
	ledger := newFakeLedger()
	ledger.failHistory = errBoom
	svc := newTestEngine(ledger)

	_, err := svc.TopUp(context.Background(), testIdentity, 500)
	require.Error(t, err)

	_, ok := ledger.balanceOf(testIdentity.UserID)
	assert.False(t, ok)
}

func TestPay_ConcurrentPaymentsNeverOverdraw(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(testIdentity.UserID, 10000)
	svc := newTestEngine(ledger)

	const workers = 20
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Pay(context.Background(), testIdentity, "PULSA")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, workers-3, insufficient)
	got, _ := ledger.balanceOf(testIdentity.UserID)
	assert.Equal(t, int64(1000), got)
}

func TestLedger_BalanceEqualsTopUpsMinusPayments(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestEngine(ledger)
	ctx := context.Background()

	_, err := svc.TopUp(ctx, testIdentity, 1000)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.TopUp(ctx, testIdentity, 2000)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.Pay(ctx, testIdentity, "PULSA")
		}()
	}
	wg.Wait()

	var topUps, payments int64
	for _, h := range ledger.histories {
		assert.True(t, h.IsConsistent(), "invoice %s", h.InvoiceNumber)
		switch h.Type {
		case model.TransactionTypeTopUp:
			topUps += h.Amount
		case model.TransactionTypePayment:
			payments += h.Amount
		}
	}

	got, _ := ledger.balanceOf(testIdentity.UserID)
	assert.Equal(t, topUps-payments, got)
	assert.GreaterOrEqual(t, got, int64(0))
}

func TestTopUp_WritesOutboxEvent(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestEngine(ledger, WithOutboxTopic("wallet.transaction"))

	_, err := svc.TopUp(context.Background(), testIdentity, 2500)
	require.NoError(t, err)

	require.Len(t, ledger.outbox, 1)
	msg := ledger.outbox[0]
	assert.Equal(t, "wallet.transaction", msg.Topic)
	assert.Equal(t, model.OutboxStatusPending, msg.Status)
	assert.Equal(t, ledger.histories[0].InvoiceNumber, msg.MessageKey)

	var event model.TransactionEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, testIdentity.UserID, event.UserID)
	assert.Equal(t, model.TransactionTypeTopUp, event.TransactionType)
	assert.Equal(t, int64(2500), event.Amount)
	assert.Equal(t, int64(2500), event.BalanceAfter)
}

func TestTopUp_NoOutboxWithoutTopic(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestEngine(ledger)

	_, err := svc.TopUp(context.Background(), testIdentity, 2500)
	require.NoError(t, err)
	assert.Empty(t, ledger.outbox)
}

func TestUserLocker(t *testing.T) {
	t.Run("released after each operation", func(t *testing.T) {
		ledger := newFakeLedger()
		locker := &fakeLocker{}
		svc := newTestEngine(ledger, WithUserLocker(locker))

		_, err := svc.TopUp(context.Background(), testIdentity, 5000)
		require.NoError(t, err)
		_, err = svc.Pay(context.Background(), testIdentity, "VOUCHER")
		require.NoError(t, err)
		_, err = svc.Pay(context.Background(), testIdentity, "VOUCHER")
		require.ErrorIs(t, err, ErrInsufficientFunds)

		assert.Equal(t, int32(3), locker.locked.Load())
		assert.Equal(t, int32(3), locker.released.Load())
	})

	t.Run("lock failure aborts before the store", func(t *testing.T) {
		ledger := newFakeLedger()
		svc := newTestEngine(ledger, WithUserLocker(&fakeLocker{err: errBoom}))

		_, err := svc.TopUp(context.Background(), testIdentity, 5000)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.Zero(t, ledger.txCalls)
	})
}

func ptr[T any](v T) *T {
	return &v
}

func TestTopUp_RejectsBalanceOverflow(t *testing.T) {
	tests := []struct {
		name   string
		seed   int64
		amount int64
	}{
		{name: "max on top of one", seed: 1, amount: math.MaxInt64},
		{name: "one past max", seed: math.MaxInt64, amount: 1},
		{name: "large plus large", seed: math.MaxInt64 / 2, amount: math.MaxInt64/2 + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newFakeLedger()
			ledger.seedBalance(testIdentity.UserID, tt.seed)
			svc := newTestEngine(ledger)

			_, err := svc.TopUp(context.Background(), testIdentity, tt.amount)
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.NotErrorIs(t, err, ErrStoreUnavailable)

			got, _ := ledger.balanceOf(testIdentity.UserID)
			assert.Equal(t, tt.seed, got)
			assert.Zero(t, ledger.historyCount())
		})
	}
}

func TestTopUp_AllowsExactlyMaxBalance(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestEngine(ledger)

	balance, err := svc.TopUp(context.Background(), testIdentity, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), balance)

	_, err = svc.TopUp(context.Background(), testIdentity, 1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	got, _ := ledger.balanceOf(testIdentity.UserID)
	assert.Equal(t, int64(math.MaxInt64), got)
	assert.Equal(t, 1, ledger.historyCount())
}
