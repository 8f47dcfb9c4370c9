package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"microtask/internal/domain"
	apperrors "microtask/internal/errors"
	"microtask/internal/notify"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLedger(t *testing.T) (*LedgerService, *flakyStore, *capturingNotifier) {
	t.Helper()
	store, guard := setupStore(t)
	notifier := &capturingNotifier{}
	ledger := NewLedgerService(guard, domain.DefaultWithdrawalPolicy(), notifier, nil)
	t.Cleanup(func() { ledger.Close() })
	return ledger, store, notifier
}

func TestLedger_EnsureAccount(t *testing.T) {
	ledger, store, _ := setupLedger(t)
	ctx := context.Background()

	acct, err := ledger.EnsureAccount(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, domain.UserAccount{}, acct)

	_, err = ledger.Credit(ctx, "1001", 700)
	require.NoError(t, err)

	// Second contact keeps the existing account
	acct, err = ledger.EnsureAccount(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, int64(700), acct.Balance)

	accounts, err := store.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestLedger_GetBalance(t *testing.T) {
	ledger, store, _ := setupLedger(t)
	ctx := context.Background()
	seedAccounts(t, store, domain.Accounts{"1001": {Balance: 1200}})

	tests := []struct {
		name   string
		userID string
		want   int64
	}{
		{"known user", "1001", 1200},
		{"unknown user", "9999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := ledger.GetBalance(ctx, tt.userID)
			require.NoError(t, err)
			second, err := ledger.GetBalance(ctx, tt.userID)
			require.NoError(t, err)

			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, second)
		})
	}

	// Reading never creates an account
	accounts, err := store.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.NotContains(t, accounts, "9999")
}

func TestLedger_IsWithdrawalEligible(t *testing.T) {
	ledger, store, _ := setupLedger(t)
	ctx := context.Background()
	seedAccounts(t, store, domain.Accounts{
		"first-below":  {Balance: 999},
		"first-exact":  {Balance: 1000},
		"repeat-below": {Balance: 4999, WithdrawCount: 1},
		"repeat-exact": {Balance: 5000, WithdrawCount: 3},
	})

	tests := []struct {
		userID      string
		want        bool
		wantMinimum int64
	}{
		{"first-below", false, 1000},
		{"first-exact", true, 1000},
		{"repeat-below", false, 5000},
		{"repeat-exact", true, 5000},
		{"unknown", false, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			eligible, err := ledger.IsWithdrawalEligible(ctx, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eligible)

			minimum, err := ledger.WithdrawalMinimum(ctx, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMinimum, minimum)
		})
	}
}

func TestLedger_WithdrawalScenario(t *testing.T) {
	ledger, store, notifier := setupLedger(t)
	ctx := context.Background()
	seedAccounts(t, store, domain.Accounts{"1001": {Balance: 1200}})

	receipt, err := ledger.RequestWithdrawal(ctx, "1001", "1000")
	require.NoError(t, err)
	assert.Equal(t, &domain.WithdrawalReceipt{
		UserID:           "1001",
		BalanceBefore:    1200,
		Amount:           1000,
		BalanceAfter:     200,
		WithdrawalNumber: 1,
	}, receipt)

	acct, err := ledger.GetAccount(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, domain.UserAccount{Balance: 200, WithdrawCount: 1}, acct)

	// The threshold is now 5000, checked before the balance
	_, err = ledger.RequestWithdrawal(ctx, "1001", "4000")
	assert.ErrorIs(t, err, apperrors.ErrBelowMinimum)
	_, err = ledger.RequestWithdrawal(ctx, "1001", "3000")
	assert.ErrorIs(t, err, apperrors.ErrBelowMinimum)
	_, err = ledger.RequestWithdrawal(ctx, "1001", "6000")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	acct, err = ledger.GetAccount(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, domain.UserAccount{Balance: 200, WithdrawCount: 1}, acct)

	ledger.outbox.Drain()
	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.AudienceAdmin, sent[0].Audience)
	assert.Contains(t, sent[0].Text, "1001")
	assert.Contains(t, sent[0].Text, "1000")
}

func TestLedger_RequestWithdrawal_ValidationOrder(t *testing.T) {
	tests := []struct {
		name    string
		account domain.UserAccount
		amount  string
		wantErr error
	}{
		{"not a number", domain.UserAccount{Balance: 5000}, "lots", apperrors.ErrInvalidAmount},
		{"zero", domain.UserAccount{Balance: 5000}, "0", apperrors.ErrInvalidAmount},
		{"negative", domain.UserAccount{Balance: 5000}, "-1000", apperrors.ErrInvalidAmount},
		{"below first minimum", domain.UserAccount{Balance: 5000}, "999", apperrors.ErrBelowMinimum},
		{"below minimum beats insufficient funds", domain.UserAccount{Balance: 10}, "500", apperrors.ErrBelowMinimum},
		{"insufficient funds", domain.UserAccount{Balance: 1500}, "2000", apperrors.ErrInsufficientFunds},
		{"below repeat minimum", domain.UserAccount{Balance: 9000, WithdrawCount: 2}, "4999", apperrors.ErrBelowMinimum},
		{"whole balance", domain.UserAccount{Balance: 5000, WithdrawCount: 2}, "5000", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, store, _ := setupLedger(t)
			ctx := context.Background()
			seedAccounts(t, store, domain.Accounts{"u": tt.account})

			receipt, err := ledger.RequestWithdrawal(ctx, "u", tt.amount)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, receipt)
				acct, loadErr := ledger.GetAccount(ctx, "u")
				require.NoError(t, loadErr)
				assert.Equal(t, tt.account, acct)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(0), receipt.BalanceAfter)
		})
	}
}

func TestLedger_RequestWithdrawal_UnknownUser(t *testing.T) {
	ledger, store, _ := setupLedger(t)

	_, err := ledger.RequestWithdrawal(context.Background(), "ghost", "1000")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	accounts, err := store.LoadAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestLedger_RequestWithdrawal_FailedSaveChangesNothing(t *testing.T) {
	ledger, store, notifier := setupLedger(t)
	ctx := context.Background()
	seedAccounts(t, store, domain.Accounts{"1001": {Balance: 1200}})
	store.setFailing(true)

	_, err := ledger.RequestWithdrawal(ctx, "1001", "1000")
	assert.ErrorIs(t, err, errSaveFailed)

	store.setFailing(false)
	acct, err := ledger.GetAccount(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, domain.UserAccount{Balance: 1200}, acct)
	ledger.outbox.Drain()
	assert.Empty(t, notifier.all())
}

func TestLedger_RequestWithdrawal_NotificationFailureKeepsDebit(t *testing.T) {
	store, guard := setupStore(t)
	notifier := &capturingNotifier{err: errors.New("telegram down")}
	ledger := NewLedgerService(guard, domain.DefaultWithdrawalPolicy(), notifier, nil)
	ctx := context.Background()
	seedAccounts(t, store, domain.Accounts{"1001": {Balance: 1200}})

	_, err := ledger.RequestWithdrawal(ctx, "1001", "1000")
	require.NoError(t, err)

	balance, err := ledger.GetBalance(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)
}

func TestLedger_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ledger, store, _ := setupLedger(t)
	ctx := context.Background()
	seedAccounts(t, store, domain.Accounts{"1001": {Balance: 20000, WithdrawCount: 1}})

	var wg conc.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Go(func() {
			_, err := ledger.RequestWithdrawal(ctx, "1001", "5000")
			if err != nil {
				assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
			}
		})
	}
	wg.Wait()

	acct, err := ledger.GetAccount(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, domain.UserAccount{Balance: 0, WithdrawCount: 5}, acct)
}

func TestLedger_Credit(t *testing.T) {
	ledger, _, notifier := setupLedger(t)
	ctx := context.Background()

	balance, err := ledger.Credit(ctx, "1001", 300)
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance)

	balance, err = ledger.Credit(ctx, "1001", 900)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), balance)

	_, err = ledger.Credit(ctx, "1001", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	ledger.outbox.Drain()
	sent := notifier.all()
	require.Len(t, sent, 2)
	assert.Equal(t, notify.UserAudience("1001"), sent[1].Audience)
}

func TestLedger_CustomPolicy(t *testing.T) {
	store, guard := setupStore(t)
	ledger := NewLedgerService(guard, domain.WithdrawalPolicy{FirstMinimum: 100, RepeatMinimum: 200}, nil, nil)
	ctx := context.Background()
	seedAccounts(t, store, domain.Accounts{"u": {Balance: 150}})

	_, err := ledger.RequestWithdrawal(ctx, "u", "100")
	require.NoError(t, err)
	assert.Equal(t, int64(200), ledger.Policy().RepeatMinimum)
}

func TestLedger_RequestWithdrawal_DoesNotWaitForSink(t *testing.T) {
	store, guard := setupStore(t)
	notifier := newBlockingNotifier()
	ledger := NewLedgerService(guard, domain.DefaultWithdrawalPolicy(), notifier, nil)
	seedAccounts(t, store, domain.Accounts{"1001": {Balance: 1200}})

	ctx, cancel := context.WithCancel(context.Background())
	var receipt *domain.WithdrawalReceipt
	var err error
	returnsWithin(t, time.Second, func() {
		receipt, err = ledger.RequestWithdrawal(ctx, "1001", "1000")
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), receipt.BalanceAfter)

	// The request ending must not cancel the delivery still in flight
	cancel()
	close(notifier.release)
	require.NoError(t, ledger.Close())

	n := <-notifier.delivered
	assert.Equal(t, notify.AudienceAdmin, n.Audience)
	assert.NoError(t, <-notifier.ctxErrs)
}
