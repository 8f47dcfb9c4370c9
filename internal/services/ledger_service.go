package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"microtask/internal/domain"
	"microtask/internal/errors"
	"microtask/internal/logging"
	"microtask/internal/notify"
	"microtask/internal/repository"
	"microtask/internal/validation"
)

var _ Ledger = (*LedgerService)(nil)

// LedgerService implements Ledger on top of the accounts collection
type LedgerService struct {
	guard    *repository.Guard
	policy   domain.WithdrawalPolicy
	outbox   *notify.Dispatcher
	ownsBox  bool
	logger   *slog.Logger
}

// NewLedgerService creates a ledger. A nil notifier or logger disables
// notifications or logging respectively. Notifications are delivered in
// the background; a notifier that is not already a *notify.Dispatcher gets
// one of its own, released by Close.
func NewLedgerService(guard *repository.Guard, policy domain.WithdrawalPolicy, notifier notify.Notifier, logger *slog.Logger) *LedgerService {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logging.Discard()
	}
	outbox, owns := notify.Dispatch(notifier, logger)
	return &LedgerService{guard: guard, policy: policy, outbox: outbox, ownsBox: owns, logger: logger}
}

// Close waits for pending notifications when the ledger owns its dispatcher
func (l *LedgerService) Close() error {
	if !l.ownsBox {
		return nil
	}
	return l.outbox.Close()
}

// Policy returns the withdrawal thresholds in effect
func (l *LedgerService) Policy() domain.WithdrawalPolicy {
	return l.policy
}

// EnsureAccount creates a zero account on first contact and returns the
// stored account otherwise
func (l *LedgerService) EnsureAccount(ctx context.Context, userID string) (domain.UserAccount, error) {
	var acct domain.UserAccount
	err := l.guard.UpdateAccounts(ctx, func(accounts domain.Accounts) error {
		existing, ok := accounts[userID]
		if !ok {
			logging.Debugf("creating account for %s\n", userID)
			accounts[userID] = domain.UserAccount{}
		}
		acct = existing
		return nil
	})
	return acct, err
}

// GetAccount returns the account, or a zero account for unknown users.
// It never creates one.
func (l *LedgerService) GetAccount(ctx context.Context, userID string) (domain.UserAccount, error) {
	var acct domain.UserAccount
	err := l.guard.ViewAccounts(ctx, func(accounts domain.Accounts) error {
		acct = accounts[userID]
		return nil
	})
	return acct, err
}

// GetBalance returns the user's balance, 0 for unknown users
func (l *LedgerService) GetBalance(ctx context.Context, userID string) (int64, error) {
	acct, err := l.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// IsWithdrawalEligible reports whether the balance meets the threshold for
// the user's next withdrawal
func (l *LedgerService) IsWithdrawalEligible(ctx context.Context, userID string) (bool, error) {
	acct, err := l.GetAccount(ctx, userID)
	if err != nil {
		return false, err
	}
	return l.policy.Eligible(acct), nil
}

// WithdrawalMinimum returns the threshold for the user's next withdrawal
func (l *LedgerService) WithdrawalMinimum(ctx context.Context, userID string) (int64, error) {
	acct, err := l.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return l.policy.MinimumFor(acct), nil
}

// RequestWithdrawal debits amountText from the user's balance. Failures are
// checked in order: invalid amount, below minimum, insufficient funds. The
// admin is notified after the debit is stored.
func (l *LedgerService) RequestWithdrawal(ctx context.Context, userID, amountText string) (*domain.WithdrawalReceipt, error) {
	amount, err := validation.ParseAmount(amountText)
	if err != nil {
		return nil, err
	}

	var receipt *domain.WithdrawalReceipt
	err = l.guard.UpdateAccounts(ctx, func(accounts domain.Accounts) error {
		acct := accounts[userID]

		if minimum := l.policy.MinimumFor(acct); amount < minimum {
			return errors.NewBelowMinimumError(amount, minimum)
		}
		if amount > acct.Balance {
			return errors.NewInsufficientFundsError(amount, acct.Balance)
		}

		receipt = &domain.WithdrawalReceipt{
			UserID:           userID,
			BalanceBefore:    acct.Balance,
			Amount:           amount,
			BalanceAfter:     acct.Balance - amount,
			WithdrawalNumber: acct.WithdrawCount + 1,
		}
		acct.Balance -= amount
		acct.WithdrawCount++
		accounts[userID] = acct
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "withdrawal requested",
		"user_id", userID, "amount", amount, "balance_after", receipt.BalanceAfter)
	notify.Send(ctx, l.outbox, l.logger, notify.Notification{
		Audience: notify.AudienceAdmin,
		Text: fmt.Sprintf("Withdrawal request #%d from user %s: %d (balance before: %d)",
			receipt.WithdrawalNumber, userID, amount, receipt.BalanceBefore),
	})
	return receipt, nil
}

// Credit adds a payout to the user's balance, creating the account if
// needed, and returns the new balance
func (l *LedgerService) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return 0, err
	}

	var balance int64
	err := l.guard.UpdateAccounts(ctx, func(accounts domain.Accounts) error {
		acct := accounts[userID]
		if acct.Balance > math.MaxInt64-amount {
			return errors.NewInvalidInputError("amount", amount, "would overflow the balance")
		}
		acct.Balance += amount
		accounts[userID] = acct
		balance = acct.Balance
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.InfoContext(ctx, "balance credited", "user_id", userID, "amount", amount, "balance", balance)
	notify.Send(ctx, l.outbox, l.logger, notify.Notification{
		Audience: notify.UserAudience(userID),
		Text:     fmt.Sprintf("Your balance was credited with %d. Current balance: %d", amount, balance),
	})
	return balance, nil
}
