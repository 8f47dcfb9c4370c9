package domain

import (
	"microtask/internal/errors"
)

// Default withdrawal thresholds in minor currency units.
const (
	DefaultFirstWithdrawalMinimum  int64 = 1000
	DefaultRepeatWithdrawalMinimum int64 = 5000
)

// UserAccount holds a participant's balance and withdrawal history.
type UserAccount struct {
	Balance       int64
	WithdrawCount int
}

// NewUserAccount creates an account, rejecting negative values.
func NewUserAccount(balance int64, withdrawCount int) (UserAccount, error) {
	if balance < 0 {
		return UserAccount{}, errors.NewInvalidInputError("balance", balance, "must not be negative")
	}
	if withdrawCount < 0 {
		return UserAccount{}, errors.NewInvalidInputError("withdraw_count", withdrawCount, "must not be negative")
	}
	return UserAccount{Balance: balance, WithdrawCount: withdrawCount}, nil
}

// IsValid checks the non-negativity invariant.
func (a UserAccount) IsValid() bool {
	return a.Balance >= 0 && a.WithdrawCount >= 0
}

// Accounts is the user-account collection keyed by user id.
type Accounts map[string]UserAccount

// Clone returns an independent copy.
func (a Accounts) Clone() Accounts {
	c := make(Accounts, len(a))
	for id, acct := range a {
		c[id] = acct
	}
	return c
}

// WithdrawalPolicy is the threshold rule: the first withdrawal needs
// FirstMinimum, every later one RepeatMinimum.
type WithdrawalPolicy struct {
	FirstMinimum  int64
	RepeatMinimum int64
}

// DefaultWithdrawalPolicy returns the 1000/5000 rule.
func DefaultWithdrawalPolicy() WithdrawalPolicy {
	return WithdrawalPolicy{
		FirstMinimum:  DefaultFirstWithdrawalMinimum,
		RepeatMinimum: DefaultRepeatWithdrawalMinimum,
	}
}

// MinimumFor returns the threshold that applies to the account's next withdrawal.
func (p WithdrawalPolicy) MinimumFor(acct UserAccount) int64 {
	if acct.WithdrawCount == 0 {
		return p.FirstMinimum
	}
	return p.RepeatMinimum
}

// Eligible reports whether the balance meets the threshold.
func (p WithdrawalPolicy) Eligible(acct UserAccount) bool {
	return acct.Balance >= p.MinimumFor(acct)
}

// WithdrawalReceipt is the result of a successful withdrawal, used for
// downstream notification.
type WithdrawalReceipt struct {
	UserID           string `json:"user_id"`
	BalanceBefore    int64  `json:"balance_before"`
	Amount           int64  `json:"amount"`
	BalanceAfter     int64  `json:"balance_after"`
	WithdrawalNumber int    `json:"withdrawal_number"`
}

// Report is a completion report. The registry passes it on to review
// without storing it.
type Report struct {
	Text       string
	Attachment string // chat file reference, empty when absent
}

// HasAttachment reports whether the report carries a file reference.
func (r Report) HasAttachment() bool {
	return r.Attachment != ""
}

// Comment returns the report text, or a placeholder when it is empty.
func (r Report) Comment() string {
	if r.Text == "" {
		return "(no text)"
	}
	return r.Text
}
