package services

import (
	"context"

	"microtask/internal/domain"
)

// Ledger handles balances and withdrawals
type Ledger interface {
	// Account lifecycle
	EnsureAccount(ctx context.Context, userID string) (domain.UserAccount, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	GetAccount(ctx context.Context, userID string) (domain.UserAccount, error)

	// Withdrawals
	Policy() domain.WithdrawalPolicy
	IsWithdrawalEligible(ctx context.Context, userID string) (bool, error)
	WithdrawalMinimum(ctx context.Context, userID string) (int64, error)
	RequestWithdrawal(ctx context.Context, userID, amountText string) (*domain.WithdrawalReceipt, error)

	// Payouts
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
}

// TaskRegistry handles the task lifecycle
type TaskRegistry interface {
	// Participant operations
	ListClaimable(ctx context.Context, userID string) ([]*domain.Task, error)
	Claim(ctx context.Context, taskID, userID string) (*domain.Task, error)
	Complete(ctx context.Context, taskID, userID string, report domain.Report) (*domain.Task, error)

	// Operator operations
	CreateTask(ctx context.Context, title, instruction string, limit int) (string, error)
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context) ([]*domain.Task, error)
}

// ServiceContainer manages all services and their dependencies
type ServiceContainer struct {
	Ledger       Ledger
	TaskRegistry TaskRegistry
}
