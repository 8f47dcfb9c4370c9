package api

import (
	"context"

	"microtask/internal/domain"
	"microtask/internal/services"
	"microtask/internal/validation"
)

// API defines the interface for all ledger and task operations.
type API interface {
	// Account operations
	EnsureAccount(ctx context.Context, userID string) (domain.UserAccount, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	GetAccountSummary(ctx context.Context, userID string) (*AccountSummary, error)
	RequestWithdrawal(ctx context.Context, userID, amountText string) (*domain.WithdrawalReceipt, error)
	Credit(ctx context.Context, userID string, amount int64) (int64, error)

	// Task operations
	ListClaimable(ctx context.Context, userID string) ([]*domain.Task, error)
	Claim(ctx context.Context, taskID, userID string) (*domain.Task, error)
	Complete(ctx context.Context, taskID, userID string, report domain.Report) (*domain.Task, error)
	CreateTask(ctx context.Context, title, instruction string, limit int) (*domain.Task, error)
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context) ([]*domain.Task, error)
	ListTaskSummaries(ctx context.Context, userID string) ([]*TaskSummary, error)

	// IsAdmin reports whether userID may run operator workflows
	IsAdmin(userID string) bool
}

// AdminFunc decides whether a user is an operator.
type AdminFunc func(userID string) bool

// AccountSummary is the account view shown to participants.
type AccountSummary struct {
	UserID            string `json:"user_id"`
	Balance           int64  `json:"balance"`
	WithdrawCount     int    `json:"withdraw_count"`
	WithdrawalMinimum int64  `json:"withdrawal_minimum"`
	Eligible          bool   `json:"eligible"`
}

// TaskSummary is a task as seen by one user.
type TaskSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Instruction string `json:"instruction"`
	Limit       *int   `json:"limit"`
	Taken       int    `json:"taken"`
	Completed   int    `json:"completed"`
	State       string `json:"state"`
}

type apiImpl struct {
	ledger        services.Ledger
	registry      services.TaskRegistry
	isAdmin       AdminFunc
	taskValidator *validation.TaskValidator
}

// New creates a new API instance. A nil isAdmin treats nobody as admin.
func New(container *services.ServiceContainer, isAdmin AdminFunc) API {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &apiImpl{
		ledger:        container.Ledger,
		registry:      container.TaskRegistry,
		isAdmin:       isAdmin,
		taskValidator: validation.NewTaskValidator(),
	}
}

func (a *apiImpl) EnsureAccount(ctx context.Context, userID string) (domain.UserAccount, error) {
	if err := a.taskValidator.ValidateUserID(userID); err != nil {
		return domain.UserAccount{}, err
	}
	return a.ledger.EnsureAccount(ctx, userID)
}

func (a *apiImpl) GetBalance(ctx context.Context, userID string) (int64, error) {
	if err := a.taskValidator.ValidateUserID(userID); err != nil {
		return 0, err
	}
	return a.ledger.GetBalance(ctx, userID)
}

func (a *apiImpl) GetAccountSummary(ctx context.Context, userID string) (*AccountSummary, error) {
	if err := a.taskValidator.ValidateUserID(userID); err != nil {
		return nil, err
	}
	// One read, so the balance and the threshold describe the same account
	acct, err := a.ledger.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	policy := a.ledger.Policy()
	return &AccountSummary{
		UserID:            userID,
		Balance:           acct.Balance,
		WithdrawCount:     acct.WithdrawCount,
		WithdrawalMinimum: policy.MinimumFor(acct),
		Eligible:          policy.Eligible(acct),
	}, nil
}

func (a *apiImpl) RequestWithdrawal(ctx context.Context, userID, amountText string) (*domain.WithdrawalReceipt, error) {
	if err := a.taskValidator.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return a.ledger.RequestWithdrawal(ctx, userID, amountText)
}

func (a *apiImpl) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if err := a.taskValidator.ValidateUserID(userID); err != nil {
		return 0, err
	}
	return a.ledger.Credit(ctx, userID, amount)
}

func (a *apiImpl) ListClaimable(ctx context.Context, userID string) ([]*domain.Task, error) {
	if err := a.taskValidator.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return a.registry.ListClaimable(ctx, userID)
}

func (a *apiImpl) Claim(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	if err := a.taskValidator.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return a.registry.Claim(ctx, taskID, userID)
}

func (a *apiImpl) Complete(ctx context.Context, taskID, userID string, report domain.Report) (*domain.Task, error) {
	if err := a.taskValidator.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return a.registry.Complete(ctx, taskID, userID, report)
}

// CreateTask creates the task and returns it as stored
func (a *apiImpl) CreateTask(ctx context.Context, title, instruction string, limit int) (*domain.Task, error) {
	id, err := a.registry.CreateTask(ctx, title, instruction, limit)
	if err != nil {
		return nil, err
	}
	return a.registry.GetTask(ctx, id)
}

func (a *apiImpl) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	if err := a.taskValidator.ValidateTaskID(taskID); err != nil {
		return nil, err
	}
	return a.registry.GetTask(ctx, taskID)
}

func (a *apiImpl) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return a.registry.ListTasks(ctx)
}

// ListTaskSummaries returns every task with userID's claim state. An empty
// userID reports every task as not involved.
func (a *apiImpl) ListTaskSummaries(ctx context.Context, userID string) ([]*TaskSummary, error) {
	tasks, err := a.registry.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]*TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		summaries = append(summaries, summarize(task, userID))
	}
	return summaries, nil
}

func (a *apiImpl) IsAdmin(userID string) bool {
	return a.isAdmin(userID)
}

func summarize(task *domain.Task, userID string) *TaskSummary {
	return &TaskSummary{
		ID:          task.ID,
		Title:       task.Title,
		Instruction: task.Instruction,
		Limit:       task.Limit,
		Taken:       task.TakenBy.Len(),
		Completed:   task.CompletedBy.Len(),
		State:       task.StateOf(userID).String(),
	}
}
