package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"microtask/internal/domain"
	apperrors "microtask/internal/errors"
	"microtask/internal/logging"
	"microtask/internal/session"
	"microtask/internal/validation"
)

// Action is a menu entry a chat front end can offer.
type Action string

const (
	ActionTasks    Action = "tasks"
	ActionBalance  Action = "balance"
	ActionWithdraw Action = "withdraw"
	ActionAddTask  Action = "add_task"
)

// Reply is what a workflow step wants shown to the user. Tasks is set when
// the front end should offer the listed tasks for claiming.
type Reply struct {
	Text    string
	Actions []Action
	Tasks   []*domain.Task
}

// Conversation drives the chat workflows on top of API and per-user
// session state.
type Conversation struct {
	api           API
	sessions      session.Store
	taskValidator *validation.TaskValidator
	logger        *slog.Logger
}

// NewConversation creates a Conversation.
func NewConversation(api API, sessions session.Store, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Conversation{
		api:           api,
		sessions:      sessions,
		taskValidator: validation.NewTaskValidator(),
		logger:        logger,
	}
}

// Start registers the user and returns the main menu
func (c *Conversation) Start(ctx context.Context, userID string) (Reply, error) {
	if _, err := c.api.EnsureAccount(ctx, userID); err != nil {
		return Reply{}, err
	}
	actions := []Action{ActionTasks, ActionBalance, ActionWithdraw}
	if c.api.IsAdmin(userID) {
		actions = append(actions, ActionAddTask)
	}
	return Reply{
		Text:    "Welcome! This is a platform for completing tasks online.",
		Actions: actions,
	}, nil
}

// ShowTasks lists the tasks the user has neither taken nor completed
func (c *Conversation) ShowTasks(ctx context.Context, userID string) (Reply, error) {
	tasks, err := c.api.ListClaimable(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if len(tasks) == 0 {
		return Reply{Text: "No tasks are available right now."}, nil
	}
	return Reply{Text: "Choose a task:", Tasks: tasks}, nil
}

// ShowBalance reports the user's balance without creating an account
func (c *Conversation) ShowBalance(ctx context.Context, userID string) (Reply, error) {
	balance, err := c.api.GetBalance(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("Your current balance: %d", balance)}, nil
}

// BeginWithdrawal asks for an amount when the balance meets the threshold
func (c *Conversation) BeginWithdrawal(ctx context.Context, userID string) (Reply, error) {
	summary, err := c.api.GetAccountSummary(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if !summary.Eligible {
		return Reply{Text: fmt.Sprintf("Not enough funds to withdraw. The minimum is %d.", summary.WithdrawalMinimum)}, nil
	}

	state, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if err := c.sessions.Set(ctx, userID, state.AwaitWithdrawal()); err != nil {
		return Reply{}, err
	}
	return Reply{Text: "Enter the amount to withdraw:"}, nil
}

// HandleText routes free text to the add-task wizard or a pending
// withdrawal. Text outside either flow is ignored with an empty reply.
func (c *Conversation) HandleText(ctx context.Context, userID, text string) (Reply, error) {
	state, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return Reply{}, err
	}

	switch state.Mode {
	case session.AddingTask:
		return c.handleDraft(ctx, userID, state, text)
	case session.AwaitingWithdrawAmount:
		return c.handleWithdrawal(ctx, userID, state, text)
	default:
		return Reply{}, nil
	}
}

// handleWithdrawal leaves the awaiting mode whatever the outcome; a
// rejected amount needs a fresh BeginWithdrawal.
func (c *Conversation) handleWithdrawal(ctx context.Context, userID string, state session.State, text string) (Reply, error) {
	receipt, err := c.api.RequestWithdrawal(ctx, userID, text)

	if setErr := c.sessions.Set(ctx, userID, state.Reset()); setErr != nil {
		c.logger.WarnContext(ctx, "failed to reset session", "user_id", userID, "error", setErr)
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("Request #%d for %d sent. Awaiting confirmation.",
		receipt.WithdrawalNumber, receipt.Amount)}, nil
}

func (c *Conversation) handleDraft(ctx context.Context, userID string, state session.State, text string) (Reply, error) {
	var draft session.TaskDraft
	if state.Draft != nil {
		draft = *state.Draft
	}
	text = strings.TrimSpace(text)

	switch draft.Step {
	case session.StepTitle:
		if ve := c.taskValidator.ValidateTitle(text); ve.HasErrors() {
			return Reply{}, ve.AppError()
		}
		draft.Title = text
		draft.Step = session.StepInstruction
		state.Draft = &draft
		if err := c.sessions.Set(ctx, userID, state); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Now enter the task instruction:"}, nil

	case session.StepInstruction:
		if ve := c.taskValidator.ValidateInstruction(text); ve.HasErrors() {
			return Reply{}, ve.AppError()
		}
		draft.Instruction = text
		draft.Step = session.StepLimit
		state.Draft = &draft
		if err := c.sessions.Set(ctx, userID, state); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Enter the participant limit (for example 5). Enter 0 for an unlimited task:"}, nil

	default:
		limit, err := validation.ParseLimit(text)
		if err != nil {
			return Reply{}, err
		}
		task, err := c.api.CreateTask(ctx, draft.Title, draft.Instruction, limit)
		if err != nil {
			return Reply{}, err
		}
		if err := c.sessions.Set(ctx, userID, state.Reset()); err != nil {
			return Reply{}, err
		}
		return Reply{Text: fmt.Sprintf("Task added: %s (%s)", task.Title, task.ID)}, nil
	}
}

// TakeTask claims the task and makes it the user's current task
func (c *Conversation) TakeTask(ctx context.Context, userID, taskID string) (Reply, error) {
	task, err := c.api.Claim(ctx, taskID, userID)
	if err != nil {
		return Reply{}, err
	}

	state, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	state.CurrentTask = task.ID
	if err := c.sessions.Set(ctx, userID, state); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("You chose the task: %s\nInstruction: %s\nSend text or a screenshot as your report.",
		task.Title, task.Instruction)}, nil
}

// SubmitReport completes the user's current task. The current task is
// cleared once completed, or when it no longer applies.
func (c *Conversation) SubmitReport(ctx context.Context, userID string, report domain.Report) (Reply, error) {
	state, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if state.CurrentTask == "" {
		return Reply{}, apperrors.NewRuleViolationError(apperrors.CodeNoActiveTask, "no task is in progress")
	}

	_, err = c.api.Complete(ctx, state.CurrentTask, userID, report)
	if err != nil && !errors.Is(err, apperrors.ErrTaskNotFound) && !errors.Is(err, apperrors.ErrNotTaken) {
		return Reply{}, err
	}

	state.CurrentTask = ""
	if setErr := c.sessions.Set(ctx, userID, state); setErr != nil {
		return Reply{}, setErr
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: "Your report was sent for review. Please wait."}, nil
}

// BeginAddTask starts the add-task wizard for operators
func (c *Conversation) BeginAddTask(ctx context.Context, userID string) (Reply, error) {
	if !c.api.IsAdmin(userID) {
		return Reply{}, apperrors.NewPermissionError("add task", "tasks")
	}
	state, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if err := c.sessions.Set(ctx, userID, state.StartDraft()); err != nil {
		return Reply{}, err
	}
	return Reply{Text: "Enter the task title:"}, nil
}

// Cancel abandons any pending withdrawal or wizard
func (c *Conversation) Cancel(ctx context.Context, userID string) (Reply, error) {
	state, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if err := c.sessions.Set(ctx, userID, state.Reset()); err != nil {
		return Reply{}, err
	}
	return Reply{Text: "Cancelled."}, nil
}
