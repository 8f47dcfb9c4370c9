package services

import (
	"context"
	"fmt"
	"log/slog"

	"microtask/internal/domain"
	"microtask/internal/errors"
	"microtask/internal/logging"
	"microtask/internal/notify"
	"microtask/internal/repository"
	"microtask/internal/validation"
)

// maxIDAttempts bounds id regeneration on collision
const maxIDAttempts = 32

var _ TaskRegistry = (*TaskService)(nil)

// TaskService implements TaskRegistry on top of the tasks collection
type TaskService struct {
	guard         *repository.Guard
	taskValidator *validation.TaskValidator
	newID         IDGenerator
	outbox        *notify.Dispatcher
	ownsBox       bool
	logger        *slog.Logger
}

// TaskServiceOption customizes a TaskService
type TaskServiceOption func(*TaskService)

// WithIDGenerator replaces the default 8-character id generator
func WithIDGenerator(gen IDGenerator) TaskServiceOption {
	return func(t *TaskService) { t.newID = gen }
}

// WithTaskValidator replaces the default validator
func WithTaskValidator(v *validation.TaskValidator) TaskServiceOption {
	return func(t *TaskService) { t.taskValidator = v }
}

// NewTaskService creates a task registry. A nil notifier or logger disables
// notifications or logging respectively. Reports are delivered in the
// background, as for NewLedgerService.
func NewTaskService(guard *repository.Guard, notifier notify.Notifier, logger *slog.Logger, opts ...TaskServiceOption) *TaskService {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logging.Discard()
	}
	outbox, owns := notify.Dispatch(notifier, logger)
	t := &TaskService{
		guard:         guard,
		taskValidator: validation.NewTaskValidator(),
		newID:         ShortUUID(8),
		outbox:        outbox,
		ownsBox:       owns,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Close waits for pending report notifications when the registry owns its
// dispatcher
func (t *TaskService) Close() error {
	if !t.ownsBox {
		return nil
	}
	return t.outbox.Close()
}

// ListClaimable returns the tasks userID has neither taken nor completed,
// in collection order
func (t *TaskService) ListClaimable(ctx context.Context, userID string) ([]*domain.Task, error) {
	var claimable []*domain.Task
	err := t.guard.ViewTasks(ctx, func(tasks *domain.TaskList) error {
		for _, task := range tasks.All() {
			if task.ClaimableBy(userID) {
				claimable = append(claimable, task.Clone())
			}
		}
		return nil
	})
	return claimable, err
}

// Claim reserves the task for userID. Failures are checked in order: task
// not found, already taken, limit reached.
func (t *TaskService) Claim(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	var claimed *domain.Task
	err := t.guard.UpdateTasks(ctx, func(tasks *domain.TaskList) error {
		task, ok := tasks.Get(taskID)
		if !ok {
			return errors.NewTaskNotFoundError(taskID)
		}
		if err := task.Claim(userID); err != nil {
			return err
		}
		claimed = task.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.InfoContext(ctx, "task claimed", "task_id", taskID, "user_id", userID, "taken", claimed.TakenBy.Len())
	return claimed, nil
}

// Complete moves userID from the task's takers to its completers and hands
// the report to review once the change is stored. The report itself is not
// persisted.
func (t *TaskService) Complete(ctx context.Context, taskID, userID string, report domain.Report) (*domain.Task, error) {
	var completed *domain.Task
	err := t.guard.UpdateTasks(ctx, func(tasks *domain.TaskList) error {
		task, ok := tasks.Get(taskID)
		if !ok {
			return errors.NewTaskNotFoundError(taskID)
		}
		if err := task.Complete(userID); err != nil {
			return err
		}
		completed = task.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.InfoContext(ctx, "task completed", "task_id", taskID, "user_id", userID, "attachment", report.HasAttachment())
	notify.Send(ctx, t.outbox, t.logger, notify.Notification{
		Audience: notify.AudienceReview,
		Text: fmt.Sprintf("Report for task %s (%s) from user %s:\n%s",
			completed.ID, completed.Title, userID, report.Comment()),
		Attachment: report.Attachment,
	})
	return completed, nil
}

// CreateTask adds a task with empty claim sets and returns its id. A limit
// of zero or less means unlimited. Ids are regenerated until unused.
func (t *TaskService) CreateTask(ctx context.Context, title, instruction string, limit int) (string, error) {
	if err := t.taskValidator.ValidateTaskForCreation(title, instruction); err != nil {
		return "", err
	}
	title = t.taskValidator.CleanTitle(title)

	var id string
	err := t.guard.UpdateTasks(ctx, func(tasks *domain.TaskList) error {
		for attempt := 0; attempt < maxIDAttempts; attempt++ {
			candidate := t.newID()
			if candidate != "" && !tasks.Has(candidate) {
				id = candidate
				break
			}
			logging.Debugf("task id %q already in use, regenerating\n", candidate)
		}
		if id == "" {
			return errors.NewDatabaseError("allocate task id", fmt.Errorf("no unused id after %d attempts", maxIDAttempts))
		}
		return tasks.Add(domain.NewTask(id, title, instruction, limit))
	})
	if err != nil {
		return "", err
	}

	t.logger.InfoContext(ctx, "task created", "task_id", id, "title", title, "limit", limit)
	return id, nil
}

// GetTask returns a copy of the task
func (t *TaskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	var found *domain.Task
	err := t.guard.ViewTasks(ctx, func(tasks *domain.TaskList) error {
		task, ok := tasks.Get(taskID)
		if !ok {
			return errors.NewTaskNotFoundError(taskID)
		}
		found = task.Clone()
		return nil
	})
	return found, err
}

// ListTasks returns copies of every task in collection order
func (t *TaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	var all []*domain.Task
	err := t.guard.ViewTasks(ctx, func(tasks *domain.TaskList) error {
		for _, task := range tasks.All() {
			all = append(all, task.Clone())
		}
		return nil
	})
	return all, err
}
