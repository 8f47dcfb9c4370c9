package domain

import (
	"fmt"

	"microtask/internal/errors"
)

// ClaimState is the position of one user in one task's lifecycle.
type ClaimState int

const (
	NotInvolved ClaimState = iota
	Taken
	Completed
)

// String returns the state name for display purposes.
func (s ClaimState) String() string {
	switch s {
	case NotInvolved:
		return "not_involved"
	case Taken:
		return "taken"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Task represents a paid micro-task in the domain model.
// Limit is nil for unlimited tasks and bounds only TakenBy.
type Task struct {
	ID          string
	Title       string
	Instruction string
	Limit       *int
	TakenBy     UserSet
	CompletedBy UserSet
}

// NewTask creates a Task with empty claim sets. A limit of zero or less
// means unlimited.
func NewTask(id, title, instruction string, limit int) *Task {
	return &Task{
		ID:          id,
		Title:       title,
		Instruction: instruction,
		Limit:       NormalizeLimit(limit),
		TakenBy:     NewUserSet(),
		CompletedBy: NewUserSet(),
	}
}

// NormalizeLimit maps non-positive limits to unlimited (nil).
func NormalizeLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

// IsValid checks if the task has valid data.
func (t *Task) IsValid() bool {
	return t.ID != "" && t.Title != "" && (t.Limit == nil || *t.Limit > 0)
}

// String returns the task title for display purposes.
func (t *Task) String() string {
	return t.Title
}

// LimitValue returns the limit, or 0 when the task is unlimited.
func (t *Task) LimitValue() int {
	if t.Limit == nil {
		return 0
	}
	return *t.Limit
}

// StateOf returns where userID stands with respect to this task.
// A user who completed the task and claimed it again is Taken.
func (t *Task) StateOf(userID string) ClaimState {
	switch {
	case t.TakenBy.Has(userID):
		return Taken
	case t.CompletedBy.Has(userID):
		return Completed
	default:
		return NotInvolved
	}
}

// ClaimableBy reports whether the task should be offered to userID.
func (t *Task) ClaimableBy(userID string) bool {
	return t.StateOf(userID) == NotInvolved
}

// Claim adds userID to TakenBy. AlreadyTaken is checked before the limit.
func (t *Task) Claim(userID string) error {
	if t.TakenBy.Has(userID) {
		return errors.NewRuleViolationError(errors.CodeAlreadyTaken,
			fmt.Sprintf("task %s is already taken by %s", t.ID, userID)).
			WithContext("task_id", t.ID)
	}
	if t.Limit != nil && t.TakenBy.Len() >= *t.Limit {
		return errors.NewRuleViolationError(errors.CodeLimitReached,
			fmt.Sprintf("task %s has reached its limit of %d", t.ID, *t.Limit)).
			WithContext("task_id", t.ID).
			WithContext("limit", *t.Limit)
	}
	t.TakenBy.Add(userID)
	return nil
}

// Complete moves userID from TakenBy to CompletedBy.
func (t *Task) Complete(userID string) error {
	if !t.TakenBy.Has(userID) {
		return errors.NewRuleViolationError(errors.CodeNotTaken,
			fmt.Sprintf("task %s is not taken by %s", t.ID, userID)).
			WithContext("task_id", t.ID)
	}
	t.TakenBy.Remove(userID)
	t.CompletedBy.Add(userID)
	return nil
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	c := *t
	if t.Limit != nil {
		limit := *t.Limit
		c.Limit = &limit
	}
	c.TakenBy = t.TakenBy.Clone()
	c.CompletedBy = t.CompletedBy.Clone()
	return &c
}

// TaskList is the task collection, keyed by id and kept in insertion order.
type TaskList struct {
	order []string
	byID  map[string]*Task
}

// NewTaskList creates an empty collection.
func NewTaskList() *TaskList {
	return &TaskList{byID: make(map[string]*Task)}
}

// Add appends a task. Ids must be unique.
func (l *TaskList) Add(task *Task) error {
	if task == nil || task.ID == "" {
		return errors.NewInvalidInputError("task_id", "", "must not be empty")
	}
	if l.byID == nil {
		l.byID = make(map[string]*Task)
	}
	if _, exists := l.byID[task.ID]; exists {
		return errors.NewInvalidInputError("task_id", task.ID, "already exists")
	}
	l.order = append(l.order, task.ID)
	l.byID[task.ID] = task
	return nil
}

// Get returns the task with the given id.
func (l *TaskList) Get(id string) (*Task, bool) {
	if l == nil {
		return nil, false
	}
	task, ok := l.byID[id]
	return task, ok
}

// Has reports whether a task with id exists.
func (l *TaskList) Has(id string) bool {
	_, ok := l.Get(id)
	return ok
}

// Len returns the number of tasks.
func (l *TaskList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// All returns the tasks in insertion order.
func (l *TaskList) All() []*Task {
	if l == nil {
		return nil
	}
	tasks := make([]*Task, 0, len(l.order))
	for _, id := range l.order {
		tasks = append(tasks, l.byID[id])
	}
	return tasks
}

// Clone returns a deep copy.
func (l *TaskList) Clone() *TaskList {
	c := NewTaskList()
	for _, task := range l.All() {
		c.order = append(c.order, task.ID)
		c.byID[task.ID] = task.Clone()
	}
	return c
}
