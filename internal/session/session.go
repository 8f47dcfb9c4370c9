// Package session keeps per-user conversational state for chat front ends.
// It is independent of the core locks and is not persisted.
package session

import (
	"context"
	"sync"
)

// Mode is the conversation step a user is in
type Mode int

const (
	Idle Mode = iota
	AwaitingWithdrawAmount
	AddingTask
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case AwaitingWithdrawAmount:
		return "awaiting_withdraw_amount"
	case AddingTask:
		return "adding_task"
	default:
		return "unknown"
	}
}

// DraftStep is the next field the add-task wizard expects
type DraftStep int

const (
	StepTitle DraftStep = iota
	StepInstruction
	StepLimit
)

// TaskDraft holds the fields collected so far by the add-task wizard
type TaskDraft struct {
	Step        DraftStep
	Title       string
	Instruction string
}

// State is the tagged conversation state. Draft is set only in AddingTask
// mode. CurrentTask is tracked independently of Mode.
type State struct {
	Mode        Mode
	Draft       *TaskDraft
	CurrentTask string
}

// Reset returns s in Idle mode, keeping the current task
func (s State) Reset() State {
	return State{Mode: Idle, CurrentTask: s.CurrentTask}
}

// AwaitWithdrawal returns s waiting for a withdrawal amount
func (s State) AwaitWithdrawal() State {
	return State{Mode: AwaitingWithdrawAmount, CurrentTask: s.CurrentTask}
}

// StartDraft returns s at the first step of the add-task wizard
func (s State) StartDraft() State {
	return State{Mode: AddingTask, Draft: &TaskDraft{Step: StepTitle}, CurrentTask: s.CurrentTask}
}

// Store persists State per user
type Store interface {
	Get(ctx context.Context, userID string) (State, error)
	Set(ctx context.Context, userID string, state State) error
}

// MemoryStore is a mutex-guarded in-memory Store
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Get returns the user's state, Idle for unknown users
func (m *MemoryStore) Get(_ context.Context, userID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyState(m.states[userID]), nil
}

// Set replaces the user's state
func (m *MemoryStore) Set(_ context.Context, userID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = copyState(state)
	return nil
}

func copyState(s State) State {
	if s.Draft != nil {
		draft := *s.Draft
		s.Draft = &draft
	}
	return s
}
