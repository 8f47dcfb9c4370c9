// Package memory provides an in-process Store used by tests and the
// testing environment.
package memory

import (
	"context"
	"sync"

	"microtask/internal/domain"
)

// Store keeps both collections in memory. Loads and saves copy the data so
// a caller that mutates a loaded collection and never saves it leaves the
// stored state untouched.
type Store struct {
	mu       sync.Mutex
	accounts domain.Accounts
	tasks    *domain.TaskList
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(domain.Accounts),
		tasks:    domain.NewTaskList(),
	}
}

// LoadAccounts returns a copy of the accounts.
func (s *Store) LoadAccounts(ctx context.Context) (domain.Accounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts.Clone(), nil
}

// SaveAccounts replaces the accounts with a copy of accounts.
func (s *Store) SaveAccounts(ctx context.Context, accounts domain.Accounts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts.Clone()
	return nil
}

// LoadTasks returns a copy of the tasks.
func (s *Store) LoadTasks(ctx context.Context) (*domain.TaskList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Clone(), nil
}

// SaveTasks replaces the tasks with a copy of tasks.
func (s *Store) SaveTasks(ctx context.Context, tasks *domain.TaskList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks.Clone()
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
