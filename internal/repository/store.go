// Package repository defines the persistent store contract for the two
// collections (user accounts and tasks) and the Guard that turns plain
// load/save pairs into serialized read-modify-write transactions.
package repository

import (
	"context"
	"sync"

	"microtask/internal/domain"
	"microtask/internal/errors"
	"microtask/internal/logging"
)

// Store round-trips each collection as a single unit. Implementations must
// return an empty collection when storage has not been initialized yet and a
// storage corruption error, never a partial collection, when it is unreadable.
type Store interface {
	LoadAccounts(ctx context.Context) (domain.Accounts, error)
	SaveAccounts(ctx context.Context, accounts domain.Accounts) error
	LoadTasks(ctx context.Context) (*domain.TaskList, error)
	SaveTasks(ctx context.Context, tasks *domain.TaskList) error
	Close() error
}

// Guard serializes access to each collection of a Store. Accounts and tasks
// have independent locks.
type Guard struct {
	store      Store
	accountsMu sync.Mutex
	tasksMu    sync.Mutex
}

// NewGuard wraps store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Store returns the wrapped store.
func (g *Guard) Store() Store {
	return g.store
}

// ViewAccounts loads the accounts under the accounts lock and passes them to fn.
// Changes made by fn are discarded.
func (g *Guard) ViewAccounts(ctx context.Context, fn func(domain.Accounts) error) error {
	g.accountsMu.Lock()
	defer g.accountsMu.Unlock()

	accounts, err := g.store.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	return fn(accounts)
}

// UpdateAccounts runs fn as a read-modify-write transaction. The collection
// is saved only when fn returns nil.
func (g *Guard) UpdateAccounts(ctx context.Context, fn func(domain.Accounts) error) error {
	g.accountsMu.Lock()
	defer g.accountsMu.Unlock()

	accounts, err := g.store.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}
	for id, acct := range accounts {
		if !acct.IsValid() {
			return errors.NewInvalidInputError("account", id, "balance and withdraw count must not be negative")
		}
	}
	logging.Debugf("saving %d accounts\n", len(accounts))
	return g.store.SaveAccounts(ctx, accounts)
}

// ViewTasks loads the tasks under the tasks lock and passes them to fn.
// Changes made by fn are discarded.
func (g *Guard) ViewTasks(ctx context.Context, fn func(*domain.TaskList) error) error {
	g.tasksMu.Lock()
	defer g.tasksMu.Unlock()

	tasks, err := g.store.LoadTasks(ctx)
	if err != nil {
		return err
	}
	return fn(tasks)
}

// UpdateTasks runs fn as a read-modify-write transaction. The collection is
// saved only when fn returns nil.
func (g *Guard) UpdateTasks(ctx context.Context, fn func(*domain.TaskList) error) error {
	g.tasksMu.Lock()
	defer g.tasksMu.Unlock()

	tasks, err := g.store.LoadTasks(ctx)
	if err != nil {
		return err
	}
	if err := fn(tasks); err != nil {
		return err
	}
	logging.Debugf("saving %d tasks\n", tasks.Len())
	return g.store.SaveTasks(ctx, tasks)
}

// Close closes the wrapped store.
func (g *Guard) Close() error {
	return g.store.Close()
}
