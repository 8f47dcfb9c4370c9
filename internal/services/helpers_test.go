package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"microtask/internal/domain"
	"microtask/internal/notify"
	"microtask/internal/repository"
	"microtask/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var errSaveFailed = errors.New("disk full")

// flakyStore fails saves while failSaves is set
type flakyStore struct {
	*memory.Store
	mu        sync.Mutex
	failSaves bool
}

func (s *flakyStore) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = v
}

func (s *flakyStore) failing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failSaves
}

func (s *flakyStore) SaveAccounts(ctx context.Context, accounts domain.Accounts) error {
	if s.failing() {
		return errSaveFailed
	}
	return s.Store.SaveAccounts(ctx, accounts)
}

func (s *flakyStore) SaveTasks(ctx context.Context, tasks *domain.TaskList) error {
	if s.failing() {
		return errSaveFailed
	}
	return s.Store.SaveTasks(ctx, tasks)
}

// capturingNotifier records every notification
type capturingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (c *capturingNotifier) Notify(_ context.Context, n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return c.err
}

func (c *capturingNotifier) all() []notify.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Notification(nil), c.sent...)
}

func setupStore(t *testing.T) (*flakyStore, *repository.Guard) {
	t.Helper()
	store := &flakyStore{Store: memory.New()}
	return store, repository.NewGuard(store)
}

func seedAccounts(t *testing.T, store repository.Store, accounts domain.Accounts) {
	t.Helper()
	require.NoError(t, store.SaveAccounts(context.Background(), accounts))
}

// blockingNotifier holds every delivery until release is closed
type blockingNotifier struct {
	release   chan struct{}
	delivered chan notify.Notification
	ctxErrs   chan error
}

func newBlockingNotifier() *blockingNotifier {
	return &blockingNotifier{
		release:   make(chan struct{}),
		delivered: make(chan notify.Notification, 8),
		ctxErrs:   make(chan error, 8),
	}
}

func (b *blockingNotifier) Notify(ctx context.Context, n notify.Notification) error {
	<-b.release
	b.ctxErrs <- ctx.Err()
	b.delivered <- n
	return nil
}

// returnsWithin runs fn and fails the test if it has not returned in time
func returnsWithin(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("call still running after %s", d)
	}
}
