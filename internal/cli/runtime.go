package cli

import (
	"context"
	"io"
	"log/slog"

	"microtask/internal/api"
	"microtask/internal/config"
	"microtask/internal/domain"
	"microtask/internal/logging"
	"microtask/internal/notify"
	"microtask/internal/repository"
	"microtask/internal/services"
	"microtask/internal/session"
	"microtask/internal/validation"
)

// Runtime holds the wired application built from a Config
type Runtime struct {
	Config       *config.Config
	Logger       *slog.Logger
	API          api.API
	Conversation *api.Conversation

	store     repository.Store
	notifiers *config.Notifiers
	outbox    *notify.Dispatcher
}

// NewRuntime opens the configured store and notification sinks and wires
// the services on top of them. Logs go to logOut.
func NewRuntime(ctx context.Context, cfg *config.Config, logOut io.Writer) (*Runtime, error) {
	level := cfg.Application.LogLevel
	if cfg.Application.Verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logOut, level, cfg.Application.LogFormat)

	store, err := config.CreateRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifiers, err := config.CreateNotifier(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	outbox := notify.NewDispatcher(notifiers, logger, cfg.DispatchOptions())
	guard := repository.NewGuard(store)
	policy := domain.WithdrawalPolicy{
		FirstMinimum:  cfg.Ledger.FirstWithdrawalMinimum,
		RepeatMinimum: cfg.Ledger.RepeatWithdrawalMinimum,
	}
	container := &services.ServiceContainer{
		Ledger: services.NewLedgerService(guard, policy, outbox, logger),
		TaskRegistry: services.NewTaskService(guard, outbox, logger,
			services.WithIDGenerator(services.ShortUUID(cfg.Tasks.IDLength)),
			services.WithTaskValidator(validation.NewTaskValidatorWithConfig(cfg)),
		),
	}
	apiInstance := api.New(container, cfg.IsAdmin)

	return &Runtime{
		Config:       cfg,
		Logger:       logger,
		API:          apiInstance,
		Conversation: api.NewConversation(apiInstance, session.NewMemoryStore(), logger),
		store:        store,
		notifiers:    notifiers,
		outbox:       outbox,
	}, nil
}

// Close waits for queued notifications, then releases the sinks and the
// store
func (r *Runtime) Close() error {
	_ = r.outbox.Close()
	notifyErr := r.notifiers.Close()
	if err := r.store.Close(); err != nil {
		return err
	}
	return notifyErr
}
