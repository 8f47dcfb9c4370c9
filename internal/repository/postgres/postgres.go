// Package postgres stores both collections in PostgreSQL through a pgx
// connection pool. It shares the schema and row mapping of the sqlite
// package; every save replaces a whole collection inside one transaction.
package postgres

import (
	"context"
	"fmt"

	"microtask/internal/domain"
	"microtask/internal/errors"
	"microtask/internal/logging"
	"microtask/internal/repository"
	"microtask/internal/repository/sqlite"
	"microtask/internal/repository/sqlite/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ repository.Store = (*Store)(nil)

const (
	selectAccountsQuery = `SELECT user_id, balance, withdraw_count FROM accounts`
	selectTasksQuery    = `SELECT id, position, title, instruction, task_limit FROM tasks ORDER BY position`
	selectMembersQuery  = `SELECT task_id, user_id, role FROM task_members ORDER BY task_id, role, user_id`
)

// Store is a PostgreSQL-backed repository.Store
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at url and applies pending migrations
func New(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.NewDatabaseError("connect to postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewDatabaseError("ping postgres", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}
	return s, nil
}

// Close releases every pooled connection
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	all, err := migrations.Load()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	for _, migration := range all {
		var applied bool
		err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM migrations WHERE version = $1)`, migration.Version).Scan(&applied)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		logging.Debugf("applying postgres migration %d\n", migration.Version)
		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, migration.Up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO migrations (version) VALUES ($1)`, migration.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}
	return nil
}

func query[T any](ctx context.Context, s *Store, sql string, scan func(sqlite.Rows) ([]*T, error), collection string) ([]*T, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, errors.NewDatabaseError("query "+collection, err)
	}
	defer rows.Close()

	results, err := scan(rows)
	if err != nil {
		return nil, errors.NewStorageCorruptionError(collection, err)
	}
	return results, nil
}

// LoadAccounts reads every account
func (s *Store) LoadAccounts(ctx context.Context) (domain.Accounts, error) {
	rows, err := query(ctx, s, selectAccountsQuery, sqlite.ScanAccounts, "accounts")
	if err != nil {
		return nil, err
	}
	return sqlite.AccountsFromRows(rows)
}

// SaveAccounts replaces the accounts table
func (s *Store) SaveAccounts(ctx context.Context, accounts domain.Accounts) error {
	rows := sqlite.AccountsToRows(accounts)
	return s.replace(ctx, "save accounts", []string{"accounts"}, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"accounts"},
			[]string{"user_id", "balance", "withdraw_count"},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				return []any{rows[i].UserID, rows[i].Balance, rows[i].WithdrawCount}, nil
			}))
		return err
	})
}

// LoadTasks reads every task in collection order
func (s *Store) LoadTasks(ctx context.Context) (*domain.TaskList, error) {
	taskRows, err := query(ctx, s, selectTasksQuery, sqlite.ScanTasks, "tasks")
	if err != nil {
		return nil, err
	}
	memberRows, err := query(ctx, s, selectMembersQuery, sqlite.ScanMembers, "tasks")
	if err != nil {
		return nil, err
	}
	return sqlite.TasksFromRows(taskRows, memberRows)
}

// SaveTasks replaces the tasks and task_members tables
func (s *Store) SaveTasks(ctx context.Context, tasks *domain.TaskList) error {
	taskRows, memberRows := sqlite.TasksToRows(tasks)
	return s.replace(ctx, "save tasks", []string{"task_members", "tasks"}, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"tasks"},
			[]string{"id", "position", "title", "instruction", "task_limit"},
			pgx.CopyFromSlice(len(taskRows), func(i int) ([]any, error) {
				row := taskRows[i]
				var limit *int64
				if row.Limit.Valid {
					limit = &row.Limit.Int64
				}
				return []any{row.ID, row.Position, row.Title, row.Instruction, limit}, nil
			}))
		if err != nil {
			return err
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"task_members"},
			[]string{"task_id", "user_id", "role"},
			pgx.CopyFromSlice(len(memberRows), func(i int) ([]any, error) {
				return []any{memberRows[i].TaskID, memberRows[i].UserID, memberRows[i].Role}, nil
			}))
		return err
	})
}

// replace clears tables and runs fill inside one transaction
func (s *Store) replace(ctx context.Context, operation string, tables []string, fill func(pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
				return err
			}
		}
		return fill(tx)
	})
	if err != nil {
		return errors.NewDatabaseError(operation, err)
	}
	return nil
}
