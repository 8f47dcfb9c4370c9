package sqlite

import (
	"context"
	"database/sql"

	"microtask/internal/domain"
	"microtask/internal/errors"
	"microtask/internal/repository"
	"microtask/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

var _ repository.Store = (*SQLiteRepository)(nil)

const (
	selectAccountsQuery = `SELECT user_id, balance, withdraw_count FROM accounts`
	selectTasksQuery    = `SELECT id, position, title, instruction, task_limit FROM tasks ORDER BY position`
	selectMembersQuery  = `SELECT task_id, user_id, role FROM task_members ORDER BY task_id, role, user_id`
)

// SQLiteRepository stores both collections in a SQLite database. Each save
// replaces the whole collection inside one transaction.
type SQLiteRepository struct {
	db *sql.DB
}

// New creates a new SQLite repository instance
func New(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := migrations.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// LoadAccounts reads every account
func (r *SQLiteRepository) LoadAccounts(ctx context.Context) (domain.Accounts, error) {
	rows, err := QueryMultiple(ctx, r.db, selectAccountsQuery, ScanAccounts, "accounts")
	if err != nil {
		return nil, err
	}
	return AccountsFromRows(rows)
}

// SaveAccounts replaces the accounts table
func (r *SQLiteRepository) SaveAccounts(ctx context.Context, accounts domain.Accounts) error {
	return WithTransaction(ctx, r.db, "save accounts", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
			return HandleDatabaseError("clear accounts", err)
		}
		for _, row := range AccountsToRows(accounts) {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO accounts (user_id, balance, withdraw_count) VALUES (?, ?, ?)`,
				row.UserID, row.Balance, row.WithdrawCount)
			if err != nil {
				return HandleDatabaseError("insert account", err)
			}
		}
		return nil
	})
}

// LoadTasks reads every task in collection order
func (r *SQLiteRepository) LoadTasks(ctx context.Context) (*domain.TaskList, error) {
	taskRows, err := QueryMultiple(ctx, r.db, selectTasksQuery, ScanTasks, "tasks")
	if err != nil {
		return nil, err
	}
	memberRows, err := QueryMultiple(ctx, r.db, selectMembersQuery, ScanMembers, "tasks")
	if err != nil {
		return nil, err
	}
	return TasksFromRows(taskRows, memberRows)
}

// SaveTasks replaces the tasks and task_members tables
func (r *SQLiteRepository) SaveTasks(ctx context.Context, tasks *domain.TaskList) error {
	taskRows, memberRows := TasksToRows(tasks)
	return WithTransaction(ctx, r.db, "save tasks", func(tx *sql.Tx) error {
		for _, stmt := range []string{`DELETE FROM task_members`, `DELETE FROM tasks`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return HandleDatabaseError("clear tasks", err)
			}
		}
		for _, row := range taskRows {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO tasks (id, position, title, instruction, task_limit) VALUES (?, ?, ?, ?, ?)`,
				row.ID, row.Position, row.Title, row.Instruction, row.Limit)
			if err != nil {
				return HandleDatabaseError("insert task", err)
			}
		}
		for _, row := range memberRows {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO task_members (task_id, user_id, role) VALUES (?, ?, ?)`,
				row.TaskID, row.UserID, row.Role)
			if err != nil {
				return HandleDatabaseError("insert task member", err)
			}
		}
		return nil
	})
}
