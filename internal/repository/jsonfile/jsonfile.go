// Package jsonfile stores the two collections as JSON documents, one file per
// collection, in the layout earlier bot deployments wrote:
//
//	accounts: {"<user id>": {"balance": 0, "withdraws": 0}}
//	tasks:    {"<task id>": {"title": "", "instruction": "", "limit": null,
//	           "taken_by": [], "completed_by": []}}
//
// Task key order is preserved across load and save.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"microtask/internal/domain"
	"microtask/internal/errors"
	"microtask/internal/logging"
)

const (
	DefaultAccountsFile = "data.json"
	DefaultTasksFile    = "tasks.json"
)

type accountRecord struct {
	Balance   int64 `json:"balance"`
	Withdraws int   `json:"withdraws"`
}

type taskRecord struct {
	Title       string   `json:"title"`
	Instruction string   `json:"instruction"`
	Limit       *int     `json:"limit"`
	TakenBy     []string `json:"taken_by"`
	CompletedBy []string `json:"completed_by"`
}

// Store is a file-backed Store. It does not lock; wrap it in a
// repository.Guard.
type Store struct {
	accountsPath string
	tasksPath    string
}

// New creates a Store with the default file names inside dir, creating dir
// and empty collections if they do not exist yet.
func New(dir string, perm os.FileMode) (*Store, error) {
	return NewWithFiles(dir, DefaultAccountsFile, DefaultTasksFile, perm)
}

// NewWithFiles is New with explicit file names.
func NewWithFiles(dir, accountsFile, tasksFile string, perm os.FileMode) (*Store, error) {
	if err := os.MkdirAll(dir, perm); err != nil {
		return nil, errors.NewDatabaseError("create data directory", err)
	}
	s := &Store{
		accountsPath: filepath.Join(dir, accountsFile),
		tasksPath:    filepath.Join(dir, tasksFile),
	}
	for _, path := range []string{s.accountsPath, s.tasksPath} {
		if err := initFile(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func initFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.NewDatabaseError("stat "+filepath.Base(path), err)
	}
	logging.Debugf("initializing empty collection at %s\n", path)
	return writeAtomic(path, []byte("{}"))
}

// LoadAccounts reads the accounts file.
func (s *Store) LoadAccounts(ctx context.Context) (domain.Accounts, error) {
	data, err := readFile(s.accountsPath)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return make(domain.Accounts), nil
	}

	var records map[string]accountRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.NewStorageCorruptionError("accounts", err)
	}
	if records == nil {
		return nil, errors.NewStorageCorruptionError("accounts", fmt.Errorf("document is not an object"))
	}

	accounts := make(domain.Accounts, len(records))
	for id, rec := range records {
		acct, err := domain.NewUserAccount(rec.Balance, rec.Withdraws)
		if err != nil {
			return nil, errors.NewStorageCorruptionError("accounts", fmt.Errorf("account %s: %w", id, err))
		}
		accounts[id] = acct
	}
	return accounts, nil
}

// SaveAccounts writes the accounts file atomically.
func (s *Store) SaveAccounts(ctx context.Context, accounts domain.Accounts) error {
	records := make(map[string]accountRecord, len(accounts))
	for id, acct := range accounts {
		records[id] = accountRecord{Balance: acct.Balance, Withdraws: acct.WithdrawCount}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.NewDatabaseError("encode accounts", err)
	}
	return writeAtomic(s.accountsPath, data)
}

// LoadTasks reads the tasks file, keeping the document's key order.
func (s *Store) LoadTasks(ctx context.Context) (*domain.TaskList, error) {
	data, err := readFile(s.tasksPath)
	if err != nil {
		return nil, err
	}
	tasks := domain.NewTaskList()
	if data == nil {
		return tasks, nil
	}
	if err := decodeTasks(data, tasks); err != nil {
		return nil, errors.NewStorageCorruptionError("tasks", err)
	}
	return tasks, nil
}

func decodeTasks(data []byte, tasks *domain.TaskList) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document is not an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", keyTok)
		}
		var rec taskRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("task %s: %w", id, err)
		}
		task := &domain.Task{
			ID:          id,
			Title:       rec.Title,
			Instruction: rec.Instruction,
			Limit:       normalizeStoredLimit(rec.Limit),
			TakenBy:     domain.NewUserSet(rec.TakenBy...),
			CompletedBy: domain.NewUserSet(rec.CompletedBy...),
		}
		if !task.IsValid() {
			return fmt.Errorf("task %s: missing title", id)
		}
		if err := tasks.Add(task); err != nil {
			return fmt.Errorf("task %s: %w", id, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("trailing data after collection")
	}
	return nil
}

func normalizeStoredLimit(limit *int) *int {
	if limit == nil {
		return nil
	}
	return domain.NormalizeLimit(*limit)
}

// SaveTasks writes the tasks file atomically in collection order.
func (s *Store) SaveTasks(ctx context.Context, tasks *domain.TaskList) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, task := range tasks.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(task.ID)
		if err != nil {
			return errors.NewDatabaseError("encode tasks", err)
		}
		value, err := json.Marshal(taskRecord{
			Title:       task.Title,
			Instruction: task.Instruction,
			Limit:       task.Limit,
			TakenBy:     task.TakenBy.Sorted(),
			CompletedBy: task.CompletedBy.Sorted(),
		})
		if err != nil {
			return errors.NewDatabaseError("encode tasks", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return errors.NewDatabaseError("encode tasks", err)
	}
	return writeAtomic(s.tasksPath, out.Bytes())
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// readFile returns nil data for a missing file.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageCorruptionError(filepath.Base(path), err)
	}
	return data, nil
}

// writeAtomic writes to a temporary file and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewDatabaseError("write "+filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.NewDatabaseError("rename "+filepath.Base(path), err)
	}
	return nil
}
