package sqlite

import (
	"database/sql"
	"fmt"

	"microtask/internal/domain"
	"microtask/internal/errors"
)

// AccountsFromRows converts account rows to the domain collection
func AccountsFromRows(rows []*AccountRow) (domain.Accounts, error) {
	accounts := make(domain.Accounts, len(rows))
	for _, row := range rows {
		acct, err := domain.NewUserAccount(row.Balance, row.WithdrawCount)
		if err != nil {
			return nil, errors.NewStorageCorruptionError("accounts", fmt.Errorf("account %s: %w", row.UserID, err))
		}
		accounts[row.UserID] = acct
	}
	return accounts, nil
}

// AccountsToRows converts the domain collection to account rows
func AccountsToRows(accounts domain.Accounts) []AccountRow {
	rows := make([]AccountRow, 0, len(accounts))
	for id, acct := range accounts {
		rows = append(rows, AccountRow{UserID: id, Balance: acct.Balance, WithdrawCount: acct.WithdrawCount})
	}
	return rows
}

// TasksFromRows assembles the task collection. Task rows must already be
// ordered by position.
func TasksFromRows(taskRows []*TaskRow, memberRows []*MemberRow) (*domain.TaskList, error) {
	tasks := domain.NewTaskList()
	for _, row := range taskRows {
		task := &domain.Task{
			ID:          row.ID,
			Title:       row.Title,
			Instruction: row.Instruction,
			TakenBy:     domain.NewUserSet(),
			CompletedBy: domain.NewUserSet(),
		}
		if row.Limit.Valid {
			task.Limit = domain.NormalizeLimit(int(row.Limit.Int64))
		}
		if !task.IsValid() {
			return nil, errors.NewStorageCorruptionError("tasks", fmt.Errorf("task %q is missing its title", row.ID))
		}
		if err := tasks.Add(task); err != nil {
			return nil, errors.NewStorageCorruptionError("tasks", err)
		}
	}

	for _, member := range memberRows {
		task, ok := tasks.Get(member.TaskID)
		if !ok {
			return nil, errors.NewStorageCorruptionError("tasks", fmt.Errorf("member row for unknown task %q", member.TaskID))
		}
		switch member.Role {
		case RoleTaken:
			task.TakenBy.Add(member.UserID)
		case RoleCompleted:
			task.CompletedBy.Add(member.UserID)
		default:
			return nil, errors.NewStorageCorruptionError("tasks", fmt.Errorf("unknown member role %q", member.Role))
		}
	}
	return tasks, nil
}

// TasksToRows flattens the task collection, numbering positions in
// collection order
func TasksToRows(tasks *domain.TaskList) ([]TaskRow, []MemberRow) {
	all := tasks.All()
	taskRows := make([]TaskRow, 0, len(all))
	var memberRows []MemberRow
	for i, task := range all {
		row := TaskRow{
			ID:          task.ID,
			Position:    i,
			Title:       task.Title,
			Instruction: task.Instruction,
		}
		if task.Limit != nil {
			row.Limit = sql.NullInt64{Int64: int64(*task.Limit), Valid: true}
		}
		taskRows = append(taskRows, row)

		for _, userID := range task.TakenBy.Sorted() {
			memberRows = append(memberRows, MemberRow{TaskID: task.ID, UserID: userID, Role: RoleTaken})
		}
		for _, userID := range task.CompletedBy.Sorted() {
			memberRows = append(memberRows, MemberRow{TaskID: task.ID, UserID: userID, Role: RoleCompleted})
		}
	}
	return taskRows, memberRows
}
