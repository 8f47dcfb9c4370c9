package sqlite

import "database/sql"

// Member roles stored in task_members.role
const (
	RoleTaken     = "taken"
	RoleCompleted = "completed"
)

// AccountRow represents a row of the accounts table
type AccountRow struct {
	UserID        string
	Balance       int64
	WithdrawCount int
}

// TaskRow represents a row of the tasks table.
// Limit is NULL for unlimited tasks.
type TaskRow struct {
	ID          string
	Position    int
	Title       string
	Instruction string
	Limit       sql.NullInt64
}

// MemberRow represents a row of the task_members table
type MemberRow struct {
	TaskID string
	UserID string
	Role   string
}
