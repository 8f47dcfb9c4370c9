package sqlite

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// ScanAccount scans a single account from a database row
func ScanAccount(scanner Scanner) (*AccountRow, error) {
	row := &AccountRow{}
	if err := scanner.Scan(&row.UserID, &row.Balance, &row.WithdrawCount); err != nil {
		return nil, err
	}
	return row, nil
}

// ScanTask scans a single task from a database row
func ScanTask(scanner Scanner) (*TaskRow, error) {
	row := &TaskRow{}
	if err := scanner.Scan(&row.ID, &row.Position, &row.Title, &row.Instruction, &row.Limit); err != nil {
		return nil, err
	}
	return row, nil
}

// ScanMember scans a single task membership from a database row
func ScanMember(scanner Scanner) (*MemberRow, error) {
	row := &MemberRow{}
	if err := scanner.Scan(&row.TaskID, &row.UserID, &row.Role); err != nil {
		return nil, err
	}
	return row, nil
}

// ScanAll scans every remaining row with scan
func ScanAll[T any](rows Rows, scan func(Scanner) (*T, error)) ([]*T, error) {
	var results []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// ScanAccounts scans multiple accounts from database rows
func ScanAccounts(rows Rows) ([]*AccountRow, error) {
	return ScanAll(rows, ScanAccount)
}

// ScanTasks scans multiple tasks from database rows
func ScanTasks(rows Rows) ([]*TaskRow, error) {
	return ScanAll(rows, ScanTask)
}

// ScanMembers scans multiple task memberships from database rows
func ScanMembers(rows Rows) ([]*MemberRow, error) {
	return ScanAll(rows, ScanMember)
}
