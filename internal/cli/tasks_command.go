package cli

import (
	"context"
	"fmt"
	"strings"

	"microtask/internal/domain"
	"microtask/internal/errors"
)

// TasksCommand handles the tasks command
type TasksCommand struct {
	app *App
}

// NewTasksCommand creates a new tasks command handler
func NewTasksCommand(app *App) *TasksCommand {
	return &TasksCommand{app: app}
}

// Execute lists every task, or with a user id only the tasks that user
// can still claim
func (c *TasksCommand) Execute(ctx context.Context, args []string) error {
	var tasks []*domain.Task
	var err error

	switch len(args) {
	case 0:
		tasks, err = c.app.runtime.API.ListTasks(ctx)
	case 1:
		tasks, err = c.app.runtime.API.ListClaimable(ctx, args[0])
	default:
		return errors.NewInvalidInputError("command", "tasks", "usage: microtask tasks [user id]")
	}
	if err != nil {
		return c.app.errorHandler.Handle("list tasks", err)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(c.app.out, "No tasks found")
		return nil
	}
	c.printTasks(tasks)
	return nil
}

func (c *TasksCommand) printTasks(tasks []*domain.Task) {
	fmt.Fprintf(c.app.out, "%-10s %-7s %-6s %-9s %s\n", "ID", "LIMIT", "TAKEN", "COMPLETED", "TITLE")
	fmt.Fprintln(c.app.out, strings.Repeat("-", 50))
	for _, task := range tasks {
		fmt.Fprintf(c.app.out, "%-10s %-7s %-6d %-9d %s\n",
			task.ID, formatLimit(task), task.TakenBy.Len(), task.CompletedBy.Len(), task.Title)
	}
}

func formatLimit(task *domain.Task) string {
	if task.Limit == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *task.Limit)
}
