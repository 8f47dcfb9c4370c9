package cli

import (
	"context"
	"fmt"
	"strings"

	"microtask/internal/errors"
	"microtask/internal/validation"
)

// TaskAddCommand handles the task add command
type TaskAddCommand struct {
	app *App
}

// NewTaskAddCommand creates a new task add command handler
func NewTaskAddCommand(app *App) *TaskAddCommand {
	return &TaskAddCommand{app: app}
}

// Execute creates a task from title, optional instruction and optional
// limit. A limit of 0 or less means unlimited.
func (c *TaskAddCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return errors.NewInvalidInputError("command", "task add",
			`usage: microtask task add "<title>" ["<instruction>"] [limit]`)
	}

	var instruction string
	if len(args) > 1 {
		instruction = args[1]
	}
	limit := 0
	if len(args) > 2 {
		parsed, err := validation.ParseLimit(args[2])
		if err != nil {
			return c.app.errorHandler.Handle("add task", err)
		}
		limit = parsed
	}

	task, err := c.app.runtime.API.CreateTask(ctx, args[0], instruction, limit)
	if err != nil {
		return c.app.errorHandler.Handle("add task", err)
	}

	fmt.Fprintf(c.app.out, "Task added: %s (%s)\n", task.Title, task.ID)
	return nil
}

// TaskShowCommand handles the task show command
type TaskShowCommand struct {
	app *App
}

// NewTaskShowCommand creates a new task show command handler
func NewTaskShowCommand(app *App) *TaskShowCommand {
	return &TaskShowCommand{app: app}
}

// Execute prints one task with its participants
func (c *TaskShowCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("command", "task show", "usage: microtask task show <task id>")
	}

	task, err := c.app.runtime.API.GetTask(ctx, args[0])
	if err != nil {
		return c.app.errorHandler.Handle("show task", err)
	}

	fmt.Fprintf(c.app.out, "ID:          %s\n", task.ID)
	fmt.Fprintf(c.app.out, "Title:       %s\n", task.Title)
	fmt.Fprintf(c.app.out, "Instruction: %s\n", task.Instruction)
	fmt.Fprintf(c.app.out, "Limit:       %s\n", formatLimit(task))
	fmt.Fprintf(c.app.out, "Taken by:    %s\n", joinOrNone(task.TakenBy.Sorted()))
	fmt.Fprintf(c.app.out, "Completed:   %s\n", joinOrNone(task.CompletedBy.Sorted()))
	return nil
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
