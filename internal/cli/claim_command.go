package cli

import (
	"context"
	"fmt"
	"strings"

	"microtask/internal/domain"
	"microtask/internal/errors"
)

// ClaimCommand handles the claim command
type ClaimCommand struct {
	app *App
}

// NewClaimCommand creates a new claim command handler
func NewClaimCommand(app *App) *ClaimCommand {
	return &ClaimCommand{app: app}
}

// Execute claims task args[0] for user args[1]
func (c *ClaimCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.NewInvalidInputError("command", "claim", "usage: microtask claim <task id> <user id>")
	}

	task, err := c.app.runtime.API.Claim(ctx, args[0], args[1])
	if err != nil {
		return c.app.errorHandler.Handle("claim task", err)
	}

	fmt.Fprintf(c.app.out, "%s claimed %s (%s)\n", args[1], task.Title, task.ID)
	if task.Instruction != "" {
		fmt.Fprintf(c.app.out, "Instruction: %s\n", task.Instruction)
	}
	return nil
}

// CompleteCommand handles the complete command
type CompleteCommand struct {
	app        *App
	attachment string
}

// NewCompleteCommand creates a new complete command handler. attachment is
// an optional chat file reference sent along with the report.
func NewCompleteCommand(app *App, attachment string) *CompleteCommand {
	return &CompleteCommand{app: app, attachment: attachment}
}

// Execute completes task args[0] for user args[1]; remaining args are the
// report text
func (c *CompleteCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.NewInvalidInputError("command", "complete", `usage: microtask complete <task id> <user id> ["report text"]`)
	}

	report := domain.Report{
		Text:       strings.Join(args[2:], " "),
		Attachment: c.attachment,
	}
	task, err := c.app.runtime.API.Complete(ctx, args[0], args[1], report)
	if err != nil {
		return c.app.errorHandler.Handle("complete task", err)
	}

	fmt.Fprintf(c.app.out, "%s completed %s (%s); report sent for review\n", args[1], task.Title, task.ID)
	return nil
}
