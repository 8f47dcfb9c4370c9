package cli

import (
	"context"
	"fmt"

	"microtask/internal/errors"
	"microtask/internal/validation"
)

// CreditCommand handles the credit command
type CreditCommand struct {
	app *App
}

// NewCreditCommand creates a new credit command handler
func NewCreditCommand(app *App) *CreditCommand {
	return &CreditCommand{app: app}
}

// Execute credits args[1] to user args[0]
func (c *CreditCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.NewInvalidInputError("command", "credit", "usage: microtask credit <user id> <amount>")
	}

	amount, err := validation.ParseAmount(args[1])
	if err != nil {
		return c.app.errorHandler.Handle("credit", err)
	}

	balance, err := c.app.runtime.API.Credit(ctx, args[0], amount)
	if err != nil {
		return c.app.errorHandler.Handle("credit", err)
	}

	fmt.Fprintf(c.app.out, "Credited %d to %s. Balance: %d\n", amount, args[0], balance)
	return nil
}
