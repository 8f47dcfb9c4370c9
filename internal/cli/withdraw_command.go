package cli

import (
	"context"
	"fmt"

	"microtask/internal/errors"
)

// WithdrawCommand handles the withdraw command
type WithdrawCommand struct {
	app *App
}

// NewWithdrawCommand creates a new withdraw command handler
func NewWithdrawCommand(app *App) *WithdrawCommand {
	return &WithdrawCommand{app: app}
}

// Execute requests a withdrawal of args[1] for user args[0]
func (c *WithdrawCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.NewInvalidInputError("command", "withdraw", "usage: microtask withdraw <user id> <amount>")
	}

	receipt, err := c.app.runtime.API.RequestWithdrawal(ctx, args[0], args[1])
	if err != nil {
		return c.app.errorHandler.Handle("withdraw", err)
	}

	fmt.Fprintf(c.app.out, "Withdrawal #%d for %s: %d (balance %d -> %d)\n",
		receipt.WithdrawalNumber, receipt.UserID, receipt.Amount, receipt.BalanceBefore, receipt.BalanceAfter)
	return nil
}
