package cli

import (
	"context"
	"fmt"

	"microtask/internal/errors"
)

// BalanceCommand handles the balance command
type BalanceCommand struct {
	app *App
}

// NewBalanceCommand creates a new balance command handler
func NewBalanceCommand(app *App) *BalanceCommand {
	return &BalanceCommand{app: app}
}

// Execute prints the account of args[0]. Unknown users show a zero balance.
func (c *BalanceCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("command", "balance", "usage: microtask balance <user id>")
	}

	summary, err := c.app.runtime.API.GetAccountSummary(ctx, args[0])
	if err != nil {
		return c.app.errorHandler.Handle("get balance", err)
	}

	eligible := "no"
	if summary.Eligible {
		eligible = "yes"
	}
	fmt.Fprintf(c.app.out, "User:         %s\n", summary.UserID)
	fmt.Fprintf(c.app.out, "Balance:      %d\n", summary.Balance)
	fmt.Fprintf(c.app.out, "Withdrawals:  %d\n", summary.WithdrawCount)
	fmt.Fprintf(c.app.out, "Minimum:      %d\n", summary.WithdrawalMinimum)
	fmt.Fprintf(c.app.out, "Can withdraw: %s\n", eligible)
	return nil
}
