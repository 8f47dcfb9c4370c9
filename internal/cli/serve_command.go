package cli

import (
	"context"
	"fmt"

	"microtask/internal/httpapi"
)

// ServeCommand handles the serve command
type ServeCommand struct {
	app  *App
	addr string
}

// NewServeCommand creates a serve command listening on the configured port
func NewServeCommand(app *App) *ServeCommand {
	return &ServeCommand{app: app, addr: fmt.Sprintf(":%d", app.runtime.Config.HTTP.Port)}
}

// Execute serves HTTP until ctx is cancelled
func (c *ServeCommand) Execute(ctx context.Context, args []string) error {
	rt := c.app.runtime
	router := httpapi.NewRouter(&httpapi.App{
		API:          rt.API,
		Conversation: rt.Conversation,
		Logger:       rt.Logger,
	}, rt.Config.HTTP.AllowedOrigins)
	return httpapi.Serve(ctx, c.addr, router, rt.Logger)
}
