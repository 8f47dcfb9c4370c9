package cli

import (
	"io"
	"os"
)

// App is what the command handlers share
type App struct {
	runtime      *Runtime
	out          io.Writer
	errorHandler *ErrorHandler
}

// NewApp creates a CLI application over a wired runtime
func NewApp(runtime *Runtime, out io.Writer) *App {
	if out == nil {
		out = os.Stdout
	}
	return &App{
		runtime:      runtime,
		out:          out,
		errorHandler: NewErrorHandler(),
	}
}
