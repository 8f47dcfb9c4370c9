package cli

import (
	"context"
	"io"
	"os"

	"microtask/internal/config"

	"github.com/spf13/cobra"
)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd    *cobra.Command
	out    io.Writer
	logOut io.Writer

	runtime     *Runtime
	ownsRuntime bool
	attachment  string
}

// NewRootCommand creates the root command. The runtime is built from
// configuration and flags before each subcommand runs.
func NewRootCommand(out, logOut io.Writer) *RootCommand {
	if out == nil {
		out = os.Stdout
	}
	if logOut == nil {
		logOut = os.Stderr
	}
	root := &RootCommand{out: out, logOut: logOut}
	root.build()
	return root
}

// NewRootCommandWithRuntime creates a root command over an existing
// runtime. Configuration flags are ignored and the runtime is not closed.
func NewRootCommandWithRuntime(runtime *Runtime, out io.Writer) *RootCommand {
	root := &RootCommand{out: out, logOut: io.Discard, runtime: runtime}
	root.build()
	return root
}

func (r *RootCommand) build() {
	r.cmd = &cobra.Command{
		Use:   "microtask",
		Short: "Operate the micro-task ledger",
		Long: `microtask runs the paid micro-task engine: participants claim tasks, submit
reports and withdraw their balance once it reaches the withdrawal minimum.

EXAMPLES:
  microtask serve                                # Serve the HTTP endpoints and chat hook
  microtask task add "Subscribe" "Join @chan" 5  # Create a task limited to 5 participants
  microtask tasks                                # List every task
  microtask tasks 1001                           # List tasks user 1001 can claim
  microtask claim a1b2c3d4 1001                  # Claim a task for a user
  microtask complete a1b2c3d4 1001 "done"        # Complete it with a report
  microtask credit 1001 1200                     # Pay out to a user
  microtask withdraw 1001 1000                   # Request a withdrawal
  microtask balance 1001                         # Show a user's balance

CONFIGURATION:
  Configuration follows this priority order: command-line flags > environment
  variables > configuration file (MT_CONFIG_FILE) > defaults. A .env file in the
  working directory is loaded into the environment first.

  Store:
    MT_STORE_BACKEND          memory, json, sqlite or postgres (default: json)
    MT_STORE_DIR              Data directory (default: ~/.microtask)
    MT_STORE_POSTGRES_URL     Postgres connection string

  Ledger:
    MT_LEDGER_FIRST_MINIMUM   Minimum first withdrawal (default: 1000)
    MT_LEDGER_REPEAT_MINIMUM  Minimum later withdrawals (default: 5000)

  Notifications:
    MT_NOTIFY_SINKS           Comma separated: log, telegram, kafka (default: log)
    MT_NOTIFY_TELEGRAM_TOKEN  Bot token for the telegram sink
    MT_NOTIFY_ADMIN_CHAT_ID   Chat receiving withdrawal requests
    MT_NOTIFY_REVIEW_CHAT_ID  Chat receiving reports (default: admin chat)
    MT_NOTIFY_KAFKA_BROKERS   Comma separated brokers for the kafka sink
    MT_NOTIFY_WORKERS         Background delivery workers (default: 4)
    MT_NOTIFY_QUEUE_SIZE      Notifications queued before dropping (default: 256)
    MT_NOTIFY_TIMEOUT         Per-delivery timeout (default: 10s)

  Application:
    PORT, MT_HTTP_PORT        HTTP port (default: 8000)
    MT_ADMIN_IDS              Comma separated operator user ids
    MT_LOG_LEVEL              DEBUG, INFO, WARN or ERROR (default: INFO)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.setupRuntime(cmd.Context())
		},
	}
	r.cmd.SetOut(r.out)

	r.addGlobalFlags()
	r.addSubcommands()
}

// Execute runs the root command and closes a runtime it opened
func (r *RootCommand) Execute(ctx context.Context) error {
	err := r.cmd.ExecuteContext(ctx)
	if closeErr := r.closeRuntime(); err == nil {
		err = closeErr
	}
	return err
}

// SetArgs overrides the command line arguments, for tests
func (r *RootCommand) SetArgs(args []string) {
	r.cmd.SetArgs(args)
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	// Store configuration
	flags.String("store-backend", "", "Store backend: memory, json, sqlite, postgres (overrides MT_STORE_BACKEND)")
	flags.String("store-dir", "", "Data directory (overrides MT_STORE_DIR)")
	flags.String("postgres-url", "", "Postgres connection string (overrides MT_STORE_POSTGRES_URL)")

	// Ledger configuration
	flags.Int64("first-minimum", 0, "Minimum first withdrawal (overrides MT_LEDGER_FIRST_MINIMUM)")
	flags.Int64("repeat-minimum", 0, "Minimum later withdrawals (overrides MT_LEDGER_REPEAT_MINIMUM)")

	// HTTP configuration
	flags.Int("port", 0, "HTTP port (overrides PORT and MT_HTTP_PORT)")

	// Application configuration
	flags.String("log-level", "", "Log level (overrides MT_LOG_LEVEL)")
	flags.Bool("verbose", false, "Enable debug logging (overrides MT_APP_VERBOSE)")
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP endpoints and the chat message hook",
		Long: `Serve GET /healthz, GET /users/{id}/balance, GET /users/{id}/tasks and
GET /tasks/{id} until interrupted. A chat front end posts user events to
POST /users/{id}/messages and renders the replies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewServeCommand(r.app()).Execute(cmd.Context(), args)
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <user id>",
		Short: "Show a user's balance and withdrawal eligibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewBalanceCommand(r.app()).Execute(cmd.Context(), args)
		},
	}

	creditCmd := &cobra.Command{
		Use:   "credit <user id> <amount>",
		Short: "Add a payout to a user's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewCreditCommand(r.app()).Execute(cmd.Context(), args)
		},
	}

	withdrawCmd := &cobra.Command{
		Use:   "withdraw <user id> <amount>",
		Short: "Request a withdrawal for a user",
		Long: `Request a withdrawal. The first withdrawal needs at least the first minimum,
every later one the repeat minimum, and the amount may not exceed the balance.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewWithdrawCommand(r.app()).Execute(cmd.Context(), args)
		},
	}

	tasksCmd := &cobra.Command{
		Use:   "tasks [user id]",
		Short: "List tasks",
		Long:  "List every task, or only the tasks a user has neither taken nor completed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewTasksCommand(r.app()).Execute(cmd.Context(), args)
		},
	}

	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Create and inspect tasks",
	}
	taskAddCmd := &cobra.Command{
		Use:   `add "<title>" ["<instruction>"] [limit]`,
		Short: "Create a task",
		Long:  "Create a task. A limit of 0 or less, or no limit, makes the task unlimited.",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewTaskAddCommand(r.app()).Execute(cmd.Context(), args)
		},
	}
	taskShowCmd := &cobra.Command{
		Use:   "show <task id>",
		Short: "Show a task and its participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewTaskShowCommand(r.app()).Execute(cmd.Context(), args)
		},
	}
	taskCmd.AddCommand(taskAddCmd, taskShowCmd)

	claimCmd := &cobra.Command{
		Use:   "claim <task id> <user id>",
		Short: "Claim a task for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewClaimCommand(r.app()).Execute(cmd.Context(), args)
		},
	}

	completeCmd := &cobra.Command{
		Use:   `complete <task id> <user id> ["report text"]`,
		Short: "Complete a claimed task and send the report for review",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewCompleteCommand(r.app(), r.attachment).Execute(cmd.Context(), args)
		},
	}
	completeCmd.Flags().StringVar(&r.attachment, "attachment", "", "Chat file reference to send with the report")

	r.cmd.AddCommand(
		serveCmd,
		balanceCmd,
		creditCmd,
		withdrawCmd,
		tasksCmd,
		taskCmd,
		claimCmd,
		completeCmd,
	)
}

func (r *RootCommand) app() *App {
	return NewApp(r.runtime, r.out)
}

// setupRuntime loads configuration with flag overrides and wires the runtime
func (r *RootCommand) setupRuntime(ctx context.Context) error {
	if r.runtime != nil {
		return nil
	}

	cfg, err := config.NewLoader().LoadWithOverrides(r.getOverridesFromFlags())
	if err != nil {
		return err
	}

	runtime, err := NewRuntime(ctx, cfg, r.logOut)
	if err != nil {
		return err
	}
	r.runtime = runtime
	r.ownsRuntime = true
	return nil
}

func (r *RootCommand) closeRuntime() error {
	if !r.ownsRuntime || r.runtime == nil {
		return nil
	}
	err := r.runtime.Close()
	r.runtime = nil
	r.ownsRuntime = false
	return err
}

// getOverridesFromFlags collects the flags that were set explicitly
func (r *RootCommand) getOverridesFromFlags() *config.ConfigOverrides {
	flags := r.cmd.PersistentFlags()
	overrides := &config.ConfigOverrides{}

	if flags.Changed("store-backend") {
		v, _ := flags.GetString("store-backend")
		overrides.StoreBackend = &v
	}
	if flags.Changed("store-dir") {
		v, _ := flags.GetString("store-dir")
		overrides.StoreDir = &v
	}
	if flags.Changed("postgres-url") {
		v, _ := flags.GetString("postgres-url")
		overrides.PostgresURL = &v
	}

	if flags.Changed("first-minimum") {
		v, _ := flags.GetInt64("first-minimum")
		overrides.FirstWithdrawalMinimum = &v
	}
	if flags.Changed("repeat-minimum") {
		v, _ := flags.GetInt64("repeat-minimum")
		overrides.RepeatWithdrawalMinimum = &v
	}

	if flags.Changed("port") {
		v, _ := flags.GetInt("port")
		overrides.HTTPPort = &v
	}

	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		overrides.LogLevel = &v
	}
	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		overrides.Verbose = &v
	}

	return overrides
}
