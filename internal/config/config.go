package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"microtask/internal/logging"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Notification sinks
const (
	SinkLog      = "log"
	SinkTelegram = "telegram"
	SinkKafka    = "kafka"
)

// Config holds all configuration options for the microtask engine
type Config struct {
	Store       StoreConfig       `mapstructure:"store"`
	Ledger      LedgerConfig      `mapstructure:"ledger"`
	Tasks       TasksConfig       `mapstructure:"tasks"`
	Notify      NotifyConfig      `mapstructure:"notify"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Application ApplicationConfig `mapstructure:"application"`
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	Backend        string `mapstructure:"backend" env:"MT_STORE_BACKEND"`
	Dir            string `mapstructure:"dir" env:"MT_STORE_DIR"`
	AccountsFile   string `mapstructure:"accounts_file" env:"MT_STORE_ACCOUNTS_FILE"`
	TasksFile      string `mapstructure:"tasks_file" env:"MT_STORE_TASKS_FILE"`
	SQLiteFilename string `mapstructure:"sqlite_filename" env:"MT_STORE_SQLITE_FILENAME"`
	PostgresURL    string `mapstructure:"postgres_url" env:"MT_STORE_POSTGRES_URL"`
	DirPermissions uint32 `mapstructure:"dir_permissions" env:"MT_STORE_DIR_PERMISSIONS"`
}

// LedgerConfig holds withdrawal thresholds in minor units
type LedgerConfig struct {
	FirstWithdrawalMinimum  int64 `mapstructure:"first_minimum" env:"MT_LEDGER_FIRST_MINIMUM"`
	RepeatWithdrawalMinimum int64 `mapstructure:"repeat_minimum" env:"MT_LEDGER_REPEAT_MINIMUM"`
}

// TasksConfig holds task creation rules
type TasksConfig struct {
	TitleMaxLength       int `mapstructure:"title_max" env:"MT_TASKS_TITLE_MAX"`
	InstructionMaxLength int `mapstructure:"instruction_max" env:"MT_TASKS_INSTRUCTION_MAX"`
	IDLength             int `mapstructure:"id_length" env:"MT_TASKS_ID_LENGTH"`
}

// NotifyConfig selects and configures notification sinks
type NotifyConfig struct {
	Sinks            []string `mapstructure:"sinks" env:"MT_NOTIFY_SINKS"`
	TelegramToken    string   `mapstructure:"telegram_token" env:"MT_NOTIFY_TELEGRAM_TOKEN"`
	TelegramEndpoint string   `mapstructure:"telegram_endpoint" env:"MT_NOTIFY_TELEGRAM_ENDPOINT"`
	AdminChatID      int64    `mapstructure:"admin_chat_id" env:"MT_NOTIFY_ADMIN_CHAT_ID"`
	ReviewChatID     int64    `mapstructure:"review_chat_id" env:"MT_NOTIFY_REVIEW_CHAT_ID"`
	KafkaBrokers     []string `mapstructure:"kafka_brokers" env:"MT_NOTIFY_KAFKA_BROKERS"`
	KafkaTopic       string   `mapstructure:"kafka_topic" env:"MT_NOTIFY_KAFKA_TOPIC"`

	// Background delivery sizing
	Workers   int           `mapstructure:"workers" env:"MT_NOTIFY_WORKERS"`
	QueueSize int           `mapstructure:"queue_size" env:"MT_NOTIFY_QUEUE_SIZE"`
	Timeout   time.Duration `mapstructure:"timeout" env:"MT_NOTIFY_TIMEOUT"`
}

// HTTPConfig holds the liveness/read endpoint configuration
type HTTPConfig struct {
	Port           int      `mapstructure:"port" env:"MT_HTTP_PORT"`
	AllowedOrigins []string `mapstructure:"allowed_origins" env:"MT_HTTP_ALLOWED_ORIGINS"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Environment string   `mapstructure:"environment" env:"MT_ENV"`
	AdminIDs    []string `mapstructure:"admin_ids" env:"MT_ADMIN_IDS"`
	LogLevel    string   `mapstructure:"log_level" env:"MT_LOG_LEVEL"`
	LogFormat   string   `mapstructure:"log_format" env:"MT_LOG_FORMAT"`
	Verbose     bool     `mapstructure:"verbose" env:"MT_APP_VERBOSE"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Store: StoreConfig{
			Backend:        BackendJSON,
			Dir:            filepath.Join(homeDir, ".microtask"),
			AccountsFile:   "data.json",
			TasksFile:      "tasks.json",
			SQLiteFilename: "microtask.db",
			DirPermissions: 0755,
		},
		Ledger: LedgerConfig{
			FirstWithdrawalMinimum:  1000,
			RepeatWithdrawalMinimum: 5000,
		},
		Tasks: TasksConfig{
			TitleMaxLength:       255,
			InstructionMaxLength: 4096,
			IDLength:             8,
		},
		Notify: NotifyConfig{
			Sinks:            []string{SinkLog},
			TelegramEndpoint: "https://api.telegram.org/bot%s/%s",
			KafkaTopic:       "microtask.notifications",
			Workers:          4,
			QueueSize:        256,
			Timeout:          10 * time.Second,
		},
		HTTP: HTTPConfig{
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
		Application: ApplicationConfig{
			Environment: "production",
			LogLevel:    "INFO",
			LogFormat:   "json",
		},
	}
}

// GetSQLitePath returns the full path to the SQLite database file
func (c *Config) GetSQLitePath() string {
	return filepath.Join(c.Store.Dir, c.Store.SQLiteFilename)
}

// IsAdmin reports whether userID may create tasks
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.Application.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasSink reports whether the named notification sink is enabled
func (c *Config) HasSink(name string) bool {
	for _, sink := range c.Notify.Sinks {
		if strings.EqualFold(sink, name) {
			return true
		}
	}
	return false
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	// Store configuration
	if backend := os.Getenv("MT_STORE_BACKEND"); backend != "" {
		c.Store.Backend = strings.ToLower(backend)
	}
	if dir := os.Getenv("MT_STORE_DIR"); dir != "" {
		c.Store.Dir = dir
	}
	if name := os.Getenv("MT_STORE_ACCOUNTS_FILE"); name != "" {
		c.Store.AccountsFile = name
	}
	if name := os.Getenv("MT_STORE_TASKS_FILE"); name != "" {
		c.Store.TasksFile = name
	}
	if name := os.Getenv("MT_STORE_SQLITE_FILENAME"); name != "" {
		c.Store.SQLiteFilename = name
	}
	if url := os.Getenv("MT_STORE_POSTGRES_URL"); url != "" {
		c.Store.PostgresURL = url
	}
	if perms := os.Getenv("MT_STORE_DIR_PERMISSIONS"); perms != "" {
		c.Store.DirPermissions = ParseUint32WithFallback(perms, 8, c.Store.DirPermissions)
	}

	// Ledger configuration
	if first := os.Getenv("MT_LEDGER_FIRST_MINIMUM"); first != "" {
		c.Ledger.FirstWithdrawalMinimum = ParseInt64WithFallback(first, c.Ledger.FirstWithdrawalMinimum)
	}
	if repeat := os.Getenv("MT_LEDGER_REPEAT_MINIMUM"); repeat != "" {
		c.Ledger.RepeatWithdrawalMinimum = ParseInt64WithFallback(repeat, c.Ledger.RepeatWithdrawalMinimum)
	}

	// Tasks configuration
	if maxLen := os.Getenv("MT_TASKS_TITLE_MAX"); maxLen != "" {
		c.Tasks.TitleMaxLength = ParseIntWithFallback(maxLen, c.Tasks.TitleMaxLength)
	}
	if maxLen := os.Getenv("MT_TASKS_INSTRUCTION_MAX"); maxLen != "" {
		c.Tasks.InstructionMaxLength = ParseIntWithFallback(maxLen, c.Tasks.InstructionMaxLength)
	}
	if length := os.Getenv("MT_TASKS_ID_LENGTH"); length != "" {
		c.Tasks.IDLength = ParseIntWithFallback(length, c.Tasks.IDLength)
	}

	// Notify configuration
	if sinks := os.Getenv("MT_NOTIFY_SINKS"); sinks != "" {
		c.Notify.Sinks = ParseList(sinks)
	}
	if token := os.Getenv("MT_NOTIFY_TELEGRAM_TOKEN"); token != "" {
		c.Notify.TelegramToken = token
	}
	if endpoint := os.Getenv("MT_NOTIFY_TELEGRAM_ENDPOINT"); endpoint != "" {
		c.Notify.TelegramEndpoint = endpoint
	}
	if id := os.Getenv("MT_NOTIFY_ADMIN_CHAT_ID"); id != "" {
		c.Notify.AdminChatID = ParseInt64WithFallback(id, c.Notify.AdminChatID)
	}
	if id := os.Getenv("MT_NOTIFY_REVIEW_CHAT_ID"); id != "" {
		c.Notify.ReviewChatID = ParseInt64WithFallback(id, c.Notify.ReviewChatID)
	}
	if brokers := os.Getenv("MT_NOTIFY_KAFKA_BROKERS"); brokers != "" {
		c.Notify.KafkaBrokers = ParseList(brokers)
	}
	if topic := os.Getenv("MT_NOTIFY_KAFKA_TOPIC"); topic != "" {
		c.Notify.KafkaTopic = topic
	}
	if workers := os.Getenv("MT_NOTIFY_WORKERS"); workers != "" {
		c.Notify.Workers = ParseIntWithFallback(workers, c.Notify.Workers)
	}
	if size := os.Getenv("MT_NOTIFY_QUEUE_SIZE"); size != "" {
		c.Notify.QueueSize = ParseIntWithFallback(size, c.Notify.QueueSize)
	}
	if timeout := os.Getenv("MT_NOTIFY_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Notify.Timeout = d
		}
	}

	// HTTP configuration. PORT is honoured for hosting platforms that set it.
	if port := os.Getenv("PORT"); port != "" {
		c.HTTP.Port = ParseIntWithFallback(port, c.HTTP.Port)
	}
	if port := os.Getenv("MT_HTTP_PORT"); port != "" {
		c.HTTP.Port = ParseIntWithFallback(port, c.HTTP.Port)
	}
	if origins := os.Getenv("MT_HTTP_ALLOWED_ORIGINS"); origins != "" {
		c.HTTP.AllowedOrigins = ParseList(origins)
	}

	// Application configuration
	if env := os.Getenv("MT_ENV"); env != "" {
		c.Application.Environment = env
	}
	if admins := os.Getenv("MT_ADMIN_IDS"); admins != "" {
		c.Application.AdminIDs = ParseList(admins)
	}
	if level := os.Getenv("MT_LOG_LEVEL"); level != "" {
		c.Application.LogLevel = level
	}
	if format := os.Getenv("MT_LOG_FORMAT"); format != "" {
		c.Application.LogFormat = format
	}
	if verbose := os.Getenv("MT_APP_VERBOSE"); verbose != "" {
		c.Application.Verbose = ParseBoolWithFallback(verbose, c.Application.Verbose)
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	// Validate store configuration
	switch c.Store.Backend {
	case BackendMemory:
	case BackendJSON:
		if c.Store.Dir == "" {
			return &ConfigError{Field: "store.dir", Message: "store directory cannot be empty"}
		}
		if c.Store.AccountsFile == "" || c.Store.TasksFile == "" {
			return &ConfigError{Field: "store.accounts_file", Message: "collection file names cannot be empty"}
		}
	case BackendSQLite:
		if c.Store.Dir == "" {
			return &ConfigError{Field: "store.dir", Message: "store directory cannot be empty"}
		}
		if c.Store.SQLiteFilename == "" {
			return &ConfigError{Field: "store.sqlite_filename", Message: "sqlite filename cannot be empty"}
		}
	case BackendPostgres:
		if c.Store.PostgresURL == "" {
			return &ConfigError{Field: "store.postgres_url", Message: "postgres URL is required for the postgres backend"}
		}
	default:
		return &ConfigError{Field: "store.backend", Message: "unknown store backend " + strconv.Quote(c.Store.Backend)}
	}

	// Validate ledger configuration
	if c.Ledger.FirstWithdrawalMinimum <= 0 {
		return &ConfigError{Field: "ledger.first_minimum", Message: "first withdrawal minimum must be positive"}
	}
	if c.Ledger.RepeatWithdrawalMinimum <= 0 {
		return &ConfigError{Field: "ledger.repeat_minimum", Message: "repeat withdrawal minimum must be positive"}
	}

	// Validate tasks configuration
	if c.Tasks.TitleMaxLength < 1 {
		return &ConfigError{Field: "tasks.title_max", Message: "title maximum length must be at least 1"}
	}
	if c.Tasks.InstructionMaxLength < 0 {
		return &ConfigError{Field: "tasks.instruction_max", Message: "instruction maximum length cannot be negative"}
	}
	if c.Tasks.IDLength < 4 || c.Tasks.IDLength > 32 {
		return &ConfigError{Field: "tasks.id_length", Message: "task id length must be between 4 and 32"}
	}

	// Validate notify configuration
	for _, sink := range c.Notify.Sinks {
		switch strings.ToLower(sink) {
		case SinkLog:
		case SinkTelegram:
			if c.Notify.TelegramToken == "" {
				return &ConfigError{Field: "notify.telegram_token", Message: "telegram sink requires a bot token"}
			}
		case SinkKafka:
			if len(c.Notify.KafkaBrokers) == 0 {
				return &ConfigError{Field: "notify.kafka_brokers", Message: "kafka sink requires at least one broker"}
			}
			if c.Notify.KafkaTopic == "" {
				return &ConfigError{Field: "notify.kafka_topic", Message: "kafka sink requires a topic"}
			}
		default:
			return &ConfigError{Field: "notify.sinks", Message: "unknown notification sink " + strconv.Quote(sink)}
		}
	}

	if c.Notify.Workers < 1 {
		return &ConfigError{Field: "notify.workers", Message: "at least one notification worker is required"}
	}
	if c.Notify.QueueSize < 0 {
		return &ConfigError{Field: "notify.queue_size", Message: "queue size cannot be negative"}
	}
	if c.Notify.Timeout <= 0 {
		return &ConfigError{Field: "notify.timeout", Message: "notification timeout must be positive"}
	}

	// Validate HTTP configuration
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return &ConfigError{Field: "http.port", Message: "port must be between 1 and 65535"}
	}

	// Validate application configuration
	if !logging.ValidLevel(c.Application.LogLevel) {
		return &ConfigError{Field: "application.log_level", Message: "unknown log level " + strconv.Quote(c.Application.LogLevel)}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
