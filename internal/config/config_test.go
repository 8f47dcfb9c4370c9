package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, BackendJSON, cfg.Store.Backend)
	assert.Equal(t, "data.json", cfg.Store.AccountsFile)
	assert.Equal(t, "tasks.json", cfg.Store.TasksFile)
	assert.Equal(t, int64(1000), cfg.Ledger.FirstWithdrawalMinimum)
	assert.Equal(t, int64(5000), cfg.Ledger.RepeatWithdrawalMinimum)
	assert.Equal(t, 8, cfg.Tasks.IDLength)
	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.Equal(t, []string{SinkLog}, cfg.Notify.Sinks)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MT_STORE_BACKEND", "SQLite")
	t.Setenv("MT_STORE_DIR", "/tmp/mt")
	t.Setenv("MT_LEDGER_FIRST_MINIMUM", "1500")
	t.Setenv("MT_LEDGER_REPEAT_MINIMUM", "not-a-number")
	t.Setenv("MT_ADMIN_IDS", "42, 43,,")
	t.Setenv("MT_NOTIFY_SINKS", "log,kafka")
	t.Setenv("MT_NOTIFY_KAFKA_BROKERS", "localhost:9092")
	t.Setenv("PORT", "9000")

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromEnvironment())

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/mt/microtask.db", cfg.GetSQLitePath())
	assert.Equal(t, int64(1500), cfg.Ledger.FirstWithdrawalMinimum)
	assert.Equal(t, int64(5000), cfg.Ledger.RepeatWithdrawalMinimum)
	assert.Equal(t, []string{"42", "43"}, cfg.Application.AdminIDs)
	assert.True(t, cfg.IsAdmin("42"))
	assert.False(t, cfg.IsAdmin("44"))
	assert.True(t, cfg.HasSink(SinkKafka))
	assert.False(t, cfg.HasSink(SinkTelegram))
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment_DispatchOptions(t *testing.T) {
	t.Setenv("MT_NOTIFY_WORKERS", "2")
	t.Setenv("MT_NOTIFY_QUEUE_SIZE", "16")
	t.Setenv("MT_NOTIFY_TIMEOUT", "1500ms")

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromEnvironment())

	opts := cfg.DispatchOptions()
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 16, opts.QueueSize)
	assert.Equal(t, 1500*time.Millisecond, opts.Timeout)
}

func TestLoadFromEnvironment_HTTPPortPrecedence(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MT_HTTP_PORT", "9100")

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromEnvironment())
	assert.Equal(t, 9100, cfg.HTTP.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"postgres without url", func(c *Config) { c.Store.Backend = BackendPostgres }, "store.postgres_url"},
		{"empty dir", func(c *Config) { c.Store.Dir = "" }, "store.dir"},
		{"zero first minimum", func(c *Config) { c.Ledger.FirstWithdrawalMinimum = 0 }, "ledger.first_minimum"},
		{"negative repeat minimum", func(c *Config) { c.Ledger.RepeatWithdrawalMinimum = -1 }, "ledger.repeat_minimum"},
		{"zero title max", func(c *Config) { c.Tasks.TitleMaxLength = 0 }, "tasks.title_max"},
		{"short id", func(c *Config) { c.Tasks.IDLength = 2 }, "tasks.id_length"},
		{"telegram without token", func(c *Config) { c.Notify.Sinks = []string{SinkTelegram} }, "notify.telegram_token"},
		{"kafka without brokers", func(c *Config) { c.Notify.Sinks = []string{SinkKafka} }, "notify.kafka_brokers"},
		{"unknown sink", func(c *Config) { c.Notify.Sinks = []string{"email"} }, "notify.sinks"},
		{"no notify workers", func(c *Config) { c.Notify.Workers = 0 }, "notify.workers"},
		{"zero notify timeout", func(c *Config) { c.Notify.Timeout = 0 }, "notify.timeout"},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"bad log level", func(c *Config) { c.Application.LogLevel = "loud" }, "application.log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			var configErr *ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tt.field, configErr.Field)
		})
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "microtask.yaml")
	content := `
store:
  backend: memory
ledger:
  first_minimum: 2000
application:
  admin_ids: ["7", "8"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("MT_LEDGER_REPEAT_MINIMUM", "6000")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, int64(2000), cfg.Ledger.FirstWithdrawalMinimum)
	assert.Equal(t, int64(6000), cfg.Ledger.RepeatWithdrawalMinimum)
	assert.Equal(t, []string{"7", "8"}, cfg.Application.AdminIDs)
	assert.Equal(t, "tasks.json", cfg.Store.TasksFile)
}

func TestLoader_LoadFileMissing(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := NewLoader().Load()

	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "config_file", configErr.Field)
}

func TestLoader_LoadWithOverrides(t *testing.T) {
	backend := BackendMemory
	first := int64(100)
	port := 8081

	cfg, err := NewLoader().LoadWithOverrides(&ConfigOverrides{
		StoreBackend:           &backend,
		FirstWithdrawalMinimum: &first,
		HTTPPort:               &port,
	})
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, int64(100), cfg.Ledger.FirstWithdrawalMinimum)
	assert.Equal(t, 8081, cfg.HTTP.Port)

	zero := int64(0)
	_, err = NewLoader().LoadWithOverrides(&ConfigOverrides{FirstWithdrawalMinimum: &zero})
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseList(" a ,b,"))
	assert.Nil(t, ParseList(" , "))
}
