package config

import (
	"fmt"
	"log/slog"

	"microtask/internal/notify"
)

// Notifiers is the set of configured sinks. Close releases the ones that
// hold connections.
type Notifiers struct {
	notify.Notifier
	closers []func() error
}

// Close closes every sink that needs it and returns the first error
func (n *Notifiers) Close() error {
	var first error
	for _, closeFn := range n.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DispatchOptions sizes the background notification delivery
func (c *Config) DispatchOptions() notify.DispatchOptions {
	return notify.DispatchOptions{
		Workers:   c.Notify.Workers,
		QueueSize: c.Notify.QueueSize,
		Timeout:   c.Notify.Timeout,
	}
}

// CreateNotifier builds the configured notification sinks behind one
// fan-out notifier. An empty sink list drops notifications.
func CreateNotifier(config *Config, logger *slog.Logger) (*Notifiers, error) {
	var sinks []notify.Notifier
	var closers []func() error

	if config.HasSink(SinkLog) {
		sinks = append(sinks, notify.NewLogNotifier(logger))
	}

	if config.HasSink(SinkTelegram) {
		telegram, err := notify.NewTelegramNotifier(
			config.Notify.TelegramToken,
			config.Notify.TelegramEndpoint,
			config.Notify.AdminChatID,
			config.Notify.ReviewChatID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
		sinks = append(sinks, telegram)
	}

	if config.HasSink(SinkKafka) {
		kafka := notify.NewKafkaNotifier(config.Notify.KafkaBrokers, config.Notify.KafkaTopic)
		sinks = append(sinks, kafka)
		closers = append(closers, kafka.Close)
	}

	switch len(sinks) {
	case 0:
		return &Notifiers{Notifier: notify.Discard}, nil
	case 1:
		return &Notifiers{Notifier: sinks[0], closers: closers}, nil
	default:
		return &Notifiers{Notifier: notify.NewMulti(sinks...), closers: closers}, nil
	}
}
