package worker

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/notification"
	"github.com/spec-kit/auth-service/internal/service"
)

// NotificationWorker owns the notifier wired to the event dispatcher.
type NotificationWorker struct {
	Notifier notification.Notifier
	closers  []func()
}

// Close releases the notifier's connections.
func (w *NotificationWorker) Close() {
	if w == nil {
		return
	}
	for _, c := range w.closers {
		c()
	}
}

// StartNotificationWorker builds the notifier selected by cfg.Channel and
// subscribes it to account events. rdb may be nil unless the redis channel is selected.
func StartNotificationWorker(cfg config.NotificationConfig, dispatcher events.Dispatcher, rdb *redis.Client, logger *zap.Logger) (*NotificationWorker, error) {
	w := &NotificationWorker{}

	switch cfg.Channel {
	case config.ChannelMailgun:
		w.Notifier = notification.NewEmailNotifier(notification.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase, cfg.EmailFrom))
	case config.ChannelRabbitMQ:
		pub, err := notification.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, pub.Close)
		w.Notifier = notification.NewQueueNotifier(pub)
	case config.ChannelRedis:
		if rdb == nil {
			return nil, fmt.Errorf("notify channel %q requires a redis client", cfg.Channel)
		}
		w.Notifier = notification.NewRedisNotifier(rdb, cfg.RedisChannel)
	default:
		w.Notifier = notification.NewLogNotifier(logger)
	}

	service.NewNotificationService(dispatcher, w.Notifier, logger, cfg).RegisterHandlers()
	logger.Info("notification worker started", zap.String("channel", cfg.Channel))
	return w, nil
}
