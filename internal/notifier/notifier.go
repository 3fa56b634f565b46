package notifier

import (
	"context"
	"fmt"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/interfaces"

	"github.com/sirupsen/logrus"
)

const (
	KindTelegram = "telegram"
	KindDiscord  = "discord"
	KindLog      = "log"
)

// New builds the notifier named by cfg.Kind.
func New(cfg config.NotifierConfig, logger *logrus.Logger) (interfaces.Notifier, error) {
	switch cfg.Kind {
	case KindTelegram:
		if cfg.Token == "" {
			return nil, fmt.Errorf("telegram notifier: token is not configured")
		}
		return NewTelegram(cfg, logger), nil
	case KindDiscord:
		if cfg.Token == "" {
			return nil, fmt.Errorf("discord notifier: token is not configured")
		}
		return NewDiscord(cfg.Token, logger)
	case KindLog, "":
		return NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", cfg.Kind)
	}
}

// LogNotifier writes alerts to the log. Used for local runs without a bot token.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLog(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return KindLog }

func (n *LogNotifier) Send(ctx context.Context, recipientID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.WithFields(logrus.Fields{
		"recipient": recipientID,
		"text":      text,
	}).Info("notification")
	return nil
}
