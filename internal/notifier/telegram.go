package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/utils/httpclient"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// DefaultTelegramURL is the public Bot API endpoint.
const DefaultTelegramURL = "https://api.telegram.org"

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	baseURL   string
	token     string
	parseMode string
	client    *resty.Client
	logger    *logrus.Logger
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewTelegram creates a Bot API client.
func NewTelegram(cfg config.NotifierConfig, logger *logrus.Logger) *Telegram {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	parseMode := cfg.ParseMode
	if parseMode == "" {
		parseMode = "HTML"
	}
	return &Telegram{
		baseURL:   baseURL,
		token:     cfg.Token,
		parseMode: parseMode,
		client:    httpclient.NewRestyClient(httpclient.Options{Timeout: timeout, Proxy: cfg.Proxy}, logger),
		logger:    logger,
	}
}

func (t *Telegram) Name() string { return KindTelegram }

// Send delivers text to a chat. Any non-ok answer is an error, so blocked
// or deleted chats surface to the caller.
func (t *Telegram) Send(ctx context.Context, recipientID, text string) error {
	var result sendMessageResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendMessageRequest{
			ChatID:                recipientID,
			Text:                  text,
			ParseMode:             t.parseMode,
			DisableWebPagePreview: true,
		}).
		SetResult(&result).
		SetError(&result).
		Post(t.baseURL + "/bot" + t.token + "/sendMessage")
	if err != nil {
		// the token is part of the URL; keep it out of logs
		return fmt.Errorf("telegram sendMessage: %w", redact(err, t.token))
	}
	if !resp.IsSuccess() || !result.OK {
		t.logger.WithFields(logrus.Fields{
			"chat_id":     recipientID,
			"status":      resp.StatusCode(),
			"description": result.Description,
		}).Debug("telegram rejected message")
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode(), result.Description)
	}
	return nil
}

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<token>"))
}
