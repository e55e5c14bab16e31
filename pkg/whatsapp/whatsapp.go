package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/config"
)

// ErrInvalidRecipient phone number is not in E.164 form
var ErrInvalidRecipient = errors.New("whatsapp: invalid recipient")

// Notifier sends outbound messages to members and coaches.
type Notifier interface {
	SendText(ctx context.Context, to, body string) error
}

// Client WhatsApp Business Cloud API client
type Client struct {
	http          *resty.Client
	phoneNumberID string
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// New returns a Notifier: the Cloud API client when configured, a logging
// no-op otherwise.
func New(cfg *config.WhatsAppConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled() {
		return &nopNotifier{logger: logger}
	}
	return NewClient(cfg)
}

// NewClient builds the Cloud API client.
func NewClient(cfg *config.WhatsAppConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.AccessToken).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	return &Client{http: http, phoneNumberID: cfg.PhoneNumberID}
}

// SendText sends a free-form text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	to = normalizeRecipient(to)
	if to == "" {
		return ErrInvalidRecipient
	}

	msg := textMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	msg.Text.Body = body

	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		SetError(&apiErr).
		Post("/" + c.phoneNumberID + "/messages")
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("whatsapp: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	return nil
}

// normalizeRecipient strips formatting; the API wants digits only.
func normalizeRecipient(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() < 8 {
		return ""
	}
	return b.String()
}

type nopNotifier struct {
	logger *zap.Logger
}

func (n *nopNotifier) SendText(_ context.Context, to, _ string) error {
	n.logger.Debug("whatsapp disabled, message dropped", zap.String("to", to))
	return nil
}
