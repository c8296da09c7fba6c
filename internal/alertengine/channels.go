package alertengine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/web3guy0/predimarket-intel/internal/alerttypes"
	"github.com/web3guy0/predimarket-intel/internal/market"
)

// Channel is one alert output sink. Failures are isolated per channel by
// the Engine; a Channel implementation should not panic.
type Channel interface {
	Name() string
	MinPriority() market.Priority
	Send(a alerttypes.Alert) error
}

// ConsoleChannel writes every alert through the shared zerolog logger.
type ConsoleChannel struct {
	log         zerolog.Logger
	minPriority market.Priority
}

// NewConsoleChannel builds a console channel.
func NewConsoleChannel(log zerolog.Logger, minPriority market.Priority) *ConsoleChannel {
	return &ConsoleChannel{log: log.With().Str("channel", "console").Logger(), minPriority: minPriority}
}

func (c *ConsoleChannel) Name() string                   { return "console" }
func (c *ConsoleChannel) MinPriority() market.Priority    { return c.minPriority }
func (c *ConsoleChannel) Send(a alerttypes.Alert) error {
	event := c.log.Info()
	if a.Priority == market.PriorityCritical {
		event = c.log.Warn()
	}
	event.Str("source", string(a.Source)).Str("priority", a.Priority.String()).Msg("⚡ " + a.Title)
	return nil
}

// FileChannel appends one line per alert to a file, matching the
// teacher's sqlite-vs-file persistence duality: a sink that never needs
// a schema.
type FileChannel struct {
	mu          sync.Mutex
	path        string
	minPriority market.Priority
	file        *os.File
	writer      *bufio.Writer
}

// NewFileChannel opens (creating if needed) the alert log file.
func NewFileChannel(path string, minPriority market.Priority) (*FileChannel, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open alert file %s: %w", path, err)
	}
	return &FileChannel{path: path, minPriority: minPriority, file: f, writer: bufio.NewWriter(f)}, nil
}

func (c *FileChannel) Name() string                 { return "file" }
func (c *FileChannel) MinPriority() market.Priority { return c.minPriority }

func (c *FileChannel) Send(a alerttypes.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	line, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if _, err := c.writer.Write(line); err != nil {
		return fmt.Errorf("write alert line: %w", err)
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Close flushes and closes the underlying file, part of the
// cancel-drain-flush-close graceful shutdown sequence.
func (c *FileChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writer.Flush(); err != nil {
		return err
	}
	return c.file.Close()
}

// WebhookChannel POSTs each alert as JSON, at-most-once with a bounded
// retry budget.
type WebhookChannel struct {
	url         string
	client      *http.Client
	minPriority market.Priority
	maxRetries  int
}

// NewWebhookChannel builds a webhook channel.
func NewWebhookChannel(url string, minPriority market.Priority) *WebhookChannel {
	return &WebhookChannel{
		url:         url,
		client:      &http.Client{Timeout: 5 * time.Second},
		minPriority: minPriority,
		maxRetries:  3,
	}
}

func (c *WebhookChannel) Name() string                 { return "webhook" }
func (c *WebhookChannel) MinPriority() market.Priority { return c.minPriority }

func (c *WebhookChannel) Send(a alerttypes.Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(backoff(attempt))
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
		time.Sleep(backoff(attempt))
	}
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt+1) * 250 * time.Millisecond
	if d > 2*time.Second {
		return 2 * time.Second
	}
	return d
}

// Close releases the webhook client's idle connections.
func (c *WebhookChannel) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// TelegramChannel sends each alert as a message to a single chat via the
// bot API's outbound Send surface only; it never polls for inbound
// commands.
type TelegramChannel struct {
	bot         *tgbotapi.BotAPI
	chatID      int64
	minPriority market.Priority
}

// NewTelegramChannel builds a Telegram channel from a bot token.
func NewTelegramChannel(token string, chatID int64, minPriority market.Priority) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramChannel{bot: bot, chatID: chatID, minPriority: minPriority}, nil
}

func (c *TelegramChannel) Name() string                 { return "telegram" }
func (c *TelegramChannel) MinPriority() market.Priority { return c.minPriority }

func (c *TelegramChannel) Send(a alerttypes.Alert) error {
	text := fmt.Sprintf("*%s*\n%s\n_%s_", a.Title, a.Body, a.Priority.String())
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
