package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/thesapansharma/Fittr/internal/models"
)

// telegramIdentityPrefix marks canonical Telegram identities so they never
// collide with phone-number identities.
const telegramIdentityPrefix = "telegram:"

// DefaultTelegramPollTimeout is the long-poll timeout in seconds.
const DefaultTelegramPollTimeout = 30

// TelegramService implements Service using the Telegram Bot API with long
// polling.
type TelegramService struct {
	bot       *tgbotapi.BotAPI
	responses chan models.Response
	done      chan struct{}
	mu        sync.RWMutex
	stopped   bool
}

// NewTelegramService creates a TelegramService for the given bot token.
func NewTelegramService(token string) (*TelegramService, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token not set")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create Telegram bot", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)
	return &TelegramService{
		bot:       bot,
		responses: make(chan models.Response, DefaultChannelBufferSize),
		done:      make(chan struct{}),
	}, nil
}

// ValidateAndCanonicalizeRecipient accepts a chat ID with or without the
// telegram: prefix and returns the prefixed canonical form.
func (s *TelegramService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	raw := strings.TrimPrefix(recipient, telegramIdentityPrefix)
	if raw == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		return "", fmt.Errorf("invalid telegram chat ID %q: %w", raw, err)
	}
	return telegramIdentityPrefix + raw, nil
}

// Start begins long polling for updates.
func (s *TelegramService) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = DefaultTelegramPollTimeout
	updates := s.bot.GetUpdatesChan(u)
	go s.handleUpdates(ctx, updates)
	slog.Debug("TelegramService long polling started")
	return nil
}

// Stop stops polling and closes channels.
func (s *TelegramService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	s.bot.StopReceivingUpdates()
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.responses)
	}()

	return nil
}

// SendMessage sends a message to a Telegram chat.
func (s *TelegramService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TelegramService SendMessage validation error", "error", err, "to", to)
		return err
	}
	chatID, _ := strconv.ParseInt(strings.TrimPrefix(canonical, telegramIdentityPrefix), 10, 64)

	msg := tgbotapi.NewMessage(chatID, body)
	if _, err := s.bot.Send(msg); err != nil {
		slog.Error("TelegramService SendMessage failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	slog.Debug("TelegramService message sent", "chatID", chatID, "body_length", len(body))
	return nil
}

// Responses returns the channel of incoming messages.
func (s *TelegramService) Responses() <-chan models.Response {
	return s.responses
}

// handleUpdates consumes the update channel, forwarding text messages until
// the context is cancelled. Non-text updates are dropped.
func (s *TelegramService) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("TelegramService update handler stopping")
			return
		case <-s.done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			response := models.Response{
				From: telegramIdentityPrefix + strconv.FormatInt(update.Message.Chat.ID, 10),
				Body: update.Message.Text,
				Time: int64(update.Message.Date),
			}
			select {
			case s.responses <- response:
				slog.Debug("TelegramService incoming message forwarded", "from", response.From)
			case <-time.After(DefaultChannelTimeout):
				slog.Warn("TelegramService responses channel blocked, dropping message", "from", response.From)
			}
		}
	}
}
