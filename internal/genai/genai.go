// Package genai wraps the OpenAI client used for free-form coaching replies
// when no command intent matches an incoming message.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/thesapansharma/Fittr/internal/models"
)

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 12 * time.Second

const systemPrompt = "You are FitBudget AI Coach for WhatsApp users in India. " +
	"Give concise, practical, supportive guidance on diet, budget meals, workouts, sleep, and habit building. " +
	"Keep response under 120 words and easy to act on today."

// Opts holds the optional client configuration.
type Opts struct {
	APIKey  string
	Model   openai.ChatModel
	Timeout time.Duration
}

// Option configures the client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the completion model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// chatService abstracts the completions endpoint so tests can substitute a
// mock.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Client generates coaching replies via the OpenAI chat completions API.
type Client struct {
	chat    chatService
	model   openai.ChatModel
	timeout time.Duration
}

// NewClient creates a GenAI client based on provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		slog.Error("GenAI client API key not set")
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("GenAI client created", "model", cfg.Model, "timeout", cfg.Timeout)
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// CoachReply generates a short coaching reply grounded in the user's profile.
// Failures return an error with an empty reply so the caller can fall back to
// static help text.
func (c *Client) CoachReply(ctx context.Context, profile *models.UserProfile, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.SystemMessage(profileContext(profile)),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		slog.Error("GenAI completion request failed", "error", err)
		return "", fmt.Errorf("failed to generate coach reply: %w", err)
	}
	if len(completion.Choices) == 0 {
		slog.Error("GenAI completion returned no choices")
		return "", fmt.Errorf("no completion choices returned")
	}
	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	slog.Debug("GenAI reply generated", "length", len(reply))
	return reply, nil
}

// profileContext summarizes the user profile for the model.
func profileContext(p *models.UserProfile) string {
	if p == nil {
		return "User profile: unknown."
	}
	issues := "none"
	if len(p.MedicalIssues) > 0 {
		names := make([]string, len(p.MedicalIssues))
		for i, issue := range p.MedicalIssues {
			names[i] = string(issue)
		}
		issues = strings.Join(names, ", ")
	}
	return fmt.Sprintf(
		"User profile: goal %s, diet %s, job %s, exercise habit %s, daily budget %d %s, water goal %d glasses, sleep %.1f hours, medical issues: %s.",
		p.Goal, p.DietType, p.JobType, p.ExerciseHabit,
		p.DailyBudget, p.BudgetCurrency, p.WaterGoal, p.SleepHours, issues,
	)
}
