// Package coach implements the rule-based conversation engine. It owns
// onboarding, intent classification, and the per-intent reply handlers.
package coach

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/thesapansharma/Fittr/internal/models"
	"github.com/thesapansharma/Fittr/internal/store"
)

// ReplyGenerator produces a free-form coaching reply when no command intent
// matches. Implemented by the genai package.
type ReplyGenerator interface {
	CoachReply(ctx context.Context, profile *models.UserProfile, message string) (string, error)
}

// Opts holds the optional coach configuration.
type Opts struct {
	GenAI    ReplyGenerator
	Clock    func() time.Time
	Location *time.Location
}

// Option configures the coach.
type Option func(*Opts)

// WithGenAI sets the fallback reply generator.
func WithGenAI(g ReplyGenerator) Option {
	return func(o *Opts) { o.GenAI = g }
}

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// WithLocation sets the timezone used for day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) { o.Location = loc }
}

// Coach routes incoming chat messages to intent handlers and produces reply
// text.
type Coach struct {
	store store.Store
	genai ReplyGenerator
	clock func() time.Time
	loc   *time.Location
}

// NewCoach creates a coach over the given store.
func NewCoach(st store.Store, opts ...Option) *Coach {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &Coach{
		store: st,
		genai: cfg.GenAI,
		clock: cfg.Clock,
		loc:   cfg.Location,
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	return c
}

// HandleIncoming processes one inbound message for the given canonical
// identity and returns the reply to send back. Storage failures return a
// generic apology reply alongside the error so the caller can still respond.
func (c *Coach) HandleIncoming(ctx context.Context, identity, text string) (string, error) {
	if identity == "" {
		return "", models.ErrEmptyIdentity
	}
	text = strings.TrimSpace(text)
	slog.Debug("Coach handling incoming message", "identity", identity, "length", len(text))

	profile, err := c.store.FindProfile(identity)
	if err != nil {
		return storageFailureText, err
	}
	if profile == nil {
		profile, err = c.store.CreateProfile(identity)
		if err != nil {
			return storageFailureText, err
		}
		c.logMessage(profile.ID, models.DirectionIncoming, text)
		reply := onboardingPromptText
		c.logMessage(profile.ID, models.DirectionOutgoing, reply)
		slog.Info("Coach created new profile", "identity", identity)
		return reply, nil
	}

	c.logMessage(profile.ID, models.DirectionIncoming, text)

	var reply string
	if !profile.OnboardingComplete {
		reply, err = c.handleOnboarding(profile, text)
	} else {
		reply, err = c.dispatch(ctx, profile, text)
	}
	if err != nil {
		slog.Error("Coach handler failed", "identity", identity, "error", err)
		return storageFailureText, err
	}
	c.logMessage(profile.ID, models.DirectionOutgoing, reply)
	return reply, nil
}

// handleOnboarding consumes messages until a complete comma-separated
// submission arrives.
func (c *Coach) handleOnboarding(profile *models.UserProfile, text string) (string, error) {
	if !applyOnboarding(profile, text) {
		return onboardingRetryText, nil
	}
	if err := c.store.SaveProfile(profile); err != nil {
		return "", err
	}
	slog.Info("Coach onboarding complete", "identity", profile.Identity, "goal", profile.Goal)
	return welcomeMessage(profile), nil
}

// dispatch classifies the message and runs the matching handler.
func (c *Coach) dispatch(ctx context.Context, profile *models.UserProfile, text string) (string, error) {
	lower := strings.ToLower(text)
	in := classify(lower)
	slog.Debug("Coach classified message", "identity", profile.Identity, "intent", in)

	switch in {
	case intentEmotional:
		return c.handleEmotional(profile)
	case intentFeedback:
		return c.handleFeedback(profile)
	case intentSetReminder:
		return c.handleSetReminder(profile, lower)
	case intentMedical:
		return c.handleMedical(profile, lower)
	case intentDietType:
		return c.handleDietType(profile, lower)
	case intentWorkoutSuggest:
		return workoutSuggestion(profile), nil
	case intentSleepTime:
		return c.handleSleepTime(profile, lower)
	case intentWater:
		return c.handleWater(profile, lower)
	case intentWorkout:
		return c.handleWorkout(profile, lower)
	case intentSummary:
		return c.handleSummary(profile)
	case intentMeal:
		return c.handleMeal(profile, lower)
	default:
		return c.handleFallback(ctx, profile, text), nil
	}
}

// dayBounds returns the [start, end) range of the current day in the coach's
// timezone.
func (c *Coach) dayBounds() (time.Time, time.Time) {
	now := c.clock().In(c.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	return start, start.Add(24 * time.Hour)
}

func (c *Coach) logMessage(userID int64, dir models.MessageDirection, body string) {
	err := c.store.AddMessageLog(models.MessageLog{
		UserID:    userID,
		Direction: dir,
		Body:      body,
		SentAt:    c.clock(),
	})
	if err != nil {
		slog.Error("Coach failed to log message", "userID", userID, "direction", dir, "error", err)
	}
}
