// Package reminder implements the scheduled reminder and broadcast passes.
// A per-minute pass matches each user's configured reminder times and claims
// a per-day send slot in the store before delivering, so overlapping passes
// never double-send.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thesapansharma/Fittr/internal/models"
	"github.com/thesapansharma/Fittr/internal/scheduler"
	"github.com/thesapansharma/Fittr/internal/store"
)

// Cron expressions for the scheduled passes.
const (
	customReminderCron = "* * * * *"
	morningCron        = "0 8 * * *"
	hydrationCron      = "0 14 * * *"
	checkInCron        = "0 19 * * *"
	eveningCron        = "30 20 * * *"
	feedbackCron       = "0 11 * * *"
)

// FeedbackInterval is the minimum gap between feedback check-in prompts.
const FeedbackInterval = 14 * 24 * time.Hour

// reminderTexts holds the message for each reminder kind.
var reminderTexts = map[models.ReminderKind]string{
	models.ReminderWater:   "💧 Water reminder: drink water now and stay hydrated.",
	models.ReminderMeal:    "🥗 Meal reminder: choose a balanced plate (protein + fiber + controlled carbs).",
	models.ReminderWorkout: "🏃 Workout reminder: do your planned session or at least a 15-minute walk.",
	models.ReminderSleep:   "😴 Sleep reminder: start wind-down now and target consistent sleep timing.",
}

const (
	morningText  = "Good morning 🌞 Drink 1 glass of water and do a quick stretch."
	eveningText  = "Evening tip: keep dinner light and finish 2-3 hours before sleep."
	feedbackText = "📝 Quick 2-week check-in from FitBudget!\n" +
		"How is your coaching experience so far?\n" +
		"Reply with: feedback <your message>\n" +
		"Your input shapes your plan 🙌"
)

// Messenger is the sending surface the reminder service needs.
type Messenger interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds the optional service configuration.
type Opts struct {
	Clock    func() time.Time
	Location *time.Location
}

// Option configures the reminder service.
type Option func(*Opts)

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// WithLocation sets the timezone reminder times are matched in.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) { o.Location = loc }
}

// Service runs the scheduled reminder and broadcast passes.
type Service struct {
	store     store.Store
	messenger Messenger
	clock     func() time.Time
	loc       *time.Location
}

// NewService creates a reminder service.
func NewService(st store.Store, messenger Messenger, opts ...Option) *Service {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Service{
		store:     st,
		messenger: messenger,
		clock:     cfg.Clock,
		loc:       cfg.Location,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// Register wires all passes into the scheduler.
func (s *Service) Register(sched *scheduler.Scheduler) error {
	ctx := context.Background()
	jobs := []struct {
		expr string
		task func()
	}{
		{customReminderCron, func() { s.RunCustomReminderPass(ctx) }},
		{morningCron, func() { s.RunMorningPass(ctx) }},
		{hydrationCron, func() { s.RunHydrationPass(ctx) }},
		{checkInCron, func() { s.RunCheckInPass(ctx) }},
		{eveningCron, func() { s.RunEveningPass(ctx) }},
		{feedbackCron, func() { s.RunFeedbackPass(ctx) }},
	}
	for _, job := range jobs {
		if err := sched.AddJob(job.expr, job.task); err != nil {
			return fmt.Errorf("failed to register reminder job %q: %w", job.expr, err)
		}
	}
	slog.Info("Reminder passes registered", "jobs", len(jobs))
	return nil
}

// RunCustomReminderPass delivers per-user reminders whose configured time
// matches the current minute. Each send is guarded by a per-(user, kind, day)
// claim in the store.
func (s *Service) RunCustomReminderPass(ctx context.Context) {
	now := s.clock().In(s.loc)
	hhmm := now.Format("15:04")
	day := now.Format("2006-01-02")

	users, err := s.store.ListOnboarded()
	if err != nil {
		slog.Error("Reminder pass failed to list users", "error", err)
		return
	}

	var wg sync.WaitGroup
	for i := range users {
		user := users[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.remindUser(ctx, &user, hhmm, day)
		}()
	}
	wg.Wait()
}

// remindUser checks all reminder kinds for one user and sends those due this
// minute. The profile is saved once after the kind loop when anything fired.
func (s *Service) remindUser(ctx context.Context, user *models.UserProfile, hhmm, day string) {
	changed := false
	for _, kind := range models.ReminderKinds {
		if user.ReminderTime(kind) != hhmm {
			continue
		}
		claimed, err := s.store.MarkReminderSent(user.ID, kind, day)
		if err != nil {
			slog.Error("Reminder claim failed", "identity", user.Identity, "kind", kind, "error", err)
			continue
		}
		if !claimed {
			slog.Debug("Reminder already sent today", "identity", user.Identity, "kind", kind, "day", day)
			continue
		}
		if err := s.messenger.SendMessage(ctx, user.Identity, reminderTexts[kind]); err != nil {
			slog.Error("Reminder send failed", "identity", user.Identity, "kind", kind, "error", err)
			continue
		}
		if user.LastReminderSent == nil {
			user.LastReminderSent = make(map[models.ReminderKind]string)
		}
		user.LastReminderSent[kind] = day
		changed = true
		slog.Info("Reminder sent", "identity", user.Identity, "kind", kind, "time", hhmm)
	}
	if changed {
		if err := s.store.SaveProfile(user); err != nil {
			slog.Error("Reminder failed to save profile", "identity", user.Identity, "error", err)
		}
	}
}

// RunMorningPass sends the fixed morning broadcast.
func (s *Service) RunMorningPass(ctx context.Context) {
	s.broadcast(ctx, "morning", func(*models.UserProfile) string {
		return morningText
	})
}

// RunHydrationPass sends the afternoon hydration check.
func (s *Service) RunHydrationPass(ctx context.Context) {
	s.broadcast(ctx, "hydration", func(p *models.UserProfile) string {
		goal := p.WaterGoal
		if goal <= 0 {
			goal = models.DefaultWaterGoal
		}
		return fmt.Sprintf("Hydration check 💧 You are targeting %d glasses today. Add a short walk too.", goal)
	})
}

// RunCheckInPass sends the evening logging check-in.
func (s *Service) RunCheckInPass(ctx context.Context) {
	s.broadcast(ctx, "check-in", func(p *models.UserProfile) string {
		budget := p.DailyBudget
		if budget <= 0 {
			budget = models.DefaultDailyBudget
		}
		sym := models.CurrencySymbol(p.BudgetCurrency)
		return fmt.Sprintf("📘 Daily check-in: log meals, water, and workout today. Budget target: %s%d. Reply 'summary' tonight for progress.", sym, budget)
	})
}

// RunEveningPass sends the fixed evening tip.
func (s *Service) RunEveningPass(ctx context.Context) {
	s.broadcast(ctx, "evening", func(*models.UserProfile) string {
		return eveningText
	})
}

// RunFeedbackPass prompts users for feedback. Never-prompted users are due
// immediately; afterwards the prompt repeats once the interval has elapsed.
func (s *Service) RunFeedbackPass(ctx context.Context) {
	now := s.clock().In(s.loc)
	users, err := s.store.ListOnboarded()
	if err != nil {
		slog.Error("Feedback pass failed to list users", "error", err)
		return
	}
	sent := 0
	for i := range users {
		user := &users[i]
		if user.LastFeedbackAt != nil && now.Sub(*user.LastFeedbackAt) < FeedbackInterval {
			continue
		}
		if err := s.messenger.SendMessage(ctx, user.Identity, feedbackText); err != nil {
			slog.Error("Feedback prompt send failed", "identity", user.Identity, "error", err)
			continue
		}
		if err := s.store.SetLastFeedbackAt(user.ID, now); err != nil {
			slog.Error("Feedback pass failed to record prompt time", "identity", user.Identity, "error", err)
			continue
		}
		sent++
	}
	slog.Info("Feedback pass complete", "eligible_sent", sent, "users", len(users))
}

// broadcast sends one message per onboarded user, isolating per-user
// failures.
func (s *Service) broadcast(ctx context.Context, name string, render func(*models.UserProfile) string) {
	users, err := s.store.ListOnboarded()
	if err != nil {
		slog.Error("Broadcast failed to list users", "pass", name, "error", err)
		return
	}
	sent := 0
	for i := range users {
		user := &users[i]
		if err := s.messenger.SendMessage(ctx, user.Identity, render(user)); err != nil {
			slog.Error("Broadcast send failed", "pass", name, "identity", user.Identity, "error", err)
			continue
		}
		sent++
	}
	slog.Info("Broadcast pass complete", "pass", name, "sent", sent, "users", len(users))
}
