package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/thesapansharma/Fittr/internal/models"
	"github.com/thesapansharma/Fittr/internal/store"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

const testOnboarding = "Asha,60,160,lose weight,desk,7,beginner,250,8,vegetarian,none,9am-6pm"

func newTestCoach(opts ...Option) (*Coach, *store.InMemoryStore) {
	st := store.NewInMemoryStore()
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
	}
	return NewCoach(st, append(base, opts...)...), st
}

// onboard runs a user through the full onboarding exchange.
func onboard(t *testing.T, c *Coach, identity string) *models.UserProfile {
	t.Helper()
	ctx := context.Background()
	reply, err := c.HandleIncoming(ctx, identity, "hi")
	if err != nil {
		t.Fatalf("first contact failed: %v", err)
	}
	if !strings.Contains(reply, "comma separated") {
		t.Fatalf("expected onboarding prompt, got %q", reply)
	}
	reply, err = c.HandleIncoming(ctx, identity, testOnboarding)
	if err != nil {
		t.Fatalf("onboarding submission failed: %v", err)
	}
	if !strings.Contains(reply, "Onboarding complete ✅") {
		t.Fatalf("expected onboarding completion, got %q", reply)
	}
	p, err := c.store.FindProfile(identity)
	if err != nil || p == nil {
		t.Fatalf("profile missing after onboarding: %v", err)
	}
	return p
}

func TestClassifyOrder(t *testing.T) {
	cases := []struct {
		text string
		want intent
	}{
		{"i feel guilty about dinner", intentEmotional},
		{"i failed my diet today", intentEmotional},
		{"feedback the reminders are great", intentFeedback},
		{"you should improve this app", intentFeedback},
		{"set reminder water 10:30", intentSetReminder},
		{"set reminder workout 18:30", intentSetReminder},
		{"medical diabetes", intentMedical},
		{"health issue thyroid", intentMedical},
		{"diet type vegan", intentDietType},
		{"workout suggest", intentWorkoutSuggest},
		{"give me a workout plan", intentWorkoutSuggest},
		{"sleep time 22:00", intentSleepTime},
		{"set sleep 22:30", intentSleepTime},
		{"water 2", intentWater},
		{"workout walk 20", intentWorkout},
		{"exercise yoga 30", intentWorkout},
		{"today summary", intentSummary},
		{"meal lunch samosa 40", intentMeal},
		{"ate poha for breakfast", intentMeal},
		{"hello there", intentFallback},
	}
	for _, tc := range cases {
		if got := classify(tc.text); got != tc.want {
			t.Errorf("classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestOnboardingWelcomePlan(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	if _, err := c.HandleIncoming(ctx, "+911234567890", "hi"); err != nil {
		t.Fatalf("first contact failed: %v", err)
	}
	reply, err := c.HandleIncoming(ctx, "+911234567890", testOnboarding)
	if err != nil {
		t.Fatalf("onboarding failed: %v", err)
	}
	for _, want := range []string{
		"Onboarding complete ✅",
		"Nice. Add squats, wall pushups, and stretching at home.",
		"Diet coaching: Build meals around dal, paneer/tofu, curd, sprouts, vegetables, and whole grains.",
		"Workout reminder time: 18:30",
		"Sleep reminder time: 22:00",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("welcome missing %q in %q", want, reply)
		}
	}

	p, _ := c.store.FindProfile("+911234567890")
	if p.Name != "Asha" || p.WeightKg != 60 || p.Goal != models.GoalLoseWeight {
		t.Errorf("profile fields not applied: %+v", p)
	}
	if p.DailyBudget != 250 || p.WaterGoal != 8 || p.DietType != models.DietVegetarian {
		t.Errorf("profile fields not applied: %+v", p)
	}
	if !p.OnboardingComplete {
		t.Error("onboarding not marked complete")
	}
}

func TestOnboardingTooFewFields(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	c.HandleIncoming(ctx, "+91111", "hi")
	reply, err := c.HandleIncoming(ctx, "+91111", "Asha, 60, 160")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != onboardingRetryText {
		t.Errorf("expected retry prompt, got %q", reply)
	}
	p, _ := c.store.FindProfile("+91111")
	if p.OnboardingComplete {
		t.Error("incomplete submission must not finish onboarding")
	}
}

func TestOnboardingMalformedValuesFallBack(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	c.HandleIncoming(ctx, "+92222", "hi")
	reply, err := c.HandleIncoming(ctx, "+92222", "Ravi,heavy,tall,get swole,astronaut,lots,sometimes,much,many,keto,none,9am-6pm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "Onboarding complete ✅") {
		t.Fatalf("expected completion despite malformed values, got %q", reply)
	}
	p, _ := c.store.FindProfile("+92222")
	if p.Goal != models.DefaultGoal || p.JobType != models.DefaultJobType {
		t.Errorf("enum fields did not fall back to defaults: %+v", p)
	}
	if p.DailyBudget != models.DefaultDailyBudget || p.WaterGoal != models.DefaultWaterGoal {
		t.Errorf("numeric fields did not fall back to defaults: %+v", p)
	}
	if p.DietType != models.DefaultDietType {
		t.Errorf("diet type did not fall back: %s", p.DietType)
	}
}

func TestWaterLoggingAccumulates(t *testing.T) {
	c, st := newTestCoach()
	ctx := context.Background()
	p := onboard(t, c, "+93333")

	reply, err := c.HandleIncoming(ctx, "+93333", "water 2")
	if err != nil {
		t.Fatalf("water log failed: %v", err)
	}
	if !strings.Contains(reply, "Total today: 2/8 glasses.") {
		t.Errorf("unexpected water reply: %q", reply)
	}

	// Defaults to one glass when no number is given
	reply, _ = c.HandleIncoming(ctx, "+93333", "water")
	if !strings.Contains(reply, "Total today: 3/8 glasses.") {
		t.Errorf("unexpected water reply: %q", reply)
	}

	// Yesterday's glasses stay out of today's total
	st.AddWaterLog(models.WaterLog{UserID: p.ID, Glasses: 5, LoggedAt: testNow.Add(-24 * time.Hour)})
	reply, _ = c.HandleIncoming(ctx, "+93333", "water 1")
	if !strings.Contains(reply, "Total today: 4/8 glasses.") {
		t.Errorf("yesterday leaked into today: %q", reply)
	}
}

func TestMealLoggingKnownFood(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+94444")

	reply, err := c.HandleIncoming(ctx, "+94444", "meal lunch samosa 40")
	if err != nil {
		t.Fatalf("meal log failed: %v", err)
	}
	for _, want := range []string{
		"samosa (~250 cal) logged.",
		"Try roasted chana / peanuts / boiled corn next time 🙂",
		"Budget status: ₹210 left today.",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("meal reply missing %q in %q", want, reply)
		}
	}
}

func TestMealBudgetBands(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+95555")

	// 40 of 250 used: plain status line
	reply, _ := c.HandleIncoming(ctx, "+95555", "meal salad 40")
	if !strings.Contains(reply, "Budget status: ₹210 left today.") {
		t.Errorf("expected under-budget status, got %q", reply)
	}

	// 210 of 250 used: above the 80 percent warning threshold
	reply, _ = c.HandleIncoming(ctx, "+95555", "meal dal 170")
	if !strings.Contains(reply, "You are nearing your daily budget limit.") {
		t.Errorf("expected nearing warning, got %q", reply)
	}

	// 280 of 250 used: crossed by 30
	reply, _ = c.HandleIncoming(ctx, "+95555", "meal roti 70")
	if !strings.Contains(reply, "You crossed your daily budget by ₹30.") {
		t.Errorf("expected crossed warning, got %q", reply)
	}
}

func TestMealUnknownFoodUsesDefaultCalories(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+96666")

	reply, _ := c.HandleIncoming(ctx, "+96666", "meal dinner khichdi 30")
	if !strings.Contains(reply, "khichdi (~220 cal) logged.") {
		t.Errorf("unexpected unknown-food reply: %q", reply)
	}
}

func TestMealSwapMatchesWholeMessage(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+96667")

	// "cola" is a swap trigger but not a food table entry; the logged food
	// resolves to roti, yet the swap still fires off the message text.
	reply, err := c.HandleIncoming(ctx, "+96667", "ate cola and roti 30")
	if err != nil {
		t.Fatalf("meal log failed: %v", err)
	}
	if !strings.Contains(reply, "roti (~120 cal) logged.") {
		t.Errorf("unexpected food resolution: %q", reply)
	}
	if !strings.Contains(reply, "Try lemon water / coconut water / buttermilk next time 🙂") {
		t.Errorf("swap for cola missing: %q", reply)
	}
}

func TestWorkoutLogging(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+97777")

	reply, err := c.HandleIncoming(ctx, "+97777", "workout walk 20")
	if err != nil {
		t.Fatalf("workout log failed: %v", err)
	}
	if !strings.Contains(reply, "Workout logged: 20 min walk 🏃") {
		t.Errorf("unexpected workout reply: %q", reply)
	}
	if !strings.Contains(reply, "neck/back stretch every hour") {
		t.Errorf("desk tip missing: %q", reply)
	}

	reply, _ = c.HandleIncoming(ctx, "+97777", "workout")
	if !strings.Contains(reply, "Workout logged: 15 min walking 🏃") {
		t.Errorf("defaults not applied: %q", reply)
	}
}

func TestSetReminderUpdatesTime(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+98888")

	reply, err := c.HandleIncoming(ctx, "+98888", "set reminder water 9:45")
	if err != nil {
		t.Fatalf("set reminder failed: %v", err)
	}
	if !strings.Contains(reply, "Water: 09:45, Meal: 13:00, Workout: 18:30, Sleep: 22:00.") {
		t.Errorf("unexpected reminder reply: %q", reply)
	}
	p, _ := c.store.FindProfile("+98888")
	if p.ReminderTime(models.ReminderWater) != "09:45" {
		t.Errorf("reminder time not saved: %s", p.ReminderTime(models.ReminderWater))
	}

	// Missing time falls back to usage text
	reply, _ = c.HandleIncoming(ctx, "+98888", "set reminder water")
	if reply != reminderUsageText {
		t.Errorf("expected usage text, got %q", reply)
	}
}

func TestSetReminderUpdatesMultipleKinds(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+98889")

	reply, err := c.HandleIncoming(ctx, "+98889", "set reminder water and workout 10:30")
	if err != nil {
		t.Fatalf("set reminder failed: %v", err)
	}
	if !strings.Contains(reply, "Water: 10:30") || !strings.Contains(reply, "Workout: 10:30") {
		t.Errorf("unexpected reminder reply: %q", reply)
	}
	p, _ := c.store.FindProfile("+98889")
	if p.ReminderTime(models.ReminderWater) != "10:30" {
		t.Errorf("water time not saved: %s", p.ReminderTime(models.ReminderWater))
	}
	if p.ReminderTime(models.ReminderWorkout) != "10:30" {
		t.Errorf("workout time not saved: %s", p.ReminderTime(models.ReminderWorkout))
	}
	// Unmentioned kinds keep their defaults
	if p.ReminderTime(models.ReminderMeal) != models.DefaultMealTime {
		t.Errorf("meal time changed unexpectedly: %s", p.ReminderTime(models.ReminderMeal))
	}
}

func TestSleepTimeUpdate(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90001")

	reply, _ := c.HandleIncoming(ctx, "+90001", "sleep time 23:15")
	if !strings.Contains(reply, "Sleep reminder updated 😴 23:15") {
		t.Errorf("unexpected sleep reply: %q", reply)
	}
	p, _ := c.store.FindProfile("+90001")
	if p.ReminderTime(models.ReminderSleep) != "23:15" {
		t.Errorf("sleep time not saved")
	}

	reply, _ = c.HandleIncoming(ctx, "+90001", "sleep time late")
	if reply != sleepUsageText {
		t.Errorf("expected usage text, got %q", reply)
	}
}

func TestDietTypeUpdate(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90002")

	reply, _ := c.HandleIncoming(ctx, "+90002", "diet type vegan")
	if !strings.Contains(reply, "Diet type updated ✅") || !strings.Contains(reply, "tofu/soy/chana/rajma") {
		t.Errorf("unexpected diet reply: %q", reply)
	}

	reply, _ = c.HandleIncoming(ctx, "+90002", "diet type keto")
	if reply != dietUsageText {
		t.Errorf("expected usage text, got %q", reply)
	}
}

func TestMedicalIssuesTracked(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90003")

	reply, _ := c.HandleIncoming(ctx, "+90003", "medical diabetes and joint pain")
	if !strings.Contains(reply, "Tracking: diabetes, arthritis") {
		t.Errorf("issues not tracked: %q", reply)
	}
	if !strings.Contains(reply, "🩺") || !strings.Contains(reply, "follow your doctor's advice first.") {
		t.Errorf("guidance missing: %q", reply)
	}

	// Issues persist and surface in meal replies
	reply, _ = c.HandleIncoming(ctx, "+90003", "meal samosa 40")
	if !strings.Contains(reply, "low-GI meals") {
		t.Errorf("medical guidance missing from meal reply: %q", reply)
	}
}

func TestEmotionalSupportSetsMoodFlag(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90004")

	reply, _ := c.HandleIncoming(ctx, "+90004", "I feel guilty, I ate too much today")
	if reply != emotionalSupportText {
		t.Errorf("unexpected emotional reply: %q", reply)
	}
	p, _ := c.store.FindProfile("+90004")
	if p.MoodFlag != models.MoodGuilty {
		t.Errorf("mood flag not set: %s", p.MoodFlag)
	}
}

func TestFeedbackStampsTime(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90005")

	reply, _ := c.HandleIncoming(ctx, "+90005", "feedback love the reminders")
	if reply != feedbackThanksText {
		t.Errorf("unexpected feedback reply: %q", reply)
	}
	p, _ := c.store.FindProfile("+90005")
	if p.LastFeedbackAt == nil || !p.LastFeedbackAt.Equal(testNow) {
		t.Errorf("feedback time not stamped: %v", p.LastFeedbackAt)
	}
}

func TestWorkoutSuggestion(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90006")

	reply, _ := c.HandleIncoming(ctx, "+90006", "workout suggest")
	for _, want := range []string{
		"Beginner plan: 20-25 min brisk walk",
		"neck/back stretch every hour",
		"Recommended workout reminder: 18:30.",
		"set reminder workout 18:30",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("suggestion missing %q in %q", want, reply)
		}
	}
}

func TestDaySummary(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90007")

	c.HandleIncoming(ctx, "+90007", "meal samosa 40")
	c.HandleIncoming(ctx, "+90007", "water 3")
	c.HandleIncoming(ctx, "+90007", "workout walk 20")

	reply, err := c.HandleIncoming(ctx, "+90007", "summary")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{
		"Today Summary:",
		"Meals logged: 1",
		"Water: 3/8 glasses",
		"Exercise: 20 min",
		"Budget used: ₹40",
		"Budget left: ₹210",
		"Great progress 👍",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("summary missing %q in %q", want, reply)
		}
	}
}

func TestStorageFailureReturnsApology(t *testing.T) {
	c, st := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90008")

	st.FailWrites = true
	reply, err := c.HandleIncoming(ctx, "+90008", "water 2")
	if err == nil {
		t.Fatal("expected error on storage failure")
	}
	if reply != storageFailureText {
		t.Errorf("expected apology reply, got %q", reply)
	}
}

type fakeGenAI struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenAI) CoachReply(ctx context.Context, p *models.UserProfile, message string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestFallbackUsesGenAI(t *testing.T) {
	gen := &fakeGenAI{reply: "Try a 10 minute walk after lunch."}
	c, _ := newTestCoach(WithGenAI(gen))
	ctx := context.Background()
	onboard(t, c, "+90009")

	reply, _ := c.HandleIncoming(ctx, "+90009", "how do I stay motivated")
	if reply != gen.reply {
		t.Errorf("expected generated reply, got %q", reply)
	}
	if gen.calls != 1 {
		t.Errorf("expected one generation call, got %d", gen.calls)
	}
}

func TestFallbackGenAIErrorFallsBackToHelp(t *testing.T) {
	gen := &fakeGenAI{err: errors.New("api down")}
	c, _ := newTestCoach(WithGenAI(gen))
	ctx := context.Background()
	onboard(t, c, "+90010")

	reply, err := c.HandleIncoming(ctx, "+90010", "how do I stay motivated")
	if err != nil {
		t.Fatalf("generation failure must not surface: %v", err)
	}
	if reply != helpText {
		t.Errorf("expected help text, got %q", reply)
	}
}

func TestFallbackWithoutGenAI(t *testing.T) {
	c, _ := newTestCoach()
	ctx := context.Background()
	onboard(t, c, "+90011")

	reply, _ := c.HandleIncoming(ctx, "+90011", "how do I stay motivated")
	if reply != helpText {
		t.Errorf("expected help text, got %q", reply)
	}
}

func TestEmptyIdentityRejected(t *testing.T) {
	c, _ := newTestCoach()
	if _, err := c.HandleIncoming(context.Background(), "", "hi"); !errors.Is(err, models.ErrEmptyIdentity) {
		t.Errorf("expected ErrEmptyIdentity, got %v", err)
	}
}

func TestMessagesLogged(t *testing.T) {
	c, st := newTestCoach()
	ctx := context.Background()
	p := onboard(t, c, "+90012")
	c.HandleIncoming(ctx, "+90012", "water 2")

	msgs, err := st.MessagesByUser(p.ID, 0)
	if err != nil {
		t.Fatalf("listing messages failed: %v", err)
	}
	// hi + prompt, onboarding + welcome, water + reply
	if len(msgs) != 6 {
		t.Errorf("expected 6 logged messages, got %d", len(msgs))
	}
}
