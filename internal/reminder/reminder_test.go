package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thesapansharma/Fittr/internal/models"
	"github.com/thesapansharma/Fittr/internal/scheduler"
	"github.com/thesapansharma/Fittr/internal/store"
)

var testNow = time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

type recordingMessenger struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]error
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{failFor: make(map[string]error)}
}

func (m *recordingMessenger) SendMessage(ctx context.Context, to string, body string) error {
	if err := m.failFor[to]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+"|"+body)
	return nil
}

func (m *recordingMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestService(st store.Store, msgr Messenger) *Service {
	return NewService(st, msgr,
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
	)
}

// addOnboardedUser creates a completed profile with a water reminder at the
// test clock's minute.
func addOnboardedUser(t *testing.T, st store.Store, identity string) *models.UserProfile {
	t.Helper()
	p, err := st.CreateProfile(identity)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	p.OnboardingComplete = true
	p.WaterGoal = 8
	p.DailyBudget = 250
	p.SetReminderTime(models.ReminderWater, "10:30")
	if err := st.SaveProfile(p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	return p
}

func TestCustomReminderPassSendsOncePerDay(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	addOnboardedUser(t, st, "+91100")

	// Repeated passes in the same minute must deliver exactly once
	for i := 0; i < 5; i++ {
		svc.RunCustomReminderPass(context.Background())
	}
	if got := msgr.count(); got != 1 {
		t.Errorf("expected exactly 1 send, got %d", got)
	}
	if !strings.Contains(msgr.sent[0], "💧 Water reminder") {
		t.Errorf("unexpected reminder body: %q", msgr.sent[0])
	}
}

func TestCustomReminderPassSkipsNonMatchingMinute(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	p := addOnboardedUser(t, st, "+91101")
	p.SetReminderTime(models.ReminderWater, "11:00")
	st.SaveProfile(p)

	svc.RunCustomReminderPass(context.Background())
	if got := msgr.count(); got != 0 {
		t.Errorf("expected no sends, got %d", got)
	}
}

func TestCustomReminderPassConcurrentSafety(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	addOnboardedUser(t, st, "+91102")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.RunCustomReminderPass(context.Background())
		}()
	}
	wg.Wait()
	if got := msgr.count(); got != 1 {
		t.Errorf("overlapping passes double-sent: got %d sends", got)
	}
}

func TestCustomReminderFailureIsolation(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	addOnboardedUser(t, st, "+91103")
	addOnboardedUser(t, st, "+91104")
	msgr.failFor["+91103"] = errors.New("transport down")

	svc.RunCustomReminderPass(context.Background())
	if got := msgr.count(); got != 1 {
		t.Errorf("expected healthy user to still receive reminder, got %d sends", got)
	}
	if !strings.HasPrefix(msgr.sent[0], "+91104|") {
		t.Errorf("wrong recipient: %q", msgr.sent[0])
	}
}

func TestHydrationPassUsesWaterGoal(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	addOnboardedUser(t, st, "+91105")

	svc.RunHydrationPass(context.Background())
	if got := msgr.count(); got != 1 {
		t.Fatalf("expected 1 send, got %d", got)
	}
	if !strings.Contains(msgr.sent[0], "targeting 8 glasses today") {
		t.Errorf("unexpected hydration body: %q", msgr.sent[0])
	}
}

func TestCheckInPassUsesBudget(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	addOnboardedUser(t, st, "+91106")

	svc.RunCheckInPass(context.Background())
	if got := msgr.count(); got != 1 {
		t.Fatalf("expected 1 send, got %d", got)
	}
	if !strings.Contains(msgr.sent[0], "Budget target: ₹250.") {
		t.Errorf("unexpected check-in body: %q", msgr.sent[0])
	}
}

func TestBroadcastSkipsNotOnboarded(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	st.CreateProfile("+91107") // onboarding incomplete
	addOnboardedUser(t, st, "+91108")

	svc.RunMorningPass(context.Background())
	if got := msgr.count(); got != 1 {
		t.Errorf("expected only onboarded user to receive broadcast, got %d", got)
	}
}

func TestFeedbackPassPromptsNeverAskedUser(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	addOnboardedUser(t, st, "+91109")

	// No feedback ever requested: due on the first pass
	svc.RunFeedbackPass(context.Background())
	if got := msgr.count(); got != 1 {
		t.Fatalf("expected immediate feedback prompt for never-asked user, got %d", got)
	}
	if !strings.Contains(msgr.sent[0], "2-week check-in") {
		t.Errorf("unexpected feedback body: %q", msgr.sent[0])
	}

	// Prompt time is stamped, so the next pass stays quiet
	svc.RunFeedbackPass(context.Background())
	if got := msgr.count(); got != 1 {
		t.Errorf("feedback prompt repeated within interval: %d sends", got)
	}
}

func TestFeedbackPassRespectsInterval(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)
	p := addOnboardedUser(t, st, "+91110")

	// Recent prompt: interval not elapsed
	if err := st.SetLastFeedbackAt(p.ID, testNow.Add(-24*time.Hour)); err != nil {
		t.Fatalf("set last feedback: %v", err)
	}
	svc.RunFeedbackPass(context.Background())
	if got := msgr.count(); got != 0 {
		t.Fatalf("expected no feedback prompt within interval, got %d", got)
	}

	// Push the last prompt far enough back
	if err := st.SetLastFeedbackAt(p.ID, testNow.Add(-15*24*time.Hour)); err != nil {
		t.Fatalf("set last feedback: %v", err)
	}
	svc.RunFeedbackPass(context.Background())
	if got := msgr.count(); got != 1 {
		t.Fatalf("expected feedback prompt after interval, got %d", got)
	}
}

func TestRegisterWiresAllJobs(t *testing.T) {
	st := store.NewInMemoryStore()
	msgr := newRecordingMessenger()
	svc := newTestService(st, msgr)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := svc.Register(sched); err != nil {
		t.Fatalf("register failed: %v", err)
	}
}
