// Package store provides storage backends for Fittr.
//
// It defines the Store interface over user profiles and activity logs, with
// SQLite and PostgreSQL implementations plus an in-memory store for tests.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thesapansharma/Fittr/internal/models"
)

// Store is the persistence contract consumed by the coach, the reminder
// scheduler and the HTTP surface. Every mutation is a single-row update
// scoped to one user; there are no cross-user transactions.
type Store interface {
	// FindProfile returns the profile for an identity, or nil if none exists.
	FindProfile(identity string) (*models.UserProfile, error)
	// CreateProfile creates a new profile in the onboarding-incomplete state.
	CreateProfile(identity string) (*models.UserProfile, error)
	// SaveProfile persists the full profile row, including reminder maps.
	SaveProfile(p *models.UserProfile) error
	// ListOnboarded returns all profiles with onboarding complete.
	ListOnboarded() ([]models.UserProfile, error)
	// ListProfiles returns up to limit profiles, newest first.
	ListProfiles(limit int) ([]models.UserProfile, error)
	// Counts returns record counts for the admin overview.
	Counts() (models.StoreCounts, error)

	AddMealLog(m models.MealLog) error
	AddWaterLog(w models.WaterLog) error
	AddExerciseLog(e models.ExerciseLog) error
	AddMessageLog(m models.MessageLog) error
	// MessagesByUser returns up to limit messages for a user, newest first.
	// userID 0 means all users.
	MessagesByUser(userID int64, limit int) ([]models.MessageLog, error)

	// DaySummary aggregates meal count, spend, water glasses and exercise
	// minutes over entries whose timestamp falls in [start, end).
	DaySummary(userID int64, start, end time.Time) (models.DaySummary, error)

	// MarkReminderSent atomically claims the (user, kind, day) send slot.
	// It returns true exactly once per slot; concurrent or repeated calls
	// for the same slot return false.
	MarkReminderSent(userID int64, kind models.ReminderKind, day string) (bool, error)
	// SetLastFeedbackAt stamps the time of the latest feedback request.
	SetLastFeedbackAt(userID int64, at time.Time) error

	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store implementations.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports whether a DSN targets PostgreSQL or SQLite.
// Anything that is not recognizably a Postgres DSN is treated as a SQLite
// file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a mutex-guarded in-memory Store used by tests.
type InMemoryStore struct {
	mu        sync.Mutex
	profiles  map[string]*models.UserProfile
	meals     []models.MealLog
	waters    []models.WaterLog
	exercises []models.ExerciseLog
	messages  []models.MessageLog
	sent      map[string]bool // "userID:kind:day" -> claimed
	nextID    int64

	// FailWrites makes every mutating call return an error, for testing
	// storage-failure paths.
	FailWrites bool
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[string]*models.UserProfile),
		sent:     make(map[string]bool),
	}
}

var errWriteFailed = fmt.Errorf("simulated write failure")

func (s *InMemoryStore) FindProfile(identity string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[identity]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) CreateProfile(identity string) (*models.UserProfile, error) {
	if identity == "" {
		return nil, models.ErrEmptyIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return nil, errWriteFailed
	}
	if p, ok := s.profiles[identity]; ok {
		cp := *p
		return &cp, nil
	}
	s.nextID++
	now := time.Now()
	p := &models.UserProfile{
		ID:             s.nextID,
		Identity:       identity,
		BudgetCurrency: models.DefaultCurrency,
		MoodFlag:       models.MoodNeutral,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.profiles[identity] = p
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) SaveProfile(p *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errWriteFailed
	}
	existing, ok := s.profiles[p.Identity]
	if !ok {
		return models.ErrProfileNotFound
	}
	cp := *p
	cp.ID = existing.ID
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	s.profiles[p.Identity] = &cp
	return nil
}

func (s *InMemoryStore) ListOnboarded() ([]models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserProfile
	for _, p := range s.profiles {
		if p.OnboardingComplete {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) ListProfiles(limit int) ([]models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserProfile
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Counts() (models.StoreCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.StoreCounts{
		Users:       len(s.profiles),
		Meals:       len(s.meals),
		WaterLogs:   len(s.waters),
		WorkoutLogs: len(s.exercises),
		Messages:    len(s.messages),
	}
	for _, p := range s.profiles {
		if p.OnboardingComplete {
			c.OnboardedUsers++
		}
	}
	return c, nil
}

func (s *InMemoryStore) AddMealLog(m models.MealLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errWriteFailed
	}
	s.nextID++
	m.ID = s.nextID
	if m.AteAt.IsZero() {
		m.AteAt = time.Now()
	}
	s.meals = append(s.meals, m)
	return nil
}

func (s *InMemoryStore) AddWaterLog(w models.WaterLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errWriteFailed
	}
	s.nextID++
	w.ID = s.nextID
	if w.LoggedAt.IsZero() {
		w.LoggedAt = time.Now()
	}
	s.waters = append(s.waters, w)
	return nil
}

func (s *InMemoryStore) AddExerciseLog(e models.ExerciseLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errWriteFailed
	}
	s.nextID++
	e.ID = s.nextID
	if e.DoneAt.IsZero() {
		e.DoneAt = time.Now()
	}
	s.exercises = append(s.exercises, e)
	return nil
}

func (s *InMemoryStore) AddMessageLog(m models.MessageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errWriteFailed
	}
	s.nextID++
	m.ID = s.nextID
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	s.messages = append(s.messages, m)
	return nil
}

func (s *InMemoryStore) MessagesByUser(userID int64, limit int) ([]models.MessageLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MessageLog
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if userID != 0 && m.UserID != userID {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) DaySummary(userID int64, start, end time.Time) (models.DaySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum models.DaySummary
	in := func(t time.Time) bool {
		return !t.Before(start) && t.Before(end)
	}
	for _, m := range s.meals {
		if m.UserID == userID && in(m.AteAt) {
			sum.MealCount++
			sum.BudgetUsed += m.Cost
		}
	}
	for _, w := range s.waters {
		if w.UserID == userID && in(w.LoggedAt) {
			sum.WaterGlasses += w.Glasses
		}
	}
	for _, e := range s.exercises {
		if e.UserID == userID && in(e.DoneAt) {
			sum.ExerciseMinutes += e.DurationMinutes
		}
	}
	return sum, nil
}

func (s *InMemoryStore) MarkReminderSent(userID int64, kind models.ReminderKind, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return false, errWriteFailed
	}
	key := fmt.Sprintf("%d:%s:%s", userID, kind, day)
	if s.sent[key] {
		return false, nil
	}
	s.sent[key] = true
	return true, nil
}

func (s *InMemoryStore) SetLastFeedbackAt(userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errWriteFailed
	}
	for _, p := range s.profiles {
		if p.ID == userID {
			t := at
			p.LastFeedbackAt = &t
			return nil
		}
	}
	return models.ErrProfileNotFound
}

func (s *InMemoryStore) Close() error {
	return nil
}
