// Package store provides storage backends for Fittr.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/thesapansharma/Fittr/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) FindProfile(identity string) (*models.UserProfile, error) {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM user_profiles WHERE identity = $1`, identity)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("PostgresStore FindProfile not found", "identity", identity)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore FindProfile failed", "error", err, "identity", identity)
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreateProfile(identity string) (*models.UserProfile, error) {
	if identity == "" {
		return nil, models.ErrEmptyIdentity
	}
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO user_profiles (identity, budget_currency, mood_flag, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (identity) DO NOTHING`,
		identity, models.DefaultCurrency, models.MoodNeutral, now, now,
	)
	if err != nil {
		slog.Error("PostgresStore CreateProfile failed", "error", err, "identity", identity)
		return nil, fmt.Errorf("failed to create profile for %s: %w", identity, err)
	}
	slog.Debug("PostgresStore CreateProfile succeeded", "identity", identity)
	return s.FindProfile(identity)
}

func (s *PostgresStore) SaveProfile(p *models.UserProfile) error {
	var lastFeedback sql.NullTime
	if p.LastFeedbackAt != nil {
		lastFeedback = sql.NullTime{Time: *p.LastFeedbackAt, Valid: true}
	}
	res, err := s.db.Exec(
		`UPDATE user_profiles SET name = $1, weight_kg = $2, height_cm = $3, goal = $4, job_type = $5,
			sleep_hours = $6, exercise_habit = $7, daily_budget = $8, budget_currency = $9, water_goal = $10,
			diet_type = $11, medical_issues = $12, office_timing = $13, reminder_times = $14, last_reminder_sent = $15,
			mood_flag = $16, last_feedback_at = $17, onboarding_complete = $18, updated_at = $19
		 WHERE identity = $20`,
		p.Name, p.WeightKg, p.HeightCm, p.Goal, p.JobType,
		p.SleepHours, p.ExerciseHabit, p.DailyBudget, p.BudgetCurrency, p.WaterGoal,
		p.DietType, encodeIssues(p.MedicalIssues), p.OfficeTiming,
		encodeReminderMap(p.ReminderTimes), encodeReminderMap(p.LastReminderSent),
		p.MoodFlag, nilIfZeroTime(&lastFeedback), p.OnboardingComplete, time.Now(),
		p.Identity,
	)
	if err != nil {
		slog.Error("PostgresStore SaveProfile failed", "error", err, "identity", p.Identity)
		return fmt.Errorf("failed to save profile for %s: %w", p.Identity, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrProfileNotFound
	}
	slog.Debug("PostgresStore SaveProfile succeeded", "identity", p.Identity)
	return nil
}

func (s *PostgresStore) ListOnboarded() ([]models.UserProfile, error) {
	return s.queryProfiles(`SELECT `+profileColumns+` FROM user_profiles WHERE onboarding_complete = TRUE ORDER BY id`, nil)
}

func (s *PostgresStore) ListProfiles(limit int) ([]models.UserProfile, error) {
	return s.queryProfiles(`SELECT `+profileColumns+` FROM user_profiles ORDER BY id DESC LIMIT $1`, []interface{}{limit})
}

func (s *PostgresStore) queryProfiles(query string, args []interface{}) ([]models.UserProfile, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore profile query failed", "error", err)
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			slog.Error("PostgresStore profile scan failed", "error", err)
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore profile rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate profile rows: %w", err)
	}
	return profiles, nil
}

func (s *PostgresStore) Counts() (models.StoreCounts, error) {
	var c models.StoreCounts
	queries := []struct {
		dest  *int
		query string
	}{
		{&c.Users, `SELECT COUNT(*) FROM user_profiles`},
		{&c.OnboardedUsers, `SELECT COUNT(*) FROM user_profiles WHERE onboarding_complete = TRUE`},
		{&c.Meals, `SELECT COUNT(*) FROM meal_logs`},
		{&c.WaterLogs, `SELECT COUNT(*) FROM water_logs`},
		{&c.WorkoutLogs, `SELECT COUNT(*) FROM exercise_logs`},
		{&c.Messages, `SELECT COUNT(*) FROM message_logs`},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			slog.Error("PostgresStore Counts failed", "error", err, "query", q.query)
			return c, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return c, nil
}

func (s *PostgresStore) AddMealLog(m models.MealLog) error {
	if m.AteAt.IsZero() {
		m.AteAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO meal_logs (user_id, food, calories, cost, meal_type, ate_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		m.UserID, m.Food, m.Calories, m.Cost, m.MealType, m.AteAt,
	)
	if err != nil {
		slog.Error("PostgresStore AddMealLog failed", "error", err, "userID", m.UserID)
		return fmt.Errorf("failed to insert meal log: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddWaterLog(w models.WaterLog) error {
	if w.LoggedAt.IsZero() {
		w.LoggedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO water_logs (user_id, glasses, logged_at) VALUES ($1, $2, $3)`,
		w.UserID, w.Glasses, w.LoggedAt,
	)
	if err != nil {
		slog.Error("PostgresStore AddWaterLog failed", "error", err, "userID", w.UserID)
		return fmt.Errorf("failed to insert water log: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddExerciseLog(e models.ExerciseLog) error {
	if e.DoneAt.IsZero() {
		e.DoneAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO exercise_logs (user_id, activity, duration_minutes, done_at) VALUES ($1, $2, $3, $4)`,
		e.UserID, e.Activity, e.DurationMinutes, e.DoneAt,
	)
	if err != nil {
		slog.Error("PostgresStore AddExerciseLog failed", "error", err, "userID", e.UserID)
		return fmt.Errorf("failed to insert exercise log: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddMessageLog(m models.MessageLog) error {
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO message_logs (user_id, direction, body, sent_at) VALUES ($1, $2, $3, $4)`,
		m.UserID, m.Direction, m.Body, m.SentAt,
	)
	if err != nil {
		slog.Error("PostgresStore AddMessageLog failed", "error", err, "userID", m.UserID)
		return fmt.Errorf("failed to insert message log: %w", err)
	}
	return nil
}

func (s *PostgresStore) MessagesByUser(userID int64, limit int) ([]models.MessageLog, error) {
	query := `SELECT id, user_id, direction, body, sent_at FROM message_logs`
	var args []interface{}
	if userID != 0 {
		query += ` WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
		args = append(args, userID, limit)
	} else {
		query += ` ORDER BY id DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore MessagesByUser query failed", "error", err)
		return nil, fmt.Errorf("failed to query message logs: %w", err)
	}
	defer rows.Close()

	var messages []models.MessageLog
	for rows.Next() {
		var m models.MessageLog
		if err := rows.Scan(&m.ID, &m.UserID, &m.Direction, &m.Body, &m.SentAt); err != nil {
			slog.Error("PostgresStore MessagesByUser scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}

func (s *PostgresStore) DaySummary(userID int64, start, end time.Time) (models.DaySummary, error) {
	var sum models.DaySummary
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(cost), 0) FROM meal_logs WHERE user_id = $1 AND ate_at >= $2 AND ate_at < $3`,
		userID, start, end,
	).Scan(&sum.MealCount, &sum.BudgetUsed)
	if err != nil {
		slog.Error("PostgresStore DaySummary meal query failed", "error", err, "userID", userID)
		return sum, fmt.Errorf("failed to aggregate meals: %w", err)
	}
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(glasses), 0) FROM water_logs WHERE user_id = $1 AND logged_at >= $2 AND logged_at < $3`,
		userID, start, end,
	).Scan(&sum.WaterGlasses)
	if err != nil {
		slog.Error("PostgresStore DaySummary water query failed", "error", err, "userID", userID)
		return sum, fmt.Errorf("failed to aggregate water: %w", err)
	}
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(duration_minutes), 0) FROM exercise_logs WHERE user_id = $1 AND done_at >= $2 AND done_at < $3`,
		userID, start, end,
	).Scan(&sum.ExerciseMinutes)
	if err != nil {
		slog.Error("PostgresStore DaySummary exercise query failed", "error", err, "userID", userID)
		return sum, fmt.Errorf("failed to aggregate exercise: %w", err)
	}
	return sum, nil
}

// MarkReminderSent claims the (user, kind, day) slot via ON CONFLICT DO
// NOTHING so the check stays atomic under overlapping scheduler ticks.
func (s *PostgresStore) MarkReminderSent(userID int64, kind models.ReminderKind, day string) (bool, error) {
	res, err := s.db.Exec(
		`INSERT INTO reminder_sends (user_id, kind, day, sent_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, kind, day) DO NOTHING`,
		userID, kind, day, time.Now(),
	)
	if err != nil {
		slog.Error("PostgresStore MarkReminderSent failed", "error", err, "userID", userID, "kind", kind)
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	claimed := n > 0
	slog.Debug("PostgresStore MarkReminderSent", "userID", userID, "kind", kind, "day", day, "claimed", claimed)
	return claimed, nil
}

func (s *PostgresStore) SetLastFeedbackAt(userID int64, at time.Time) error {
	res, err := s.db.Exec(
		`UPDATE user_profiles SET last_feedback_at = $1, updated_at = $2 WHERE id = $3`,
		at, time.Now(), userID,
	)
	if err != nil {
		slog.Error("PostgresStore SetLastFeedbackAt failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to set last feedback time: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrProfileNotFound
	}
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
