// Package store provides storage backends for Fittr.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/thesapansharma/Fittr/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) FindProfile(identity string) (*models.UserProfile, error) {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM user_profiles WHERE identity = ?`, identity)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("SQLiteStore FindProfile not found", "identity", identity)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore FindProfile failed", "error", err, "identity", identity)
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) CreateProfile(identity string) (*models.UserProfile, error) {
	if identity == "" {
		return nil, models.ErrEmptyIdentity
	}
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO user_profiles (identity, budget_currency, mood_flag, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		identity, models.DefaultCurrency, models.MoodNeutral, now, now,
	)
	if err != nil {
		slog.Error("SQLiteStore CreateProfile failed", "error", err, "identity", identity)
		return nil, fmt.Errorf("failed to create profile for %s: %w", identity, err)
	}
	slog.Debug("SQLiteStore CreateProfile succeeded", "identity", identity)
	return s.FindProfile(identity)
}

func (s *SQLiteStore) SaveProfile(p *models.UserProfile) error {
	var lastFeedback sql.NullTime
	if p.LastFeedbackAt != nil {
		lastFeedback = sql.NullTime{Time: *p.LastFeedbackAt, Valid: true}
	}
	res, err := s.db.Exec(
		`UPDATE user_profiles SET name = ?, weight_kg = ?, height_cm = ?, goal = ?, job_type = ?,
			sleep_hours = ?, exercise_habit = ?, daily_budget = ?, budget_currency = ?, water_goal = ?,
			diet_type = ?, medical_issues = ?, office_timing = ?, reminder_times = ?, last_reminder_sent = ?,
			mood_flag = ?, last_feedback_at = ?, onboarding_complete = ?, updated_at = ?
		 WHERE identity = ?`,
		p.Name, p.WeightKg, p.HeightCm, p.Goal, p.JobType,
		p.SleepHours, p.ExerciseHabit, p.DailyBudget, p.BudgetCurrency, p.WaterGoal,
		p.DietType, encodeIssues(p.MedicalIssues), p.OfficeTiming,
		encodeReminderMap(p.ReminderTimes), encodeReminderMap(p.LastReminderSent),
		p.MoodFlag, nilIfZeroTime(&lastFeedback), p.OnboardingComplete, time.Now(),
		p.Identity,
	)
	if err != nil {
		slog.Error("SQLiteStore SaveProfile failed", "error", err, "identity", p.Identity)
		return fmt.Errorf("failed to save profile for %s: %w", p.Identity, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrProfileNotFound
	}
	slog.Debug("SQLiteStore SaveProfile succeeded", "identity", p.Identity)
	return nil
}

func (s *SQLiteStore) ListOnboarded() ([]models.UserProfile, error) {
	return s.queryProfiles(`SELECT `+profileColumns+` FROM user_profiles WHERE onboarding_complete = 1 ORDER BY id`, nil)
}

func (s *SQLiteStore) ListProfiles(limit int) ([]models.UserProfile, error) {
	return s.queryProfiles(`SELECT `+profileColumns+` FROM user_profiles ORDER BY id DESC LIMIT ?`, []interface{}{limit})
}

func (s *SQLiteStore) queryProfiles(query string, args []interface{}) ([]models.UserProfile, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore profile query failed", "error", err)
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			slog.Error("SQLiteStore profile scan failed", "error", err)
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore profile rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate profile rows: %w", err)
	}
	return profiles, nil
}

func (s *SQLiteStore) Counts() (models.StoreCounts, error) {
	var c models.StoreCounts
	queries := []struct {
		dest  *int
		query string
	}{
		{&c.Users, `SELECT COUNT(*) FROM user_profiles`},
		{&c.OnboardedUsers, `SELECT COUNT(*) FROM user_profiles WHERE onboarding_complete = 1`},
		{&c.Meals, `SELECT COUNT(*) FROM meal_logs`},
		{&c.WaterLogs, `SELECT COUNT(*) FROM water_logs`},
		{&c.WorkoutLogs, `SELECT COUNT(*) FROM exercise_logs`},
		{&c.Messages, `SELECT COUNT(*) FROM message_logs`},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			slog.Error("SQLiteStore Counts failed", "error", err, "query", q.query)
			return c, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return c, nil
}

func (s *SQLiteStore) AddMealLog(m models.MealLog) error {
	if m.AteAt.IsZero() {
		m.AteAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO meal_logs (user_id, food, calories, cost, meal_type, ate_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.UserID, m.Food, m.Calories, m.Cost, m.MealType, m.AteAt,
	)
	if err != nil {
		slog.Error("SQLiteStore AddMealLog failed", "error", err, "userID", m.UserID)
		return fmt.Errorf("failed to insert meal log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddWaterLog(w models.WaterLog) error {
	if w.LoggedAt.IsZero() {
		w.LoggedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO water_logs (user_id, glasses, logged_at) VALUES (?, ?, ?)`,
		w.UserID, w.Glasses, w.LoggedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore AddWaterLog failed", "error", err, "userID", w.UserID)
		return fmt.Errorf("failed to insert water log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddExerciseLog(e models.ExerciseLog) error {
	if e.DoneAt.IsZero() {
		e.DoneAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO exercise_logs (user_id, activity, duration_minutes, done_at) VALUES (?, ?, ?, ?)`,
		e.UserID, e.Activity, e.DurationMinutes, e.DoneAt,
	)
	if err != nil {
		slog.Error("SQLiteStore AddExerciseLog failed", "error", err, "userID", e.UserID)
		return fmt.Errorf("failed to insert exercise log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddMessageLog(m models.MessageLog) error {
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO message_logs (user_id, direction, body, sent_at) VALUES (?, ?, ?, ?)`,
		m.UserID, m.Direction, m.Body, m.SentAt,
	)
	if err != nil {
		slog.Error("SQLiteStore AddMessageLog failed", "error", err, "userID", m.UserID)
		return fmt.Errorf("failed to insert message log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MessagesByUser(userID int64, limit int) ([]models.MessageLog, error) {
	query := `SELECT id, user_id, direction, body, sent_at FROM message_logs`
	var args []interface{}
	if userID != 0 {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore MessagesByUser query failed", "error", err)
		return nil, fmt.Errorf("failed to query message logs: %w", err)
	}
	defer rows.Close()

	var messages []models.MessageLog
	for rows.Next() {
		var m models.MessageLog
		if err := rows.Scan(&m.ID, &m.UserID, &m.Direction, &m.Body, &m.SentAt); err != nil {
			slog.Error("SQLiteStore MessagesByUser scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) DaySummary(userID int64, start, end time.Time) (models.DaySummary, error) {
	var sum models.DaySummary
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(cost), 0) FROM meal_logs WHERE user_id = ? AND ate_at >= ? AND ate_at < ?`,
		userID, start, end,
	).Scan(&sum.MealCount, &sum.BudgetUsed)
	if err != nil {
		slog.Error("SQLiteStore DaySummary meal query failed", "error", err, "userID", userID)
		return sum, fmt.Errorf("failed to aggregate meals: %w", err)
	}
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(glasses), 0) FROM water_logs WHERE user_id = ? AND logged_at >= ? AND logged_at < ?`,
		userID, start, end,
	).Scan(&sum.WaterGlasses)
	if err != nil {
		slog.Error("SQLiteStore DaySummary water query failed", "error", err, "userID", userID)
		return sum, fmt.Errorf("failed to aggregate water: %w", err)
	}
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(duration_minutes), 0) FROM exercise_logs WHERE user_id = ? AND done_at >= ? AND done_at < ?`,
		userID, start, end,
	).Scan(&sum.ExerciseMinutes)
	if err != nil {
		slog.Error("SQLiteStore DaySummary exercise query failed", "error", err, "userID", userID)
		return sum, fmt.Errorf("failed to aggregate exercise: %w", err)
	}
	return sum, nil
}

// MarkReminderSent claims the (user, kind, day) slot via INSERT OR IGNORE.
// RowsAffected tells us whether this call won the slot, which keeps the
// check atomic even under overlapping scheduler ticks.
func (s *SQLiteStore) MarkReminderSent(userID int64, kind models.ReminderKind, day string) (bool, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO reminder_sends (user_id, kind, day, sent_at) VALUES (?, ?, ?, ?)`,
		userID, kind, day, time.Now(),
	)
	if err != nil {
		slog.Error("SQLiteStore MarkReminderSent failed", "error", err, "userID", userID, "kind", kind)
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	claimed := n > 0
	slog.Debug("SQLiteStore MarkReminderSent", "userID", userID, "kind", kind, "day", day, "claimed", claimed)
	return claimed, nil
}

func (s *SQLiteStore) SetLastFeedbackAt(userID int64, at time.Time) error {
	res, err := s.db.Exec(
		`UPDATE user_profiles SET last_feedback_at = ?, updated_at = ? WHERE id = ?`,
		at, time.Now(), userID,
	)
	if err != nil {
		slog.Error("SQLiteStore SetLastFeedbackAt failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to set last feedback time: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrProfileNotFound
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
