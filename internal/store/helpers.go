package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/thesapansharma/Fittr/internal/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// profileColumns is the SELECT column list matching scanProfile.
const profileColumns = `id, identity, name, weight_kg, height_cm, goal, job_type,
	sleep_hours, exercise_habit, daily_budget, budget_currency, water_goal,
	diet_type, medical_issues, office_timing, reminder_times, last_reminder_sent,
	mood_flag, last_feedback_at, onboarding_complete, created_at, updated_at`

// scanProfile scans one user profile row, decoding the JSON-encoded map and
// list columns.
func scanProfile(row rowScanner) (models.UserProfile, error) {
	var p models.UserProfile
	var issuesJSON, timesJSON, sentJSON string
	var lastFeedback sql.NullTime
	err := row.Scan(
		&p.ID, &p.Identity, &p.Name, &p.WeightKg, &p.HeightCm, &p.Goal, &p.JobType,
		&p.SleepHours, &p.ExerciseHabit, &p.DailyBudget, &p.BudgetCurrency, &p.WaterGoal,
		&p.DietType, &issuesJSON, &p.OfficeTiming, &timesJSON, &sentJSON,
		&p.MoodFlag, &lastFeedback, &p.OnboardingComplete, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, fmt.Errorf("scan profile failed: %w", err)
	}
	if lastFeedback.Valid {
		p.LastFeedbackAt = &lastFeedback.Time
	}
	p.MedicalIssues = decodeIssues(issuesJSON)
	p.ReminderTimes = decodeReminderMap(timesJSON)
	p.LastReminderSent = decodeReminderMap(sentJSON)
	return p, nil
}

// encodeIssues serializes the medical issue list for a TEXT column.
func encodeIssues(issues []models.MedicalIssue) string {
	if len(issues) == 0 {
		return ""
	}
	data, err := json.Marshal(issues)
	if err != nil {
		slog.Error("store encodeIssues marshal failed", "error", err)
		return ""
	}
	return string(data)
}

// decodeIssues deserializes a medical issue list; a bad column yields an
// empty list rather than a failed read.
func decodeIssues(raw string) []models.MedicalIssue {
	if raw == "" {
		return nil
	}
	var issues []models.MedicalIssue
	if err := json.Unmarshal([]byte(raw), &issues); err != nil {
		slog.Error("store decodeIssues unmarshal failed", "error", err)
		return nil
	}
	return issues
}

// encodeReminderMap serializes a reminder kind map for a TEXT column.
func encodeReminderMap(m map[models.ReminderKind]string) string {
	if len(m) == 0 {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		slog.Error("store encodeReminderMap marshal failed", "error", err)
		return ""
	}
	return string(data)
}

// decodeReminderMap deserializes a reminder kind map; a bad column yields an
// empty map rather than a failed read.
func decodeReminderMap(raw string) map[models.ReminderKind]string {
	if raw == "" {
		return nil
	}
	m := make(map[models.ReminderKind]string)
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		slog.Error("store decodeReminderMap unmarshal failed", "error", err)
		return nil
	}
	return m
}

// nilIfZeroTime returns nil for zero times so nullable columns stay NULL.
func nilIfZeroTime(t *sql.NullTime) interface{} {
	if t == nil || !t.Valid {
		return nil
	}
	return t.Time
}
