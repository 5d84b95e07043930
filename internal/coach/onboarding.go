package coach

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thesapansharma/Fittr/internal/models"
)

// minOnboardingFields is the minimum number of comma-separated fields before
// an onboarding message is treated as a full submission.
const minOnboardingFields = 9

// onboardingField applies one positional onboarding value to the profile.
// Malformed values fall back to the field's default rather than failing the
// whole submission.
type onboardingField struct {
	name  string
	apply func(p *models.UserProfile, raw string)
}

// onboardingSchema defines the positional field order of the one-message
// onboarding format.
var onboardingSchema = []onboardingField{
	{"name", func(p *models.UserProfile, raw string) {
		p.Name = raw
	}},
	{"weight", func(p *models.UserProfile, raw string) {
		p.WeightKg = parseFloat(raw, 0)
	}},
	{"height", func(p *models.UserProfile, raw string) {
		p.HeightCm = parseFloat(raw, 0)
	}},
	{"goal", func(p *models.UserProfile, raw string) {
		goal := models.Goal(strings.ToLower(raw))
		if !models.IsValidGoal(goal) {
			goal = models.DefaultGoal
		}
		p.Goal = goal
	}},
	{"job type", func(p *models.UserProfile, raw string) {
		job := models.JobType(strings.ToLower(raw))
		if !models.IsValidJobType(job) {
			job = models.DefaultJobType
		}
		p.JobType = job
	}},
	{"sleep hours", func(p *models.UserProfile, raw string) {
		p.SleepHours = parseFloat(raw, models.DefaultSleepHours)
	}},
	{"exercise habit", func(p *models.UserProfile, raw string) {
		habit := models.ExerciseHabit(strings.ToLower(raw))
		if !models.IsValidExerciseHabit(habit) {
			habit = models.DefaultHabit
		}
		p.ExerciseHabit = habit
	}},
	{"daily budget", func(p *models.UserProfile, raw string) {
		p.DailyBudget = parseInt(raw, models.DefaultDailyBudget)
	}},
	{"water goal", func(p *models.UserProfile, raw string) {
		p.WaterGoal = parseInt(raw, models.DefaultWaterGoal)
	}},
	{"diet type", func(p *models.UserProfile, raw string) {
		diet := models.DietType(strings.ToLower(raw))
		if !models.IsValidDietType(diet) {
			diet = models.DefaultDietType
		}
		p.DietType = diet
	}},
	{"medical issues", func(p *models.UserProfile, raw string) {
		if strings.EqualFold(strings.TrimSpace(raw), "none") {
			return
		}
		p.AddIssues(detectMedicalIssues(raw))
	}},
	{"office timing", func(p *models.UserProfile, raw string) {
		if raw == "" {
			raw = models.DefaultOfficeTiming
		}
		p.OfficeTiming = raw
	}},
}

// applyOnboarding fills the profile from a comma-separated submission. It
// reports false when the message has too few fields to be a submission.
func applyOnboarding(p *models.UserProfile, text string) bool {
	parts := strings.Split(text, ",")
	if len(parts) < minOnboardingFields {
		return false
	}
	for i, field := range onboardingSchema {
		raw := ""
		if i < len(parts) {
			raw = strings.TrimSpace(parts[i])
		}
		field.apply(p, raw)
	}
	if p.OfficeTiming == "" {
		p.OfficeTiming = models.DefaultOfficeTiming
	}
	if p.DietType == "" {
		p.DietType = models.DefaultDietType
	}
	p.OnboardingComplete = true
	return true
}

// welcomeMessage composes the onboarding completion reply with the user's
// starter plan.
func welcomeMessage(p *models.UserProfile) string {
	lines := []string{
		"Onboarding complete ✅",
		habitAdvice(p.ExerciseHabit),
		"Diet coaching: " + dietHint(p.DietType),
		fmt.Sprintf("Workout reminder time: %s", p.ReminderTime(models.ReminderWorkout)),
		fmt.Sprintf("Sleep reminder time: %s", p.ReminderTime(models.ReminderSleep)),
	}
	if guidance := medicalGuidance(p.MedicalIssues); guidance != "" {
		lines = append(lines, guidance)
	}
	return strings.Join(lines, "\n")
}

func parseFloat(raw string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}
