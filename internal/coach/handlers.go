package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thesapansharma/Fittr/internal/models"
)

func (c *Coach) handleEmotional(p *models.UserProfile) (string, error) {
	p.MoodFlag = models.MoodGuilty
	if err := c.store.SaveProfile(p); err != nil {
		return "", err
	}
	return emotionalSupportText, nil
}

func (c *Coach) handleFeedback(p *models.UserProfile) (string, error) {
	if err := c.store.SetLastFeedbackAt(p.ID, c.clock()); err != nil {
		return "", err
	}
	return feedbackThanksText, nil
}

// reminderKindKeywords resolves the reminder kind named in a set reminder
// command.
var reminderKindKeywords = []struct {
	kind     models.ReminderKind
	keywords []string
}{
	{models.ReminderWater, []string{"water"}},
	{models.ReminderWorkout, []string{"workout", "exercise"}},
	{models.ReminderMeal, []string{"meal", "diet"}},
	{models.ReminderSleep, []string{"sleep", "bed", "night"}},
}

// matchReminderKinds returns every reminder kind named in a set reminder
// command, so one message can retime several kinds at once.
func matchReminderKinds(text string) []models.ReminderKind {
	var kinds []models.ReminderKind
	for _, entry := range reminderKindKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				kinds = append(kinds, entry.kind)
				break
			}
		}
	}
	return kinds
}

func (c *Coach) handleSetReminder(p *models.UserProfile, text string) (string, error) {
	kinds := matchReminderKinds(text)
	t := extractTime(text)
	if len(kinds) == 0 || t == "" {
		return reminderUsageText, nil
	}
	for _, kind := range kinds {
		p.SetReminderTime(kind, t)
	}
	if err := c.store.SaveProfile(p); err != nil {
		return "", err
	}
	slog.Info("Coach updated reminder times", "identity", p.Identity, "kinds", len(kinds), "time", t)
	return fmt.Sprintf("Reminder time updated ⏰ Water: %s, Meal: %s, Workout: %s, Sleep: %s.",
		p.ReminderTime(models.ReminderWater),
		p.ReminderTime(models.ReminderMeal),
		p.ReminderTime(models.ReminderWorkout),
		p.ReminderTime(models.ReminderSleep),
	), nil
}

func (c *Coach) handleMedical(p *models.UserProfile, text string) (string, error) {
	issues := detectMedicalIssues(text)
	if len(issues) == 0 {
		return "I could not match a supported condition. Examples: medical diabetes, high bp, thyroid.", nil
	}
	p.AddIssues(issues)
	if err := c.store.SaveProfile(p); err != nil {
		return "", err
	}
	names := make([]string, len(p.MedicalIssues))
	for i, issue := range p.MedicalIssues {
		names[i] = string(issue)
	}
	return fmt.Sprintf("Medical profile updated 🩺 Tracking: %s\n%s",
		strings.Join(names, ", "), medicalGuidance(p.MedicalIssues)), nil
}

func (c *Coach) handleDietType(p *models.UserProfile, text string) (string, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(text, "diet type"))
	diet := models.DietType(strings.ReplaceAll(raw, " ", "_"))
	if !models.IsValidDietType(diet) {
		return dietUsageText, nil
	}
	p.DietType = diet
	if err := c.store.SaveProfile(p); err != nil {
		return "", err
	}
	return "Diet type updated ✅ " + dietHint(diet), nil
}

func (c *Coach) handleSleepTime(p *models.UserProfile, text string) (string, error) {
	t := extractTime(text)
	if t == "" {
		return sleepUsageText, nil
	}
	p.SetReminderTime(models.ReminderSleep, t)
	if err := c.store.SaveProfile(p); err != nil {
		return "", err
	}
	return fmt.Sprintf("Sleep reminder updated 😴 %s", t), nil
}

func (c *Coach) handleWater(p *models.UserProfile, text string) (string, error) {
	glasses := extractNumber(text, models.DefaultWaterGlasses)
	err := c.store.AddWaterLog(models.WaterLog{
		UserID:   p.ID,
		Glasses:  glasses,
		LoggedAt: c.clock(),
	})
	if err != nil {
		return "", err
	}
	start, end := c.dayBounds()
	sum, err := c.store.DaySummary(p.ID, start, end)
	if err != nil {
		return "", err
	}
	goal := p.WaterGoal
	if goal <= 0 {
		goal = models.DefaultWaterGoal
	}
	return fmt.Sprintf("Hydration updated 💧 Total today: %d/%d glasses.", sum.WaterGlasses, goal), nil
}

func (c *Coach) handleWorkout(p *models.UserProfile, text string) (string, error) {
	minutes := extractNumber(text, models.DefaultWorkoutMins)
	activity := workoutActivity(text)
	err := c.store.AddExerciseLog(models.ExerciseLog{
		UserID:          p.ID,
		Activity:        activity,
		DurationMinutes: minutes,
		DoneAt:          c.clock(),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Workout logged: %d min %s 🏃\n%s", minutes, activity, officeTip(p.JobType)), nil
}

// workoutActivity strips the command word and duration from a workout log
// message, defaulting to walking.
func workoutActivity(text string) string {
	t := strings.TrimPrefix(text, "workout")
	t = strings.TrimPrefix(t, "exercise")
	t = numberRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	if t == "" {
		return "walking"
	}
	return t
}

func (c *Coach) handleSummary(p *models.UserProfile) (string, error) {
	start, end := c.dayBounds()
	sum, err := c.store.DaySummary(p.ID, start, end)
	if err != nil {
		return "", err
	}
	budget := p.DailyBudget
	if budget <= 0 {
		budget = models.DefaultDailyBudget
	}
	left := budget - sum.BudgetUsed
	if left < 0 {
		left = 0
	}
	goal := p.WaterGoal
	if goal <= 0 {
		goal = models.DefaultWaterGoal
	}
	sym := models.CurrencySymbol(p.BudgetCurrency)
	lines := []string{
		"Today Summary:",
		fmt.Sprintf("Meals logged: %d", sum.MealCount),
		fmt.Sprintf("Water: %d/%d glasses", sum.WaterGlasses, goal),
		fmt.Sprintf("Exercise: %d min", sum.ExerciseMinutes),
		fmt.Sprintf("Budget used: %s%d", sym, sum.BudgetUsed),
		fmt.Sprintf("Budget left: %s%d", sym, left),
		"Diet: " + dietHint(p.DietType),
	}
	if guidance := medicalGuidance(p.MedicalIssues); guidance != "" {
		lines = append(lines, guidance)
	}
	lines = append(lines, "Great progress 👍")
	return strings.Join(lines, "\n"), nil
}

func (c *Coach) handleMeal(p *models.UserProfile, text string) (string, error) {
	food, calories := extractFood(text)
	if food == "" {
		food = mealFoodFallback(text)
		calories = models.DefaultMealCalories
	}
	cost := extractNumber(text, 0)
	mealType := extractMealType(text)
	err := c.store.AddMealLog(models.MealLog{
		UserID:   p.ID,
		Food:     food,
		Calories: calories,
		Cost:     cost,
		MealType: mealType,
		AteAt:    c.clock(),
	})
	if err != nil {
		return "", err
	}
	start, end := c.dayBounds()
	sum, err := c.store.DaySummary(p.ID, start, end)
	if err != nil {
		return "", err
	}

	swapLine := "Nice logging consistency. Keep meals balanced with protein + fiber."
	if alts := swapSuggestions(text); len(alts) > 0 {
		swapLine = fmt.Sprintf("Try %s next time 🙂", strings.Join(alts, " / "))
	}
	lines := []string{
		fmt.Sprintf("%s (~%d cal) logged.", food, calories),
		swapLine,
		budgetStatus(sum.BudgetUsed, p.DailyBudget, p.BudgetCurrency),
		sleepTip(p.SleepHours),
		dietHint(p.DietType),
	}
	if guidance := medicalGuidance(p.MedicalIssues); guidance != "" {
		lines = append(lines, guidance)
	}
	return strings.Join(lines, "\n"), nil
}

// mealFoodFallback derives a food label from a meal message with no known
// food, stripping the command word, meal type, and cost.
func mealFoodFallback(text string) string {
	t := strings.TrimPrefix(text, "meal")
	t = strings.TrimPrefix(t, "ate")
	for _, mt := range []string{"breakfast", "lunch", "dinner", "snack"} {
		t = strings.ReplaceAll(t, mt, "")
	}
	t = numberRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	if t == "" {
		return "meal"
	}
	return t
}

func (c *Coach) handleFallback(ctx context.Context, p *models.UserProfile, text string) string {
	if c.genai != nil {
		reply, err := c.genai.CoachReply(ctx, p, text)
		if err != nil {
			slog.Error("Coach fallback reply generation failed", "identity", p.Identity, "error", err)
		} else if reply != "" {
			return reply
		}
	}
	return helpText
}
