package coach

import (
	"fmt"
	"strings"

	"github.com/thesapansharma/Fittr/internal/models"
)

// dietHint returns the one-line coaching hint for a diet type.
func dietHint(diet models.DietType) string {
	switch diet {
	case models.DietVegetarian:
		return "Build meals around dal, paneer/tofu, curd, sprouts, vegetables, and whole grains."
	case models.DietVegan:
		return "Use tofu/soy/chana/rajma for protein and include nuts + seeds daily."
	case models.DietEggetarian:
		return "Use eggs + dals + curd for high-protein budget-friendly meals."
	case models.DietNonVegetarian:
		return "Use eggs/chicken/fish with vegetables and portioned carbs."
	default:
		return "Keep balanced plate: protein + fiber + controlled carbs."
	}
}

// habitAdvice returns the post-onboarding tip matched to the user's exercise
// habit.
func habitAdvice(habit models.ExerciseHabit) string {
	switch habit {
	case models.HabitNone:
		return "Start with a 15 min walk daily. Consistency matters more than intensity."
	case models.HabitGym:
		return "Great. Focus on protein intake and proper recovery to avoid overtraining."
	default:
		return "Nice. Add squats, wall pushups, and stretching at home."
	}
}

// workoutSuggestion builds a plan suggestion for the user's habit and job
// type, ending with the reminder hint.
func workoutSuggestion(p *models.UserProfile) string {
	var plan string
	switch p.ExerciseHabit {
	case models.HabitGym:
		plan = "Gym plan: 40-50 min strength training + 10 min cool down walk."
	case models.HabitBeginner:
		plan = "Beginner plan: 20-25 min brisk walk + 8 squats + 8 wall pushups + stretching."
	default:
		plan = "Starter plan: 15-20 min walk + 5-10 min mobility/stretching."
	}
	lines := []string{plan}
	if p.JobType == models.JobDesk {
		lines = append(lines, "Also do neck/back stretch every hour during office work.")
	}
	lines = append(lines,
		fmt.Sprintf("Recommended workout reminder: %s.", p.ReminderTime(models.ReminderWorkout)),
		"You can set custom timing: set reminder workout 18:30",
	)
	return strings.Join(lines, "\n")
}

// officeTip returns the post-workout-log tip matched to the job type.
func officeTip(job models.JobType) string {
	if job == models.JobDesk {
		return "Also do neck/back stretch every hour during office work."
	}
	return "Keep up the active routine."
}

// sleepTip returns the post-meal sleep note based on the user's sleep hours.
func sleepTip(hours float64) string {
	if hours > 0 && hours < 6 {
		return "Sleep below 6 hours can slow fat loss. Aim for better sleep timing tonight."
	}
	return "Good sleep supports fat loss and recovery."
}

// budgetStatus returns the budget line for a meal reply. The three bands are
// over budget, above 80 percent, and under.
func budgetStatus(used, budget int, currency string) string {
	sym := models.CurrencySymbol(currency)
	if budget <= 0 {
		budget = models.DefaultDailyBudget
	}
	if used > budget {
		return fmt.Sprintf("⚠️ You crossed your daily budget by %s%d.", sym, used-budget)
	}
	if float64(used) > 0.8*float64(budget) {
		return "⚠️ You are nearing your daily budget limit."
	}
	return fmt.Sprintf("Budget status: %s%d left today.", sym, budget-used)
}

// medicalKeywords maps each supported issue to the phrases that identify it in
// free text. Order of phrase checks within an issue does not matter; each
// issue is matched at most once.
var medicalKeywords = map[models.MedicalIssue][]string{
	models.IssueDiabetes:    {"diabetes", "diabetic", "sugar patient"},
	models.IssueHighBP:      {"high bp", "bp", "hypertension", "blood pressure"},
	models.IssueKidneyStone: {"kidney stone", "stone problem", "renal stone"},
	models.IssueThyroid:     {"thyroid", "hypothyroid", "hyperthyroid"},
	models.IssuePCOS:        {"pcos", "pcod"},
	models.IssueCholesterol: {"cholesterol", "lipid"},
	models.IssueFattyLiver:  {"fatty liver"},
	models.IssueAcidity:     {"acidity", "acid reflux", "gastric"},
	models.IssueIBS:         {"ibs", "irritable bowel"},
	models.IssueAnemia:      {"anemia", "low hemoglobin", "haemoglobin"},
	models.IssueAsthma:      {"asthma", "breathing issue"},
	models.IssueArthritis:   {"arthritis", "joint pain"},
}

// medicalAdvice holds the guidance line for each supported issue.
var medicalAdvice = map[models.MedicalIssue]string{
	models.IssueDiabetes:    "Diabetes: prefer low-GI meals, avoid sugary drinks, and keep consistent meal timing.",
	models.IssueHighBP:      "High BP: reduce salt, avoid pickles/papad, and add a daily walk.",
	models.IssueKidneyStone: "Kidney stone: drink water regularly through the day and limit very high-oxalate foods.",
	models.IssueThyroid:     "Thyroid: keep regular meals and sleep timing, and take medication as prescribed.",
	models.IssuePCOS:        "PCOS: focus on protein + fiber meals and regular strength or walking exercise.",
	models.IssueCholesterol: "Cholesterol: avoid deep fried food and add oats, nuts, and daily walking.",
	models.IssueFattyLiver:  "Fatty liver: cut sugar and fried food, and keep a daily calorie deficit with walking.",
	models.IssueAcidity:     "Acidity: avoid very spicy/late meals and keep a gap before sleeping.",
	models.IssueIBS:         "IBS: eat smaller regular meals and note trigger foods.",
	models.IssueAnemia:      "Anemia: add iron-rich foods like greens, dals, and jaggery with vitamin C sources.",
	models.IssueAsthma:      "Asthma: warm up before workouts and avoid outdoor exercise in heavy pollution.",
	models.IssueArthritis:   "Arthritis: prefer low-impact exercise like walking, cycling, or swimming.",
}

// detectMedicalIssues scans free text for supported medical issue keywords,
// returning matched issues in the supported order.
func detectMedicalIssues(text string) []models.MedicalIssue {
	lower := strings.ToLower(text)
	var found []models.MedicalIssue
	for _, issue := range models.SupportedMedicalIssues {
		for _, kw := range medicalKeywords[issue] {
			if strings.Contains(lower, kw) {
				found = append(found, issue)
				break
			}
		}
	}
	return found
}

// medicalGuidance renders the guidance block for the user's recorded issues.
// Returns "" when the user has none.
func medicalGuidance(issues []models.MedicalIssue) string {
	if len(issues) == 0 {
		return ""
	}
	var lines []string
	for _, issue := range issues {
		if advice, ok := medicalAdvice[issue]; ok {
			lines = append(lines, "🩺 "+advice)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	lines = append(lines, "For medical treatment changes, follow your doctor's advice first.")
	return strings.Join(lines, "\n")
}
