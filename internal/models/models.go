// Package models defines the core data structures for Fittr.
//
// It includes the user profile, activity log records, and the enumerated
// configuration domains shared across modules.
package models

import (
	"errors"
	"time"
)

// Goal is the user's stated fitness goal.
type Goal string

const (
	GoalLoseWeight Goal = "lose weight"
	GoalStayFit    Goal = "stay fit"
	GoalGainMuscle Goal = "gain muscle"
)

// DietType is the user's dietary pattern.
type DietType string

const (
	DietVegetarian    DietType = "vegetarian"
	DietVegan         DietType = "vegan"
	DietEggetarian    DietType = "eggetarian"
	DietNonVegetarian DietType = "non_vegetarian"
)

// JobType describes the user's working pattern.
type JobType string

const (
	JobDesk   JobType = "desk"
	JobActive JobType = "active"
)

// ExerciseHabit describes the user's current exercise level.
type ExerciseHabit string

const (
	HabitNone     ExerciseHabit = "none"
	HabitBeginner ExerciseHabit = "beginner"
	HabitGym      ExerciseHabit = "gym"
)

// ReminderKind identifies one of the independently timed reminder types.
type ReminderKind string

const (
	ReminderWater   ReminderKind = "water"
	ReminderMeal    ReminderKind = "meal"
	ReminderWorkout ReminderKind = "workout"
	ReminderSleep   ReminderKind = "sleep"
)

// ReminderKinds lists all reminder kinds in a stable order.
var ReminderKinds = []ReminderKind{ReminderWater, ReminderMeal, ReminderWorkout, ReminderSleep}

// MedicalIssue is one entry of the closed medical vocabulary.
type MedicalIssue string

const (
	IssueDiabetes    MedicalIssue = "diabetes"
	IssueHighBP      MedicalIssue = "high_bp"
	IssueKidneyStone MedicalIssue = "kidney_stone"
	IssueThyroid     MedicalIssue = "thyroid"
	IssuePCOS        MedicalIssue = "pcos"
	IssueCholesterol MedicalIssue = "cholesterol"
	IssueFattyLiver  MedicalIssue = "fatty_liver"
	IssueAcidity     MedicalIssue = "acidity"
	IssueIBS         MedicalIssue = "ibs"
	IssueAnemia      MedicalIssue = "anemia"
	IssueAsthma      MedicalIssue = "asthma"
	IssueArthritis   MedicalIssue = "arthritis"
)

// SupportedMedicalIssues lists the closed vocabulary in display order.
var SupportedMedicalIssues = []MedicalIssue{
	IssueDiabetes, IssueHighBP, IssueKidneyStone, IssueThyroid, IssuePCOS,
	IssueCholesterol, IssueFattyLiver, IssueAcidity, IssueIBS, IssueAnemia,
	IssueAsthma, IssueArthritis,
}

// MoodFlag records the latest detected emotional state.
type MoodFlag string

const (
	MoodNeutral  MoodFlag = "neutral"
	MoodGuilty   MoodFlag = "guilty"
	MoodStressed MoodFlag = "stressed"
)

// MessageDirection marks a logged chat message as inbound or outbound.
type MessageDirection string

const (
	DirectionIncoming MessageDirection = "incoming"
	DirectionOutgoing MessageDirection = "outgoing"
)

// MealType buckets a logged meal.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Profile defaults applied when onboarding input omits or mangles a field.
const (
	DefaultGoal          = GoalStayFit
	DefaultDietType      = DietVegetarian
	DefaultJobType       = JobDesk
	DefaultHabit         = HabitNone
	DefaultWaterGoal     = 8
	DefaultDailyBudget   = 250
	DefaultSleepHours    = 7
	DefaultOfficeTiming  = "9am-6pm"
	DefaultCurrency      = "INR"
	DefaultMealCalories  = 220
	DefaultWorkoutMins   = 15
	DefaultWaterGlasses  = 1
	DefaultWaterTime     = "10:30"
	DefaultMealTime      = "13:00"
	DefaultWorkoutTime   = "18:30"
	DefaultSleepTime     = "22:00"
)

// Error variables for validation failures shared across modules.
var (
	ErrEmptyIdentity   = errors.New("identity cannot be empty")
	ErrProfileNotFound = errors.New("profile not found")
)

// UserProfile holds all per-user state: identity, onboarding fields, reminder
// configuration and the per-kind last-sent markers used for dedup.
// Identity is channel-qualified (bare E.164 digits for WhatsApp, or
// "telegram:<chatID>") and immutable once created.
type UserProfile struct {
	ID                 int64                   `json:"id"`
	Identity           string                  `json:"identity"`
	Name               string                  `json:"name,omitempty"`
	WeightKg           float64                 `json:"weight_kg,omitempty"`
	HeightCm           float64                 `json:"height_cm,omitempty"`
	Goal               Goal                    `json:"goal,omitempty"`
	JobType            JobType                 `json:"job_type,omitempty"`
	SleepHours         float64                 `json:"sleep_hours,omitempty"`
	ExerciseHabit      ExerciseHabit           `json:"exercise_habit,omitempty"`
	DailyBudget        int                     `json:"daily_budget,omitempty"`
	BudgetCurrency     string                  `json:"budget_currency,omitempty"`
	WaterGoal          int                     `json:"water_goal,omitempty"`
	DietType           DietType                `json:"diet_type,omitempty"`
	MedicalIssues      []MedicalIssue          `json:"medical_issues,omitempty"`
	OfficeTiming       string                  `json:"office_timing,omitempty"`
	ReminderTimes      map[ReminderKind]string `json:"reminder_times,omitempty"`
	LastReminderSent   map[ReminderKind]string `json:"last_reminder_sent,omitempty"` // kind -> "2006-01-02"
	MoodFlag           MoodFlag                `json:"mood_flag,omitempty"`
	LastFeedbackAt     *time.Time              `json:"last_feedback_at,omitempty"`
	OnboardingComplete bool                    `json:"onboarding_complete"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// ReminderTime returns the configured time for a kind, falling back to the
// built-in default for that kind.
func (p *UserProfile) ReminderTime(kind ReminderKind) string {
	if p.ReminderTimes != nil {
		if t, ok := p.ReminderTimes[kind]; ok && t != "" {
			return t
		}
	}
	return DefaultReminderTime(kind)
}

// SetReminderTime records a reminder time, allocating the map lazily.
func (p *UserProfile) SetReminderTime(kind ReminderKind, hhmm string) {
	if p.ReminderTimes == nil {
		p.ReminderTimes = make(map[ReminderKind]string)
	}
	p.ReminderTimes[kind] = hhmm
}

// HasIssue reports whether the profile declares the given medical issue.
func (p *UserProfile) HasIssue(issue MedicalIssue) bool {
	for _, i := range p.MedicalIssues {
		if i == issue {
			return true
		}
	}
	return false
}

// AddIssues unions new issues into the profile, preserving order and
// dropping duplicates.
func (p *UserProfile) AddIssues(issues []MedicalIssue) {
	for _, issue := range issues {
		if !p.HasIssue(issue) {
			p.MedicalIssues = append(p.MedicalIssues, issue)
		}
	}
}

// DefaultReminderTime returns the built-in reminder time for a kind.
func DefaultReminderTime(kind ReminderKind) string {
	switch kind {
	case ReminderWater:
		return DefaultWaterTime
	case ReminderMeal:
		return DefaultMealTime
	case ReminderWorkout:
		return DefaultWorkoutTime
	case ReminderSleep:
		return DefaultSleepTime
	default:
		return ""
	}
}

// MealLog is one logged meal. Immutable once written.
type MealLog struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	Food     string    `json:"food"`
	Calories int       `json:"calories"`
	Cost     int       `json:"cost"`
	MealType MealType  `json:"meal_type"`
	AteAt    time.Time `json:"ate_at"`
}

// WaterLog is one logged water intake. Immutable once written.
type WaterLog struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	Glasses  int       `json:"glasses"`
	LoggedAt time.Time `json:"logged_at"`
}

// ExerciseLog is one logged exercise session. Immutable once written.
type ExerciseLog struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Activity        string    `json:"activity"`
	DurationMinutes int       `json:"duration_minutes"`
	DoneAt          time.Time `json:"done_at"`
}

// MessageLog is one chat message, inbound or outbound. Immutable once written.
type MessageLog struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Direction MessageDirection `json:"direction"`
	Body      string           `json:"body"`
	SentAt    time.Time        `json:"sent_at"`
}

// DaySummary is the live aggregation over one calendar day of activity logs.
// It is computed on demand, never stored.
type DaySummary struct {
	MealCount       int `json:"meal_count"`
	BudgetUsed      int `json:"budget_used"`
	WaterGlasses    int `json:"water_glasses"`
	ExerciseMinutes int `json:"exercise_minutes"`
}

// StoreCounts holds record counts for the admin overview.
type StoreCounts struct {
	Users          int `json:"users"`
	OnboardedUsers int `json:"onboarded_users"`
	Meals          int `json:"meals"`
	WaterLogs      int `json:"water_logs"`
	WorkoutLogs    int `json:"workout_logs"`
	Messages       int `json:"messages"`
}

// IsValidGoal checks if the given goal is supported.
func IsValidGoal(g Goal) bool {
	switch g {
	case GoalLoseWeight, GoalStayFit, GoalGainMuscle:
		return true
	default:
		return false
	}
}

// IsValidDietType checks if the given diet type is supported.
func IsValidDietType(d DietType) bool {
	switch d {
	case DietVegetarian, DietVegan, DietEggetarian, DietNonVegetarian:
		return true
	default:
		return false
	}
}

// IsValidJobType checks if the given job type is supported.
func IsValidJobType(j JobType) bool {
	switch j {
	case JobDesk, JobActive:
		return true
	default:
		return false
	}
}

// IsValidExerciseHabit checks if the given habit is supported.
func IsValidExerciseHabit(h ExerciseHabit) bool {
	switch h {
	case HabitNone, HabitBeginner, HabitGym:
		return true
	default:
		return false
	}
}

// IsValidMedicalIssue checks membership in the closed medical vocabulary.
func IsValidMedicalIssue(m MedicalIssue) bool {
	for _, issue := range SupportedMedicalIssues {
		if issue == m {
			return true
		}
	}
	return false
}

// IsValidReminderKind checks if the given reminder kind is supported.
func IsValidReminderKind(k ReminderKind) bool {
	switch k {
	case ReminderWater, ReminderMeal, ReminderWorkout, ReminderSleep:
		return true
	default:
		return false
	}
}

// CurrencySymbol maps a currency code to its display symbol.
func CurrencySymbol(currency string) string {
	switch currency {
	case "INR":
		return "₹"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	case "CAD":
		return "C$"
	case "AUD":
		return "A$"
	case "AED":
		return "AED "
	case "SGD":
		return "S$"
	default:
		return ""
	}
}
