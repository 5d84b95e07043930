package coach

import "strings"

// intent identifies which handler services an incoming message.
type intent string

const (
	intentEmotional      intent = "emotional"
	intentFeedback       intent = "feedback"
	intentSetReminder    intent = "set_reminder"
	intentMedical        intent = "medical"
	intentDietType       intent = "diet_type"
	intentWorkoutSuggest intent = "workout_suggest"
	intentSleepTime      intent = "sleep_time"
	intentWater          intent = "water"
	intentWorkout        intent = "workout"
	intentSummary        intent = "summary"
	intentMeal           intent = "meal"
	intentFallback       intent = "fallback"
)

// intentRule pairs a predicate with the intent it selects. Rules are
// evaluated in order and the first match wins, so more specific commands
// must precede the generic ones they overlap with.
type intentRule struct {
	intent intent
	match  func(text string) bool
}

var emotionalKeywords = []string{
	"guilty", "ate too much", "failed", "binge", "stress eating", "sad", "low", "depressed",
}

var intentRules = []intentRule{
	{intentEmotional, containsAny(emotionalKeywords...)},
	{intentFeedback, func(t string) bool {
		return strings.HasPrefix(t, "feedback") ||
			strings.Contains(t, "improve this app") ||
			strings.Contains(t, "improvement suggestion")
	}},
	{intentSetReminder, hasPrefix("set reminder")},
	{intentMedical, func(t string) bool {
		return strings.HasPrefix(t, "medical") || strings.HasPrefix(t, "health issue")
	}},
	{intentDietType, hasPrefix("diet type")},
	{intentWorkoutSuggest, containsAny("workout suggest", "exercise suggest", "workout plan")},
	{intentSleepTime, func(t string) bool {
		return strings.HasPrefix(t, "sleep time") || strings.HasPrefix(t, "set sleep")
	}},
	{intentWater, hasPrefix("water")},
	{intentWorkout, func(t string) bool {
		return strings.HasPrefix(t, "workout") || strings.HasPrefix(t, "exercise")
	}},
	{intentSummary, containsAny("summary")},
	{intentMeal, func(t string) bool {
		return strings.HasPrefix(t, "meal") || strings.HasPrefix(t, "ate")
	}},
}

// classify resolves the intent for a normalized (lowercased, trimmed)
// message. Unmatched messages fall through to the fallback intent.
func classify(text string) intent {
	for _, rule := range intentRules {
		if rule.match(text) {
			return rule.intent
		}
	}
	return intentFallback
}

func hasPrefix(prefix string) func(string) bool {
	return func(t string) bool { return strings.HasPrefix(t, prefix) }
}

func containsAny(keywords ...string) func(string) bool {
	return func(t string) bool {
		for _, kw := range keywords {
			if strings.Contains(t, kw) {
				return true
			}
		}
		return false
	}
}
