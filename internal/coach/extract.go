package coach

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/thesapansharma/Fittr/internal/models"
)

var (
	numberRe = regexp.MustCompile(`\d+`)
	timeRe   = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
)

// extractNumber returns the first integer in text, or fallback when none is
// present.
func extractNumber(text string, fallback int) int {
	m := numberRe.FindString(text)
	if m == "" {
		return fallback
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return fallback
	}
	return n
}

// extractTime returns the first HH:MM time in text, zero-padded, or "" when
// none is present.
func extractTime(text string) string {
	m := timeRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// extractMealType reads an explicit meal type from text, defaulting to snack.
func extractMealType(text string) models.MealType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "breakfast"):
		return models.MealBreakfast
	case strings.Contains(lower, "lunch"):
		return models.MealLunch
	case strings.Contains(lower, "dinner"):
		return models.MealDinner
	default:
		return models.MealSnack
	}
}

// extractFood finds the first known food name mentioned in text along with
// its calorie estimate. Unknown text yields ("", 0).
func extractFood(text string) (string, int) {
	lower := strings.ToLower(text)
	for _, entry := range foodTable {
		if strings.Contains(lower, entry.name) {
			return entry.name, entry.calories
		}
	}
	return "", 0
}

// swapSuggestions returns healthier alternatives for the first swap trigger
// mentioned anywhere in the message, or nil when none matches. Matching the
// whole message catches trigger foods that never resolve to a table entry,
// like "cola".
func swapSuggestions(text string) []string {
	lower := strings.ToLower(text)
	for _, s := range foodSwaps {
		for _, trigger := range s.triggers {
			if strings.Contains(lower, trigger) {
				return s.alternatives
			}
		}
	}
	return nil
}
