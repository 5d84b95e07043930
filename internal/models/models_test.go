package models

import "testing"

func TestValidationFuncs(t *testing.T) {
	if !IsValidGoal(GoalLoseWeight) || IsValidGoal("get ripped") {
		t.Error("goal validation broken")
	}
	if !IsValidDietType(DietEggetarian) || IsValidDietType("carnivore") {
		t.Error("diet type validation broken")
	}
	if !IsValidJobType(JobActive) || IsValidJobType("remote") {
		t.Error("job type validation broken")
	}
	if !IsValidExerciseHabit(HabitGym) || IsValidExerciseHabit("athlete") {
		t.Error("exercise habit validation broken")
	}
	if !IsValidReminderKind(ReminderSleep) || IsValidReminderKind("snack") {
		t.Error("reminder kind validation broken")
	}
	if !IsValidMedicalIssue(IssuePCOS) || IsValidMedicalIssue("flu") {
		t.Error("medical issue validation broken")
	}
}

func TestDefaultReminderTime(t *testing.T) {
	cases := map[ReminderKind]string{
		ReminderWater:   DefaultWaterTime,
		ReminderMeal:    DefaultMealTime,
		ReminderWorkout: DefaultWorkoutTime,
		ReminderSleep:   DefaultSleepTime,
	}
	for kind, want := range cases {
		if got := DefaultReminderTime(kind); got != want {
			t.Errorf("DefaultReminderTime(%s) = %q, want %q", kind, got, want)
		}
	}
	if got := DefaultReminderTime("snack"); got != "" {
		t.Errorf("unknown kind should yield empty time, got %q", got)
	}
}

func TestReminderTimeFallback(t *testing.T) {
	p := &UserProfile{}
	if got := p.ReminderTime(ReminderWater); got != DefaultWaterTime {
		t.Errorf("expected default water time, got %q", got)
	}
	p.SetReminderTime(ReminderWater, "07:15")
	if got := p.ReminderTime(ReminderWater); got != "07:15" {
		t.Errorf("expected configured time, got %q", got)
	}
	// Other kinds keep their defaults
	if got := p.ReminderTime(ReminderSleep); got != DefaultSleepTime {
		t.Errorf("expected default sleep time, got %q", got)
	}
}

func TestAddIssuesDeduplicates(t *testing.T) {
	p := &UserProfile{}
	p.AddIssues([]MedicalIssue{IssueDiabetes, IssueThyroid})
	p.AddIssues([]MedicalIssue{IssueThyroid, IssueAcidity})
	if len(p.MedicalIssues) != 3 {
		t.Fatalf("expected 3 distinct issues, got %v", p.MedicalIssues)
	}
	want := []MedicalIssue{IssueDiabetes, IssueThyroid, IssueAcidity}
	for i, issue := range want {
		if p.MedicalIssues[i] != issue {
			t.Errorf("issue order not preserved: %v", p.MedicalIssues)
			break
		}
	}
	if !p.HasIssue(IssueAcidity) || p.HasIssue(IssueAnemia) {
		t.Error("HasIssue broken")
	}
}

func TestCurrencySymbol(t *testing.T) {
	if got := CurrencySymbol("INR"); got != "₹" {
		t.Errorf("INR symbol = %q", got)
	}
	if got := CurrencySymbol("USD"); got != "$" {
		t.Errorf("USD symbol = %q", got)
	}
	if got := CurrencySymbol("XYZ"); got != "" {
		t.Errorf("unknown currency should yield empty symbol, got %q", got)
	}
}
