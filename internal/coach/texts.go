package coach

// Static reply texts. Handlers compose these with per-user data.
const (
	onboardingPromptText = "Welcome to FitBudget 🎯\n" +
		"Reply with your details in one message, comma separated:\n" +
		"name, weight(kg), height(cm), goal(lose weight/stay fit/gain muscle), job(desk/active), sleep hours, exercise(none/beginner/gym), daily food budget, water goal(glasses), diet type(vegetarian/vegan/eggetarian/non_vegetarian), medical issues(or none), office timing\n" +
		"Example: Asha, 60, 160, lose weight, desk, 7, beginner, 250, 8, vegetarian, none, 9am-6pm"

	onboardingRetryText = "Please send onboarding fields in one comma-separated message. I can then build your full plan 💪"

	emotionalSupportText = "You are doing better than you think 💙 One meal or one day won't ruin progress. Start fresh next meal 👍"

	feedbackThanksText = "Thank you for sharing your feedback 🙏 We logged this and will use it to improve your coaching experience."

	reminderUsageText = "Please send reminder in this format: set reminder water 10:30"

	sleepUsageText = "Use: sleep time 22:00"

	dietUsageText = "Use: diet type vegetarian | vegan | eggetarian | non_vegetarian"

	storageFailureText = "Something went wrong saving that. Please try again in a moment."

	helpText = "I can help you with:\n" +
		"• meal lunch samosa 40\n" +
		"• water 2\n" +
		"• workout walk 20\n" +
		"• workout suggest\n" +
		"• diet type vegetarian\n" +
		"• medical diabetes, high bp\n" +
		"• set reminder water 10:30\n" +
		"• set reminder sleep 22:00\n" +
		"• sleep time 22:00\n" +
		"• summary"
)
