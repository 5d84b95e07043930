package coach

// foodEntry pairs a known food name with an approximate calorie figure per
// serving. Entries are matched in order so multi-word names like "white rice"
// win over shorter substrings.
type foodEntry struct {
	name     string
	calories int
}

var foodTable = []foodEntry{
	{"samosa", 250},
	{"paratha", 280},
	{"cold drink", 150},
	{"white rice", 210},
	{"roti", 120},
	{"salad", 80},
	{"dal", 180},
	{"paneer", 270},
	{"idli", 65},
	{"poha", 220},
	{"upma", 240},
	{"banana", 90},
	{"egg", 80},
}

// foodSwap pairs a set of trigger foods with healthier alternatives suggested
// after logging.
type foodSwap struct {
	triggers     []string
	alternatives []string
}

var foodSwaps = []foodSwap{
	{
		triggers:     []string{"samosa", "pakoda", "fried snack"},
		alternatives: []string{"roasted chana", "peanuts", "boiled corn"},
	},
	{
		triggers:     []string{"cold drink", "cola", "soda"},
		alternatives: []string{"lemon water", "coconut water", "buttermilk"},
	},
	{
		triggers:     []string{"paratha", "butter paratha"},
		alternatives: []string{"plain roti", "multigrain roti"},
	},
	{
		triggers:     []string{"white rice", "extra rice"},
		alternatives: []string{"half rice + salad", "dal + vegetables"},
	},
}
