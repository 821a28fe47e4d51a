package safety

// Category is one of the hazard categories scored by the content safety service.
type Category string

const (
	CategoryHate     Category = "Hate"
	CategorySelfHarm Category = "SelfHarm"
	CategorySexual   Category = "Sexual"
	CategoryViolence Category = "Violence"
)

// Categories returns the fixed category set in a stable order.
func Categories() []Category {
	return []Category{CategoryHate, CategorySelfHarm, CategorySexual, CategoryViolence}
}

// Action is the per-category (and overall) outcome of the decision engine.
type Action string

const (
	ActionAccept Action = "Accept"
	ActionReject Action = "Reject"
)

// DisabledThreshold disables a category: its action is always Accept.
const DisabledThreshold = -1

// Thresholds maps each evaluated category to the minimum severity that
// triggers a reject. Categories not present are not evaluated.
type Thresholds map[Category]int

// DefaultThresholds rejects at severity 4 on every category. The value is a
// tunable starting point, not a product decision.
func DefaultThresholds() Thresholds {
	t := make(Thresholds, 4)
	for _, c := range Categories() {
		t[c] = 4
	}
	return t
}

// Scores maps categories to the severity reported by the moderation service.
type Scores map[Category]int

// Decision is the outcome of applying thresholds to a set of scores.
type Decision struct {
	Verdict Action
	Actions map[Category]Action
}

// Decide applies per-category thresholds to moderation scores.
//
// A category absent from scores is treated as severity 0. Categories present
// in scores but not in thresholds are ignored: they are neither evaluated nor
// surfaced in Actions. The overall verdict is Reject iff at least one
// evaluated category rejects.
func Decide(scores Scores, thresholds Thresholds) Decision {
	decision := Decision{
		Verdict: ActionAccept,
		Actions: make(map[Category]Action, len(thresholds)),
	}

	for category, threshold := range thresholds {
		action := ActionAccept
		if threshold != DisabledThreshold && scores[category] >= threshold {
			action = ActionReject
			decision.Verdict = ActionReject
		}
		decision.Actions[category] = action
	}

	return decision
}
