package domain

// Outcome classifies a submitted program against a level's pass criteria.
// The numeric values are part of the reporting wire format and must not change.
type Outcome int

const (
	OutcomeNoTestsRun          Outcome = -1
	OutcomeAllPass             Outcome = 0
	OutcomeEmptyBlockFail      Outcome = 1
	OutcomeMissingBlockFail    Outcome = 2
	OutcomeTooFewBlocksFail    Outcome = 3
	OutcomeLevelIncompleteFail Outcome = 4
	OutcomeTooManyBlocksFail   Outcome = 5
	OutcomeAppOneStarFail      Outcome = 6
	OutcomeAppTwoStarFail      Outcome = 7
)

// String returns a human-readable name for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeNoTestsRun:
		return "no_tests_run"
	case OutcomeAllPass:
		return "all_pass"
	case OutcomeEmptyBlockFail:
		return "empty_block_fail"
	case OutcomeMissingBlockFail:
		return "missing_block_fail"
	case OutcomeTooFewBlocksFail:
		return "too_few_blocks_fail"
	case OutcomeLevelIncompleteFail:
		return "level_incomplete_fail"
	case OutcomeTooManyBlocksFail:
		return "too_many_blocks_fail"
	case OutcomeAppOneStarFail:
		return "app_one_star_fail"
	case OutcomeAppTwoStarFail:
		return "app_two_star_fail"
	default:
		return "unknown"
	}
}

// Succeeded returns true if the outcome allows the learner to advance
func (o Outcome) Succeeded() bool {
	return o == OutcomeAllPass ||
		o == OutcomeTooManyBlocksFail ||
		o == OutcomeAppTwoStarFail
}

// Affordance identifies an action button offered in the feedback dialog
type Affordance string

const (
	AffordanceContinue      Affordance = "continue"
	AffordanceTryAgain      Affordance = "try_again"
	AffordanceReturnToLevel Affordance = "return_to_level"
)

// Presentation describes how an outcome is rendered: star rating, the
// localized message to look up, and which dialog buttons are offered.
type Presentation struct {
	Stars       int          `json:"stars"`
	MessageKey  string       `json:"message_key"`
	Affordances []Affordance `json:"affordances"`
}

// presentations maps every outcome to its presentation. Outcomes with zero
// stars show only a corrective hint, no star row.
var presentations = map[Outcome]Presentation{
	OutcomeNoTestsRun: {
		Stars:       0,
		MessageKey:  "feedback.no_tests_run",
		Affordances: []Affordance{AffordanceReturnToLevel},
	},
	OutcomeAllPass: {
		Stars:       3,
		MessageKey:  "feedback.all_pass",
		Affordances: []Affordance{AffordanceContinue},
	},
	OutcomeEmptyBlockFail: {
		Stars:       0,
		MessageKey:  "feedback.empty_blocks",
		Affordances: []Affordance{AffordanceTryAgain},
	},
	OutcomeMissingBlockFail: {
		Stars:       1,
		MessageKey:  "feedback.missing_blocks",
		Affordances: []Affordance{AffordanceTryAgain},
	},
	OutcomeTooFewBlocksFail: {
		Stars:       0,
		MessageKey:  "feedback.too_few_blocks",
		Affordances: []Affordance{AffordanceTryAgain},
	},
	OutcomeLevelIncompleteFail: {
		Stars:       0,
		MessageKey:  "feedback.level_incomplete",
		Affordances: []Affordance{AffordanceTryAgain},
	},
	OutcomeTooManyBlocksFail: {
		Stars:       2,
		MessageKey:  "feedback.too_many_blocks",
		Affordances: []Affordance{AffordanceContinue, AffordanceTryAgain},
	},
	OutcomeAppOneStarFail: {
		Stars:       1,
		MessageKey:  "feedback.app_one_star",
		Affordances: []Affordance{AffordanceTryAgain},
	},
	OutcomeAppTwoStarFail: {
		Stars:       2,
		MessageKey:  "feedback.app_two_star",
		Affordances: []Affordance{AffordanceContinue, AffordanceTryAgain},
	},
}

// Presentation returns the presentation for the outcome. Unknown outcomes get
// the return-to-level treatment so an unclassified result never strands the
// learner without a way back.
func (o Outcome) Presentation() Presentation {
	if p, ok := presentations[o]; ok {
		return p
	}
	return presentations[OutcomeNoTestsRun]
}

// Stars returns the star rating implied by the outcome
func (o Outcome) Stars() int {
	return o.Presentation().Stars
}
