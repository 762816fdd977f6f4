package domain

import "testing"

func TestOutcome_NumericIdentity(t *testing.T) {
	// The numeric codes are reported to the progress endpoint and must
	// stay stable.
	tests := []struct {
		outcome Outcome
		want    int
	}{
		{OutcomeNoTestsRun, -1},
		{OutcomeAllPass, 0},
		{OutcomeEmptyBlockFail, 1},
		{OutcomeMissingBlockFail, 2},
		{OutcomeTooFewBlocksFail, 3},
		{OutcomeLevelIncompleteFail, 4},
		{OutcomeTooManyBlocksFail, 5},
		{OutcomeAppOneStarFail, 6},
		{OutcomeAppTwoStarFail, 7},
	}

	for _, tt := range tests {
		if int(tt.outcome) != tt.want {
			t.Errorf("%s = %d, want %d", tt.outcome, int(tt.outcome), tt.want)
		}
	}
}

func TestOutcome_Stars(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    int
	}{
		{OutcomeAllPass, 3},
		{OutcomeTooManyBlocksFail, 2},
		{OutcomeAppTwoStarFail, 2},
		{OutcomeMissingBlockFail, 1},
		{OutcomeAppOneStarFail, 1},
		{OutcomeEmptyBlockFail, 0},
		{OutcomeTooFewBlocksFail, 0},
		{OutcomeLevelIncompleteFail, 0},
		{OutcomeNoTestsRun, 0},
	}

	for _, tt := range tests {
		if got := tt.outcome.Stars(); got != tt.want {
			t.Errorf("%s stars = %d, want %d", tt.outcome, got, tt.want)
		}
	}
}

func TestOutcome_Affordances(t *testing.T) {
	hasAffordance := func(o Outcome, a Affordance) bool {
		for _, got := range o.Presentation().Affordances {
			if got == a {
				return true
			}
		}
		return false
	}

	for _, o := range []Outcome{OutcomeAllPass, OutcomeTooManyBlocksFail, OutcomeAppTwoStarFail} {
		if !hasAffordance(o, AffordanceContinue) {
			t.Errorf("%s should offer continue", o)
		}
	}
	for _, o := range []Outcome{OutcomeEmptyBlockFail, OutcomeMissingBlockFail, OutcomeLevelIncompleteFail, OutcomeTooFewBlocksFail} {
		if hasAffordance(o, AffordanceContinue) {
			t.Errorf("%s should not offer continue", o)
		}
		if !hasAffordance(o, AffordanceTryAgain) {
			t.Errorf("%s should offer try again", o)
		}
	}
	if !hasAffordance(OutcomeNoTestsRun, AffordanceReturnToLevel) {
		t.Error("no_tests_run should offer return to level")
	}

	if p := Outcome(42).Presentation(); p.MessageKey != "feedback.no_tests_run" {
		t.Errorf("unknown outcome presentation = %+v, want return-to-level fallback", p)
	}
}
