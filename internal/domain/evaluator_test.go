package domain

import (
	"regexp"
	"testing"
)

// stubWorkspace implements Workspace for tests and counts code generations
// so laziness is observable.
type stubWorkspace struct {
	blocks    []Block
	source    string
	generated int
}

func (w *stubWorkspace) Blocks() []Block { return w.blocks }

func (w *stubWorkspace) GenerateCode() string {
	w.generated++
	return w.source
}

func (w *stubWorkspace) RemainingCapacity() (int, bool) { return 0, false }

func userBlock(blockType string) Block {
	return Block{Type: blockType, Deletable: true}
}

func TestEvaluate_PriorityOrder(t *testing.T) {
	e := NewFeedbackEvaluator()

	tests := []struct {
		name      string
		ws        *stubWorkspace
		completed bool
		cfg       EvalConfig
		want      Outcome
	}{
		{
			name:      "empty block wins over missing block",
			ws:        &stubWorkspace{source: "while (true) {\n}\n"},
			completed: true,
			cfg: EvalConfig{
				CheckEmptyBlocks: true,
				RequiredBlocks:   []RequiredBlockSpec{{ID: "move", Literal: "move()"}},
			},
			want: OutcomeEmptyBlockFail,
		},
		{
			name:      "empty block check disabled yields later classification",
			ws:        &stubWorkspace{source: "while (true) {\n}\n"},
			completed: false,
			cfg:       EvalConfig{},
			want:      OutcomeLevelIncompleteFail,
		},
		{
			name: "missing block wins over incompletion regardless of completion flag",
			ws: &stubWorkspace{
				blocks: []Block{userBlock("jump")},
				source: "jump();",
			},
			completed: false,
			cfg: EvalConfig{
				RequiredBlocks: []RequiredBlockSpec{
					{ID: "move", Test: TypePredicate("move")},
					{ID: "turn", Test: TypePredicate("turn")},
				},
			},
			want: OutcomeMissingBlockFail,
		},
		{
			name: "incomplete with too few blocks vs ideal",
			ws: &stubWorkspace{
				blocks: []Block{userBlock("move"), userBlock("move")},
			},
			completed: false,
			cfg:       EvalConfig{IdealBlockCount: 5},
			want:      OutcomeTooFewBlocksFail,
		},
		{
			name:      "incomplete without ideal target",
			ws:        &stubWorkspace{blocks: []Block{userBlock("move")}},
			completed: false,
			cfg:       EvalConfig{},
			want:      OutcomeLevelIncompleteFail,
		},
		{
			name: "complete under ideal is not penalized",
			ws: &stubWorkspace{
				blocks: []Block{userBlock("move"), userBlock("move"), userBlock("move")},
			},
			completed: true,
			cfg:       EvalConfig{IdealBlockCount: 5},
			want:      OutcomeAllPass,
		},
		{
			name: "complete over ideal",
			ws: &stubWorkspace{
				blocks: []Block{
					userBlock("move"), userBlock("move"), userBlock("move"), userBlock("move"),
					userBlock("move"), userBlock("move"), userBlock("move"), userBlock("move"),
				},
			},
			completed: true,
			cfg:       EvalConfig{IdealBlockCount: 5},
			want:      OutcomeTooManyBlocksFail,
		},
		{
			name:      "complete with nothing configured passes",
			ws:        &stubWorkspace{blocks: []Block{userBlock("move")}},
			completed: true,
			cfg:       EvalConfig{},
			want:      OutcomeAllPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.ws, tt.completed, tt.cfg)
			if got.Outcome != tt.want {
				t.Errorf("Evaluate() = %s, want %s", got.Outcome, tt.want)
			}
		})
	}
}

func TestEvaluate_RequiredBlocks(t *testing.T) {
	e := NewFeedbackEvaluator()

	t.Run("missing collected in declaration order up to cap", func(t *testing.T) {
		ws := &stubWorkspace{source: "noop();"}
		cfg := EvalConfig{
			MaxMissing: 2,
			RequiredBlocks: []RequiredBlockSpec{
				{ID: "a", Literal: "a()"},
				{ID: "b", Literal: "b()"},
				{ID: "c", Literal: "c()"},
			},
		}

		res := e.Evaluate(ws, true, cfg)
		if res.Outcome != OutcomeMissingBlockFail {
			t.Fatalf("outcome = %s, want missing_block_fail", res.Outcome)
		}
		if len(res.Missing) != 2 || res.Missing[0].ID != "a" || res.Missing[1].ID != "b" {
			t.Errorf("missing = %v, want [a b] in order", res.Missing)
		}
	})

	t.Run("zero cap collects all", func(t *testing.T) {
		ws := &stubWorkspace{source: "noop();"}
		cfg := EvalConfig{
			RequiredBlocks: []RequiredBlockSpec{
				{ID: "a", Literal: "a()"},
				{ID: "b", Literal: "b()"},
				{ID: "c", Literal: "c()"},
			},
		}

		res := e.Evaluate(ws, true, cfg)
		if len(res.Missing) != 3 {
			t.Errorf("missing = %v, want all three", res.Missing)
		}
	})

	t.Run("malformed spec skipped", func(t *testing.T) {
		ws := &stubWorkspace{blocks: []Block{userBlock("move")}, source: "move();"}
		cfg := EvalConfig{
			RequiredBlocks: []RequiredBlockSpec{
				{ID: "broken"},
				{ID: "move", Test: TypePredicate("move")},
			},
		}

		res := e.Evaluate(ws, true, cfg)
		if res.Outcome != OutcomeAllPass {
			t.Errorf("outcome = %s, want all_pass with malformed spec skipped", res.Outcome)
		}
	})

	t.Run("predicate ignores disabled and undeletable blocks", func(t *testing.T) {
		ws := &stubWorkspace{blocks: []Block{
			{Type: "move", Disabled: true, Deletable: true},
			{Type: "move", Deletable: false},
		}}
		cfg := EvalConfig{
			RequiredBlocks: []RequiredBlockSpec{{ID: "move", Test: TypePredicate("move")}},
		}

		res := e.Evaluate(ws, true, cfg)
		if res.Outcome != OutcomeMissingBlockFail {
			t.Errorf("outcome = %s, want missing_block_fail", res.Outcome)
		}
	})
}

func TestEvaluate_LazyCodeGeneration(t *testing.T) {
	e := NewFeedbackEvaluator()

	t.Run("predicate-only specs never generate source", func(t *testing.T) {
		ws := &stubWorkspace{blocks: []Block{userBlock("move")}}
		cfg := EvalConfig{
			RequiredBlocks: []RequiredBlockSpec{{ID: "move", Test: TypePredicate("move")}},
		}

		e.Evaluate(ws, true, cfg)
		if ws.generated != 0 {
			t.Errorf("source generated %d times, want 0", ws.generated)
		}
	})

	t.Run("source generated once for many literal specs", func(t *testing.T) {
		ws := &stubWorkspace{source: "a(); b();"}
		cfg := EvalConfig{
			RequiredBlocks: []RequiredBlockSpec{
				{ID: "a", Literal: "a()"},
				{ID: "b", Literal: "b()"},
			},
		}

		res := e.Evaluate(ws, true, cfg)
		if ws.generated != 1 {
			t.Errorf("source generated %d times, want 1", ws.generated)
		}
		if res.Program != "a(); b();" {
			t.Errorf("Program = %q, want generated source recorded", res.Program)
		}
	})
}

func TestEvaluate_BlockCounting(t *testing.T) {
	e := NewFeedbackEvaluator()
	ws := &stubWorkspace{blocks: []Block{
		userBlock("move"),
		userBlock("when_run"),
		userBlock("comment"),
		{Type: "move", Disabled: true, Deletable: true},
		{Type: "move", Deletable: false},
	}}
	cfg := EvalConfig{
		IdealBlockCount: 1,
		FreeBlocks:      regexp.MustCompile(`^(when_run|comment)$`),
	}

	res := e.Evaluate(ws, true, cfg)
	if res.BlocksUsed != 1 {
		t.Errorf("BlocksUsed = %d, want 1", res.BlocksUsed)
	}
	if res.Outcome != OutcomeAllPass {
		t.Errorf("outcome = %s, want all_pass at exactly the ideal count", res.Outcome)
	}
}

// Scenario: required blocks as predicates, learner uses neither, not
// completed. The missing-block rule fires before the completion rules.
func TestEvaluate_ScenarioMissingBeatsIncomplete(t *testing.T) {
	e := NewFeedbackEvaluator()
	ws := &stubWorkspace{blocks: []Block{userBlock("jump")}}
	cfg := EvalConfig{
		RequiredBlocks: []RequiredBlockSpec{
			{ID: "move", Test: TypePredicate("move")},
			{ID: "turn", Test: TypePredicate("turn")},
		},
	}

	res := e.Evaluate(ws, false, cfg)
	if res.Outcome != OutcomeMissingBlockFail {
		t.Errorf("outcome = %s, want missing_block_fail", res.Outcome)
	}
	if len(res.Missing) != 2 {
		t.Errorf("missing = %v, want both requirements", res.Missing)
	}
}
