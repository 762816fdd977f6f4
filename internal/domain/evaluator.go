package domain

import (
	"regexp"
	"strings"
)

// emptyBlockPattern matches a syntactically empty block body in generated
// source, e.g. "repeat () {\n}".
var emptyBlockPattern = regexp.MustCompile(`\{\s*\}`)

// EvalConfig carries the per-level pass criteria.
type EvalConfig struct {
	// CheckEmptyBlocks enables the empty-block-body check.
	CheckEmptyBlocks bool

	// RequiredBlocks are checked in declaration order.
	RequiredBlocks []RequiredBlockSpec

	// MaxMissing caps how many missing requirements are collected before
	// evaluation stops looking. Zero or negative collects all.
	MaxMissing int

	// IdealBlockCount is the target block usage. Zero means no target.
	IdealBlockCount int

	// FreeBlocks matches block types excluded from the usage count.
	FreeBlocks *regexp.Regexp
}

// Result is the full classification of one submitted program.
type Result struct {
	Outcome Outcome

	// Missing lists the unsatisfied required-block specs in declaration
	// order, capped at EvalConfig.MaxMissing.
	Missing []RequiredBlockSpec

	// BlocksUsed is the countable block usage (user-authored, non-free).
	BlocksUsed int

	// Program holds the generated source, if evaluation needed it.
	Program string
}

// FeedbackEvaluator is a domain service classifying workspace state into an
// Outcome. It is pure: same workspace, completion flag, and config always
// yield the same result.
type FeedbackEvaluator struct{}

// NewFeedbackEvaluator creates a new feedback evaluator
func NewFeedbackEvaluator() *FeedbackEvaluator {
	return &FeedbackEvaluator{}
}

// Evaluate classifies the workspace. Rules apply in fixed priority order and
// the first match wins:
//
//  1. empty block body (only when enabled)
//  2. unsatisfied required block
//  3. not completed: too few blocks vs ideal, else level incomplete
//  4. completed but over the ideal block count
//  5. all pass
func (e *FeedbackEvaluator) Evaluate(ws Workspace, completed bool, cfg EvalConfig) (res Result) {
	res.Outcome = OutcomeAllPass

	// Source generation is deferred until a rule actually needs it.
	var source string
	var generated bool
	code := func() string {
		if !generated {
			source = ws.GenerateCode()
			generated = true
		}
		return source
	}
	defer func() {
		if generated {
			res.Program = source
		}
	}()

	userBlocks := UserBlocks(ws.Blocks())
	res.BlocksUsed = countBlocks(userBlocks, cfg.FreeBlocks)

	if cfg.CheckEmptyBlocks && emptyBlockPattern.MatchString(code()) {
		res.Outcome = OutcomeEmptyBlockFail
		return res
	}

	res.Missing = missingBlocks(cfg, userBlocks, code)
	if len(res.Missing) > 0 {
		res.Outcome = OutcomeMissingBlockFail
		return res
	}

	if !completed {
		if cfg.IdealBlockCount > 0 && res.BlocksUsed < cfg.IdealBlockCount {
			res.Outcome = OutcomeTooFewBlocksFail
		} else {
			res.Outcome = OutcomeLevelIncompleteFail
		}
		return res
	}

	// Using fewer blocks than ideal while complete is not penalized, only
	// exceeding the target is.
	if cfg.IdealBlockCount > 0 && res.BlocksUsed > cfg.IdealBlockCount {
		res.Outcome = OutcomeTooManyBlocksFail
		return res
	}

	return res
}

// missingBlocks collects unsatisfied required-block specs in declaration
// order, stopping once the configured cap is reached. Malformed specs are
// skipped so an authoring mistake degrades instead of aborting evaluation.
func missingBlocks(cfg EvalConfig, userBlocks []Block, code func() string) []RequiredBlockSpec {
	var missing []RequiredBlockSpec
	for _, spec := range cfg.RequiredBlocks {
		if cfg.MaxMissing > 0 && len(missing) >= cfg.MaxMissing {
			break
		}
		if !spec.wellFormed() {
			continue
		}
		if !satisfied(spec, userBlocks, code) {
			missing = append(missing, spec)
		}
	}
	return missing
}

func satisfied(spec RequiredBlockSpec, userBlocks []Block, code func() string) bool {
	if spec.Literal != "" {
		return strings.Contains(code(), spec.Literal)
	}
	for _, b := range userBlocks {
		if spec.Test(b) {
			return true
		}
	}
	return false
}

// countBlocks counts user-authored blocks, excluding free-pattern types.
func countBlocks(userBlocks []Block, free *regexp.Regexp) int {
	n := 0
	for _, b := range userBlocks {
		if free != nil && free.MatchString(b.Type) {
			continue
		}
		n++
	}
	return n
}
