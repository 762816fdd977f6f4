package domain

// BlockPredicate reports whether a user-authored block satisfies a requirement.
type BlockPredicate func(Block) bool

// RequiredBlockSpec is an authoring-time constraint on the learner's program.
// Exactly one of Literal or Test should be set: Literal requires the substring
// to appear in generated source, Test requires some user-authored block to
// satisfy the predicate. Levels are externally authored and may be imperfect,
// so a spec with neither form set is skipped rather than failing evaluation.
type RequiredBlockSpec struct {
	// ID names the requirement for feedback messages ("move", "turn").
	ID string

	// Literal is a substring that must appear in the generated source.
	Literal string

	// Test is a predicate some user-authored block must satisfy.
	Test BlockPredicate
}

// wellFormed reports whether the spec carries a usable check.
func (s RequiredBlockSpec) wellFormed() bool {
	return s.Literal != "" || s.Test != nil
}

// TypePredicate builds a predicate matching blocks of the given type. This is
// the common authoring case; the loader maps a block_type field through it.
func TypePredicate(blockType string) BlockPredicate {
	return func(b Block) bool {
		return b.Type == blockType
	}
}
