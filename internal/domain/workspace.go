package domain

// Block is one authored block in the learner's program.
type Block struct {
	Type      string
	Disabled  bool
	Deletable bool
}

// Workspace is the block-editor collaborator. The editor owns rendering and
// program structure; evaluation only needs to enumerate blocks, serialize the
// program to source text, and query remaining capacity.
type Workspace interface {
	// Blocks enumerates every block currently in the workspace.
	Blocks() []Block

	// GenerateCode serializes the current program to source text. Callers
	// treat this as expensive and invoke it lazily.
	GenerateCode() string

	// RemainingCapacity reports how many more blocks the workspace accepts.
	// bounded is false when the workspace is unlimited.
	RemainingCapacity() (n int, bounded bool)
}

// UserBlocks filters a block set down to user-authored blocks: those that are
// enabled and deletable. Scaffolding blocks the learner cannot remove do not
// count toward requirements or block totals.
func UserBlocks(blocks []Block) []Block {
	var out []Block
	for _, b := range blocks {
		if !b.Disabled && b.Deletable {
			out = append(out, b)
		}
	}
	return out
}
