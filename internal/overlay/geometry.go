package overlay

// Node is a displayable content node resolved by the host UI. Identity is
// stable across attach/detach cycles so a node can be reopened later.
type Node interface {
	ID() string
}

// Bounds is an absolute screen rectangle.
type Bounds struct {
	X float64
	Y float64
	W float64
	H float64
}

// BoundsProvider resolves display geometry for animation. Abstracting it
// keeps the controller independent of any live render tree; tests inject
// synthetic bounds.
type BoundsProvider interface {
	// BoundsOf returns the absolute screen bounding box of a node. ok is
	// false when the node has no geometry (not rendered, detached).
	BoundsOf(node Node) (bounds Bounds, ok bool)
}
