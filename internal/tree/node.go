package tree

// Node is the capability a traced execution unit must expose to take part in
// hierarchy enumeration. Concrete node variants of the host engine implement
// it; the walker never inspects nodes beyond these two methods.
type Node interface {
	// DisplayName returns a human-readable type name used when a node has no
	// explicit name (typically the root of a traced tree).
	DisplayName() string

	// NamedChildren enumerates direct children in a stable order.
	NamedChildren() []Child
}

// Child is one (name, node) pair produced by NamedChildren. Name may be empty;
// the walker assigns a positional index in that case.
type Child struct {
	Name string
	Node Node
}

// Entry is one enumerated unit: its full path inside the traced tree, the node
// itself and its depth (root = 0).
type Entry struct {
	Path  string
	Node  Node
	Depth int
}
