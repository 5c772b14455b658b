package expand

import "github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"

// Kind classifies a node in an expansion tree. Every recursive step resolves
// to exactly one terminal kind or to a further-expanded reference.
type Kind int

const (
	// KindReference is an expanded reference; its fields live in Children.
	KindReference Kind = iota
	// KindLeaf is a non-reference field terminating a path.
	KindLeaf
	// KindUnresolved is a reference column with no referenced table id.
	KindUnresolved
	// KindCycle is a reference whose target already appears on this path.
	KindCycle
	// KindDepthLimit is a reference left unexpanded by the depth bound.
	KindDepthLimit
)

// Terminal reports whether recursion stopped at this kind.
func (k Kind) Terminal() bool {
	return k != KindReference
}

// Annotation is the marker rendered for non-leaf terminals.
func (k Kind) Annotation() string {
	switch k {
	case KindUnresolved:
		return "unresolved reference"
	case KindCycle:
		return "cycle"
	case KindDepthLimit:
		return "depth limit reached"
	default:
		return ""
	}
}

// Node is one step of an expansion tree. It is built fresh per traversal and
// discarded after flattening; it never aliases engine or repository state.
type Node struct {
	// FieldPath is the dotted path from the root reference to this node,
	// starting with the root's target table name.
	FieldPath []string

	DataType    string
	Description string

	// OriginTable is the table that directly owns this field, not the table
	// the root reference lives in.
	OriginTable string

	// IsKey and IsCalculated are inherited from the root reference column so
	// exported grouping reflects the role of the original field.
	IsKey        bool
	IsCalculated bool

	Depth    int
	Kind     Kind
	Column   types.Column
	Children []*Node
}

// Walk visits the node and its descendants pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Size returns the number of nodes in the tree rooted at n.
func (n *Node) Size() int {
	size := 0
	n.Walk(func(*Node) { size++ })
	return size
}

// Summary counts how each branch of one or more expansions terminated.
type Summary struct {
	Leaves       int `json:"leaves"`
	Cycles       int `json:"cycles"`
	DepthLimited int `json:"depth_limited"`
	Unresolved   int `json:"unresolved"`
}

func (s *Summary) Add(other Summary) {
	s.Leaves += other.Leaves
	s.Cycles += other.Cycles
	s.DepthLimited += other.DepthLimited
	s.Unresolved += other.Unresolved
}

// Terminals is the total number of emitted terminal nodes.
func (s Summary) Terminals() int {
	return s.Leaves + s.Cycles + s.DepthLimited + s.Unresolved
}
