package expand

import (
	"context"
	"fmt"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"
)

const (
	// DefaultMaxDepth bounds reference hops per branch.
	DefaultMaxDepth = 5
	// DefaultIndentWidth is the spaces-per-level used when flattening.
	DefaultIndentWidth = 4
)

// Predicate selects which columns of a referenced table qualify for
// expansion. The exact rule is documented as unconfirmed upstream, so it is
// injectable rather than hardwired.
type Predicate func(types.Column) bool

// DefaultPredicate keeps key columns and columns flagged for export.
func DefaultPredicate(c types.Column) bool {
	return c.IsKey || c.DisplayOnExport
}

// Opts configures an Engine. A zero MaxDepth is honored: every reference is
// emitted unexpanded. Use DefaultOpts for the standard configuration.
type Opts struct {
	MaxDepth  int
	Predicate Predicate
}

func DefaultOpts() Opts {
	return Opts{MaxDepth: DefaultMaxDepth, Predicate: DefaultPredicate}
}

// Engine resolves reference columns into expansion trees. It never mutates
// the repository and holds no per-expansion state, so one engine may serve
// concurrent expansions against the same snapshot.
type Engine struct {
	repo      schema.Repository
	maxDepth  int
	predicate Predicate
}

func New(repo schema.Repository, opts Opts) (*Engine, error) {
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", opts.MaxDepth)
	}

	predicate := opts.Predicate
	if predicate == nil {
		predicate = DefaultPredicate
	}

	return &Engine{
		repo:      repo,
		maxDepth:  opts.MaxDepth,
		predicate: predicate,
	}, nil
}

// Expansion is the result of expanding one root reference column.
type Expansion struct {
	Root    *Node
	Summary Summary
}

// inherited carries the root reference column's display attributes through
// recursive calls so no branch can leak them into another.
type inherited struct {
	isKey        bool
	isCalculated bool
}

// Expand resolves root into a tree of descendant fields. root must be a
// reference column. A cancelled ctx closes open branches as depth-limit
// terminals, returning a partial tree rather than an error.
func (e *Engine) Expand(ctx context.Context, root types.Column) (*Expansion, error) {
	if !root.IsReference() {
		return nil, fmt.Errorf("column %q is not a reference (data type %q)", root.FieldName, root.DataType)
	}

	summary := &Summary{}
	inh := inherited{isKey: root.IsKey, isCalculated: root.IsCalculated}
	path := []string{e.rootLabel(root)}

	node := e.expandReference(ctx, root, path, 0, NewGuard(root.TableID), inh, summary)

	return &Expansion{Root: node, Summary: *summary}, nil
}

// rootLabel is the first path segment: the target table's name, or the
// column's own field name when the target cannot be resolved.
func (e *Engine) rootLabel(root types.Column) string {
	if root.ReferencedTableID != nil {
		if t, ok := e.repo.Table(*root.ReferencedTableID); ok && t.Name != "" {
			return t.Name
		}
	}
	return root.FieldName
}

// expandReference handles one reference column at depth. The guard holds
// every table id on the path above it; path already ends with this column's
// segment.
func (e *Engine) expandReference(ctx context.Context, col types.Column, path []string, depth int, guard Guard, inh inherited, summary *Summary) *Node {
	node := e.newNode(col, path, depth, inh)

	if col.ReferencedTableID == nil {
		node.Kind = KindUnresolved
		summary.Unresolved++
		return node
	}
	refID := *col.ReferencedTableID

	if guard.Contains(refID) {
		node.Kind = KindCycle
		summary.Cycles++
		return node
	}

	if depth >= e.maxDepth || ctx.Err() != nil {
		node.Kind = KindDepthLimit
		summary.DepthLimited++
		return node
	}

	if _, ok := e.repo.Table(refID); !ok {
		node.Kind = KindUnresolved
		summary.Unresolved++
		return node
	}

	node.Kind = KindReference
	next := guard.With(refID)

	for _, child := range e.repo.Columns(refID) {
		if !e.predicate(child) {
			continue
		}

		childPath := appendSegment(path, child.FieldName)

		// Calculated references describe derived values and are never
		// followed into their target table.
		if child.IsReference() && !child.IsCalculated {
			node.Children = append(node.Children, e.expandReference(ctx, child, childPath, depth+1, next, inh, summary))
			continue
		}

		leaf := e.newNode(child, childPath, depth+1, inh)
		leaf.Kind = KindLeaf
		summary.Leaves++
		node.Children = append(node.Children, leaf)
	}

	return node
}

func (e *Engine) newNode(col types.Column, path []string, depth int, inh inherited) *Node {
	node := &Node{
		FieldPath:    path,
		DataType:     col.DataType,
		Description:  col.Description,
		IsKey:        inh.isKey,
		IsCalculated: inh.isCalculated,
		Depth:        depth,
		Column:       col,
	}

	if owner, ok := e.repo.Table(col.TableID); ok {
		node.OriginTable = owner.Name
	}

	return node
}

// appendSegment copies before appending so sibling branches never share
// backing arrays.
func appendSegment(path []string, segment string) []string {
	next := make([]string, 0, len(path)+1)
	next = append(next, path...)
	return append(next, segment)
}

// Expandable reports whether a stored column should be run through the
// engine at all: a resolvable, non-calculated reference.
func Expandable(c types.Column) bool {
	return c.IsReference() && c.ReferencedTableID != nil && !c.IsCalculated
}
