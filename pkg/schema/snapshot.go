package schema

import (
	"sort"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"
)

// Repository is the read-only view of a schema the expansion engine works
// against. Implementations must return columns in a stable order; that order
// defines child ordering in expansion trees.
type Repository interface {
	Table(id int64) (types.Table, bool)
	Columns(id int64) []types.Column
}

// Snapshot is an immutable in-memory Repository preloaded from the store.
// All lookups are map reads, so concurrent expansions can share one snapshot
// without coordination.
type Snapshot struct {
	tables  map[int64]types.Table
	columns map[int64][]types.Column
	order   []int64
}

// NewSnapshot indexes the given tables and their columns. Column slices are
// kept as passed; callers provide them in repository order.
func NewSnapshot(tables []types.Table, columns map[int64][]types.Column) *Snapshot {
	s := &Snapshot{
		tables:  make(map[int64]types.Table, len(tables)),
		columns: make(map[int64][]types.Column, len(columns)),
		order:   make([]int64, 0, len(tables)),
	}

	for _, t := range tables {
		s.tables[t.ID] = t
		s.order = append(s.order, t.ID)
	}

	sort.Slice(s.order, func(i, j int) bool {
		return s.tables[s.order[i]].Name < s.tables[s.order[j]].Name
	})

	for id, cols := range columns {
		s.columns[id] = cols
	}

	return s
}

func (s *Snapshot) Table(id int64) (types.Table, bool) {
	t, ok := s.tables[id]
	return t, ok
}

func (s *Snapshot) Columns(id int64) []types.Column {
	return s.columns[id]
}

// TableIDs returns all table ids ordered by table name.
func (s *Snapshot) TableIDs() []int64 {
	ids := make([]int64, len(s.order))
	copy(ids, s.order)
	return ids
}

func (s *Snapshot) TableCount() int {
	return len(s.tables)
}

func (s *Snapshot) ColumnCount() int {
	n := 0
	for _, cols := range s.columns {
		n += len(cols)
	}
	return n
}
