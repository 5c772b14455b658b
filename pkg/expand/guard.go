package expand

// Guard tracks the table ids visited along one root-to-node traversal path.
// It is copied on every recursion into a referenced table, so sibling
// branches never observe each other's visits.
type Guard struct {
	visited map[int64]struct{}
}

// NewGuard returns a guard seeded with the root column's owning table.
func NewGuard(rootTableID int64) Guard {
	return Guard{visited: map[int64]struct{}{rootTableID: {}}}
}

func (g Guard) Contains(tableID int64) bool {
	_, ok := g.visited[tableID]
	return ok
}

// With returns a new guard containing the receiver's tables plus tableID.
// The receiver is left untouched.
func (g Guard) With(tableID int64) Guard {
	next := make(map[int64]struct{}, len(g.visited)+1)
	for id := range g.visited {
		next[id] = struct{}{}
	}
	next[tableID] = struct{}{}
	return Guard{visited: next}
}

func (g Guard) Len() int {
	return len(g.visited)
}
