package expand_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/expand"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"
)

func ref(id int64) *int64 {
	return &id
}

// workedExampleRepo models the documented chain:
// ScheduledReceipt{Line, Order → SupplyOrder{Id, Type, Site → Site{Value}}}.
func workedExampleRepo() *schema.Snapshot {
	tables := []types.Table{
		{ID: 1, Name: "Mapping"},
		{ID: 2, Name: "ScheduledReceipt"},
		{ID: 3, Name: "SupplyOrder"},
		{ID: 4, Name: "Site"},
	}
	columns := map[int64][]types.Column{
		2: {
			{ID: 20, TableID: 2, FieldName: "Line", Description: "Order line number.", DataType: "String", IsKey: true},
			{ID: 21, TableID: 2, FieldName: "Order", DataType: "Reference (SupplyOrder)", IsKey: true, ReferencedTableID: ref(3)},
		},
		3: {
			{ID: 30, TableID: 3, FieldName: "Id", DataType: "String", IsKey: true},
			{ID: 31, TableID: 3, FieldName: "Type", DataType: "String", IsKey: true},
			{ID: 32, TableID: 3, FieldName: "Site", DataType: "Reference (Site)", IsKey: true, ReferencedTableID: ref(4)},
		},
		4: {
			{ID: 40, TableID: 4, FieldName: "Value", Description: "Site identifier.", DataType: "String", IsKey: true},
		},
	}
	return schema.NewSnapshot(tables, columns)
}

func workedExampleRoot() types.Column {
	return types.Column{
		ID: 10, TableID: 1, FieldName: "ScheduledReceipt",
		DataType: "Reference (ScheduledReceipt)", IsKey: true, ReferencedTableID: ref(2),
	}
}

func fieldNames(rows []expand.ExportRow) []string {
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.FieldName
	}
	return names
}

func TestExpand_WorkedExample(t *testing.T) {
	engine, err := expand.New(workedExampleRepo(), expand.DefaultOpts())
	require.NoError(t, err)

	expansion, err := engine.Expand(context.Background(), workedExampleRoot())
	require.NoError(t, err)

	rows := expand.Flatten(expansion.Root, 4)
	assert.Equal(t, []string{
		"    ScheduledReceipt.Line",
		"        ScheduledReceipt.Order.Id",
		"        ScheduledReceipt.Order.Type",
		"            ScheduledReceipt.Order.Site.Value",
	}, fieldNames(rows))

	assert.Equal(t, expand.Summary{Leaves: 4}, expansion.Summary)
}

func TestExpand_OriginTableAnnotation(t *testing.T) {
	engine, err := expand.New(workedExampleRepo(), expand.DefaultOpts())
	require.NoError(t, err)

	expansion, err := engine.Expand(context.Background(), workedExampleRoot())
	require.NoError(t, err)

	rows := expand.Flatten(expansion.Root, 4)
	require.Len(t, rows, 4)

	// The annotation names the table that owns the leaf, not the root table.
	assert.Equal(t, "[From ScheduledReceipt] Order line number.", rows[0].Description)
	assert.Equal(t, "[From Site] Site identifier.", rows[3].Description)
}

func TestExpand_RejectsNonReferenceRoot(t *testing.T) {
	engine, err := expand.New(workedExampleRepo(), expand.DefaultOpts())
	require.NoError(t, err)

	_, err = engine.Expand(context.Background(), types.Column{FieldName: "Line", DataType: "String"})
	assert.Error(t, err)
}

func TestNew_RejectsNegativeMaxDepth(t *testing.T) {
	_, err := expand.New(workedExampleRepo(), expand.Opts{MaxDepth: -1})
	assert.Error(t, err)
}

func TestExpand_MaxDepthZeroLeavesReferencesUnexpanded(t *testing.T) {
	engine, err := expand.New(workedExampleRepo(), expand.Opts{MaxDepth: 0})
	require.NoError(t, err)

	expansion, err := engine.Expand(context.Background(), workedExampleRoot())
	require.NoError(t, err)

	assert.Equal(t, expand.KindDepthLimit, expansion.Root.Kind)
	assert.Empty(t, expansion.Root.Children)
	assert.Equal(t, expand.Summary{DepthLimited: 1}, expansion.Summary)

	rows := expand.Flatten(expansion.Root, 4)
	require.Len(t, rows, 1)
	assert.Equal(t, "ScheduledReceipt", rows[0].FieldName)
	assert.Contains(t, rows[0].Description, "[depth limit reached]")
}

func TestExpand_DepthTruncation(t *testing.T) {
	// Six nested distinct reference tables; at maxDepth 5 the last reference
	// stays unexpanded at level 5 instead of reaching level 6.
	tables := []types.Table{{ID: 100, Name: "Owner"}}
	columns := map[int64][]types.Column{}
	for i := int64(1); i <= 6; i++ {
		tables = append(tables, types.Table{ID: i, Name: fmt.Sprintf("Chain%d", i)})
	}
	for i := int64(1); i < 6; i++ {
		columns[i] = []types.Column{
			{ID: 200 + i, TableID: i, FieldName: "Next", DataType: "Reference", IsKey: true, ReferencedTableID: ref(i + 1)},
		}
	}
	columns[6] = []types.Column{
		{ID: 206, TableID: 6, FieldName: "Value", DataType: "String", IsKey: true},
	}

	engine, err := expand.New(schema.NewSnapshot(tables, columns), expand.DefaultOpts())
	require.NoError(t, err)

	root := types.Column{ID: 300, TableID: 100, FieldName: "Head", DataType: "Reference", IsKey: true, ReferencedTableID: ref(1)}
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, expand.Summary{DepthLimited: 1}, expansion.Summary)

	rows := expand.Flatten(expansion.Root, 4)
	require.Len(t, rows, 1)
	assert.Equal(t, "                    Chain1.Next.Next.Next.Next.Next", rows[0].FieldName)

	terminal := expansion.Root
	for len(terminal.Children) > 0 {
		terminal = terminal.Children[0]
	}
	assert.Equal(t, 5, terminal.Depth)
	assert.Equal(t, expand.KindDepthLimit, terminal.Kind)
}

func cyclePairRepo() *schema.Snapshot {
	tables := []types.Table{
		{ID: 1, Name: "Alpha"},
		{ID: 2, Name: "Beta"},
	}
	columns := map[int64][]types.Column{
		1: {
			{ID: 10, TableID: 1, FieldName: "Name", DataType: "String", IsKey: true},
			{ID: 11, TableID: 1, FieldName: "ToBeta", DataType: "Reference (Beta)", IsKey: true, ReferencedTableID: ref(2)},
		},
		2: {
			{ID: 20, TableID: 2, FieldName: "Id", DataType: "String", IsKey: true},
			{ID: 21, TableID: 2, FieldName: "ToAlpha", DataType: "Reference (Alpha)", IsKey: true, ReferencedTableID: ref(1)},
		},
	}
	return schema.NewSnapshot(tables, columns)
}

func TestExpand_CycleClosesOnce(t *testing.T) {
	engine, err := expand.New(cyclePairRepo(), expand.DefaultOpts())
	require.NoError(t, err)

	// The root reference lives in Alpha, so re-entering Alpha from Beta
	// closes the branch with a cycle marker rather than exhausting depth.
	root := types.Column{ID: 11, TableID: 1, FieldName: "ToBeta", DataType: "Reference (Beta)", IsKey: true, ReferencedTableID: ref(2)}
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, expand.Summary{Leaves: 1, Cycles: 1}, expansion.Summary)

	rows := expand.Flatten(expansion.Root, 4)
	assert.Equal(t, []string{
		"    Beta.Id",
		"    Beta.ToAlpha",
	}, fieldNames(rows))
	assert.Contains(t, rows[1].Description, "[cycle]")
}

func TestExpand_SelfReferenceIsCycleAtRoot(t *testing.T) {
	tables := []types.Table{{ID: 1, Name: "Part"}}
	columns := map[int64][]types.Column{
		1: {
			{ID: 10, TableID: 1, FieldName: "Name", DataType: "String", IsKey: true},
			{ID: 11, TableID: 1, FieldName: "SubstitutePart", DataType: "Reference (Part)", ReferencedTableID: ref(1), DisplayOnExport: true},
		},
	}
	engine, err := expand.New(schema.NewSnapshot(tables, columns), expand.DefaultOpts())
	require.NoError(t, err)

	root := types.Column{ID: 11, TableID: 1, FieldName: "SubstitutePart", DataType: "Reference (Part)", ReferencedTableID: ref(1), DisplayOnExport: true}
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, expand.KindCycle, expansion.Root.Kind)
	assert.Equal(t, expand.Summary{Cycles: 1}, expansion.Summary)
}

func TestExpand_SameTableInSiblingBranches(t *testing.T) {
	// Two sibling references to the same target both expand: the guard is
	// branch-local, and targets are not deduplicated across branches.
	tables := []types.Table{
		{ID: 1, Name: "Owner"},
		{ID: 2, Name: "Pair"},
		{ID: 3, Name: "Shared"},
	}
	columns := map[int64][]types.Column{
		2: {
			{ID: 20, TableID: 2, FieldName: "First", DataType: "Reference (Shared)", IsKey: true, ReferencedTableID: ref(3)},
			{ID: 21, TableID: 2, FieldName: "Second", DataType: "Reference (Shared)", IsKey: true, ReferencedTableID: ref(3)},
		},
		3: {
			{ID: 30, TableID: 3, FieldName: "Value", DataType: "String", IsKey: true},
		},
	}
	engine, err := expand.New(schema.NewSnapshot(tables, columns), expand.DefaultOpts())
	require.NoError(t, err)

	root := types.Column{ID: 40, TableID: 1, FieldName: "Pair", DataType: "Reference (Pair)", ReferencedTableID: ref(2)}
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	rows := expand.Flatten(expansion.Root, 4)
	assert.Equal(t, []string{
		"        Pair.First.Value",
		"        Pair.Second.Value",
	}, fieldNames(rows))
	assert.Equal(t, expand.Summary{Leaves: 2}, expansion.Summary)
}

func TestExpand_UnresolvedReference(t *testing.T) {
	engine, err := expand.New(workedExampleRepo(), expand.DefaultOpts())
	require.NoError(t, err)

	root := types.Column{ID: 50, TableID: 1, FieldName: "Dangling", DataType: "Reference"}
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, expand.KindUnresolved, expansion.Root.Kind)
	assert.Equal(t, expand.Summary{Unresolved: 1}, expansion.Summary)

	rows := expand.Flatten(expansion.Root, 4)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dangling", rows[0].FieldName)
	assert.Contains(t, rows[0].Description, "[unresolved reference]")
}

func TestExpand_UnknownTargetTableIsUnresolved(t *testing.T) {
	engine, err := expand.New(workedExampleRepo(), expand.DefaultOpts())
	require.NoError(t, err)

	root := types.Column{ID: 51, TableID: 1, FieldName: "Ghost", DataType: "Reference", ReferencedTableID: ref(999)}
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, expand.KindUnresolved, expansion.Root.Kind)
	assert.Equal(t, expand.Summary{Unresolved: 1}, expansion.Summary)
}

func TestExpand_EmptyPredicateMatchYieldsNoRows(t *testing.T) {
	tables := []types.Table{
		{ID: 1, Name: "Owner"},
		{ID: 2, Name: "Bare"},
	}
	columns := map[int64][]types.Column{
		2: {
			{ID: 20, TableID: 2, FieldName: "Internal", DataType: "String"},
		},
	}
	engine, err := expand.New(schema.NewSnapshot(tables, columns), expand.DefaultOpts())
	require.NoError(t, err)

	root := types.Column{ID: 30, TableID: 1, FieldName: "Bare", DataType: "Reference (Bare)", ReferencedTableID: ref(2)}
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, expand.KindReference, expansion.Root.Kind)
	assert.Empty(t, expansion.Root.Children)
	assert.Equal(t, expand.Summary{}, expansion.Summary)
	assert.Empty(t, expand.Flatten(expansion.Root, 4))
}

func TestExpand_InheritsRootDisplayAttributes(t *testing.T) {
	// The leaf's own is_key/is_calculated differ from the root's; every
	// emitted row carries the root's values.
	tables := []types.Table{
		{ID: 1, Name: "Owner"},
		{ID: 2, Name: "Target"},
	}
	columns := map[int64][]types.Column{
		2: {
			{ID: 20, TableID: 2, FieldName: "Plain", DataType: "String", DisplayOnExport: true},
		},
	}
	engine, err := expand.New(schema.NewSnapshot(tables, columns), expand.DefaultOpts())
	require.NoError(t, err)

	root := types.Column{ID: 30, TableID: 1, FieldName: "Link", DataType: "Reference (Target)", IsKey: true, IsCalculated: true, ReferencedTableID: ref(2)}
	// Calculated references are normally not expanded; drive the engine
	// directly to check attribute threading.
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	rows := expand.Flatten(expansion.Root, 4)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsKey)
	assert.True(t, rows[0].IsCalculated)
}

func TestExpand_CustomPredicate(t *testing.T) {
	tables := []types.Table{
		{ID: 1, Name: "Owner"},
		{ID: 2, Name: "Target"},
	}
	columns := map[int64][]types.Column{
		2: {
			{ID: 20, TableID: 2, FieldName: "Key", DataType: "String", IsKey: true},
			{ID: 21, TableID: 2, FieldName: "Shown", DataType: "String", DisplayOnExport: true},
		},
	}

	keysOnly := func(c types.Column) bool { return c.IsKey }
	engine, err := expand.New(schema.NewSnapshot(tables, columns), expand.Opts{MaxDepth: 5, Predicate: keysOnly})
	require.NoError(t, err)

	root := types.Column{ID: 30, TableID: 1, FieldName: "Link", DataType: "Reference (Target)", ReferencedTableID: ref(2)}
	expansion, err := engine.Expand(context.Background(), root)
	require.NoError(t, err)

	rows := expand.Flatten(expansion.Root, 4)
	assert.Equal(t, []string{"    Target.Key"}, fieldNames(rows))
}

func TestExpand_Deterministic(t *testing.T) {
	engine, err := expand.New(workedExampleRepo(), expand.DefaultOpts())
	require.NoError(t, err)

	first, err := engine.Expand(context.Background(), workedExampleRoot())
	require.NoError(t, err)
	second, err := engine.Expand(context.Background(), workedExampleRoot())
	require.NoError(t, err)

	assert.Equal(t, expand.Flatten(first.Root, 4), expand.Flatten(second.Root, 4))
	assert.Equal(t, first.Summary, second.Summary)
}

func TestExpand_CancelledContextReturnsPartialTree(t *testing.T) {
	engine, err := expand.New(workedExampleRepo(), expand.DefaultOpts())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	expansion, err := engine.Expand(ctx, workedExampleRoot())
	require.NoError(t, err)

	assert.Equal(t, expand.KindDepthLimit, expansion.Root.Kind)
	assert.Empty(t, expansion.Root.Children)
}

func TestExpandable(t *testing.T) {
	tests := []struct {
		name string
		col  types.Column
		want bool
	}{
		{"reference", types.Column{DataType: "Reference (Site)", ReferencedTableID: ref(1)}, true},
		{"plain field", types.Column{DataType: "String"}, false},
		{"dangling reference", types.Column{DataType: "Reference"}, false},
		{"calculated reference", types.Column{DataType: "Reference (Site)", ReferencedTableID: ref(1), IsCalculated: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expand.Expandable(tt.col))
		})
	}
}
