package store

import (
	"context"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"
)

// SeedDemo loads a small supply-chain schema: the ScheduledReceipt →
// SupplyOrder → Site reference chain, a Part/Source reference cycle, and a
// self-referencing column on Part.
func (s *Store) SeedDemo(ctx context.Context) error {
	tables := []types.Table{
		{Name: "Site", Description: "Physical or logical locations planned by the system.", DisplayOnExport: true},
		{Name: "SupplyOrder", Description: "Open supply orders feeding scheduled receipts.", DisplayOnExport: true},
		{Name: "ScheduledReceipt", Description: "Inbound supply scheduled against open orders.", DisplayOnExport: true},
		{Name: "Part", Description: "Planned items.", CalculatedFieldsDescription: "Lead time fields are derived from sourcing rules.", DisplayOnExport: true},
		{Name: "Source", Description: "Sourcing rules linking parts to their supply.", DisplayOnExport: true},
	}

	ids := map[string]int64{}
	for _, t := range tables {
		id, err := s.UpsertTable(ctx, t)
		if err != nil {
			return err
		}
		ids[t.Name] = id
	}

	ref := func(name string) *int64 {
		id := ids[name]
		return &id
	}

	columns := map[string][]types.Column{
		"Site": {
			{FieldName: "Value", Description: "Site identifier.", DataType: "String", IsKey: true, DisplayOnExport: true},
			{FieldName: "Description", Description: "Display name of the site.", DataType: "String", DisplayOnExport: false},
		},
		"SupplyOrder": {
			{FieldName: "Id", Description: "Order number.", DataType: "String", IsKey: true, DisplayOnExport: true},
			{FieldName: "Type", Description: "Order type code.", DataType: "String", IsKey: true, DisplayOnExport: true},
			{FieldName: "Site", Description: "Ordering site.", DataType: types.ReferenceDataType("Site"), IsKey: true, ReferencedTableID: ref("Site"), DisplayOnExport: true},
			{FieldName: "Status", Description: "Open, firm or planned.", DataType: "String", DisplayOnExport: false},
		},
		"ScheduledReceipt": {
			{FieldName: "Line", Description: "Order line number.", DataType: "String", IsKey: true, DisplayOnExport: true},
			{FieldName: "Order", Description: "Owning supply order.", DataType: types.ReferenceDataType("SupplyOrder"), IsKey: true, ReferencedTableID: ref("SupplyOrder"), DisplayOnExport: true},
			{FieldName: "DueDate", Description: "Promised arrival date.", DataType: "Date", DisplayOnExport: true},
			{FieldName: "Quantity", Description: "Open quantity.", DataType: "Quantity", DisplayOnExport: false},
		},
		"Part": {
			{FieldName: "Name", Description: "Part number.", DataType: "String", IsKey: true, DisplayOnExport: true},
			{FieldName: "Site", Description: "Planning site.", DataType: types.ReferenceDataType("Site"), IsKey: true, ReferencedTableID: ref("Site"), DisplayOnExport: true},
			{FieldName: "PrimarySource", Description: "Preferred sourcing rule.", DataType: types.ReferenceDataType("Source"), ReferencedTableID: ref("Source"), DisplayOnExport: true},
			{FieldName: "SubstitutePart", Description: "Part substituted when this one is unavailable.", DataType: types.ReferenceDataType("Part"), ReferencedTableID: ref("Part"), DisplayOnExport: true},
			{FieldName: "LeadTime", Description: "Total replenishment lead time.", DataType: "Integer", IsCalculated: true, DisplayOnExport: true},
		},
		"Source": {
			{FieldName: "Id", Description: "Sourcing rule identifier.", DataType: "String", IsKey: true, DisplayOnExport: true},
			{FieldName: "Part", Description: "Sourced part.", DataType: types.ReferenceDataType("Part"), IsKey: true, ReferencedTableID: ref("Part"), DisplayOnExport: true},
		},
	}

	for name, cols := range columns {
		if err := s.UpsertColumns(ctx, ids[name], cols); err != nil {
			return err
		}
	}

	s.logger.Info("seeded demo schema", "tables", len(tables))
	return nil
}

var seedDataTypes = []string{"String", "Integer", "Date", "Quantity", "Boolean"}

// SeedRandom generates n tables with randomized columns and reference edges
// (self-references included), deterministic for a given seed. Useful for
// exercising the expansion engine against messier shapes than the demo.
func (s *Store) SeedRandom(ctx context.Context, n int, seed uint64) error {
	if n <= 0 {
		return fmt.Errorf("table count must be positive, got %d", n)
	}

	rng := rand.New(rand.NewSource(seed))

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.UpsertTable(ctx, types.Table{
			Name:            fmt.Sprintf("Generated%02d", i+1),
			Description:     fmt.Sprintf("Generated table %d (seed %d).", i+1, seed),
			DisplayOnExport: true,
		})
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	for i, tableID := range ids {
		colCount := 3 + rng.Intn(5)
		cols := make([]types.Column, 0, colCount)

		for j := 0; j < colCount; j++ {
			col := types.Column{
				FieldName:       fmt.Sprintf("Field%02d", j+1),
				Description:     fmt.Sprintf("Generated field %d of table %d.", j+1, i+1),
				DataType:        seedDataTypes[rng.Intn(len(seedDataTypes))],
				IsKey:           j == 0,
				DisplayOnExport: rng.Intn(3) > 0,
			}

			// Roughly a quarter of the fields become references, any table
			// being a legal target.
			if rng.Intn(4) == 0 {
				pick := rng.Intn(len(ids))
				target := ids[pick]
				col.DataType = types.ReferenceDataType(fmt.Sprintf("Generated%02d", pick+1))
				col.ReferencedTableID = &target
			}

			cols = append(cols, col)
		}

		if err := s.UpsertColumns(ctx, tableID, cols); err != nil {
			return err
		}
	}

	s.logger.Info("seeded random schema", "tables", n, "seed", seed)
	return nil
}
