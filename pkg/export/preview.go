package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/expand"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"
)

// RenderPreview prints up to limit export rows as a terminal table, visible
// columns only. A limit of 0 renders everything.
func RenderPreview(w io.Writer, rows []expand.ExportRow, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{}
	for _, spec := range expand.RowColumns() {
		if spec.Hidden {
			continue
		}
		header = append(header, spec.Name)
	}
	t.AppendHeader(header)

	shown := 0
	for _, row := range rows {
		if limit > 0 && shown >= limit {
			break
		}
		values := row.Values(false)
		cells := make(table.Row, len(values))
		for i, v := range values {
			cells[i] = v
		}
		t.AppendRow(cells)
		shown++
	}

	t.Render()

	if limit > 0 && len(rows) > limit {
		fmt.Fprintf(w, "... and %d more rows\n", len(rows)-limit)
	}
}

// RenderTables prints the stored table inventory.
func RenderTables(w io.Writer, tables []types.Table) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"id", "name", "description"})

	for _, tbl := range tables {
		t.AppendRow(table.Row{tbl.ID, tbl.Name, tbl.Description})
	}

	t.Render()
}
