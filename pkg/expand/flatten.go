package expand

import (
	"strconv"
	"strings"
)

// ExportRow is one flat output record. Identity fields are carried for joins
// and debugging but flagged hidden by RowColumns, so sinks can suppress them
// without dropping them.
type ExportRow struct {
	TableName    string `json:"table_name"`
	IsKey        bool   `json:"is_key"`
	FieldName    string `json:"field_name"`
	IsCalculated bool   `json:"is_calculated"`
	Description  string `json:"description"`
	DataType     string `json:"data_type"`

	ID                string `json:"id"`
	TableID           int64  `json:"table_id"`
	ReferencedTableID *int64 `json:"referenced_table_id,omitempty"`

	// Extended marks rows produced by reference expansion, as opposed to the
	// base row of a stored column.
	Extended bool `json:"is_extended"`
}

// ColumnSpec describes one output column of the export.
type ColumnSpec struct {
	Name   string
	Hidden bool
}

// RowColumns is the fixed output column order. Hidden identity columns
// trail the visible ones.
func RowColumns() []ColumnSpec {
	return []ColumnSpec{
		{Name: "table_name"},
		{Name: "is_key"},
		{Name: "field_name"},
		{Name: "is_calculated"},
		{Name: "description"},
		{Name: "data_type"},
		{Name: "id", Hidden: true},
		{Name: "table_id", Hidden: true},
		{Name: "referenced_table_id", Hidden: true},
	}
}

// Values renders the row in RowColumns order. Hidden columns are included
// only when includeHidden is set.
func (r ExportRow) Values(includeHidden bool) []string {
	values := []string{
		r.TableName,
		formatBool(r.IsKey),
		r.FieldName,
		formatBool(r.IsCalculated),
		r.Description,
		r.DataType,
	}

	if includeHidden {
		refID := ""
		if r.ReferencedTableID != nil {
			refID = strconv.FormatInt(*r.ReferencedTableID, 10)
		}
		values = append(values, r.ID, strconv.FormatInt(r.TableID, 10), refID)
	}

	return values
}

func formatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Flatten performs a pre-order walk of an expansion tree and emits one row
// per terminal node. Expanded reference nodes (the root included) contribute
// no row of their own; a reference whose target yielded no qualifying
// columns therefore contributes nothing below it. Given the same tree the
// output is byte-identical across runs.
func Flatten(root *Node, indentWidth int) []ExportRow {
	if root == nil {
		return nil
	}
	if indentWidth < 0 {
		indentWidth = 0
	}

	rows := []ExportRow{}
	rootTable := root.OriginTable

	root.Walk(func(n *Node) {
		if !n.Kind.Terminal() {
			return
		}

		rows = append(rows, ExportRow{
			TableName:         rootTable,
			IsKey:             n.IsKey,
			FieldName:         strings.Repeat(" ", indentWidth*n.Depth) + strings.Join(n.FieldPath, "."),
			IsCalculated:      n.IsCalculated,
			Description:       terminalDescription(n),
			DataType:          n.DataType,
			TableID:           root.Column.TableID,
			ReferencedTableID: n.Column.ReferencedTableID,
			Extended:          true,
		})
	})

	return rows
}

// terminalDescription annotates the field's own description with the table
// it came from and, for non-leaf terminals, how the branch was closed.
func terminalDescription(n *Node) string {
	parts := make([]string, 0, 3)

	if n.Depth > 0 && n.OriginTable != "" {
		parts = append(parts, "[From "+n.OriginTable+"]")
	}
	if marker := n.Kind.Annotation(); marker != "" {
		parts = append(parts, "["+marker+"]")
	}
	if desc := strings.TrimSpace(n.Description); desc != "" {
		parts = append(parts, desc)
	}

	return strings.Join(parts, " ")
}
