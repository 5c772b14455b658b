package types

import "strings"

// Table is one documented table of the source schema.
type Table struct {
	ID                          int64  `json:"id"`
	Name                        string `json:"name"`
	Description                 string `json:"description"`
	CalculatedFieldsDescription string `json:"calculated_fields_description"`
	DisplayOnExport             bool   `json:"display_on_export"`
}

// Column is one documented column. ReferencedTableID is set when DataType
// denotes a reference to another table (the table may be the column's own
// owner, self-references are legal).
type Column struct {
	ID                int64  `json:"id"`
	TableID           int64  `json:"table_id"`
	FieldName         string `json:"field_name"`
	Description       string `json:"description"`
	DataType          string `json:"data_type"`
	IsKey             bool   `json:"is_key"`
	IsCalculated      bool   `json:"is_calculated"`
	ReferencedTableID *int64 `json:"referenced_table_id,omitempty"`
	DisplayOnExport   bool   `json:"display_on_export"`
}

const referencePrefix = "reference"

// IsReference reports whether the column's data type denotes a pointer to
// another table. The documented types are free text like "Reference" or
// "Reference (Part)", so only the prefix is significant.
func (c Column) IsReference() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.DataType)), referencePrefix)
}

// ReferenceDataType renders the data type stored for a foreign-key column
// pointing at the named table.
func ReferenceDataType(target string) string {
	if target == "" {
		return "Reference"
	}
	return "Reference (" + target + ")"
}
