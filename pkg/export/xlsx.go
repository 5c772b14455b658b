package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/expand"
)

const (
	fieldsSheet  = "Fields"
	tablesSheet  = "Tables"
	summarySheet = "Summary"
)

// WriteWorkbook renders a result into an Excel workbook: a Fields sheet with
// the full row sequence (identity columns present but hidden), a Tables
// sheet with per-table metadata, and a Summary sheet with run diagnostics.
func WriteWorkbook(path string, result *Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", fieldsSheet); err != nil {
		return fmt.Errorf("rename default sheet: %v", err)
	}

	if err := writeFieldsSheet(f, result.Rows); err != nil {
		return err
	}
	if err := writeTablesSheet(f, result); err != nil {
		return err
	}
	if err := writeSummarySheet(f, result); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %v", path, err)
	}

	return nil
}

func writeFieldsSheet(f *excelize.File, rows []expand.ExportRow) error {
	specs := expand.RowColumns()

	header := make([]interface{}, len(specs))
	for i, spec := range specs {
		header[i] = spec.Name
	}
	if err := setRow(f, fieldsSheet, 1, header); err != nil {
		return err
	}

	for i, row := range rows {
		values := row.Values(true)
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		if err := setRow(f, fieldsSheet, i+2, cells); err != nil {
			return err
		}
	}

	for i, spec := range specs {
		if !spec.Hidden {
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %v", err)
		}
		if err := f.SetColVisible(fieldsSheet, name, false); err != nil {
			return fmt.Errorf("hide column %s: %v", name, err)
		}
	}

	return nil
}

func writeTablesSheet(f *excelize.File, result *Result) error {
	if _, err := f.NewSheet(tablesSheet); err != nil {
		return fmt.Errorf("create sheet %s: %v", tablesSheet, err)
	}

	if err := setRow(f, tablesSheet, 1, []interface{}{"name", "description", "calculated_fields_description"}); err != nil {
		return err
	}

	for i, table := range result.Tables {
		row := []interface{}{table.Name, table.Description, table.CalculatedFieldsDescription}
		if err := setRow(f, tablesSheet, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

func writeSummarySheet(f *excelize.File, result *Result) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create sheet %s: %v", summarySheet, err)
	}

	lines := [][]interface{}{
		{"run_id", result.RunID},
		{"tables", len(result.Tables)},
		{"rows", len(result.Rows)},
		{"leaves", result.Summary.Leaves},
		{"cycles", result.Summary.Cycles},
		{"depth_limited", result.Summary.DepthLimited},
		{"unresolved_references", result.Summary.Unresolved},
	}

	for i, line := range lines {
		if err := setRow(f, summarySheet, i+1, line); err != nil {
			return err
		}
	}

	return nil
}

func setRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return fmt.Errorf("cell name: %v", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d of %s: %v", rowIdx, sheet, err)
	}
	return nil
}
