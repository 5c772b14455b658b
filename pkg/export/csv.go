package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/expand"
)

// WriteCSV writes rows in output column order. Hidden identity columns are
// suppressed unless includeHidden is set.
func WriteCSV(w io.Writer, rows []expand.ExportRow, includeHidden bool) error {
	writer := csv.NewWriter(w)

	header := []string{}
	for _, spec := range expand.RowColumns() {
		if spec.Hidden && !includeHidden {
			continue
		}
		header = append(header, spec.Name)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %v", err)
	}

	for _, row := range rows {
		if err := writer.Write(row.Values(includeHidden)); err != nil {
			return fmt.Errorf("write row: %v", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile is WriteCSV against a file path.
func WriteCSVFile(path string, rows []expand.ExportRow, includeHidden bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v", path, err)
	}

	if err := WriteCSV(f, rows, includeHidden); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
