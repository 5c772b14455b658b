// Package ingest imports table and column metadata from a live database into
// the documentation store. Foreign key columns become reference columns so
// the export pipeline can expand them.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/ingest/mysql"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/ingest/postgres"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/ingest/types"
	schematypes "github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/store"
)

func Run(ctx context.Context, opts types.IngestOpts, st *store.Store, logger *slog.Logger) error {
	var tables []types.SourceTable
	var err error

	switch opts.DBMS {
	case types.Mysql:
		tables, err = mysql.ListTables(opts.ConnectionURI, opts.DatabaseName)
	case types.Postgres:
		tables, err = postgres.ListTables(ctx, opts.ConnectionURI, opts.DatabaseName)
	default:
		return fmt.Errorf("unsupported DBMS: %s", opts.DBMS)
	}
	if err != nil {
		return fmt.Errorf("introspect %s schema: %v", opts.DBMS, err)
	}

	logger.Info("introspected source database", "dbms", string(opts.DBMS), "database", opts.DatabaseName, "tables", len(tables))

	return Merge(ctx, tables, st, logger)
}

// Merge upserts introspected tables into the store. Tables are created first
// so foreign key targets can be resolved to table ids in a second pass, even
// when a key points at a table ingested later (or at its own table).
func Merge(ctx context.Context, tables []types.SourceTable, st *store.Store, logger *slog.Logger) error {
	ids := make(map[string]int64, len(tables))
	for _, table := range tables {
		id, err := st.UpsertTable(ctx, schematypes.Table{
			Name:            table.TableName,
			DisplayOnExport: true,
		})
		if err != nil {
			return fmt.Errorf("upsert table %q: %v", table.TableName, err)
		}
		ids[table.TableName] = id
	}

	columnCount := 0
	for _, table := range tables {
		cols := make([]schematypes.Column, 0, len(table.Columns))
		for _, column := range table.Columns {
			col := schematypes.Column{
				FieldName:       column.ColumnName,
				DataType:        column.DataType,
				IsKey:           column.IsPrimaryKey,
				DisplayOnExport: true,
			}

			if column.ReferencedTable != "" {
				col.DataType = schematypes.ReferenceDataType(column.ReferencedTable)
				if refID, ok := ids[column.ReferencedTable]; ok {
					col.ReferencedTableID = &refID
				}
				// An unknown target stays a reference with no id; the
				// engine reports it as unresolved instead of failing.
			}

			cols = append(cols, col)
		}

		if err := st.UpsertColumns(ctx, ids[table.TableName], cols); err != nil {
			return fmt.Errorf("upsert columns of %q: %v", table.TableName, err)
		}
		columnCount += len(cols)
	}

	logger.Info("merged schema into store", "tables", len(tables), "columns", columnCount)
	return nil
}
