// Package store persists documented schema metadata in SQLite: the source
// tables and columns maintained by ingestion or seeding, and the expanded
// rows written back by the export pipeline.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/knxdoc-io/knxdoc-exporter/pkg/expand"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/schema/types"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists. Use ":memory:" for an ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping sqlite database")
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize schema")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertTable inserts or fully replaces a table's metadata, matching by name
// (case-insensitive), and returns its id.
func (s *Store) UpsertTable(ctx context.Context, t types.Table) (int64, error) {
	existing, err := s.GetTableByName(ctx, t.Name)
	if err != nil {
		return 0, err
	}

	if existing != nil {
		_, err := s.db.ExecContext(ctx, `
			UPDATE knx_doc_tables
			SET name = ?, description = ?, calculated_fields_description = ?, display_on_export = ?
			WHERE id = ?`,
			t.Name, t.Description, t.CalculatedFieldsDescription, t.DisplayOnExport, existing.ID)
		if err != nil {
			return 0, errors.Wrapf(err, "update table %q", t.Name)
		}
		return existing.ID, nil
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO knx_doc_tables (name, description, calculated_fields_description, display_on_export)
		VALUES (?, ?, ?, ?)`,
		t.Name, t.Description, t.CalculatedFieldsDescription, t.DisplayOnExport)
	if err != nil {
		return 0, errors.Wrapf(err, "insert table %q", t.Name)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "table id")
	}

	s.logger.Debug("added table", "name", t.Name, "id", id)
	return id, nil
}

// UpsertColumns inserts or fully replaces the given columns of a table,
// matching by field name. Columns not in cols are left in place.
func (s *Store) UpsertColumns(ctx context.Context, tableID int64, cols []types.Column) error {
	for _, c := range cols {
		if c.FieldName == "" {
			continue
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO knx_doc_columns (
				table_id, field_name, description, data_type, is_key,
				is_calculated, referenced_table_id, display_on_export
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (table_id, field_name) DO UPDATE SET
				description = excluded.description,
				data_type = excluded.data_type,
				is_key = excluded.is_key,
				is_calculated = excluded.is_calculated,
				referenced_table_id = excluded.referenced_table_id,
				display_on_export = excluded.display_on_export`,
			tableID, c.FieldName, c.Description, c.DataType, c.IsKey,
			c.IsCalculated, c.ReferencedTableID, c.DisplayOnExport)
		if err != nil {
			return errors.Wrapf(err, "upsert column %q of table %d", c.FieldName, tableID)
		}
	}

	return nil
}

// SetColumnReference resolves a column's target table after ingestion has
// created every table.
func (s *Store) SetColumnReference(ctx context.Context, tableID int64, fieldName string, referencedTableID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE knx_doc_columns SET referenced_table_id = ?
		WHERE table_id = ? AND field_name = ?`,
		referencedTableID, tableID, fieldName)
	return errors.Wrapf(err, "set reference for column %q of table %d", fieldName, tableID)
}

// GetTableByName returns a table by name (case-insensitive), or nil when it
// does not exist.
func (s *Store) GetTableByName(ctx context.Context, name string) (*types.Table, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, calculated_fields_description, display_on_export
		FROM knx_doc_tables WHERE LOWER(name) = LOWER(?)`, name)

	t := types.Table{}
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CalculatedFieldsDescription, &t.DisplayOnExport)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get table %q", name)
	}

	return &t, nil
}

// ListTables returns every documented table ordered by name.
func (s *Store) ListTables(ctx context.Context) ([]types.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, calculated_fields_description, display_on_export
		FROM knx_doc_tables ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list tables")
	}
	defer rows.Close()

	tables := []types.Table{}
	for rows.Next() {
		t := types.Table{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CalculatedFieldsDescription, &t.DisplayOnExport); err != nil {
			return nil, errors.Wrap(err, "scan table")
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

// Columns returns a table's columns in repository order: calculated fields
// last, key fields first, then by field name. This order is what the
// expansion engine sees as child order.
func (s *Store) Columns(ctx context.Context, tableID int64) ([]types.Column, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_id, field_name, description, data_type, is_key,
		       is_calculated, referenced_table_id, display_on_export
		FROM knx_doc_columns
		WHERE table_id = ?
		ORDER BY is_calculated, is_key DESC, field_name`, tableID)
	if err != nil {
		return nil, errors.Wrapf(err, "list columns of table %d", tableID)
	}
	defer rows.Close()

	cols := []types.Column{}
	for rows.Next() {
		c := types.Column{}
		var refID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.TableID, &c.FieldName, &c.Description, &c.DataType,
			&c.IsKey, &c.IsCalculated, &refID, &c.DisplayOnExport); err != nil {
			return nil, errors.Wrap(err, "scan column")
		}
		if refID.Valid {
			value := refID.Int64
			c.ReferencedTableID = &value
		}
		cols = append(cols, c)
	}

	return cols, rows.Err()
}

// Snapshot preloads the whole documented schema into memory so traversal
// performs no I/O.
func (s *Store) Snapshot(ctx context.Context) (*schema.Snapshot, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	columns := make(map[int64][]types.Column, len(tables))
	for _, t := range tables {
		cols, err := s.Columns(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		columns[t.ID] = cols
	}

	return schema.NewSnapshot(tables, columns), nil
}

// ReplaceExpanded clears knx_doc_expanded and writes the given export rows
// with their display order preserved.
func (s *Store) ReplaceExpanded(ctx context.Context, rows []expand.ExportRow) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin expanded writeback")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM knx_doc_expanded`); err != nil {
		return 0, errors.Wrap(err, "clear expanded rows")
	}

	inserted := 0
	for i, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO knx_doc_expanded (
				id, table_id, table_name, field_name, description, data_type,
				is_key, is_calculated, is_extended, referenced_table_id, display_order
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.TableID, row.TableName, row.FieldName, row.Description,
			row.DataType, row.IsKey, row.IsCalculated, row.Extended,
			row.ReferencedTableID, i+1)
		if err != nil {
			return 0, errors.Wrapf(err, "insert expanded row %q", row.ID)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit expanded writeback")
	}

	s.logger.Info("replaced expanded rows", "count", inserted)
	return inserted, nil
}
