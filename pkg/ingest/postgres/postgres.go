package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	ingesttypes "github.com/knxdoc-io/knxdoc-exporter/pkg/ingest/types"
)

func GetPostgresConnection(ctx context.Context, uri string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %v", err)
	}

	return conn, nil
}

// ListTables reads table and column metadata for the public schema of
// dbName, including primary key membership and foreign key targets.
func ListTables(ctx context.Context, uri string, dbName string) ([]ingesttypes.SourceTable, error) {
	conn, err := GetPostgresConnection(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, `select table_name from information_schema.tables where table_catalog = $1 and table_schema = $2 order by table_name`, dbName, "public")
	if err != nil {
		return nil, fmt.Errorf("query schema: %v", err)
	}

	tableNames := []string{}
	for rows.Next() {
		tableName := ""
		if err := rows.Scan(&tableName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan: %v", err)
		}
		tableNames = append(tableNames, tableName)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %v", err)
	}

	primaryKeys, err := listPrimaryKeys(ctx, conn, dbName)
	if err != nil {
		return nil, fmt.Errorf("list primary keys: %v", err)
	}

	foreignKeys, err := listForeignKeys(ctx, conn, dbName)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %v", err)
	}

	tables := []ingesttypes.SourceTable{}
	for _, tableName := range tableNames {
		columns, err := listColumns(ctx, conn, dbName, tableName)
		if err != nil {
			return nil, err
		}

		for i, column := range columns {
			key := tableName + "." + column.ColumnName
			for _, pk := range primaryKeys[tableName] {
				if pk == column.ColumnName {
					columns[i].IsPrimaryKey = true
				}
			}
			if target, ok := foreignKeys[key]; ok {
				columns[i].ReferencedTable = target
			}
		}

		tables = append(tables, ingesttypes.SourceTable{
			TableName: tableName,
			Columns:   columns,
		})
	}

	return tables, nil
}

func listColumns(ctx context.Context, conn *pgx.Conn, dbName string, tableName string) ([]ingesttypes.SourceColumn, error) {
	rows, err := conn.Query(ctx, `select column_name, data_type, character_maximum_length, is_nullable from information_schema.columns where table_name = $1 and table_catalog = $2 order by ordinal_position`, tableName, dbName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %v", err)
	}
	defer rows.Close()

	columns := []ingesttypes.SourceColumn{}
	for rows.Next() {
		column := ingesttypes.SourceColumn{}

		var maxLength *int64
		isNullable := ""
		if err := rows.Scan(&column.ColumnName, &column.DataType, &maxLength, &isNullable); err != nil {
			return nil, fmt.Errorf("scan: %v", err)
		}

		if isNullable != "NO" {
			column.IsNullable = true
		}
		if maxLength != nil {
			column.DataType = fmt.Sprintf("%s (%d)", column.DataType, *maxLength)
		}

		columns = append(columns, column)
	}

	return columns, rows.Err()
}

func listPrimaryKeys(ctx context.Context, conn *pgx.Conn, dbName string) (map[string][]string, error) {
	rows, err := conn.Query(ctx, `select tc.table_name, kcu.column_name
from information_schema.table_constraints tc
join information_schema.key_column_usage kcu
  on tc.constraint_name = kcu.constraint_name and tc.table_schema = kcu.table_schema
where tc.constraint_type = 'PRIMARY KEY' and tc.table_catalog = $1
order by tc.table_name, kcu.ordinal_position`, dbName)
	if err != nil {
		return nil, fmt.Errorf("query primary keys: %v", err)
	}
	defer rows.Close()

	primaryKeys := map[string][]string{}
	for rows.Next() {
		tableName := ""
		columnName := ""
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return nil, fmt.Errorf("scan: %v", err)
		}

		primaryKeys[tableName] = append(primaryKeys[tableName], columnName)
	}

	return primaryKeys, rows.Err()
}

func listForeignKeys(ctx context.Context, conn *pgx.Conn, dbName string) (map[string]string, error) {
	rows, err := conn.Query(ctx, `select tc.table_name, kcu.column_name, ccu.table_name as referenced_table
from information_schema.table_constraints tc
join information_schema.key_column_usage kcu
  on tc.constraint_name = kcu.constraint_name and tc.table_schema = kcu.table_schema
join information_schema.constraint_column_usage ccu
  on tc.constraint_name = ccu.constraint_name and tc.table_schema = ccu.table_schema
where tc.constraint_type = 'FOREIGN KEY' and tc.table_catalog = $1`, dbName)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %v", err)
	}
	defer rows.Close()

	foreignKeys := map[string]string{}
	for rows.Next() {
		tableName := ""
		columnName := ""
		referencedTable := ""
		if err := rows.Scan(&tableName, &columnName, &referencedTable); err != nil {
			return nil, fmt.Errorf("scan: %v", err)
		}

		foreignKeys[tableName+"."+columnName] = referencedTable
	}

	return foreignKeys, rows.Err()
}
