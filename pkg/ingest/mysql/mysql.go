package mysql

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	ingesttypes "github.com/knxdoc-io/knxdoc-exporter/pkg/ingest/types"
)

func GetMysqlConnection(uri string) (*sql.DB, error) {
	db, err := sql.Open("mysql", uri)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %v", err)
	}

	return db, nil
}

// ListTables reads table and column metadata for dbName from
// INFORMATION_SCHEMA, including primary key membership and foreign key
// targets.
func ListTables(uri string, dbName string) ([]ingesttypes.SourceTable, error) {
	db, err := GetMysqlConnection(uri)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT
c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE, c.COLUMN_KEY
FROM INFORMATION_SCHEMA.COLUMNS c
INNER JOIN INFORMATION_SCHEMA.TABLES t ON t.TABLE_NAME = c.TABLE_NAME AND t.TABLE_SCHEMA = c.TABLE_SCHEMA
WHERE c.TABLE_SCHEMA = ?
ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`, dbName)
	if err != nil {
		return nil, fmt.Errorf("query schema: %v", err)
	}
	defer rows.Close()

	tables := []ingesttypes.SourceTable{}
	for rows.Next() {
		column := ingesttypes.SourceColumn{}

		tableName := ""
		isNullable := ""
		columnKey := ""
		if err := rows.Scan(&tableName, &column.ColumnName, &column.DataType, &isNullable, &columnKey); err != nil {
			return nil, fmt.Errorf("scan: %v", err)
		}

		if isNullable == "YES" {
			column.IsNullable = true
		}
		if columnKey == "PRI" {
			column.IsPrimaryKey = true
		}

		found := false
		for i, table := range tables {
			if table.TableName == tableName {
				tables[i].Columns = append(table.Columns, column)
				found = true
				break
			}
		}

		if !found {
			tables = append(tables, ingesttypes.SourceTable{
				TableName: tableName,
				Columns:   []ingesttypes.SourceColumn{column},
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema: %v", err)
	}

	foreignKeys, err := listForeignKeys(db, dbName)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %v", err)
	}

	for i, table := range tables {
		for j, column := range table.Columns {
			if target, ok := foreignKeys[table.TableName+"."+column.ColumnName]; ok {
				tables[i].Columns[j].ReferencedTable = target
			}
		}
	}

	return tables, nil
}

func listForeignKeys(db *sql.DB, dbName string) (map[string]string, error) {
	rows, err := db.Query(`SELECT TABLE_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME
FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL
ORDER BY TABLE_NAME, ORDINAL_POSITION`, dbName)
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
