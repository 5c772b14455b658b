package types

type DBMS string

const (
	Postgres DBMS = "postgres"
	Mysql    DBMS = "mysql"
)

type IngestOpts struct {
	DBMS DBMS

	ConnectionURI string
	DatabaseName  string
}

// SourceTable is one table read from a live database's information_schema.
type SourceTable struct {
	TableName string         `json:"table_name"`
	Columns   []SourceColumn `json:"columns"`
}

// SourceColumn carries the subset of column metadata the documentation store
// keeps. ReferencedTable is set when the column is a foreign key.
type SourceColumn struct {
	ColumnName      string `json:"column_name"`
	DataType        string `json:"data_type"`
	IsNullable      bool   `json:"is_nullable"`
	IsPrimaryKey    bool   `json:"is_primary_key"`
	ReferencedTable string `json:"referenced_table,omitempty"`
}
