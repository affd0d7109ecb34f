package types

import (
	"strings"
)

// DataType is the coarse type family a column belongs to for value searching.
type DataType int

const (
	DataTypeOther DataType = iota
	DataTypeInteger
	DataTypeNumeric
	DataTypeChar
)

func (d DataType) String() string {
	switch d {
	case DataTypeInteger:
		return "integer"
	case DataTypeNumeric:
		return "numeric"
	case DataTypeChar:
		return "char"
	default:
		return "other"
	}
}

// UnboundedLength marks a character column without a declared limit,
// e.g. nvarchar(max) on SQL Server or TEXT on SQLite.
const UnboundedLength = -1

// ClassifyDataType maps a driver reported type name onto a DataType.
func ClassifyDataType(raw string) DataType {
	name := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.TrimSuffix(name, " unsigned")

	switch name {
	case "int", "integer", "bigint", "smallint", "tinyint", "mediumint":
		return DataTypeInteger
	case "numeric", "decimal":
		return DataTypeNumeric
	case "char", "varchar", "nchar", "nvarchar", "character", "character varying":
		return DataTypeChar
	default:
		return DataTypeOther
	}
}

type ColumnMeta struct {
	Table            string   `json:"table"`
	Name             string   `json:"name"`
	DataType         DataType `json:"data_type"`
	MaxCharLength    *int     `json:"max_char_length,omitempty"`
	NumericPrecision *int     `json:"numeric_precision,omitempty"`
}

// Row is a single result row with its column names in select order.
type Row struct {
	Columns []string `json:"columns"`
	Values  []any    `json:"values"`
}

type MatchResult struct {
	Database string   `json:"database"`
	Table    string   `json:"table"`
	Columns  []string `json:"columns"`
}
