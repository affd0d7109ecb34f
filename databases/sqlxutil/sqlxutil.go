// Package sqlxutil holds the row handling shared by the sqlx based connectors.
package sqlxutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/melkeydev/value-finder/types"
)

// RawColumn is one information_schema style column record.
type RawColumn struct {
	DataType         string
	Name             string
	MaxCharLength    sql.NullInt64
	NumericPrecision sql.NullInt64
	Table            string
}

// Meta classifies the raw record.
func (r RawColumn) Meta() types.ColumnMeta {
	meta := types.ColumnMeta{
		Table:    r.Table,
		Name:     r.Name,
		DataType: types.ClassifyDataType(r.DataType),
	}
	if r.MaxCharLength.Valid {
		n := int(r.MaxCharLength.Int64)
		meta.MaxCharLength = &n
	}
	if r.NumericPrecision.Valid {
		n := int(r.NumericPrecision.Int64)
		meta.NumericPrecision = &n
	}
	return meta
}

// ScanColumns runs a catalog query whose columns are, in order: data type,
// column name, max character length, numeric precision, table name.
func ScanColumns(ctx context.Context, db *sqlx.DB, query string, args ...any) ([]RawColumn, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []RawColumn
	for rows.Next() {
		var c RawColumn
		if err := rows.Scan(&c.DataType, &c.Name, &c.MaxCharLength, &c.NumericPrecision, &c.Table); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	return columns, nil
}

// LoadColumns is ScanColumns followed by classification.
func LoadColumns(ctx context.Context, db *sqlx.DB, query string, args ...any) ([]types.ColumnMeta, error) {
	raw, err := ScanColumns(ctx, db, query, args...)
	if err != nil {
		return nil, err
	}

	columns := make([]types.ColumnMeta, 0, len(raw))
	for _, r := range raw {
		columns = append(columns, r.Meta())
	}
	return columns, nil
}

// Names runs a single column query and returns the values.
func Names(ctx context.Context, db *sqlx.DB, query string, args ...any) ([]string, error) {
	var names []string
	if err := db.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("unable to query db: %w", err)
	}
	return names, nil
}

// Query executes sqlQuery inside a transaction started with opts and returns
// every row with its column order preserved.
func Query(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, sqlQuery string) ([]types.Row, error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("BeginTx failed with error: %w", err)
	}
	defer tx.Commit()

	rows, err := tx.QueryxContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to query db: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("unable to read columns: %w", err)
	}

	var results []types.Row
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("unable to scan row: %w", err)
		}
		results = append(results, types.Row{
			Columns: columns,
			Values:  values,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read rows: %w", err)
	}

	return results, nil
}

// ReadOnly is the transaction mode used by drivers that support it.
var ReadOnly = &sql.TxOptions{ReadOnly: true}

// Exclude drops every name present in deny.
func Exclude(names []string, deny []string) []string {
	blocked := make(map[string]struct{}, len(deny))
	for _, d := range deny {
		blocked[d] = struct{}{}
	}

	kept := names[:0:0]
	for _, n := range names {
		if _, ok := blocked[n]; ok {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}
