package store

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"github.com/agentstation/surveysync/pkg/errors"
)

// RawConditionPrefix marks a condition value that is inlined verbatim after
// the column name, e.g. "SQL:IS NOT NULL" or "SQL:> SYSDATE - 7".
const RawConditionPrefix = "SQL:"

// Row is one extracted record with every value rendered as a string.
// NULL becomes "".
type Row map[string]string

// Extractor reads respondent data from source tables.
type Extractor struct {
	db *DB
}

// NewExtractor creates an extractor on db.
func NewExtractor(db *DB) *Extractor {
	return &Extractor{db: db}
}

// FetchRows returns every row of table.
func (e *Extractor) FetchRows(ctx context.Context, table string) ([]Row, error) {
	if err := ValidateIdentifier("table", table); err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, errors.WrapResource("query", "table", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.WrapResource("query", "table", table, err)
	}

	var out []Row
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.WrapResource("scan", "table", table, err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("query", "table", table, err)
	}
	return out, nil
}

// FetchColumn returns every value of one column.
func (e *Extractor) FetchColumn(ctx context.Context, table, column string) ([]string, error) {
	return e.FetchColumnWhere(ctx, table, column, nil)
}

// FetchColumnWhere returns the values of one column on rows matching all
// conditions. Plain values are compared for equality and bound as
// parameters; values with RawConditionPrefix are inlined.
func (e *Extractor) FetchColumnWhere(ctx context.Context, table, column string, conditions map[string]string) ([]string, error) {
	if err := ValidateIdentifier("table", table); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier("column", column); err != nil {
		return nil, err
	}

	b := e.db.binder()
	query := "SELECT " + column + " FROM " + table
	if len(conditions) > 0 {
		keys := make([]string, 0, len(conditions))
		for k := range conditions {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		clauses := make([]string, 0, len(keys))
		for _, col := range keys {
			if err := ValidateIdentifier("column", col); err != nil {
				return nil, err
			}
			value := conditions[col]
			if raw, ok := strings.CutPrefix(value, RawConditionPrefix); ok {
				clauses = append(clauses, col+" "+strings.TrimSpace(raw))
				continue
			}
			clauses = append(clauses, col+" = "+b.bind(value))
		}
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := e.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, errors.WrapResource("query", "table", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, errors.WrapResource("scan", "table", table, err)
		}
		out = append(out, v.String)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("query", "table", table, err)
	}
	return out, nil
}
