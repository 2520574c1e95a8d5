// query.go runs admitted SQL and collects JSON-ready results.
//
// Every query passes the admission gate first and then runs inside a
// read-only transaction that is always rolled back.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/sqlgate"
)

// ErrEmptyQuery is returned for blank SQL.
var ErrEmptyQuery = errors.New("empty query")

// QueryResult holds the output of one query. Each row maps column name
// to value.
type QueryResult struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"rowCount"`
	Truncated bool             `json:"truncated"`
}

// Query admits sql and runs it read-only. A rejected query returns a
// *sqlgate.RejectedError and never reaches the database.
func (d *DB) Query(ctx context.Context, sql string) (*QueryResult, error) {
	if err := sqlgate.Check(sql); err != nil {
		return nil, err
	}
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil, ErrEmptyQuery
	}

	if d.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	tx, err := d.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	res, err := collectRows(rows, d.cfg.MaxRows)
	if err != nil {
		return nil, err
	}

	d.log.Debug("query",
		zap.Int("rows", res.RowCount),
		zap.Bool("truncated", res.Truncated),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

// collectRows reads up to maxRows rows (no cap when maxRows <= 0) and
// closes rows.
func collectRows(rows pgx.Rows, maxRows int) (*QueryResult, error) {
	defer rows.Close()

	res := &QueryResult{Columns: []string{}, Rows: []map[string]any{}}
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}

	for rows.Next() {
		if maxRows > 0 && res.RowCount >= maxRows {
			res.Truncated = true
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, rowMap(res.Columns, vals))
		res.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// rowMap pairs values with column names. A repeated column name keeps
// the last value, as a JSON object would.
func rowMap(cols []string, vals []any) map[string]any {
	m := make(map[string]any, len(cols))
	for i, col := range cols {
		if i < len(vals) {
			m[col] = normalizeValue(vals[i])
		}
	}
	return m
}

// normalizeValue converts pgx values that do not encode well as JSON.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case [16]byte:
		return uuid.UUID(x).String()
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return fmt.Sprintf("\\x%x", x)
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		if f, err := x.Float64Value(); err == nil && f.Valid {
			return f.Float64
		}
		return x
	case time.Time:
		return x
	case time.Duration:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}
