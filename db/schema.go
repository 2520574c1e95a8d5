// schema.go fetches table and column information for priming the model.
//
// The output mirrors what a client sends as "schema information": a map
// from table name to its columns, each with name and data type.
package db

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Column describes a single column in a table.
type Column struct {
	Name     string `json:"column_name"`
	DataType string `json:"data_type"`
}

// Schema maps table name to columns in ordinal order.
type Schema map[string][]Column

// Tables returns the table names in sorted order.
func (s Schema) Tables() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const tablesQuery = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = $1 AND table_type IN ('BASE TABLE', 'VIEW')
	ORDER BY table_name`

const columnsQuery = `
	SELECT column_name, data_type
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`

// maxSchemaWorkers bounds concurrent column lookups.
const maxSchemaWorkers = 4

// FetchSchema lists the tables of a schema ("public" when empty) and
// their columns. Column lookups run concurrently.
func (d *DB) FetchSchema(ctx context.Context, schema string) (Schema, error) {
	if schema == "" {
		schema = "public"
	}

	tables, err := d.listTables(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	cols := make([][]Column, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSchemaWorkers)
	for i, table := range tables {
		i, table := i, table
		g.Go(func() error {
			c, err := d.describeTable(gctx, schema, table)
			if err != nil {
				return fmt.Errorf("describe %s: %w", table, err)
			}
			cols[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Schema, len(tables))
	for i, table := range tables {
		out[table] = cols[i]
	}
	return out, nil
}

func (d *DB) listTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := d.Pool.Query(ctx, tablesQuery, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (d *DB) describeTable(ctx context.Context, schema, table string) ([]Column, error) {
	rows, err := d.Pool.Query(ctx, columnsQuery, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := []Column{}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
