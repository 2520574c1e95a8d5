package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DachengChen/chatdb/cache"
	"github.com/DachengChen/chatdb/db"
)

func newSchemaCmd(a *app) *cobra.Command {
	var (
		dbURL   string
		schema  string
		asJSON  bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the tables and columns sent to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			url, err := a.cfg.Database.ResolveURL(dbURL)
			if err != nil {
				return err
			}

			conn := db.NewConnector(a.cfg.Database)
			defer conn.Close()

			schemaCache, err := cache.New(ctx, a.cfg.Redis)
			if err != nil {
				return err
			}
			defer schemaCache.Close()
			// The server caches "public" under the bare URL.
			key := url
			if schema != "public" {
				key = url + "#" + schema
			}
			if refresh {
				schemaCache.Invalidate(ctx, key)
			}

			s, cached, err := cache.Fetch(ctx, schemaCache, key, func(ctx context.Context) (db.Schema, error) {
				d, err := conn.Get(ctx, url)
				if err != nil {
					return nil, err
				}
				return d.FetchSchema(ctx, schema)
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			fmt.Fprintln(out, renderSchema(s))
			if cached {
				fmt.Fprintln(out, StyleDimmed.Render("(from cache)"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbURL, "db-url", "", "database URL (default DATABASE_URL)")
	cmd.Flags().StringVar(&schema, "schema", "public", "PostgreSQL schema to describe")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the schema as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore any cached copy")
	return cmd
}
