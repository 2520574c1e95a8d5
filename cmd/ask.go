package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/ai"
	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/cache"
	"github.com/DachengChen/chatdb/chat"
	"github.com/DachengChen/chatdb/db"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		dbURL    string
		run      bool
		noSchema bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the model a question and show the classified reply",
		Long: `Ask sends one question to the configured model. When a database is
configured its schema is sent first so the model can write SQL against it.
With --run an admitted query is executed and the rows printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			log := applog.Named("ask")

			provider, err := ai.NewProvider(a.cfg.LLM)
			if err != nil {
				return err
			}
			svc := chat.NewService(provider)

			conn := db.NewConnector(a.cfg.Database)
			defer conn.Close()

			url, urlErr := a.cfg.Database.ResolveURL(dbURL)
			hasDB := urlErr == nil

			var history []ai.Message
			if hasDB && !noSchema {
				msg, err := a.schemaMessage(ctx, conn, url)
				if err != nil {
					return err
				}
				history = append(history, msg)
			}

			res, err := svc.Ask(ctx, history, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprintln(out, StyleDimmed.Render(provider.Name()))
			fmt.Fprint(out, renderOutcome(res.Outcome))
			if res.Admission != nil {
				fmt.Fprintln(out, renderVerdict(*res.Admission))
			}

			if !run || res.Admission == nil || !res.Admission.Allowed {
				return nil
			}
			if !hasDB {
				return urlErr
			}
			d, err := conn.Get(ctx, url)
			if err != nil {
				return err
			}
			rows, err := d.Query(ctx, res.Outcome.SQL)
			if err != nil {
				return err
			}
			log.Debug("query ran", zap.Int("rows", rows.RowCount))
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbURL, "db-url", "", "database URL (default DATABASE_URL)")
	cmd.Flags().BoolVar(&run, "run", false, "execute the generated SQL when admitted")
	cmd.Flags().BoolVar(&noSchema, "no-schema", false, "do not send the database schema")
	return cmd
}

// schemaMessage fetches the schema, through the cache when one is set,
// and wraps it as a conversation message.
func (a *app) schemaMessage(ctx context.Context, conn *db.Connector, url string) (ai.Message, error) {
	schemaCache, err := cache.New(ctx, a.cfg.Redis)
	if err != nil {
		return ai.Message{}, err
	}
	defer schemaCache.Close()

	schema, _, err := cache.Fetch(ctx, schemaCache, url, func(ctx context.Context) (db.Schema, error) {
		d, err := conn.Get(ctx, url)
		if err != nil {
			return nil, err
		}
		return d.FetchSchema(ctx, "public")
	})
	if err != nil {
		return ai.Message{}, err
	}

	b, err := json.Marshal(schema)
	if err != nil {
		return ai.Message{}, fmt.Errorf("encode schema: %w", err)
	}
	return ai.SchemaMessage(string(b)), nil
}
