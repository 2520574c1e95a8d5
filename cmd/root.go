// Package cmd contains all Cobra commands for chatdb.
//
// Running `chatdb` with no subcommand starts the HTTP service. The other
// subcommands drive the same pipeline from a terminal: ask the model,
// parse a saved reply, check a statement against the gate, dump a schema.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/config"
)

// app carries state shared by subcommands after the root pre-run.
type app struct {
	cfgFile string
	verbose bool
	cfg     config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "chatdb",
		Short: "Natural-language questions over PostgreSQL, mediated by an LLM",
		Long: `chatdb turns questions into read-only SQL through an OpenAI-compatible model:
  • HTTP service with /chat, /schema and /sql
  • Reply classification (text, SQL, chart JSON)
  • Keyword gate that only admits read-only statements
  • Optional SSH tunnel and Redis schema cache

Run 'chatdb' to start the service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Log.Level = "debug"
			}
			if _, err := applog.Init(cfg.Log); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			applog.Sync()
		},
		// Running with no subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $HOME/.chatdb/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(a),
		newAskCmd(a),
		newParseCmd(),
		newAdmitCmd(),
		newSchemaCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
