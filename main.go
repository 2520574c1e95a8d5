// chatdb – natural-language questions over PostgreSQL through an LLM.
//
// Entry point: builds the Cobra command tree. With no subcommand the
// HTTP service starts.
package main

import (
	"os"

	"github.com/DachengChen/chatdb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
