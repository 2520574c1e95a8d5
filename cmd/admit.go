package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DachengChen/chatdb/sqlgate"
)

var errRejected = errors.New("statement rejected")

func newAdmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admit <sql...>",
		Short: "Check a statement against the read-only gate",
		Long:  `Admit prints whether a statement would be allowed to run. It exits non-zero on rejection.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := sqlgate.Admit(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), renderVerdict(v))
			if !v.Allowed {
				return errRejected
			}
			return nil
		},
	}
}
