package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/internal/stack"
	"github.com/stackgen/stackgen/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stackgen %s\n", version.Get())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "built-in plugins v%s\n", stack.Version)
			return nil
		},
	}
}
