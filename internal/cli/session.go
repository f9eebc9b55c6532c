package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSessionCommand creates the session command.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the effective session",
		Long: `Print the external id prefix, source and source URI that built entities
will carry, after applying the config file, CTIM_* variables and flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			s := rootOpts.session()
			if formatter.Format == "json" {
				return formatter.Success(s)
			}
			fmt.Fprintf(formatter.Writer, "%s %s\n", headerStyle.Render("external_id_prefix:"), s.ExternalIDPrefix)
			fmt.Fprintf(formatter.Writer, "%s %s\n", headerStyle.Render("source:"), s.Source)
			fmt.Fprintf(formatter.Writer, "%s %s\n", headerStyle.Render("source_uri:"), s.SourceURI)
			return nil
		},
	}
}
