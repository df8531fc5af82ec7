package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showMetadata bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the package version extracted from the version header",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if showMetadata {
			fmt.Fprint(out, dist.Metadata.CoreMetadata())
			return
		}
		fmt.Fprintln(out, dist.Metadata.Version)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&showMetadata, "metadata", false, "print the full package metadata")
}
