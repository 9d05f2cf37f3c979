package cmd

import (
	"github.com/spf13/cobra"

	"pathscout/pkg/logging"
	"pathscout/pkg/version"
)

// NewRootCmd builds the pathscout command tree.
func NewRootCmd() *cobra.Command {
	var debug, quiet bool

	rootCmd := &cobra.Command{
		Use:   "pathscout",
		Short: "Pathscout discovers files by glob and locates repository roots",
		Long: `Pathscout walks a directory tree and reports the files matching include and
exclude globs, honoring .gitignore and .pathscoutignore files and refusing to
report anything that resolves outside the search root. It can also search
upward from a directory for the nearest repository marker.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.Setup(debug, quiet, "pathscout", version.Version)
			return err
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable development logging at debug level")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")

	rootCmd.AddCommand(newFindCmd())
	rootCmd.AddCommand(newRootSearchCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
