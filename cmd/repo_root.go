package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pathscout/pkg/logging"
	"pathscout/pkg/pathsafe"
	"pathscout/pkg/reporoot"
)

func newRootSearchCmd() *cobra.Command {
	var (
		markers        []string
		preset         string
		opts           reporoot.Options
		constraintRoot string
	)

	rootSearchCmd := &cobra.Command{
		Use:   "root [START]",
		Short: "Print the nearest ancestor of START containing a repository marker",
		Long: `Search START (default ".") and then its parent directories for the first
directory holding one of the given markers, stopping at the boundary directory.
Markers come from --marker, from a --preset, or default to the git preset.

Presets: ` + strings.Join(reporoot.PresetNames(), ", "),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := "."
			if len(args) == 1 {
				start = args[0]
			}

			list := append([]string(nil), markers...)
			if preset != "" {
				p, ok := reporoot.Preset(preset)
				if !ok {
					return fmt.Errorf("unknown preset %q (known: %s)", preset, strings.Join(reporoot.PresetNames(), ", "))
				}
				list = append(list, p...)
			}
			if len(list) == 0 {
				list, _ = reporoot.Preset("git")
			}

			if constraintRoot != "" {
				opts.Constraint = &pathsafe.Constraint{Root: constraintRoot}
			}
			opts.Logger = logging.Logger

			found, err := reporoot.FindRepositoryRoot(start, list, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), found)
			return err
		},
	}

	flags := rootSearchCmd.Flags()
	flags.StringSliceVarP(&markers, "marker", "m", nil, "File or directory name that marks a root (repeatable)")
	flags.StringVarP(&preset, "preset", "p", "", "Named marker set")
	flags.StringVarP(&opts.Boundary, "boundary", "b", "", "Outermost directory to examine (default: home or filesystem root)")
	flags.IntVarP(&opts.MaxDepth, "max-depth", "d", 0, fmt.Sprintf("Parent directories to examine (default %d)", reporoot.DefaultMaxDepth))
	flags.BoolVar(&opts.Outermost, "outermost", false, "Return the match closest to the filesystem root")
	flags.BoolVarP(&opts.FollowSymlinks, "follow-symlinks", "L", false, "Resolve symbolic links and detect loops")
	flags.StringVar(&constraintRoot, "constraint-root", "", "Stop the search once it leaves this directory")

	return rootSearchCmd
}
