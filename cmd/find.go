package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pathscout/pkg/finder"
	"pathscout/pkg/logging"
	"pathscout/pkg/metadata"
	"pathscout/pkg/pathsafe"
	"pathscout/pkg/render"
	"pathscout/pkg/schema"
)

type findOptions struct {
	include        []string
	exclude        []string
	maxDepth       int
	followSymlinks bool
	hidden         bool
	noIgnore       bool
	logicalRoot    string
	configPath     string
	constraintRoot string
	constraintType string
	enforcement    string
	loader         string
	strict         bool
	checksum       string
	binary         bool
	json           bool
	tree           bool
}

func newFindCmd() *cobra.Command {
	opts := &findOptions{}

	findCmd := &cobra.Command{
		Use:   "find [ROOT]",
		Short: "List files under ROOT matching include and exclude globs",
		Long: `List the files under ROOT (default ".") whose slash-separated relative path
matches an include glob and no exclude glob. Hidden entries, ignored entries and
symbolic links are skipped unless asked for. Results are printed in traversal
order, as JSON, or as a tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runFind(cmd, root, opts)
		},
	}

	flags := findCmd.Flags()
	flags.StringSliceVarP(&opts.include, "include", "i", nil, "Glob of files to report (repeatable, default **/*)")
	flags.StringSliceVarP(&opts.exclude, "exclude", "e", nil, "Glob of files or directories to leave out (repeatable)")
	flags.IntVarP(&opts.maxDepth, "max-depth", "d", 0, "Maximum path segments below ROOT; 0 is unlimited")
	flags.BoolVarP(&opts.followSymlinks, "follow-symlinks", "L", false, "Report and descend through symbolic links")
	flags.BoolVarP(&opts.hidden, "hidden", "H", false, "Include dot-files and dot-directories")
	flags.BoolVar(&opts.noIgnore, "no-ignore", false, "Do not read .gitignore or .pathscoutignore files")
	flags.StringVar(&opts.logicalRoot, "logical-root", "", "Prefix reported as each result's logical path")
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML file with finder defaults")
	flags.StringVar(&opts.constraintRoot, "constraint-root", "", "Directory results must resolve inside")
	flags.StringVar(&opts.constraintType, "constraint-type", "", "Classification recorded with constraint violations")
	flags.StringVar(&opts.enforcement, "enforcement", "", "Constraint enforcement: strict, warn or permissive")
	flags.StringVar(&opts.loader, "loader", "", "Loader tag attached to every result")
	flags.BoolVar(&opts.strict, "strict", false, "Fail on the first recoverable error instead of skipping")
	flags.StringVar(&opts.checksum, "checksum", "", "Attach a checksum ("+strings.Join(metadata.Algorithms(), ", ")+")")
	flags.BoolVar(&opts.binary, "binary", false, "Attach binary detection to each result")
	flags.BoolVar(&opts.json, "json", false, "Print results as JSON")
	flags.BoolVar(&opts.tree, "tree", false, "Print results as a directory tree")
	findCmd.MarkFlagsMutuallyExclusive("json", "tree")

	return findCmd
}

func (o *findOptions) config() (finder.Config, error) {
	cfg := finder.DefaultConfig()
	if o.configPath != "" {
		loaded, err := finder.LoadConfig(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if o.constraintRoot != "" {
		cfg.Constraint = &pathsafe.Constraint{Root: o.constraintRoot, Enforcement: pathsafe.Strict}
	}
	if cfg.Constraint != nil {
		if o.constraintType != "" {
			cfg.Constraint.Type = o.constraintType
		}
		if o.enforcement != "" {
			level, err := pathsafe.ParseEnforcement(o.enforcement)
			if err != nil {
				return cfg, err
			}
			cfg.Constraint.Enforcement = level
		}
	} else if o.enforcement != "" {
		return cfg, fmt.Errorf("--enforcement requires a constraint root")
	}
	if o.loader != "" {
		cfg.Loader = o.loader
	}
	cfg.Validator = schema.New()

	if report := schema.CheckConfig(cfg); !report.Valid {
		msgs := make([]string, 0, len(report.Diagnostics))
		for _, d := range report.Diagnostics {
			msgs = append(msgs, d.Pointer+": "+d.Message)
		}
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return cfg, nil
}

func (o *findOptions) query(root string) finder.Query {
	q := finder.Query{
		Root:           root,
		Include:        o.include,
		Exclude:        o.exclude,
		MaxDepth:       o.maxDepth,
		FollowSymlinks: o.followSymlinks,
		IncludeHidden:  o.hidden,
		LogicalRoot:    o.logicalRoot,
	}
	if o.noIgnore {
		q.HonorIgnoreFiles = finder.BoolPtr(false)
	}
	return q
}

func runFind(cmd *cobra.Command, root string, opts *findOptions) error {
	logger := logging.Logger

	cfg, err := opts.config()
	if err != nil {
		return err
	}

	collected := &finder.CollectingSink{}
	var sink finder.Sink = finder.Tee(finder.LogSink{Logger: logger}, collected)
	if opts.strict {
		// An unhandled recoverable error ends the traversal.
		sink = finder.SinkFuncs{}
	}

	results, err := finder.New(cfg, logger).Collect(opts.query(root), sink)
	if err != nil {
		return err
	}

	warn := newColor(cmd.ErrOrStderr(), color.FgYellow)
	for _, e := range collected.Errors() {
		warn.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
	}

	if opts.checksum != "" || opts.binary {
		err := metadata.AttachAll(results, metadata.Options{
			Checksum:     opts.checksum,
			DetectBinary: opts.binary,
			Logger:       logger,
		}, cfg.Workers)
		if err != nil {
			warn.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	logger.Debug("Find completed",
		zap.String("root", root),
		zap.Int("results", len(results)),
		zap.Int("skipped", len(collected.Errors())))

	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if results == nil {
			results = []finder.Result{}
		}
		return enc.Encode(results)
	case opts.tree:
		label := opts.logicalRoot
		if label == "" {
			if abs, err := filepath.Abs(root); err == nil {
				label = filepath.ToSlash(abs)
			} else {
				label = root
			}
		}
		paths := make([]string, len(results))
		for i, r := range results {
			paths[i] = r.RelativePath
		}
		_, err := fmt.Fprint(out, render.Tree(label, paths))
		return err
	default:
		for _, r := range results {
			p := r.RelativePath
			if r.LogicalPath != "" {
				p = r.LogicalPath
			}
			if _, err := fmt.Fprintln(out, p); err != nil {
				return err
			}
		}
		return nil
	}
}
