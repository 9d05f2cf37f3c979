// Package finder discovers files under a root directory by glob patterns,
// honoring hierarchical ignore files, optional symlink following, and path
// constraints. Results are produced lazily by Find; Collect drains the same
// producer into a slice.
package finder

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"pathscout/pkg/fserrors"
	"pathscout/pkg/pathsafe"
)

// MatchAll is the include pattern used when a query names none.
const MatchAll = "**/*"

// Finder runs discovery queries with one Config. It holds no per-call state
// and is safe for concurrent use.
type Finder struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Finder. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Loader == "" {
		cfg.Loader = DefaultLoader
	}
	return &Finder{cfg: cfg, logger: logger}
}

// Config returns the Finder's configuration.
func (f *Finder) Config() Config {
	return f.cfg
}

// Find returns a lazy sequence of results. A non-nil error is always the last
// element; results yielded before it remain valid. Stopping the range loop
// stops the traversal. sink may be nil, in which case every recoverable error
// is fatal.
func (f *Finder) Find(q Query, sink Sink) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		nq, err := f.normalize(q)
		if err != nil {
			f.logger.Error("Rejected discovery query", zap.String("root", q.Root), zap.Error(err))
			yield(Result{}, err)
			return
		}

		w := newWalker(f, nq, sink, yield)
		if err := w.run(); err != nil && !errors.Is(err, errStopped) {
			yield(Result{}, err)
		}
	}
}

// Collect runs Find to completion and returns the results in traversal order.
// On error it returns the results produced before the failure.
func (f *Finder) Collect(q Query, sink Sink) ([]Result, error) {
	var results []Result
	for r, err := range f.Find(q, sink) {
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// normalizedQuery is a Query with defaults applied and its root resolved.
type normalizedQuery struct {
	Query
	root        string // Absolute root as given.
	realRoot    string // Root with symlinks resolved.
	honorIgnore bool
	constraint  *pathsafe.Constraint // Root resolved; nil when unconstrained.
}

func (f *Finder) normalize(q Query) (*normalizedQuery, error) {
	if strings.TrimSpace(q.Root) == "" {
		return nil, fserrors.New(fserrors.CodeInvalidConfig, "query root is required")
	}
	if q.MaxDepth < 0 {
		return nil, fserrors.New(fserrors.CodeInvalidConfig, "maxDepth must not be negative").
			WithContext("maxDepth", q.MaxDepth)
	}
	if f.cfg.Validator != nil {
		if diags := f.cfg.Validator.ValidateQuery(q); len(diags) > 0 {
			return nil, fserrors.New(fserrors.CodeValidationFailed, diags[0].Pointer+": "+diags[0].Message).
				WithContext("diagnostics", diags)
		}
	}

	nq := &normalizedQuery{Query: q}
	nq.Include = normalizePatterns(q.Include)
	if len(nq.Include) == 0 {
		nq.Include = []string{MatchAll}
	}
	nq.Exclude = normalizePatterns(q.Exclude)
	for _, p := range append(append([]string{}, nq.Include...), nq.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fserrors.New(fserrors.CodeInvalidConfig, fmt.Sprintf("invalid glob pattern %q", p))
		}
	}

	abs, err := filepath.Abs(q.Root)
	if err != nil {
		return nil, fserrors.Wrap(fserrors.CodeInvalidRoot, err, "cannot resolve root").WithPath(q.Root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fserrors.Wrap(fserrors.CodeInvalidRoot, err, "root is not accessible").WithPath(abs)
	}
	if !info.IsDir() {
		return nil, fserrors.New(fserrors.CodeInvalidRoot, "root is not a directory").WithPath(abs)
	}
	realRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fserrors.Wrap(fserrors.CodeTraversalFailed, err, "cannot resolve real path of root").WithPath(abs)
	}
	nq.root = abs
	nq.realRoot = realRoot

	nq.honorIgnore = f.cfg.HonorIgnoreFiles
	if q.HonorIgnoreFiles != nil {
		nq.honorIgnore = *q.HonorIgnoreFiles
	}

	if c := f.cfg.Constraint; c != nil && c.Root != "" {
		resolved := *c
		resolved.Root = resolveRealPath(c.Root)
		if err := pathsafe.ValidateRoot(&resolved, realRoot); err != nil {
			return nil, err
		}
		nq.constraint = &resolved
	}
	return nq, nil
}

// resolveRealPath makes p absolute and collapses symlinks where it exists.
func resolveRealPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

func normalizePatterns(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		p = strings.TrimPrefix(p, "./")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
