package finder

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"pathscout/pkg/fserrors"
	"pathscout/pkg/ignore"
	"pathscout/pkg/pathsafe"
)

// errStopped unwinds the walk when the consumer stops pulling results.
var errStopped = errors.New("traversal stopped by consumer")

// walker carries the state of one Find call.
type walker struct {
	q        *normalizedQuery
	loader   string
	sink     Sink
	yield    func(Result, error) bool
	resolver *ignore.Resolver
	logger   *zap.Logger
	progress Progress
}

func newWalker(f *Finder, q *normalizedQuery, sink Sink, yield func(Result, error) bool) *walker {
	w := &walker{
		q:      q,
		loader: f.cfg.Loader,
		sink:   sink,
		yield:  yield,
		logger: f.logger.With(zap.String("root", q.root)),
	}
	if q.honorIgnore {
		w.resolver = ignore.NewResolver(q.root, w.logger)
	}
	return w
}

func (w *walker) run() error {
	start := time.Now()
	w.logger.Info("Starting discovery",
		zap.Strings("include", w.q.Include),
		zap.Strings("exclude", w.q.Exclude),
		zap.Int("maxDepth", w.q.MaxDepth),
		zap.Bool("followSymlinks", w.q.FollowSymlinks),
		zap.Bool("honorIgnoreFiles", w.q.honorIgnore))

	active := map[string]bool{w.q.realRoot: true}
	err := w.walkDir(w.q.root, w.q.realRoot, "", active)

	w.logger.Info("Discovery finished",
		zap.Int("visited", w.progress.Visited),
		zap.Int("matched", w.progress.Matched),
		zap.Int("skipped", w.progress.Skipped),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("stopped", errors.Is(err, errStopped)))
	return err
}

// walkDir enumerates one directory in name order. realDir is its path with
// symlinks resolved; active holds the real paths of the directories being
// descended, which breaks symlink cycles.
func (w *walker) walkDir(absDir, realDir, relDir string, active map[string]bool) error {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return w.recoverable(fserrors.Wrap(fserrors.CodeTraversalFailed, err, "failed to read directory").WithPath(absDir))
	}

	for _, entry := range entries {
		name := entry.Name()
		if !w.q.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		absPath := filepath.Join(absDir, name)
		relPath := name
		if relDir != "" {
			relPath = relDir + "/" + name
		}

		isLink := entry.Type()&fs.ModeSymlink != 0
		isDir := entry.IsDir()
		if isLink {
			if !w.q.FollowSymlinks {
				w.logger.Debug("Skipping symlink", zap.String("path", relPath))
				continue
			}
			info, err := os.Stat(absPath)
			if err != nil {
				if err := w.recoverable(fserrors.Wrap(fserrors.CodeTraversalFailed, err, "failed to resolve symlink").WithPath(absPath)); err != nil {
					return err
				}
				continue
			}
			isDir = info.IsDir()
		}

		if isDir {
			err = w.enterDir(absPath, filepath.Join(realDir, name), relPath, isLink, active)
		} else {
			err = w.visitFile(entry, absPath, filepath.Join(realDir, name), relPath, isLink)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) enterDir(absPath, realPath, relPath string, isLink bool, active map[string]bool) error {
	if w.q.MaxDepth > 0 && depth(relPath) >= w.q.MaxDepth {
		w.logger.Debug("Depth limit reached", zap.String("directory", relPath))
		return nil
	}
	if matchAny(w.q.Exclude, relPath) {
		w.logger.Debug("Skipping excluded directory", zap.String("directory", relPath))
		return nil
	}

	if isLink {
		resolved, err := filepath.EvalSymlinks(absPath)
		if err != nil {
			return w.recoverable(fserrors.Wrap(fserrors.CodeTraversalFailed, err, "failed to resolve symlink").WithPath(absPath))
		}
		if !pathsafe.IsWithinRoot(resolved, w.q.realRoot) {
			return w.escape(absPath, resolved)
		}
		realPath = resolved
	}
	if active[realPath] {
		w.logger.Debug("Skipping symlink cycle", zap.String("directory", relPath), zap.String("realPath", realPath))
		return nil
	}

	active[realPath] = true
	defer delete(active, realPath)
	return w.walkDir(absPath, realPath, relPath, active)
}

func (w *walker) visitFile(entry fs.DirEntry, absPath, realPath, relPath string, isLink bool) error {
	if w.q.MaxDepth > 0 && depth(relPath) > w.q.MaxDepth {
		return nil
	}
	if ignore.IsIgnoreFile(entry.Name()) {
		return nil
	}
	if !matchAny(w.q.Include, relPath) || matchAny(w.q.Exclude, relPath) {
		return nil
	}
	w.progress.Visited++

	var info fs.FileInfo
	var err error
	if isLink {
		info, err = os.Stat(absPath)
	} else {
		info, err = entry.Info()
	}
	if err != nil {
		return w.recoverable(fserrors.Wrap(fserrors.CodeTraversalFailed, err, "failed to stat file").WithPath(absPath))
	}
	if info.IsDir() {
		return nil
	}

	if isLink {
		resolved, err := filepath.EvalSymlinks(absPath)
		if err != nil {
			return w.recoverable(fserrors.Wrap(fserrors.CodeTraversalFailed, err, "failed to resolve symlink").WithPath(absPath))
		}
		realPath = resolved
	}
	if !pathsafe.IsWithinRoot(realPath, w.q.realRoot) {
		return w.escape(absPath, realPath)
	}
	if !pathsafe.IsWithinRoot(absPath, w.q.root) {
		return w.escape(absPath, absPath)
	}

	if w.resolver != nil {
		ignored, err := w.resolver.ShouldIgnore(absPath, relPath)
		if err != nil {
			return w.recoverable(fserrors.Wrap(fserrors.CodeTraversalFailed, err, "failed to load ignore rules").WithPath(absPath))
		}
		if ignored {
			w.logger.Debug("Skipping ignored file", zap.String("path", relPath))
			return nil
		}
	}

	if c := w.q.constraint; c != nil {
		if d := pathsafe.Evaluate(realPath, c); !d.Allowed {
			verr := pathsafe.NewViolation(absPath, c.Root, d.Reason).
				WithContext("resolvedPath", realPath).
				WithContext("enforcement", c.Enforcement.String())
			switch c.Enforcement {
			case pathsafe.Strict:
				return verr
			case pathsafe.Warn:
				return w.recoverable(verr)
			default:
				w.logger.Debug("Permitting constraint violation", zap.String("path", relPath), zap.String("reason", d.Reason))
			}
		}
	}

	return w.emit(absPath, relPath)
}

func (w *walker) emit(absPath, relPath string) error {
	r := Result{
		RelativePath: relPath,
		SourcePath:   absPath,
		Loader:       w.loader,
	}
	if w.q.LogicalRoot != "" {
		r.LogicalPath = path.Join(filepath.ToSlash(w.q.LogicalRoot), relPath)
	}

	w.progress.Matched++
	w.progress.Current = relPath
	if w.sink != nil {
		w.sink.OnResult(r)
		w.sink.OnProgress(w.progress)
	}
	if !w.yield(r, nil) {
		return errStopped
	}
	return nil
}

// escape handles a path whose resolved location lies outside the real root.
// It is never reported as a result; a STRICT constraint makes it fatal.
func (w *walker) escape(absPath, resolved string) error {
	verr := pathsafe.NewViolation(absPath, w.q.realRoot, "resolved path escapes the traversal root").
		WithContext("resolvedPath", resolved)
	if c := w.q.constraint; c != nil && c.Enforcement == pathsafe.Strict {
		return verr
	}
	return w.recoverable(verr)
}

// recoverable offers a per-item error to the sink. It returns nil when the
// sink handled it (the item is skipped) and the error itself otherwise.
func (w *walker) recoverable(err *fserrors.Error) error {
	if w.sink != nil {
		warning := *err
		warning.Severity = fserrors.SeverityWarning
		if w.sink.OnError(&warning) {
			w.progress.Skipped++
			return nil
		}
	}
	err.Severity = fserrors.SeverityFatal
	return err
}

func matchAny(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

func depth(relPath string) int {
	return strings.Count(relPath, "/") + 1
}
