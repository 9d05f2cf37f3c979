// Package reporoot walks upward from a directory to find the enclosing
// project root, identified by marker files such as ".git" or "go.mod".
package reporoot

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"pathscout/pkg/fserrors"
	"pathscout/pkg/pathsafe"
)

// DefaultMaxDepth bounds how many parent directories are examined.
const DefaultMaxDepth = 10

// Options tunes FindRepositoryRoot. The zero value stops at the nearest
// marker, uses the default boundary, and examines DefaultMaxDepth parents.
type Options struct {
	// Boundary is the outermost directory the search may reach. It must be
	// the start path or one of its ancestors. Empty selects the home
	// directory when the start path is inside it, the filesystem root otherwise.
	Boundary string

	// MaxDepth is the number of ascents allowed; 0 means DefaultMaxDepth.
	MaxDepth int

	// Outermost keeps ascending after a hit and returns the match closest to
	// the filesystem root. When false the first (nearest) match is returned.
	Outermost bool

	// FollowSymlinks resolves each directory's real path and fails with
	// TRAVERSAL_LOOP if one is visited twice.
	FollowSymlinks bool

	// Constraint stops the ascent once the search leaves its root.
	Constraint *pathsafe.Constraint

	Logger *zap.Logger
}

// FindRepositoryRoot returns the absolute path of the directory containing
// one of markers, searching startPath and then its ancestors. Markers are
// checked in the given order.
func FindRepositoryRoot(startPath string, markers []string, opts Options) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(markers) == 0 {
		return "", fserrors.New(fserrors.CodeInvalidConfig, "at least one marker is required")
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	start, err := validateStart(startPath)
	if err != nil {
		return "", err
	}
	boundary, err := resolveBoundary(start, opts.Boundary, opts.FollowSymlinks)
	if err != nil {
		return "", err
	}
	if !pathsafe.IsWithinRoot(start, boundary) {
		// Only reachable when the boundary encloses the start's real path.
		if real, err := filepath.EvalSymlinks(start); err == nil {
			start = real
		}
	}
	var constraintRoot string
	if opts.Constraint != nil && opts.Constraint.Root != "" {
		constraintRoot, _ = filepath.Abs(opts.Constraint.Root)
	}

	s := &search{
		markers:        markers,
		boundary:       boundary,
		maxDepth:       maxDepth,
		constraintRoot: constraintRoot,
		logger:         logger.With(zap.String("start", start)),
	}
	if opts.FollowSymlinks {
		s.visited = make(map[string]bool)
	}
	s.logger.Debug("Searching for repository root",
		zap.Strings("markers", markers),
		zap.String("boundary", boundary),
		zap.Int("maxDepth", maxDepth),
		zap.Bool("outermost", opts.Outermost))

	found, err := s.run(start, opts.Outermost)
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fserrors.New(fserrors.CodeRepositoryNotFound, "no marker found").
			WithPath(start).
			WithContext("startPath", start).
			WithContext("markers", markers).
			WithContext("boundary", boundary).
			WithContext("maxDepth", maxDepth).
			WithContext("depthReached", s.depth).
			WithContext("constraintRoot", constraintRoot)
	}
	s.logger.Debug("Found repository root", zap.String("root", found), zap.Int("depth", s.depth))
	return found, nil
}

// search is the transient state of one upward walk.
type search struct {
	markers        []string
	boundary       string
	maxDepth       int
	constraintRoot string
	visited        map[string]bool // Real paths seen; nil unless following symlinks.
	depth          int
	best           string
	logger         *zap.Logger
}

func (s *search) run(current string, outermost bool) (string, error) {
	for {
		if s.visited != nil {
			real, err := filepath.EvalSymlinks(current)
			if err != nil {
				return "", fserrors.Wrap(fserrors.CodeTraversalFailed, err, "cannot resolve real path").WithPath(current)
			}
			if s.visited[real] {
				return "", fserrors.New(fserrors.CodeTraversalLoop, "directory visited twice while ascending").
					WithPath(current).
					WithContext("realPath", real).
					WithContext("depthReached", s.depth).
					WithContext("markers", s.markers)
			}
			s.visited[real] = true
		}

		if !pathsafe.IsWithinRoot(current, s.boundary) {
			break
		}
		if s.constraintRoot != "" && !pathsafe.IsWithinRoot(current, s.constraintRoot) {
			s.logger.Debug("Ascent left constraint root", zap.String("dir", current), zap.String("constraintRoot", s.constraintRoot))
			break
		}

		if marker := s.findMarker(current); marker != "" {
			s.logger.Debug("Marker found", zap.String("dir", current), zap.String("marker", marker))
			if !outermost {
				return current, nil
			}
			s.best = current
		}

		if current == s.boundary || s.depth >= s.maxDepth {
			break
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
		s.depth++
	}
	return s.best, nil
}

func (s *search) findMarker(dir string) string {
	for _, m := range s.markers {
		if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
			return m
		} else if !os.IsNotExist(err) {
			s.logger.Debug("Cannot check marker", zap.String("dir", dir), zap.String("marker", m), zap.Error(err))
		}
	}
	return ""
}

func validateStart(startPath string) (string, error) {
	if startPath == "" {
		return "", fserrors.New(fserrors.CodeInvalidStartPath, "start path is required")
	}
	start, err := filepath.Abs(startPath)
	if err != nil {
		return "", fserrors.Wrap(fserrors.CodeInvalidStartPath, err, "cannot resolve start path").WithPath(startPath)
	}
	info, err := os.Stat(start)
	if err != nil {
		return "", fserrors.Wrap(fserrors.CodeInvalidStartPath, err, "start path is not accessible").WithPath(start)
	}
	if !info.IsDir() {
		return "", fserrors.New(fserrors.CodeInvalidStartPath, "start path is not a directory").WithPath(start)
	}
	return start, nil
}

// resolveBoundary validates an explicit boundary or picks the default one.
func resolveBoundary(start, explicit string, followSymlinks bool) (string, error) {
	if explicit != "" {
		boundary, err := filepath.Abs(explicit)
		if err != nil {
			return "", fserrors.Wrap(fserrors.CodeInvalidBoundary, err, "cannot resolve boundary").WithPath(explicit)
		}
		if pathsafe.IsWithinRoot(start, boundary) {
			return boundary, nil
		}
		if followSymlinks && withinReal(start, boundary) {
			return boundary, nil
		}
		return "", fserrors.New(fserrors.CodeInvalidBoundary, "boundary is not an ancestor of the start path").
			WithPath(boundary).
			WithContext("startPath", start)
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if abs, err := filepath.Abs(home); err == nil && pathsafe.IsWithinRoot(start, abs) {
			return abs, nil
		}
	}
	return filesystemRoot(start), nil
}

func withinReal(path, root string) bool {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false
	}
	return pathsafe.IsWithinRoot(realPath, realRoot)
}

// filesystemRoot returns the drive, UNC share, or "/" root containing p.
func filesystemRoot(p string) string {
	return filepath.VolumeName(p) + string(filepath.Separator)
}
