package ignore

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pathscout/pkg/pathsafe"
)

// Resolver answers "is this path ignored" for one traversal root, loading
// ignore files from the candidate's directory and every ancestor up to the
// root. Rule lists are cached per directory for the lifetime of the Resolver;
// construct one per traversal.
type Resolver struct {
	root   string
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string][]*Rule // relative dir -> aggregate rules, ancestors first
}

// NewResolver creates a Resolver scoped to root, which must be absolute.
func NewResolver(root string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		root:   filepath.Clean(root),
		logger: logger,
		cache:  make(map[string][]*Rule),
	}
}

// Root returns the traversal root the resolver is scoped to.
func (r *Resolver) Root() string {
	return r.root
}

// ShouldIgnore reports whether the file at absPath, known to the traversal as
// relPath, is excluded by the ignore files between the root and its directory.
func (r *Resolver) ShouldIgnore(absPath, relPath string) (bool, error) {
	dir := filepath.Dir(absPath)
	if !pathsafe.IsWithinRoot(dir, r.root) {
		return false, nil
	}
	rel, err := filepath.Rel(r.root, dir)
	if err != nil {
		return false, nil
	}

	rules, err := r.rulesFor(normalizePath(filepath.ToSlash(rel)))
	if err != nil {
		return false, err
	}
	ignored, rule := evaluate(rules, relPath)
	if rule != nil {
		r.logger.Debug("Ignore rule decided path",
			zap.String("path", relPath),
			zap.Bool("ignored", ignored),
			zap.String("rule", rule.Line),
			zap.String("source", rule.Source))
	}
	return ignored, nil
}

// RulesFor returns the aggregate rule list for a directory relative to the root.
func (r *Resolver) RulesFor(relDir string) ([]*Rule, error) {
	return r.rulesFor(normalizePath(relDir))
}

func (r *Resolver) rulesFor(relDir string) ([]*Rule, error) {
	r.mu.Lock()
	cached, ok := r.cache[relDir]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	if relDir == ".." || strings.HasPrefix(relDir, "../") {
		return nil, nil
	}

	var inherited []*Rule
	if relDir != "" {
		parent := path.Dir(relDir)
		if parent == "." {
			parent = ""
		}
		var err error
		inherited, err = r.rulesFor(parent)
		if err != nil {
			return nil, err
		}
	}

	local, err := r.loadDir(relDir)
	if err != nil {
		return nil, err
	}

	rules := make([]*Rule, 0, len(inherited)+len(local))
	rules = append(rules, inherited...)
	rules = append(rules, local...)

	r.mu.Lock()
	r.cache[relDir] = rules
	r.mu.Unlock()
	return rules, nil
}

func (r *Resolver) loadDir(relDir string) ([]*Rule, error) {
	absDir := filepath.Join(r.root, filepath.FromSlash(relDir))
	var rules []*Rule
	for _, name := range FileNames {
		filePath := filepath.Join(absDir, name)
		fileRules, err := readRules(filePath, relDir, r.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to read ignore file %s: %w", filePath, err)
		}
		rules = append(rules, fileRules...)
	}
	return rules, nil
}
