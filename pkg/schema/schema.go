// Package schema checks the shape of discovery queries, results, and
// configuration before they reach the finder. Findings are reported with
// JSON pointers into the camel-cased JSON form of each value.
package schema

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"pathscout/pkg/finder"
	"pathscout/pkg/pathsafe"
)

// Report is the outcome of one check.
type Report struct {
	Valid       bool                `json:"valid"`
	Diagnostics []finder.Diagnostic `json:"diagnostics,omitempty"`
}

type collector []finder.Diagnostic

func (c *collector) add(pointer, format string, args ...any) {
	*c = append(*c, finder.Diagnostic{Pointer: pointer, Message: fmt.Sprintf(format, args...)})
}

func (c collector) report() Report {
	return Report{Valid: len(c) == 0, Diagnostics: c}
}

// Validator plugs the query check into finder.Config.Validator.
type Validator struct{}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// ValidateQuery implements finder.QueryValidator.
func (v *Validator) ValidateQuery(q finder.Query) []finder.Diagnostic {
	return CheckQuery(q).Diagnostics
}

// CheckQuery validates a discovery query.
func CheckQuery(q finder.Query) Report {
	var c collector
	if strings.TrimSpace(q.Root) == "" {
		c.add("/root", "root is required")
	}
	if q.MaxDepth < 0 {
		c.add("/maxDepth", "must be zero or positive, got %d", q.MaxDepth)
	}
	checkPatterns(&c, "/include", q.Include)
	checkPatterns(&c, "/exclude", q.Exclude)
	return c.report()
}

func checkPatterns(c *collector, pointer string, patterns []string) {
	for i, p := range patterns {
		ptr := fmt.Sprintf("%s/%d", pointer, i)
		slashed := filepath.ToSlash(strings.TrimSpace(p))
		switch {
		case slashed == "":
			c.add(ptr, "pattern must not be empty")
		case strings.HasPrefix(slashed, "/") || filepath.IsAbs(p):
			c.add(ptr, "pattern %q must be relative to the root", p)
		case hasParentSegment(slashed):
			c.add(ptr, "pattern %q must not reach above the root", p)
		case !doublestar.ValidatePattern(slashed):
			c.add(ptr, "pattern %q is not a valid glob", p)
		}
	}
}

// CheckResult validates a discovered path result.
func CheckResult(r finder.Result) Report {
	var c collector
	switch {
	case r.RelativePath == "":
		c.add("/relativePath", "relative path is required")
	case strings.Contains(r.RelativePath, `\`):
		c.add("/relativePath", "relative path must use forward slashes")
	case strings.HasPrefix(r.RelativePath, "/"):
		c.add("/relativePath", "relative path must not be absolute")
	case hasParentSegment(r.RelativePath):
		c.add("/relativePath", "relative path must not escape the root")
	}
	if !filepath.IsAbs(r.SourcePath) {
		c.add("/sourcePath", "source path must be absolute, got %q", r.SourcePath)
	}
	if r.Loader == "" {
		c.add("/loader", "loader is required")
	}
	return c.report()
}

// CheckConfig validates finder configuration.
func CheckConfig(cfg finder.Config) Report {
	var c collector
	if cfg.Workers < 0 {
		c.add("/workers", "must be zero or positive, got %d", cfg.Workers)
	}
	if cfg.Loader == "" {
		c.add("/loader", "loader is required")
	}
	if cfg.Constraint != nil {
		if cfg.Constraint.Root == "" {
			c.add("/constraint/root", "constraint root is required when a constraint is set")
		}
		switch cfg.Constraint.Enforcement {
		case pathsafe.Strict, pathsafe.Warn, pathsafe.Permissive:
		default:
			c.add("/constraint/enforcement", "unknown enforcement level %d", int(cfg.Constraint.Enforcement))
		}
	}
	return c.report()
}

func hasParentSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
