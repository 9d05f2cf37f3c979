package ignore

import (
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// FileNames lists the ignore files read in every directory, in read order.
// Both are read when present; the later file's rules win on conflict.
var FileNames = []string{".gitignore", ".pathscoutignore"}

// IsIgnoreFile reports whether name is one of the well-known ignore files.
func IsIgnoreFile(name string) bool {
	for _, n := range FileNames {
		if name == n {
			return true
		}
	}
	return false
}

// Rule is one compiled line of an ignore file.
type Rule struct {
	Pattern string // Glob anchored at the traversal root (posix separators).
	Base    string // Unanchored pattern for basename matching; empty when the line had a separator.
	Dir     string // Directory of the ignore file relative to the traversal root ("" for the root).
	Negate  bool   // Line started with '!'.
	DirOnly bool   // Line ended with '/'.
	Line    string // Original line.
	LineNo  int    // Line number in the source (1-based).
	Source  string // Ignore file the rule came from, if any.
}

// RuleSet is an ordered list of rules evaluated with last-match-wins.
type RuleSet struct {
	rules  []*Rule
	logger *zap.Logger
}

// NewRuleSet initializes an empty RuleSet.
func NewRuleSet(logger *zap.Logger) *RuleSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleSet{logger: logger}
}

// Rules returns the compiled rules in evaluation order.
func (rs *RuleSet) Rules() []*Rule {
	return rs.rules
}

// Append adds already compiled rules after the existing ones.
func (rs *RuleSet) Append(rules ...*Rule) {
	rs.rules = append(rs.rules, rules...)
}

// CompileIgnoreLines compiles lines as if they came from an ignore file in dir.
func (rs *RuleSet) CompileIgnoreLines(dir string, lines ...string) {
	rs.rules = append(rs.rules, compileLines(lines, dir, "", rs.logger)...)
}

// CompileIgnoreFile reads an ignore file located in dir (relative to the
// traversal root) and appends its rules. A missing file adds nothing.
func (rs *RuleSet) CompileIgnoreFile(filePath, dir string) error {
	rules, err := readRules(filePath, dir, rs.logger)
	if err != nil {
		return err
	}
	rs.rules = append(rs.rules, rules...)
	return nil
}

// MatchesPath reports whether relPath is ignored.
func (rs *RuleSet) MatchesPath(relPath string) bool {
	matched, _ := rs.MatchesPathWithRule(relPath)
	return matched
}

// MatchesPathWithRule reports whether relPath is ignored and the rule that decided it.
func (rs *RuleSet) MatchesPathWithRule(relPath string) (bool, *Rule) {
	return evaluate(rs.rules, relPath)
}

func evaluate(rules []*Rule, relPath string) (bool, *Rule) {
	normalized := normalizePath(relPath)
	var last *Rule
	for _, r := range rules {
		if r.Matches(normalized) {
			last = r
		}
	}
	if last == nil {
		return false, nil
	}
	return !last.Negate, last
}

// Matches reports whether the rule applies to relPath. A rule applies to a
// path when it matches the path itself or any of its parent directories.
// Directory-only rules skip the final element unless relPath ends in '/'.
func (r *Rule) Matches(relPath string) bool {
	relPath = normalizePath(relPath)
	isDir := isDirPath(relPath)
	relPath = strings.TrimSuffix(relPath, "/")
	if relPath == "" {
		return false
	}
	for p := relPath; p != "." && p != "/"; p = path.Dir(p) {
		if r.DirOnly && p == relPath && !isDir {
			continue
		}
		if r.matchOne(p) {
			return true
		}
	}
	return false
}

func (r *Rule) matchOne(p string) bool {
	if ok, _ := doublestar.Match(r.Pattern, p); ok {
		return true
	}
	if r.Base == "" || !underDir(p, r.Dir) {
		return false
	}
	ok, _ := doublestar.Match(r.Base, path.Base(p))
	return ok
}

// isDirPath is true for paths given with a trailing slash.
func isDirPath(p string) bool {
	return strings.HasSuffix(p, "/")
}

func underDir(p, dir string) bool {
	return dir == "" || strings.HasPrefix(p, dir+"/")
}

// ParseLine compiles one ignore-file line found in dir. It returns nil for
// blank lines, comments, and invalid globs.
func ParseLine(line string, lineNo int, dir string) *Rule {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	r := &Rule{Dir: normalizePath(dir), Line: line, LineNo: lineNo}

	if strings.HasPrefix(trimmed, "!") {
		r.Negate = true
		trimmed = trimmed[1:]
	}
	// Escaped leading '#' and '!' are literal.
	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "/") {
		r.DirOnly = true
		trimmed = strings.TrimRight(trimmed, "/")
	}
	anchored := strings.HasPrefix(trimmed, "/")
	trimmed = strings.TrimLeft(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	if !doublestar.ValidatePattern(trimmed) {
		return nil
	}

	r.Pattern = trimmed
	if r.Dir != "" {
		r.Pattern = r.Dir + "/" + trimmed
	}
	if !anchored && !strings.Contains(trimmed, "/") {
		r.Base = trimmed
	}
	return r
}

func compileLines(lines []string, dir, source string, logger *zap.Logger) []*Rule {
	var rules []*Rule
	for i, line := range lines {
		r := ParseLine(line, i+1, dir)
		if r == nil {
			continue
		}
		r.Source = source
		rules = append(rules, r)
		logger.Debug("Compiled ignore rule",
			zap.String("source", source),
			zap.Int("lineNo", r.LineNo),
			zap.String("pattern", r.Pattern),
			zap.Bool("negate", r.Negate),
			zap.Bool("dirOnly", r.DirOnly))
	}
	return rules
}

// readRules reads and compiles one ignore file. A missing file yields no rules.
func readRules(filePath, dir string, logger *zap.Logger) ([]*Rule, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		logger.Error("Failed to read ignore file", zap.String("filePath", filePath), zap.Error(err))
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	rules := compileLines(lines, dir, filePath, logger)
	logger.Debug("Compiled ignore file", zap.String("filePath", filePath), zap.Int("ruleCount", len(rules)))
	return rules, nil
}

// normalizePath converts separators to forward slashes and drops "./" prefixes.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}
