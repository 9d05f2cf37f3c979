package pathsafe

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnforcementLevel decides what happens when a path violates a Constraint.
type EnforcementLevel int

const (
	// Strict aborts the whole call.
	Strict EnforcementLevel = iota
	// Warn reports the violation through the error sink and skips the item.
	Warn
	// Permissive lets the item through without reporting.
	Permissive
)

func (l EnforcementLevel) String() string {
	switch l {
	case Strict:
		return "STRICT"
	case Warn:
		return "WARN"
	case Permissive:
		return "PERMISSIVE"
	default:
		return fmt.Sprintf("EnforcementLevel(%d)", int(l))
	}
}

// ParseEnforcement parses a level name, ignoring case.
func ParseEnforcement(s string) (EnforcementLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "warn", "warning":
		return Warn, nil
	case "permissive":
		return Permissive, nil
	}
	return Strict, fmt.Errorf("unknown enforcement level %q", s)
}

func (l EnforcementLevel) MarshalYAML() (interface{}, error) {
	return strings.ToLower(l.String()), nil
}

func (l *EnforcementLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseEnforcement(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Constraint bounds where discovered paths may resolve to.
type Constraint struct {
	Root        string           `yaml:"root"`        // Allowed root; empty disables the check.
	Type        string           `yaml:"type"`        // Free-form classification, e.g. "workspace".
	Enforcement EnforcementLevel `yaml:"enforcement"` // Response to a violation.
}

// Kind returns the classification, or "path" when none is set.
func (c *Constraint) Kind() string {
	if c == nil || c.Type == "" {
		return "path"
	}
	return c.Type
}

// Decision is the outcome of evaluating a path against a Constraint.
type Decision struct {
	Allowed bool
	Reason  string
}

// Evaluate checks path against c. A nil constraint or empty root allows everything.
func Evaluate(path string, c *Constraint) Decision {
	if c == nil || c.Root == "" {
		return Decision{Allowed: true}
	}
	if IsWithinRoot(path, c.Root) {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("path resolves outside %s constraint root %s", c.Kind(), c.Root),
	}
}
