package revset

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// StringPattern matches names and text fields.
type StringPattern struct {
	Kind  string // exact, glob, substring, regex; empty matches everything
	Value string
	re    *regexp.Regexp
}

// Everything matches all strings.
func Everything() StringPattern { return StringPattern{} }

// NewStringPattern validates and builds a pattern.
func NewStringPattern(kind, value string) (StringPattern, error) {
	p := StringPattern{Kind: kind, Value: value}
	switch kind {
	case "exact", "substring":
	case "glob":
		if _, err := path.Match(value, ""); err != nil {
			return StringPattern{}, fmt.Errorf("invalid glob pattern %q: %w", value, err)
		}
	case "regex":
		re, err := regexp.Compile(value)
		if err != nil {
			return StringPattern{}, fmt.Errorf("invalid regex pattern %q: %w", value, err)
		}
		p.re = re
	default:
		return StringPattern{}, fmt.Errorf("invalid string pattern kind %q", kind)
	}
	return p, nil
}

// Matches reports whether s matches the pattern.
func (p StringPattern) Matches(s string) bool {
	switch p.Kind {
	case "":
		return true
	case "exact":
		return s == p.Value
	case "glob":
		ok, _ := path.Match(p.Value, s)
		return ok
	case "regex":
		return p.re.MatchString(s)
	}
	return strings.Contains(s, p.Value)
}

// ExactValue returns the literal name for exact patterns.
func (p StringPattern) ExactValue() (string, bool) {
	return p.Value, p.Kind == "exact"
}

func (p StringPattern) String() string {
	if p.Kind == "" {
		return `glob:"*"`
	}
	return fmt.Sprintf("%s:%q", p.Kind, p.Value)
}
