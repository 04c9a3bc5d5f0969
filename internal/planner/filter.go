package planner

import (
	"path"
	"regexp"
	"strings"
)

// FilterAction is the disposition of a matching filter rule.
type FilterAction int

const (
	Include FilterAction = iota
	Exclude
)

// RuleKind selects how a Filter rule's pattern is matched.
type RuleKind int

const (
	RuleGlob RuleKind = iota
	RuleRegex
	RuleExact
)

// Rule is one filter rule. Rules are evaluated in insertion order; the
// first match decides (spec §4.7). Paths are normalized to forward slashes
// before matching.
type Rule struct {
	Kind    RuleKind
	Pattern string
	Action  FilterAction

	re *regexp.Regexp
}

// compile lazily compiles a regex rule's pattern.
func (r *Rule) compile() error {
	if r.Kind != RuleRegex || r.re != nil {
		return nil
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return err
	}
	r.re = re
	return nil
}

func (r *Rule) matches(relPath string) bool {
	switch r.Kind {
	case RuleExact:
		return relPath == r.Pattern
	case RuleRegex:
		if r.re == nil {
			return false
		}
		return r.re.MatchString(relPath)
	default: // RuleGlob
		ok, _ := path.Match(r.Pattern, relPath)
		if ok {
			return true
		}
		// also match against the base name, so "*.tmp" excludes nested files
		ok, _ = path.Match(r.Pattern, path.Base(relPath))
		return ok
	}
}

// FilterList evaluates rules first-match-wins; an unmatched path defaults to
// Include.
type FilterList struct {
	rules []Rule
}

// NewFilterList compiles rules (regex rules are compiled eagerly so a bad
// pattern surfaces at construction time, not mid-walk).
func NewFilterList(rules []Rule) (*FilterList, error) {
	compiled := make([]Rule, len(rules))
	copy(compiled, rules)
	for i := range compiled {
		if err := compiled[i].compile(); err != nil {
			return nil, err
		}
	}
	return &FilterList{rules: compiled}, nil
}

// Decide normalizes relPath to forward slashes and returns the first
// matching rule's action, defaulting to Include.
func (f *FilterList) Decide(relPath string) FilterAction {
	normalized := strings.ReplaceAll(relPath, "\\", "/")
	for _, r := range f.rules {
		if r.matches(normalized) {
			return r.Action
		}
	}
	return Include
}

// FromPatterns builds a FilterList from the configuration contract's
// exclude_patterns/include_patterns (both glob), preserving the spec's
// Include-default, first-match-wins semantics by placing every exclude
// rule ahead of every include rule, each group in the order supplied.
func FromPatterns(excludePatterns, includePatterns []string) (*FilterList, error) {
	var rules []Rule
	for _, p := range excludePatterns {
		rules = append(rules, Rule{Kind: RuleGlob, Pattern: p, Action: Exclude})
	}
	for _, p := range includePatterns {
		rules = append(rules, Rule{Kind: RuleGlob, Pattern: p, Action: Include})
	}
	return NewFilterList(rules)
}
