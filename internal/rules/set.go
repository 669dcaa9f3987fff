// Package rules loads .gitignore-style rule sources and decides whether a
// path relative to the scan root is ignored.
//
// The supported pattern subset is deliberately small: one leading "/" and one
// trailing "/" are stripped and otherwise ignored, "*" and "?" are wildcards
// within a path segment, and a rule matches either the whole relative path or
// its final segment. Brackets and braces are literal and "**" is the same as "*". Negated patterns ("!pattern") are not supported; such a
// line is kept as a literal pattern and never re-includes anything.
package rules

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/temirov/skryper/internal/utils"
)

// Rule is a normalized ignore pattern.
type Rule string

// NormalizePattern converts a raw rule-source line into its canonical form:
// surrounding whitespace trimmed, separators converted to "/", and a single
// leading and a single trailing "/" removed.
func NormalizePattern(pattern string) string {
	normalizedPattern := utils.ToSlashPath(strings.TrimSpace(pattern))
	normalizedPattern = strings.TrimPrefix(normalizedPattern, utils.PathSegmentSeparator)
	normalizedPattern = strings.TrimSuffix(normalizedPattern, utils.PathSegmentSeparator)
	return normalizedPattern
}

// Matches reports whether the rule matches slashPath or its final segment.
func (rule Rule) Matches(slashPath string) bool {
	if rule == "" {
		return false
	}
	if matchPattern(string(rule), slashPath) {
		return true
	}
	lastSegment := utils.LastPathSegment(slashPath)
	return lastSegment != slashPath && matchPattern(string(rule), lastSegment)
}

// literalMetaEscaper escapes the glob syntax that rules treat as plain text.
var literalMetaEscaper = strings.NewReplacer(
	"[", `\[`,
	"]", `\]`,
	"{", `\{`,
	"}", `\}`,
)

// matchPattern reports exact equality or a wildcard match where only "*" and
// "?" are special. Brackets and braces match themselves and a run of stars
// behaves like a single "*".
func matchPattern(pattern string, candidate string) bool {
	if pattern == candidate {
		return true
	}
	isMatched, matchError := doublestar.Match(wildcardPattern(pattern), candidate)
	return matchError == nil && isMatched
}

func wildcardPattern(pattern string) string {
	for strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**", "*")
	}
	return literalMetaEscaper.Replace(pattern)
}

// Set is an immutable, ordered collection of rules. The zero value is an empty set.
type Set struct {
	rules []Rule
}

// NewSet returns a set holding rules in order, without duplicates or empty rules.
func NewSet(rules ...Rule) Set {
	return Set{}.Extend(rules...)
}

// NewSetFromPatterns normalizes raw patterns and returns them as a set.
func NewSetFromPatterns(patterns []string) Set {
	normalizedRules := make([]Rule, 0, len(patterns))
	for _, pattern := range patterns {
		normalizedRules = append(normalizedRules, Rule(NormalizePattern(pattern)))
	}
	return NewSet(normalizedRules...)
}

// Extend returns a new set holding the receiver's rules followed by every
// additional rule not already present. The receiver is left unchanged, so a
// set handed to one subtree can never observe rules added for a sibling.
func (set Set) Extend(additional ...Rule) Set {
	extendedRules := make([]Rule, len(set.rules), len(set.rules)+len(additional))
	copy(extendedRules, set.rules)
	for _, rule := range additional {
		if rule == "" || containsRule(extendedRules, rule) {
			continue
		}
		extendedRules = append(extendedRules, rule)
	}
	return Set{rules: extendedRules}
}

// Rules returns a copy of the rules in order.
func (set Set) Rules() []Rule {
	return append([]Rule(nil), set.rules...)
}

// Len returns the number of rules.
func (set Set) Len() int {
	return len(set.rules)
}

// Contains reports whether rule is part of the set.
func (set Set) Contains(rule Rule) bool {
	return containsRule(set.rules, rule)
}

// Match returns the first rule matching slashPath.
func (set Set) Match(slashPath string) (Rule, bool) {
	for _, rule := range set.rules {
		if rule.Matches(slashPath) {
			return rule, true
		}
	}
	return "", false
}

func containsRule(rules []Rule, target Rule) bool {
	for _, rule := range rules {
		if rule == target {
			return true
		}
	}
	return false
}
