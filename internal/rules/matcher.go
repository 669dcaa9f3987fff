package rules

import (
	"fmt"
	"strings"

	"github.com/temirov/skryper/internal/logging"
	"github.com/temirov/skryper/internal/utils"
)

const (
	checkingPathFormat      = "Checking if path '%s' should be ignored against %d rules"
	baseExcludedPathFormat  = "Path excluded: %s based on base exclusion: %s"
	includedPathFormat      = "Path explicitly included: %s by inclusion rule: %s"
	ignoredPathFormat       = "Path ignored: %s based on pattern: %s"
	notIgnoredPathFormat    = "Path not ignored: %s"
	inclusionDescendantGlue = utils.PathSegmentSeparator
)

// IsIgnored reports whether candidatePath is ignored by ignoreRules.
// A match against any inclusion rule short-circuits to false; otherwise the
// path is ignored when any rule matches the whole path or its final segment.
// Separators are normalized before comparing; matching is case-sensitive.
func IsIgnored(candidatePath string, ignoreRules Set, inclusionRules []string) bool {
	slashPath := utils.ToSlashPath(candidatePath)
	if _, isIncluded := matchInclusion(slashPath, inclusionRules); isIncluded {
		return false
	}
	_, isIgnored := ignoreRules.Match(slashPath)
	return isIgnored
}

// Matcher evaluates candidate paths against a process-wide base exclusion set,
// a per-directory scope and the inclusion rules. Base exclusions take
// precedence over inclusion rules; inclusion rules take precedence over scope rules.
type Matcher struct {
	baseExclusions Set
	inclusionRules []string
	logger         logging.Logger
}

// NewMatcher builds a Matcher. Patterns are normalized the same way rule-source lines are.
func NewMatcher(baseExclusions []string, inclusionRules []string, logger logging.Logger) *Matcher {
	normalizedInclusions := make([]string, 0, len(inclusionRules))
	for _, inclusionRule := range utils.DeduplicatePatterns(inclusionRules) {
		normalizedInclusion := NormalizePattern(inclusionRule)
		if normalizedInclusion != "" && !utils.ContainsString(normalizedInclusions, normalizedInclusion) {
			normalizedInclusions = append(normalizedInclusions, normalizedInclusion)
		}
	}
	return &Matcher{
		baseExclusions: NewSetFromPatterns(baseExclusions),
		inclusionRules: normalizedInclusions,
		logger:         logging.OrNop(logger),
	}
}

// BaseExclusions returns the base exclusion set every effective rule set starts from.
func (matcher *Matcher) BaseExclusions() Set {
	return matcher.baseExclusions
}

// InclusionRules returns a copy of the normalized inclusion rules.
func (matcher *Matcher) InclusionRules() []string {
	return append([]string(nil), matcher.inclusionRules...)
}

// IsIgnored reports whether candidatePath, relative to the scan root, is ignored under scope.
func (matcher *Matcher) IsIgnored(candidatePath string, scope Set) bool {
	slashPath := utils.ToSlashPath(candidatePath)
	matcher.logger.Debug(fmt.Sprintf(checkingPathFormat, slashPath, matcher.baseExclusions.Len()+scope.Len()))

	if baseRule, isExcluded := matcher.baseExclusions.Match(slashPath); isExcluded {
		matcher.logger.Info(fmt.Sprintf(baseExcludedPathFormat, slashPath, baseRule))
		return true
	}
	if inclusionRule, isIncluded := matchInclusion(slashPath, matcher.inclusionRules); isIncluded {
		matcher.logger.Debug(fmt.Sprintf(includedPathFormat, slashPath, inclusionRule))
		return false
	}
	if scopeRule, isIgnored := scope.Match(slashPath); isIgnored {
		matcher.logger.Info(fmt.Sprintf(ignoredPathFormat, slashPath, scopeRule))
		return true
	}
	matcher.logger.Debug(fmt.Sprintf(notIgnoredPathFormat, slashPath))
	return false
}

// matchInclusion reports the first inclusion rule that matches slashPath, its
// final segment, or any directory above it.
func matchInclusion(slashPath string, inclusionRules []string) (string, bool) {
	for _, inclusionRule := range inclusionRules {
		normalizedInclusion := NormalizePattern(inclusionRule)
		if normalizedInclusion == "" {
			continue
		}
		rule := Rule(normalizedInclusion)
		if rule.Matches(slashPath) {
			return normalizedInclusion, true
		}
		for ancestor := parentPath(slashPath); ancestor != ""; ancestor = parentPath(ancestor) {
			if rule.Matches(ancestor) {
				return normalizedInclusion, true
			}
		}
	}
	return "", false
}

// parentPath returns slashPath without its final segment, or "" at the top.
func parentPath(slashPath string) string {
	separatorIndex := strings.LastIndex(slashPath, inclusionDescendantGlue)
	if separatorIndex <= 0 {
		return ""
	}
	return slashPath[:separatorIndex]
}
