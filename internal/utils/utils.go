// Package utils contains general helper functions used across skryper.
package utils

import (
	"path/filepath"
	"strings"
)

// File and directory names used across the project.
const (
	// GitIgnoreFileName is the name of the rule source discovered at every directory level.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// PythonCacheDirectoryName is the name of the Python bytecode cache directory.
	PythonCacheDirectoryName = "__pycache__"
	// MypyCacheDirectoryName is the name of the mypy cache directory.
	MypyCacheDirectoryName = ".mypy_cache"
	// GitHubDirectoryName is the name of the GitHub metadata directory.
	GitHubDirectoryName = ".github"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".skryper"
	// ConfigFileName is the name of the global configuration file.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the name of the configuration file looked up in the working directory.
	LocalConfigFileName = ".skryper.yaml"
)

// PathSegmentSeparator is the canonical separator used for every relative path compared against rules.
const PathSegmentSeparator = "/"

// DefaultExcludedNames lists the names that are excluded from every scan.
func DefaultExcludedNames() []string {
	return []string{PythonCacheDirectoryName, GitDirectoryName, MypyCacheDirectoryName}
}

// DefaultInclusionRules lists the names that are shown even when a rule source ignores them.
func DefaultInclusionRules() []string {
	return []string{GitHubDirectoryName}
}

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept. Blank patterns are dropped.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if _, exists := encounteredPatterns[trimmedPattern]; !exists {
			encounteredPatterns[trimmedPattern] = struct{}{}
			result = append(result, trimmedPattern)
		}
	}
	return result
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

// ToSlashPath replaces every backslash with the canonical separator so that
// paths and patterns compare identically regardless of the host convention.
func ToSlashPath(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "\\", PathSegmentSeparator)
}

// LastPathSegment returns the final segment of a slash-separated path.
func LastPathSegment(slashPath string) string {
	trimmedPath := strings.TrimSuffix(slashPath, PathSegmentSeparator)
	separatorIndex := strings.LastIndex(trimmedPath, PathSegmentSeparator)
	if separatorIndex < 0 {
		return trimmedPath
	}
	return trimmedPath[separatorIndex+1:]
}

// RelativePathOrSelf calculates the relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return ToSlashPath(relativePath)
}
