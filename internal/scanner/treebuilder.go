// Package scanner walks a directory tree and renders it as indented tree
// lines, pruning entries according to the rules package.
package scanner

import (
	"strings"

	"github.com/temirov/skryper/internal/logging"
	"github.com/temirov/skryper/internal/rules"
	"github.com/temirov/skryper/internal/utils"
)

// Options configures a TreeBuilder.
type Options struct {
	// BaseExclusions are ignored everywhere, even when an inclusion rule matches.
	BaseExclusions []string
	// InclusionRules force entries to be shown despite rule-source patterns.
	InclusionRules []string
	// RuleFileName is the rule source looked up in every directory. Defaults to .gitignore.
	RuleFileName string
	// Logger receives traversal and ignore decisions. Defaults to a no-op sink.
	Logger logging.Logger
}

// DefaultOptions returns the exclusions and inclusions skryper uses when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BaseExclusions: utils.DefaultExcludedNames(),
		InclusionRules: utils.DefaultInclusionRules(),
		RuleFileName:   utils.GitIgnoreFileName,
	}
}

// TreeBuilder builds tree lines for a directory using configured rules.
type TreeBuilder struct {
	matcher      *rules.Matcher
	ruleFileName string
	logger       logging.Logger
}

// NewTreeBuilder constructs a TreeBuilder from options.
func NewTreeBuilder(options Options) *TreeBuilder {
	logger := logging.OrNop(options.Logger)
	ruleFileName := strings.TrimSpace(options.RuleFileName)
	if ruleFileName == "" {
		ruleFileName = utils.GitIgnoreFileName
	}
	return &TreeBuilder{
		matcher:      rules.NewMatcher(options.BaseExclusions, options.InclusionRules, logger),
		ruleFileName: ruleFileName,
		logger:       logger,
	}
}

// Result is the ordered output of one scan.
type Result struct {
	// RootPath is the absolute path of the scanned directory.
	RootPath string
	// RootName is the display name of the scanned directory.
	RootName string
	// Lines holds the rendered tree, starting with the root line.
	Lines []string
	// Warnings holds the non-fatal failures that pruned part of the tree.
	Warnings []error
}

// String joins the lines with newlines, without a trailing newline.
func (result Result) String() string {
	return strings.Join(result.Lines, lineSeparator)
}
