package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/temirov/skryper/internal/logging"
	"github.com/temirov/skryper/internal/rules"
	"github.com/temirov/skryper/internal/utils"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
	directorySuffix     = "/"
	lineSeparator       = "\n"
	replacementRune     = "\ufffd"

	scanningDirectoryFormat  = "Scanning directory: %s"
	foundRuleFileFormat      = "Found %s at: %s"
	loadedRulesFormat        = "Loaded %d rules from %s"
	ignoredDirectoryFormat   = "Ignored directory indicated: %s"
	enteringDirectoryFormat  = "Entering directory: %s"
	addedFileFormat          = "Added file: %s"
	unicodeIssueFormat       = "Unicode issue with name %q, shown as %s"
	warningSkipSubdirFormat  = "Skipping subdirectory %s due to error: %v"
	warningStatSymlinkFormat = "Unable to resolve link %s: %v"
)

// Scan builds the tree for rootDirectoryPath with options.
func Scan(ctx context.Context, rootDirectoryPath string, options Options) (Result, error) {
	return NewTreeBuilder(options).Build(ctx, rootDirectoryPath)
}

// Build walks rootDirectoryPath depth-first and returns its rendered tree.
// A missing root or a root that is not a directory fails before traversal
// with an *InvalidRootError. Unreadable directories and rule sources prune
// only their own subtree; they are logged and listed in Result.Warnings.
// The context is checked before each directory is entered.
func (treeBuilder *TreeBuilder) Build(ctx context.Context, rootDirectoryPath string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	absoluteRootPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return Result{}, &InvalidRootError{Path: rootDirectoryPath, Err: absolutePathError}
	}
	rootInfo, rootStatError := os.Stat(absoluteRootPath)
	if rootStatError != nil {
		return Result{}, &InvalidRootError{Path: absoluteRootPath, Err: rootStatError}
	}
	if !rootInfo.IsDir() {
		return Result{}, &InvalidRootError{Path: absoluteRootPath, Err: ErrNotDirectory}
	}

	walk := &treeWalk{
		ctx:          ctx,
		rootPath:     absoluteRootPath,
		matcher:      treeBuilder.matcher,
		ruleFileName: treeBuilder.ruleFileName,
		logger:       treeBuilder.logger,
	}
	rootName := walk.displayName(rootDisplayName(absoluteRootPath))
	result := Result{
		RootPath: absoluteRootPath,
		RootName: rootName,
		Lines:    []string{withDirectorySuffix(rootName)},
	}

	subtreeLines, visitError := walk.visitDirectory(absoluteRootPath, treeBuilder.matcher.BaseExclusions(), "")
	if visitError != nil {
		if isContextError(visitError) {
			return Result{}, visitError
		}
		walk.warn(absoluteRootPath, visitError)
	}
	result.Lines = append(result.Lines, subtreeLines...)
	result.Warnings = walk.warnings
	return result, nil
}

// treeWalk carries the state of a single Build call. Its warnings slice is
// only touched by the goroutine running that call.
type treeWalk struct {
	ctx          context.Context
	rootPath     string
	matcher      *rules.Matcher
	ruleFileName string
	logger       logging.Logger
	warnings     []error
}

// treeEntry is a directory entry that survived classification.
type treeEntry struct {
	name         string
	absolutePath string
	relativePath string
	isDirectory  bool
	isRegular    bool
	descend      bool
}

// visitDirectory returns the lines for the entries of directoryPath. The
// inherited rule set is extended with the directory's own rule source, and
// only the extended copy is handed to subdirectories.
func (walk *treeWalk) visitDirectory(directoryPath string, inherited rules.Set, prefix string) ([]string, error) {
	if contextError := walk.ctx.Err(); contextError != nil {
		return nil, contextError
	}
	walk.logger.Debug(fmt.Sprintf(scanningDirectoryFormat, directoryPath))

	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return nil, &DirectoryListError{Path: directoryPath, Err: readDirectoryError}
	}

	effectiveRules := inherited
	hasRuleFile := false
	candidates := make([]treeEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.Name() == walk.ruleFileName {
			hasRuleFile = true
			continue
		}
		candidates = append(candidates, walk.describeEntry(directoryPath, directoryEntry))
	}

	if hasRuleFile {
		ruleFilePath := filepath.Join(directoryPath, walk.ruleFileName)
		walk.logger.Debug(fmt.Sprintf(foundRuleFileFormat, walk.ruleFileName, ruleFilePath))
		localRules, loadError := rules.LoadRules(ruleFilePath)
		if loadError != nil {
			return nil, loadError
		}
		walk.logger.Info(fmt.Sprintf(loadedRulesFormat, len(localRules), ruleFilePath))
		effectiveRules = inherited.Extend(localRules...)
	}

	sortEntries(candidates)

	visibleEntries := make([]treeEntry, 0, len(candidates))
	for _, candidate := range candidates {
		if walk.matcher.IsIgnored(candidate.relativePath, effectiveRules) {
			if !candidate.isDirectory {
				continue
			}
			walk.logger.Info(fmt.Sprintf(ignoredDirectoryFormat, candidate.relativePath))
			candidate.descend = false
		}
		visibleEntries = append(visibleEntries, candidate)
	}

	totalLines := len(visibleEntries)
	if hasRuleFile {
		totalLines++
	}
	var lines []string
	position := 0
	if hasRuleFile {
		lines = append(lines, prefix+connectorFor(position == totalLines-1)+walk.displayName(walk.ruleFileName))
		position++
	}

	for _, entry := range visibleEntries {
		isLast := position == totalLines-1
		position++
		displayName := walk.displayName(entry.name)

		if !entry.isDirectory {
			lines = append(lines, prefix+connectorFor(isLast)+displayName)
			walk.logger.Info(fmt.Sprintf(addedFileFormat, entry.relativePath))
			continue
		}

		lines = append(lines, prefix+connectorFor(isLast)+withDirectorySuffix(displayName))
		if !entry.descend {
			continue
		}
		walk.logger.Debug(fmt.Sprintf(enteringDirectoryFormat, entry.absolutePath))
		subtreeLines, visitError := walk.visitDirectory(entry.absolutePath, effectiveRules, prefix+paddingFor(isLast))
		if visitError != nil {
			if isContextError(visitError) {
				return nil, visitError
			}
			walk.warn(entry.absolutePath, visitError)
			continue
		}
		lines = append(lines, subtreeLines...)
	}

	return lines, nil
}

// describeEntry resolves the entry's paths and whether it is a directory.
// Links are followed so that a link to a directory is walked like one.
func (walk *treeWalk) describeEntry(directoryPath string, directoryEntry fs.DirEntry) treeEntry {
	absolutePath := filepath.Join(directoryPath, directoryEntry.Name())
	isDirectory := directoryEntry.IsDir()
	isRegular := directoryEntry.Type().IsRegular()
	if directoryEntry.Type()&fs.ModeSymlink != 0 {
		targetInfo, statError := os.Stat(absolutePath)
		if statError != nil {
			walk.logger.Debug(fmt.Sprintf(warningStatSymlinkFormat, absolutePath, statError))
		} else {
			isDirectory = targetInfo.IsDir()
			isRegular = targetInfo.Mode().IsRegular()
		}
	}
	return treeEntry{
		name:         directoryEntry.Name(),
		absolutePath: absolutePath,
		relativePath: utils.RelativePathOrSelf(absolutePath, walk.rootPath),
		isDirectory:  isDirectory,
		isRegular:    isRegular,
		descend:      isDirectory,
	}
}

// displayName returns name unchanged when it is valid UTF-8 and a sanitized
// copy otherwise, so that one undecodable name never aborts the scan.
func (walk *treeWalk) displayName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	sanitizedName := strings.ToValidUTF8(name, replacementRune)
	walk.logger.Warning(fmt.Sprintf(unicodeIssueFormat, name, sanitizedName))
	return sanitizedName
}

func (walk *treeWalk) warn(path string, cause error) {
	walk.logger.Warning(fmt.Sprintf(warningSkipSubdirFormat, path, cause))
	walk.warnings = append(walk.warnings, cause)
}

// sortEntries puts entries that are not regular files, directories and pipes
// alike, before regular files. Ties fall back to case-insensitive name, then raw name.
func sortEntries(entries []treeEntry) {
	sort.SliceStable(entries, func(left, right int) bool {
		if entries[left].isRegular != entries[right].isRegular {
			return entries[right].isRegular
		}
		leftFolded := strings.ToLower(entries[left].name)
		rightFolded := strings.ToLower(entries[right].name)
		if leftFolded != rightFolded {
			return leftFolded < rightFolded
		}
		return entries[left].name < entries[right].name
	})
}

func connectorFor(isLast bool) string {
	if isLast {
		return treeLastConnector
	}
	return treeBranchConnector
}

func paddingFor(isLast bool) string {
	if isLast {
		return treeLastPadding
	}
	return treeBranchPadding
}

func withDirectorySuffix(name string) string {
	if strings.HasSuffix(name, directorySuffix) {
		return name
	}
	return name + directorySuffix
}

func rootDisplayName(absoluteRootPath string) string {
	baseName := filepath.Base(absoluteRootPath)
	if baseName == "." || baseName == string(filepath.Separator) {
		return absoluteRootPath
	}
	return baseName
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
