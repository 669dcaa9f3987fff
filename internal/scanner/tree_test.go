package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/skryper/internal/rules"
	"github.com/temirov/skryper/internal/utils"
)

const testRootDirectoryName = "project"

// recordingLogger stores every message routed to it.
type recordingLogger struct {
	debugMessages   []string
	infoMessages    []string
	warningMessages []string
}

func (logger *recordingLogger) Debug(message string) { logger.debugMessages = append(logger.debugMessages, message) }
func (logger *recordingLogger) Info(message string) { logger.infoMessages = append(logger.infoMessages, message) }
func (logger *recordingLogger) Warning(message string) { logger.warningMessages = append(logger.warningMessages, message) }

// createFixture builds a directory tree under a fresh root. Keys ending in a
// slash are directories; every other key is a file with the mapped content.
func createFixture(testingHandle *testing.T, layout map[string]string) string {
	testingHandle.Helper()
	rootDirectory := filepath.Join(testingHandle.TempDir(), testRootDirectoryName)
	require.NoError(testingHandle, os.MkdirAll(rootDirectory, 0o755))
	for relativePath, content := range layout {
		absolutePath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
		if strings.HasSuffix(relativePath, "/") {
			require.NoError(testingHandle, os.MkdirAll(absolutePath, 0o755))
			continue
		}
		require.NoError(testingHandle, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
		require.NoError(testingHandle, os.WriteFile(absolutePath, []byte(content), 0o644))
	}
	return rootDirectory
}

func buildTree(testingHandle *testing.T, rootDirectory string, options Options) Result {
	testingHandle.Helper()
	result, buildError := NewTreeBuilder(options).Build(context.Background(), rootDirectory)
	require.NoError(testingHandle, buildError)
	return result
}

// TestBuildScenarios verifies rule inheritance, inclusion overrides and directory pruning.
func TestBuildScenarios(testingHandle *testing.T) {
	testCases := []struct {
		name          string
		layout        map[string]string
		expectedLines []string
	}{
		{
			name: "root rule source prunes files",
			layout: map[string]string{
				".gitignore": "*.log\n",
				"a.txt":      "a",
				"b.log":      "b",
				"sub/c.txt":  "c",
			},
			expectedLines: []string{
				"project/",
				"├── .gitignore",
				"├── sub/",
				"│   └── c.txt",
				"└── a.txt",
			},
		},
		{
			name: "nested rule source applies to its own subtree",
			layout: map[string]string{
				".gitignore":     "*.log\n",
				"a.txt":          "a",
				"sub/.gitignore": "c.txt\n",
				"sub/c.txt":      "c",
				"other/c.txt":    "c",
			},
			expectedLines: []string{
				"project/",
				"├── .gitignore",
				"├── other/",
				"│   └── c.txt",
				"├── sub/",
				"│   └── .gitignore",
				"└── a.txt",
			},
		},
		{
			name: "inclusion overrides a local rule",
			layout: map[string]string{
				".gitignore":               ".github\n*.yml\n",
				".github/workflows/ci.yml": "on: push",
				"config.yml":               "key: value",
			},
			expectedLines: []string{
				"project/",
				"├── .gitignore",
				"└── .github/",
				"    └── workflows/",
				"        └── ci.yml",
			},
		},
		{
			name: "inclusion covers a nested included directory",
			layout: map[string]string{
				".gitignore":                   "*.yml\n",
				".github/workflows/ci.yml":     "on: push",
				"pkg/.github/workflows/ci.yml": "on: push",
				"pkg/config.yml":               "key: value",
			},
			expectedLines: []string{
				"project/",
				"├── .gitignore",
				"├── .github/",
				"│   └── workflows/",
				"│       └── ci.yml",
				"└── pkg/",
				"    └── .github/",
				"        └── workflows/",
				"            └── ci.yml",
			},
		},
		{
			name: "ignored directory is a leaf",
			layout: map[string]string{
				".gitignore":                 "build\nlib/vendor\n",
				"build/deep/nested/file.txt": "x",
				"lib/vendor/module/file.go":  "x",
				"lib/main.go":                "x",
				"readme.md":                  "x",
			},
			expectedLines: []string{
				"project/",
				"├── .gitignore",
				"├── build/",
				"├── lib/",
				"│   ├── vendor/",
				"│   └── main.go",
				"└── readme.md",
			},
		},
		{
			name: "base exclusions are leaves and ignore inclusion",
			layout: map[string]string{
				".git/HEAD":                  "ref",
				"__pycache__/module.pyc":     "x",
				"pkg/.mypy_cache/cache.json": "{}",
				"pkg/module.py":              "x",
			},
			expectedLines: []string{
				"project/",
				"├── .git/",
				"├── __pycache__/",
				"└── pkg/",
				"    ├── .mypy_cache/",
				"    └── module.py",
			},
		},
		{
			name: "last visible entry closes the branch",
			layout: map[string]string{
				".gitignore": "*.log\n",
				"a.txt":      "a",
				"z.log":      "z",
			},
			expectedLines: []string{
				"project/",
				"├── .gitignore",
				"└── a.txt",
			},
		},
		{
			name:          "empty root",
			layout:        map[string]string{},
			expectedLines: []string{"project/"},
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			rootDirectory := createFixture(testingHandle, testCase.layout)
			result := buildTree(testingHandle, rootDirectory, DefaultOptions())
			require.Equal(testingHandle, testCase.expectedLines, result.Lines)
			require.Empty(testingHandle, result.Warnings)
			require.Equal(testingHandle, testRootDirectoryName, result.RootName)
		})
	}
}

// TestBuildOrdering verifies directories first, then case-insensitive names, then raw names.
func TestBuildOrdering(testingHandle *testing.T) {
	rootDirectory := createFixture(testingHandle, map[string]string{
		"b.txt":   "b",
		"B.md":    "B",
		"a.txt":   "a",
		"Zeta/x":  "x",
		"alpha/y": "y",
		"readme":  "r",
		"README":  "R",
	})
	result := buildTree(testingHandle, rootDirectory, Options{})
	require.Equal(testingHandle, []string{
		"project/",
		"├── alpha/",
		"│   └── y",
		"├── Zeta/",
		"│   └── x",
		"├── a.txt",
		"├── B.md",
		"├── b.txt",
		"├── README",
		"└── readme",
	}, result.Lines)
}

// TestBuildIsIdempotent verifies that repeated scans of an unchanged tree agree.
func TestBuildIsIdempotent(testingHandle *testing.T) {
	rootDirectory := createFixture(testingHandle, map[string]string{
		".gitignore":        "*.tmp\n",
		"src/main.go":       "package main",
		"src/cache.tmp":     "x",
		"docs/.gitignore":   "draft*\n",
		"docs/draft-1.md":   "x",
		"docs/published.md": "x",
	})
	treeBuilder := NewTreeBuilder(DefaultOptions())
	firstResult, firstError := treeBuilder.Build(context.Background(), rootDirectory)
	require.NoError(testingHandle, firstError)
	secondResult, secondError := treeBuilder.Build(context.Background(), rootDirectory)
	require.NoError(testingHandle, secondError)
	require.Equal(testingHandle, firstResult.Lines, secondResult.Lines)
	require.Equal(testingHandle, strings.Join(firstResult.Lines, "\n"), firstResult.String())
}

// TestBuildCustomRuleFileName verifies that the rule source name is configurable.
func TestBuildCustomRuleFileName(testingHandle *testing.T) {
	rootDirectory := createFixture(testingHandle, map[string]string{
		".gitignore":  "*.txt\n",
		".skryignore": "*.log\n",
		"a.txt":       "a",
		"b.log":       "b",
	})
	options := DefaultOptions()
	options.RuleFileName = ".skryignore"
	result := buildTree(testingHandle, rootDirectory, options)
	require.Equal(testingHandle, []string{
		"project/",
		"├── .skryignore",
		"├── .gitignore",
		"└── a.txt",
	}, result.Lines)
}

// TestBuildUnreadableRuleSourcePrunesSubtree verifies that a rule source that cannot be read skips only its directory.
func TestBuildUnreadableRuleSourcePrunesSubtree(testingHandle *testing.T) {
	rootDirectory := createFixture(testingHandle, map[string]string{
		"broken/.gitignore/": "",
		"broken/file.txt":    "x",
		"healthy/file.txt":   "x",
	})
	logger := &recordingLogger{}
	options := DefaultOptions()
	options.Logger = logger
	result := buildTree(testingHandle, rootDirectory, options)

	require.Equal(testingHandle, []string{
		"project/",
		"├── broken/",
		"└── healthy/",
		"    └── file.txt",
	}, result.Lines)
	require.Len(testingHandle, result.Warnings, 1)
	require.ErrorIs(testingHandle, result.Warnings[0], rules.ErrRuleSourceRead)
	require.Len(testingHandle, logger.warningMessages, 1)
	require.Contains(testingHandle, logger.warningMessages[0], filepath.Join(rootDirectory, "broken"))
}

// TestBuildUnlistableDirectoryPrunesSubtree verifies that a directory that cannot be listed is still shown.
func TestBuildUnlistableDirectoryPrunesSubtree(testingHandle *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		testingHandle.Skip("permission bits are not enforced for this user")
	}
	rootDirectory := createFixture(testingHandle, map[string]string{
		"locked/secret.txt": "x",
		"open.txt":          "x",
	})
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	require.NoError(testingHandle, os.Chmod(lockedDirectory, 0o000))
	testingHandle.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	result := buildTree(testingHandle, rootDirectory, DefaultOptions())
	require.Equal(testingHandle, []string{"project/", "├── locked/", "└── open.txt"}, result.Lines)
	require.Len(testingHandle, result.Warnings, 1)
	var listError *DirectoryListError
	require.ErrorAs(testingHandle, result.Warnings[0], &listError)
	require.Equal(testingHandle, lockedDirectory, listError.Path)
}

// TestBuildInvalidRoot verifies that a missing or non-directory root fails before traversal.
func TestBuildInvalidRoot(testingHandle *testing.T) {
	temporaryDirectory := testingHandle.TempDir()
	regularFile := filepath.Join(temporaryDirectory, "file.txt")
	require.NoError(testingHandle, os.WriteFile(regularFile, []byte("x"), 0o644))

	testCases := []struct {
		name          string
		rootPath      string
		expectedCause error
	}{
		{name: "missing", rootPath: filepath.Join(temporaryDirectory, "absent"), expectedCause: fs.ErrNotExist},
		{name: "regular file", rootPath: regularFile, expectedCause: ErrNotDirectory},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			result, buildError := Scan(context.Background(), testCase.rootPath, DefaultOptions())
			require.Error(testingHandle, buildError)
			var rootError *InvalidRootError
			require.ErrorAs(testingHandle, buildError, &rootError)
			require.ErrorIs(testingHandle, buildError, testCase.expectedCause)
			require.Empty(testingHandle, result.Lines)
		})
	}
}

// TestBuildHonorsCancellation verifies that a cancelled context stops the scan.
func TestBuildHonorsCancellation(testingHandle *testing.T) {
	rootDirectory := createFixture(testingHandle, map[string]string{"a/b.txt": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, buildError := Scan(ctx, rootDirectory, DefaultOptions())
	require.True(testingHandle, errors.Is(buildError, context.Canceled))
}

// TestBuildFollowsDirectoryLinks verifies that a link to a directory is walked like one
// and that a dangling link is ordered with the other entries that are not regular files.
func TestBuildFollowsDirectoryLinks(testingHandle *testing.T) {
	if runtime.GOOS == "windows" {
		testingHandle.Skip("symbolic links need elevated rights on windows")
	}
	rootDirectory := createFixture(testingHandle, map[string]string{"target/inner.txt": "x"})
	outsideDirectory := filepath.Join(filepath.Dir(rootDirectory), "outside")
	require.NoError(testingHandle, os.MkdirAll(outsideDirectory, 0o755))
	require.NoError(testingHandle, os.WriteFile(filepath.Join(outsideDirectory, "linked.txt"), []byte("x"), 0o644))
	require.NoError(testingHandle, os.Symlink(outsideDirectory, filepath.Join(rootDirectory, "link")))
	require.NoError(testingHandle, os.Symlink(filepath.Join(rootDirectory, "missing"), filepath.Join(rootDirectory, "dangling")))

	result := buildTree(testingHandle, rootDirectory, DefaultOptions())
	require.Equal(testingHandle, []string{
		"project/",
		"├── dangling",
		"├── link/",
		"│   └── linked.txt",
		"└── target/",
		"    └── inner.txt",
	}, result.Lines)
}

// TestBuildSanitizesUndecodableNames verifies that an invalid UTF-8 name is rendered with a replacement character.
func TestBuildSanitizesUndecodableNames(testingHandle *testing.T) {
	if runtime.GOOS != "linux" {
		testingHandle.Skip("only linux file systems accept arbitrary name bytes")
	}
	rootDirectory := createFixture(testingHandle, map[string]string{"plain.txt": "x"})
	require.NoError(testingHandle, os.WriteFile(filepath.Join(rootDirectory, "bad\xff.txt"), []byte("x"), 0o644))

	logger := &recordingLogger{}
	options := DefaultOptions()
	options.Logger = logger
	result := buildTree(testingHandle, rootDirectory, options)
	require.Equal(testingHandle, []string{"project/", "├── bad\ufffd.txt", "└── plain.txt"}, result.Lines)
	require.Len(testingHandle, logger.warningMessages, 1)
	require.Empty(testingHandle, result.Warnings)
}

// TestBuildLogsDecisions verifies that ignore and traversal decisions reach the injected logger.
func TestBuildLogsDecisions(testingHandle *testing.T) {
	rootDirectory := createFixture(testingHandle, map[string]string{
		utils.GitIgnoreFileName: "*.log\nbuild\n",
		"a.txt":                 "a",
		"b.log":                 "b",
		"build/out.bin":         "x",
	})
	logger := &recordingLogger{}
	options := DefaultOptions()
	options.Logger = logger
	buildTree(testingHandle, rootDirectory, options)

	require.Contains(testingHandle, logger.infoMessages, "Added file: a.txt")
	require.Contains(testingHandle, logger.infoMessages, "Ignored directory indicated: build")
	require.Contains(testingHandle, logger.infoMessages, "Path ignored: b.log based on pattern: *.log")
	require.NotContains(testingHandle, logger.infoMessages, "Added file: b.log")
	require.Empty(testingHandle, logger.warningMessages)
}
