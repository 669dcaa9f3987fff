package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/skryper/internal/utils"
)

type configTestCase struct {
	name           string
	globalContent  string
	localContent   string
	explicitPath   string
	expectExcluded []string
	expectInclude  []string
	expectRuleFile string
	expectCopy     bool
	expectLogging  bool
	expectTokens   bool
	expectModel    string
	expectOutput   string
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:           "defaults_without_files",
			expectExcluded: utils.DefaultExcludedNames(),
			expectInclude:  utils.DefaultInclusionRules(),
			expectRuleFile: utils.GitIgnoreFileName,
			expectModel:    utils.DefaultTokenModel,
		},
		{
			name:           "local_overrides_global",
			globalContent:  "scan:\n  excluded: [node_modules]\noutput:\n  copy: true\nlogging:\n  enabled: true\n",
			localContent:   "output:\n  copy: false\n  directory: reports\ntokens:\n  enabled: true\n  model: custom\n",
			expectExcluded: []string{"node_modules"},
			expectInclude:  utils.DefaultInclusionRules(),
			expectRuleFile: utils.GitIgnoreFileName,
			expectCopy:     false,
			expectLogging:  true,
			expectTokens:   true,
			expectModel:    "custom",
			expectOutput:   "reports",
		},
		{
			name:           "explicit_path_only",
			globalContent:  "scan:\n  rule_file: .globalignore\n",
			localContent:   "scan:\n  rule_file: .ignored-local\n",
			explicitPath:   "custom.yaml",
			expectExcluded: utils.DefaultExcludedNames(),
			expectInclude:  []string{".github", "docs"},
			expectRuleFile: ".skryignore",
			expectModel:    utils.DefaultTokenModel,
		},
		{
			name:           "lists_are_deduplicated",
			localContent:   "scan:\n  excluded: [dist, ' dist ', '', build]\n  include: [.github, .github]\n",
			expectExcluded: []string{"dist", "build"},
			expectInclude:  []string{".github"},
			expectRuleFile: utils.GitIgnoreFileName,
			expectModel:    utils.DefaultTokenModel,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			configDir := filepath.Join(homeDir, utils.GlobalConfigDirectoryName)
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				t.Fatalf("create config dir: %v", err)
			}
			if testCase.globalContent != "" {
				globalPath := filepath.Join(configDir, utils.ConfigFileName)
				if err := os.WriteFile(globalPath, []byte(testCase.globalContent), 0o600); err != nil {
					t.Fatalf("write global config: %v", err)
				}
			}
			if testCase.localContent != "" {
				localPath := filepath.Join(workingDir, utils.LocalConfigFileName)
				if err := os.WriteFile(localPath, []byte(testCase.localContent), 0o600); err != nil {
					t.Fatalf("write local config: %v", err)
				}
			}
			if testCase.explicitPath != "" {
				target := filepath.Join(workingDir, testCase.explicitPath)
				explicitContent := "scan:\n  rule_file: .skryignore\n  include: [.github, docs]\n"
				if err := os.WriteFile(target, []byte(explicitContent), 0o600); err != nil {
					t.Fatalf("write explicit config: %v", err)
				}
			}

			t.Setenv("HOME", homeDir)
			t.Setenv("USERPROFILE", homeDir)

			loadedConfig, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDir,
				ExplicitFilePath: testCase.explicitPath,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}

			if !reflect.DeepEqual(loadedConfig.Scan.Excluded, testCase.expectExcluded) {
				t.Fatalf("expected excluded %v, got %v", testCase.expectExcluded, loadedConfig.Scan.Excluded)
			}
			if !reflect.DeepEqual(loadedConfig.Scan.Include, testCase.expectInclude) {
				t.Fatalf("expected include %v, got %v", testCase.expectInclude, loadedConfig.Scan.Include)
			}
			if loadedConfig.Scan.RuleFile != testCase.expectRuleFile {
				t.Fatalf("expected rule file %q, got %q", testCase.expectRuleFile, loadedConfig.Scan.RuleFile)
			}
			if BoolValue(loadedConfig.Output.Copy) != testCase.expectCopy {
				t.Fatalf("unexpected copy value")
			}
			if BoolValue(loadedConfig.Logging.Enabled) != testCase.expectLogging {
				t.Fatalf("unexpected logging value")
			}
			if BoolValue(loadedConfig.Tokens.Enabled) != testCase.expectTokens {
				t.Fatalf("unexpected tokens enabled value")
			}
			if loadedConfig.Tokens.Model != testCase.expectModel {
				t.Fatalf("expected model %q, got %q", testCase.expectModel, loadedConfig.Tokens.Model)
			}
			if loadedConfig.Output.Directory != testCase.expectOutput {
				t.Fatalf("expected output directory %q, got %q", testCase.expectOutput, loadedConfig.Output.Directory)
			}
		})
	}
}

func TestLoadApplicationConfigurationRejectsDirectory(t *testing.T) {
	homeDir := t.TempDir()
	workingDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	if err := os.Mkdir(filepath.Join(workingDir, utils.LocalConfigFileName), 0o755); err != nil {
		t.Fatalf("create directory: %v", err)
	}
	if _, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir}); err == nil {
		t.Fatalf("expected an error for a directory configuration path")
	}
}

func TestLoadApplicationConfigurationRejectsMalformedYAML(t *testing.T) {
	homeDir := t.TempDir()
	workingDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	localPath := filepath.Join(workingDir, utils.LocalConfigFileName)
	if err := os.WriteFile(localPath, []byte("scan: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write local config: %v", err)
	}
	if _, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir}); err == nil {
		t.Fatalf("expected an error for malformed configuration")
	}
}

func TestMergeClonesBooleans(t *testing.T) {
	override := ApplicationConfiguration{Logging: LoggingConfiguration{Verbose: boolPointer(true)}}
	merged := DefaultApplicationConfiguration().Merge(override)
	*override.Logging.Verbose = false
	if !BoolValue(merged.Logging.Verbose) {
		t.Fatalf("merged configuration must not alias the override")
	}
	if BoolValue(merged.Logging.Enabled) {
		t.Fatalf("unset override must keep the default")
	}
}
