// Package config loads skryper's layered YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/skryper/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds the configurable defaults of a scan run.
// Unset scalar values stay nil so that later sources only override what they name.
type ApplicationConfiguration struct {
	Scan    ScanConfiguration    `mapstructure:"scan" yaml:"scan"`
	Output  OutputConfiguration  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfiguration `mapstructure:"logging" yaml:"logging"`
	Tokens  TokenConfiguration   `mapstructure:"tokens" yaml:"tokens"`
}

// ScanConfiguration configures the rules applied while walking a tree.
type ScanConfiguration struct {
	Excluded []string `mapstructure:"excluded" yaml:"excluded"`
	Include  []string `mapstructure:"include" yaml:"include"`
	RuleFile string   `mapstructure:"rule_file" yaml:"rule_file,omitempty"`
}

// OutputConfiguration configures where and how the rendered tree is delivered.
type OutputConfiguration struct {
	Directory string `mapstructure:"directory" yaml:"directory,omitempty"`
	Copy      *bool  `mapstructure:"copy" yaml:"copy,omitempty"`
	Stdout    *bool  `mapstructure:"stdout" yaml:"stdout,omitempty"`
}

// LoggingConfiguration controls the run log.
type LoggingConfiguration struct {
	Enabled *bool `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Verbose *bool `mapstructure:"verbose" yaml:"verbose,omitempty"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Model   string `mapstructure:"model" yaml:"model,omitempty"`
}

// DefaultApplicationConfiguration returns the configuration used when no file sets a value.
func DefaultApplicationConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Scan: ScanConfiguration{
			Excluded: utils.DefaultExcludedNames(),
			Include:  utils.DefaultInclusionRules(),
			RuleFile: utils.GitIgnoreFileName,
		},
		Output: OutputConfiguration{
			Copy:   boolPointer(false),
			Stdout: boolPointer(false),
		},
		Logging: LoggingConfiguration{
			Enabled: boolPointer(false),
			Verbose: boolPointer(false),
		},
		Tokens: TokenConfiguration{
			Enabled: boolPointer(false),
			Model:   utils.DefaultTokenModel,
		},
	}
}

// LoadApplicationConfiguration loads configuration from global and local files.
// The global file lives under the user's home directory; the local file is
// either ExplicitFilePath or the local configuration file of the working directory.
// Missing files are skipped. Values from later sources override earlier ones.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	merged := DefaultApplicationConfiguration()

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Scan.Excluded = utils.DeduplicatePatterns(merged.Scan.Excluded)
	merged.Scan.Include = utils.DeduplicatePatterns(merged.Scan.Include)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Scan = result.Scan.merge(override.Scan)
	result.Output = result.Output.merge(override.Output)
	result.Logging = result.Logging.merge(override.Logging)
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

// A non-empty list replaces the inherited one, so a file can drop a default exclusion.
func (config ScanConfiguration) merge(override ScanConfiguration) ScanConfiguration {
	result := config
	if len(override.Excluded) > 0 {
		result.Excluded = append([]string{}, utils.DeduplicatePatterns(override.Excluded)...)
	}
	if len(override.Include) > 0 {
		result.Include = append([]string{}, utils.DeduplicatePatterns(override.Include)...)
	}
	if override.RuleFile != "" {
		result.RuleFile = override.RuleFile
	}
	return result
}

func (config OutputConfiguration) merge(override OutputConfiguration) OutputConfiguration {
	result := config
	if override.Directory != "" {
		result.Directory = override.Directory
	}
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	if override.Stdout != nil {
		result.Stdout = cloneBool(override.Stdout)
	}
	return result
}

func (config LoggingConfiguration) merge(override LoggingConfiguration) LoggingConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Verbose != nil {
		result.Verbose = cloneBool(override.Verbose)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// BoolValue dereferences value, treating nil as false.
func BoolValue(value *bool) bool {
	return value != nil && *value
}

func boolPointer(value bool) *bool {
	return &value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
