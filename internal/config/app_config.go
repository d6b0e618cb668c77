// Package config loads chtree defaults from global and local YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/chtree/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Tree TreeConfiguration `mapstructure:"tree"`
}

// TreeConfiguration defines defaults of the tree command. Pointer fields stay
// nil when a file does not mention them so merging can tell unset from false.
type TreeConfiguration struct {
	Format      string `mapstructure:"format"`
	Backend     string `mapstructure:"backend"`
	Summary     *bool  `mapstructure:"summary"`
	Color       *bool  `mapstructure:"color"`
	RootChanges *bool  `mapstructure:"root_changes"`
	Verify      *bool  `mapstructure:"verify"`
	Copy        *bool  `mapstructure:"copy"`
	CopyOnly    *bool  `mapstructure:"copy_only"`
}

// CopySettings describes clipboard behavior after merging.
type CopySettings struct {
	Copy     *bool
	CopyOnly *bool
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	return merged.Merge(localConfig), nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
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
	result.Tree = result.Tree.merge(override.Tree)
	return result
}

func (config TreeConfiguration) merge(override TreeConfiguration) TreeConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Backend != "" {
		result.Backend = override.Backend
	}
	if override.Summary != nil {
		result.Summary = cloneBool(override.Summary)
	}
	if override.Color != nil {
		result.Color = cloneBool(override.Color)
	}
	if override.RootChanges != nil {
		result.RootChanges = cloneBool(override.RootChanges)
	}
	if override.Verify != nil {
		result.Verify = cloneBool(override.Verify)
	}
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	if override.CopyOnly != nil {
		result.CopyOnly = cloneBool(override.CopyOnly)
	}
	return result
}

// CopySettings returns the clipboard settings. copy_only implies copy.
func (config TreeConfiguration) CopySettings() CopySettings {
	settings := CopySettings{Copy: cloneBool(config.Copy), CopyOnly: cloneBool(config.CopyOnly)}
	if settings.CopyOnly != nil && *settings.CopyOnly {
		enabled := true
		settings.Copy = &enabled
	}
	return settings
}

// BoolOrDefault dereferences value or returns fallback when it is unset.
func BoolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// StringOrDefault returns value unless it is empty.
func StringOrDefault(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
