package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/structix/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/structix/structix.toml
	SourceUser        ConfigSource = "user"        // ~/.structix/structix.toml
	SourceProject     ConfigSource = "project"     // nearest structix.toml
	SourceEnvironment ConfigSource = "environment" // STRUCTIX_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource // The type of config source (default, system, user, etc.)
	Path   string       // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"` // File path or env var name
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	Files    []string      `json:"files" yaml:"files"`       // merged config files, lowest precedence first
	Settings []SettingInfo `json:"settings" yaml:"settings"` // All settings with sources
}

// GetConfigIntrospection returns every effective setting with the source
// tracked while loading
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	v := GetViper()

	introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}
	for _, info := range ConfigPaths() {
		introspection.Files = append(introspection.Files, info.Path)
	}

	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		sourceInfo := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := ConfigSources[key]; ok {
			sourceInfo = si
		}

		// Check if environment variable overrides
		envKey := "STRUCTIX_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, ok := os.LookupEnv(envKey); ok {
			sourceInfo = SourceInfo{Source: SourceEnvironment, Path: envKey}
		} else if alias, ok := envAliases[key]; ok {
			if _, set := os.LookupEnv(alias); set {
				sourceInfo = SourceInfo{Source: SourceEnvironment, Path: alias}
			}
		}

		introspection.Settings = append(introspection.Settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     sourceInfo.Source,
			SourcePath: sourceInfo.Path,
		})
	}

	return introspection, nil
}
