package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/structix/errors"
)

var globalConfig *Config
var viperInstance *viper.Viper

// systemConfigPath is the lowest-precedence config file
var systemConfigPath = "/etc/structix/" + ConfigFileName

// ConfigSources records, per dotted key, the file or variable that set it
// during the last load.
var ConfigSources = map[string]SourceInfo{}

// Load reads the structix configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	globalConfig = &config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path over the
// defaults, ignoring the other sources
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Set defaults but don't bind environment variables for this specific load
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in %s", configPath)
	}

	return &config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	// Set up environment variable binding
	v.SetEnvPrefix("STRUCTIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	// Set defaults first
	SetDefaults(v)

	// Manually merge configs in precedence order: system -> user -> project -> env vars
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// UserConfigPath returns ~/.structix/structix.toml
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserDirName, ConfigFileName)
}

// FindProjectConfig searches for structix.toml by walking up the directory
// tree from the working directory. Returns "" when none is found.
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root, stop searching
			break
		}
		dir = parent
	}

	return ""
}

// ConfigPaths lists the config files that exist, lowest precedence first
func ConfigPaths() []SourceInfo {
	candidates := []SourceInfo{
		{Source: SourceSystem, Path: systemConfigPath},
		{Source: SourceUser, Path: UserConfigPath()},
	}
	if project := FindProjectConfig(); project != "" && project != UserConfigPath() {
		candidates = append(candidates, SourceInfo{Source: SourceProject, Path: project})
	}

	var found []SourceInfo
	for _, c := range candidates {
		if c.Path == "" {
			continue
		}
		if _, err := os.Stat(c.Path); err == nil {
			found = append(found, c)
		}
	}
	return found
}

// mergeConfigFiles manually merges configuration files in the correct precedence order
// Precedence (lowest to highest): system < user < project < env vars
func mergeConfigFiles(v *viper.Viper) {
	ConfigSources = map[string]SourceInfo{}

	for _, info := range ConfigPaths() {
		tempViper := viper.New()
		tempViper.SetConfigFile(info.Path)
		tempViper.SetConfigType("toml")

		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}
		// MergeConfigMap keeps env vars above file values, unlike Set
		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range tempViper.AllKeys() {
			ConfigSources[key] = info
		}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return initViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return initViper().GetString(key)
}
