package am

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultSniffBytes    = 64 * 1024
	DefaultBondTolerance = 1.2
	DefaultDebounceMS    = 500
	DefaultFetchTimeout  = 300
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Format resolution
	v.SetDefault("formats.sniff_bytes", DefaultSniffBytes)
	v.SetDefault("formats.bond_tolerance", DefaultBondTolerance)
	v.SetDefault("formats.converters", "")

	// Read step parameters
	v.SetDefault("read.file_type", "from extension")
	v.SetDefault("read.add_hydrogens", true)
	v.SetDefault("read.indices", "1:end")
	v.SetDefault("read.subsequent", "Create a new system and configuration")
	v.SetDefault("read.system_name", "from file")
	v.SetDefault("read.configuration_name", "from file")

	// Catalog
	v.SetDefault("catalog.enabled", true)
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.retention_days", 0)

	v.SetDefault("workspace.temp_dir", "")
	v.SetDefault("workspace.fetch_timeout_sec", DefaultFetchTimeout)
	v.SetDefault("workspace.block_private_hosts", false)

	v.SetDefault("watch.debounce_ms", DefaultDebounceMS)
	v.SetDefault("watch.max_per_minute", 0)

	v.SetDefault("log.json", false)
}

// envAliases are short variable names accepted besides the automatic
// STRUCTIX_<SECTION>_<KEY> form
var envAliases = map[string]string{
	"workspace.temp_dir": "STRUCTIX_TEMP_DIR",
	"formats.converters": "STRUCTIX_CONVERTERS",
}

// BindEnvVars binds the short environment aliases
func BindEnvVars(v *viper.Viper) {
	for key, env := range envAliases {
		v.BindEnv(key, "STRUCTIX_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}

// GetCatalogPath returns the catalog database path, defaulting to
// ~/.structix/catalog.db
func (c *Config) GetCatalogPath() string {
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return CatalogName
	}
	return filepath.Join(home, UserDirName, CatalogName)
}

// GetSniffBytes returns the sniff window, defaulting when unset
func (c *Config) GetSniffBytes() int {
	if c.Formats.SniffBytes <= 0 {
		return DefaultSniffBytes
	}
	return c.Formats.SniffBytes
}

// GetBondTolerance returns the bond perception tolerance, defaulting when unset
func (c *Config) GetBondTolerance() float64 {
	if c.Formats.BondTolerance <= 0 {
		return DefaultBondTolerance
	}
	return c.Formats.BondTolerance
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Formats: {SniffBytes: %d, Converters: %q}, Catalog: {Enabled: %t, Path: %s}}",
		c.Formats.SniffBytes, c.Formats.Converters, c.Catalog.Enabled, c.Catalog.Path)
}
