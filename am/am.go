// Package am ("I am") loads the structix configuration.
//
// Settings are merged from, lowest precedence first: built-in defaults,
// /etc/structix/structix.toml, ~/.structix/structix.toml, the nearest
// structix.toml found walking up from the working directory, and
// STRUCTIX_* environment variables.
package am

// Config represents the structix configuration
type Config struct {
	Formats   FormatsConfig   `mapstructure:"formats" yaml:"formats" toml:"formats"`
	Read      ReadConfig      `mapstructure:"read" yaml:"read" toml:"read"`
	Catalog   CatalogConfig   `mapstructure:"catalog" yaml:"catalog" toml:"catalog"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace" toml:"workspace"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch" toml:"watch"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" toml:"log"`
}

// FormatsConfig configures format resolution and the readers
type FormatsConfig struct {
	SniffBytes    int     `mapstructure:"sniff_bytes" yaml:"sniff_bytes" toml:"sniff_bytes"`          // bytes read for content sniffing (default: 65536)
	BondTolerance float64 `mapstructure:"bond_tolerance" yaml:"bond_tolerance" toml:"bond_tolerance"` // covalent radius scale for bond perception (default: 1.2)
	Converters    string  `mapstructure:"converters" yaml:"converters" toml:"converters"`             // path to converters.toml ("" = none)
}

// ReadConfig holds the defaults of the read step parameters
type ReadConfig struct {
	FileType          string `mapstructure:"file_type" yaml:"file_type" toml:"file_type"`
	AddHydrogens      bool   `mapstructure:"add_hydrogens" yaml:"add_hydrogens" toml:"add_hydrogens"`
	Indices           string `mapstructure:"indices" yaml:"indices" toml:"indices"`
	Subsequent        string `mapstructure:"subsequent" yaml:"subsequent" toml:"subsequent"`
	SystemName        string `mapstructure:"system_name" yaml:"system_name" toml:"system_name"`
	ConfigurationName string `mapstructure:"configuration_name" yaml:"configuration_name" toml:"configuration_name"`
}

// CatalogConfig configures the SQLite ingestion catalog
type CatalogConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path" toml:"path"`                               // "" = ~/.structix/catalog.db
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days" toml:"retention_days"` // 0 = keep forever
}

// WorkspaceConfig configures temporary files
type WorkspaceConfig struct {
	TempDir           string `mapstructure:"temp_dir" yaml:"temp_dir" toml:"temp_dir"`                                  // parent of downloads and archive workspaces ("" = system default)
	FetchTimeoutSec   int    `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec" toml:"fetch_timeout_sec"`       // HTTP(S) download timeout (0 = none)
	BlockPrivateHosts bool   `mapstructure:"block_private_hosts" yaml:"block_private_hosts" toml:"block_private_hosts"` // refuse URLs resolving to loopback or private networks
}

// WatchConfig configures drop-directory ingestion
type WatchConfig struct {
	DebounceMS   int `mapstructure:"debounce_ms" yaml:"debounce_ms" toml:"debounce_ms"`
	MaxPerMinute int `mapstructure:"max_per_minute" yaml:"max_per_minute" toml:"max_per_minute"` // 0 = unlimited
}

// LogConfig configures logging
type LogConfig struct {
	JSON bool `mapstructure:"json" yaml:"json" toml:"json"` // JSON lines instead of console output
}

// File names and locations
const (
	ConfigFileName = "structix.toml"
	UserDirName    = ".structix"
	CatalogName    = "catalog.db"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
