package am

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/teranos/structix/errors"
)

// DefaultConfig returns the configuration built from the defaults alone
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// defaults always unmarshal
		panic(err)
	}
	return cfg
}

// WriteDefault writes a starter config file with every default spelled out.
// An existing file is kept unless force is set, in which case it is rotated
// into the backups first.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.WithHint(errors.Newf("%s already exists", path), "pass --force to overwrite it")
	}

	data, err := MarshalTOML(DefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// MarshalTOML renders c as TOML
func MarshalTOML(c *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# structix configuration\n\n")
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return buf.Bytes(), nil
}

// MarshalYAML renders c as YAML for display
func MarshalYAML(c *Config) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	// Check if file exists before backing up
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete oldest backup")
	}

	// Rotate .back2 to .back3
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	// Rotate .back1 to .back2
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	// Copy current to .back1
	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}
