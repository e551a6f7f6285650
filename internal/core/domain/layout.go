package domain

import (
	"os"
	"path/filepath"
)

const (
	// AppDirName is the directory name used under the user config and state directories.
	AppDirName = "notionstatus"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "notionstatus.yaml"

	// StoreDirName is the directory of the file-backed key/value store.
	StoreDirName = "store"

	// SQLiteFileName is the database file of the sqlite key/value store.
	SQLiteFileName = "cache.db"

	// EnvPrefix prefixes environment variable overrides (NOTIONSTATUS_INTEGRATION_TOKEN, ...).
	EnvPrefix = "NOTIONSTATUS"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultConfigPath returns $XDG_CONFIG_HOME/notionstatus/notionstatus.yaml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ConfigFileName
	}
	return filepath.Join(dir, AppDirName, ConfigFileName)
}

// DefaultStateDir returns $XDG_STATE_HOME/notionstatus, falling back to the user cache directory.
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppDirName)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppDirName)
	}
	return "." + AppDirName
}

// DefaultStorePath returns the directory of the file-backed key/value store.
func DefaultStorePath() string {
	return filepath.Join(DefaultStateDir(), StoreDirName)
}

// DefaultSQLitePath returns the database file of the sqlite key/value store.
func DefaultSQLitePath() string {
	return filepath.Join(DefaultStateDir(), SQLiteFileName)
}

// ConfigEnvVar overrides the configuration file location.
const ConfigEnvVar = EnvPrefix + "_CONFIG"

// ResolveConfigPath returns the config file named by NOTIONSTATUS_CONFIG, or DefaultConfigPath.
func ResolveConfigPath() string {
	if path := os.Getenv(ConfigEnvVar); path != "" {
		return path
	}
	return DefaultConfigPath()
}
