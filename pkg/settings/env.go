package settings

import (
	"os"

	"github.com/joho/godotenv"
)

// Default file locations, relative to the working directory
const (
	DefaultSettingsFile = "files/settings.json"
	DefaultImportFile   = "files/import.xlsx"
	DefaultSaltFile     = "files/salt.dat"
)

// EnvConfig holds process level configuration read from the environment
type EnvConfig struct {
	LogLevel     string
	SettingsFile string
	ImportFile   string
	SaltFile     string
}

// NewEnvConfig loads .env when present and reads the process configuration.
// A malformed .env is reported alongside a configuration built from the
// process environment alone.
func NewEnvConfig() (EnvConfig, error) {
	var loadErr error
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		loadErr = err
	}

	return EnvConfig{
		LogLevel:     os.Getenv("LOG_LEVEL"),
		SettingsFile: getEnvOrDefault("SETTINGS_FILE", DefaultSettingsFile),
		ImportFile:   getEnvOrDefault("IMPORT_FILE", DefaultImportFile),
		SaltFile:     getEnvOrDefault("SALT_FILE", DefaultSaltFile),
	}, loadErr
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
