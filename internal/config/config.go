// Package config loads filedrop configuration from file, environment and
// defaults, in that order of increasing precedence for env over file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the resolved runtime configuration.
type Config struct {
	// DownloadsDir is the public storage area exports land in.
	DownloadsDir string

	// CatalogPath locates the JSON file catalog used to resolve identifiers.
	CatalogPath string

	// RemoteBaseURL is the remote file service endpoint. Empty disables
	// remote-backed sources and download delegation.
	RemoteBaseURL string

	// CollisionRetryCap bounds the rename loop per export.
	CollisionRetryCap int

	// SpaceSafetyMargin multiplies a file's declared size for the free-space
	// check (1.1 = 10% headroom).
	SpaceSafetyMargin float64

	// Notifications toggles desktop notification delivery.
	Notifications bool
}

// Load reads configuration. cfgFile, when non-empty, names an explicit
// config file; otherwise filedrop.yaml is searched in the working directory
// and ~/.config/filedrop. FILEDROP_* environment variables override file
// values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("downloads_dir", DefaultDownloadsDir())
	v.SetDefault("catalog_path", defaultCatalogPath())
	v.SetDefault("remote_base_url", "")
	v.SetDefault("collision_retry_cap", 1000)
	v.SetDefault("space_safety_margin", 1.1)
	v.SetDefault("notifications", true)

	v.SetEnvPrefix("FILEDROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("filedrop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "filedrop"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file anywhere: defaults + env carry the day.
	}

	return &Config{
		DownloadsDir:      v.GetString("downloads_dir"),
		CatalogPath:       v.GetString("catalog_path"),
		RemoteBaseURL:     v.GetString("remote_base_url"),
		CollisionRetryCap: v.GetInt("collision_retry_cap"),
		SpaceSafetyMargin: v.GetFloat64("space_safety_margin"),
		Notifications:     v.GetBool("notifications"),
	}, nil
}

// DefaultDownloadsDir returns the user's Downloads folder, falling back to
// a relative directory when the home directory cannot be determined.
func DefaultDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

func defaultCatalogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "filedrop-catalog.json"
	}
	return filepath.Join(home, ".config", "filedrop", "catalog.json")
}
