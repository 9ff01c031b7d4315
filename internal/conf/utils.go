package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/tphakala/pugmark/internal/errors"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// The first entry is where a default config is created.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get_home_directory").
			Build()
	}

	if runtime.GOOS == "windows" {
		return []string{
			filepath.Join(homeDir, "AppData", "Roaming", "pugmark"),
			".",
		}, nil
	}

	return []string{
		filepath.Join(homeDir, ".config", "pugmark"),
		"/etc/pugmark",
		".",
	}, nil
}
