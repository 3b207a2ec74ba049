package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotenvName is the project settings file shared with the management tools.
const DotenvName = ".env"

// FindDotenv walks up from dir looking for a .env file. It returns "" when
// none exists between dir and the filesystem root.
func FindDotenv(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(abs, DotenvName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

// LoadDotenv locates the .env file above dir and loads it into the process
// environment. Variables already set in the environment win. It returns the
// path loaded, or "" if there was nothing to load.
func LoadDotenv(dir string) (string, error) {
	path, err := FindDotenv(dir)
	if err != nil || path == "" {
		return "", err
	}
	if err := godotenv.Load(path); err != nil {
		return "", &ConfigError{Message: fmt.Sprintf("failed to load %s: %v", path, err)}
	}
	return path, nil
}

// LoadDotenvFile loads an explicit env file. Variables already set in the
// environment win.
func LoadDotenvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return &ConfigError{Message: fmt.Sprintf("failed to load %s: %v", path, err)}
	}
	return nil
}
