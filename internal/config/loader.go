package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the configuration file name looked up in the
	// current and home directories.
	DefaultConfigFile = ".sitecheck"

	// xdgConfigFile is the configuration file name inside XDGConfigDir.
	xdgConfigFile = "config.yaml"
)

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFile is returned when the configuration file parses
	// but holds values sitecheck cannot use.
	ErrInvalidConfigFile = errors.New("invalid configuration file")
)

// LoadConfigFile reads defaults and per-site overrides from a YAML file.
//
// Unknown keys are rejected so a misspelled option does not silently fall
// back to the default. An empty file yields an empty configuration.
// A missing file yields ErrConfigNotFound; whether that is fatal is up to
// the caller.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cf, err := decodeFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cf, nil
}

func decodeFile(data []byte) (*File, error) {
	var cf File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	if err := cf.validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

// validate checks site keys and header names.
func (cf *File) validate() error {
	if err := validateHeaders("defaults", cf.Defaults.Headers); err != nil {
		return err
	}
	for key, site := range cf.Sites {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: empty site key", ErrInvalidConfigFile)
		}
		if err := validateHeaders(key, site.Headers); err != nil {
			return err
		}
	}
	return nil
}

func validateHeaders(section string, headers map[string]string) error {
	for name := range headers {
		if name == "" || strings.ContainsAny(name, " \t\r\n:") {
			return fmt.Errorf("%w: %s: bad header name %q", ErrInvalidConfigFile, section, name)
		}
	}
	return nil
}

// searchPaths returns the implicit configuration file locations in lookup order.
func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return paths
}

// FindConfigFile returns the configuration file to load, or "" when none exists.
//
// An explicit configPath is used as is. Otherwise the first existing file of
// ./.sitecheck, <XDG config dir>/sitecheck/config.yaml and ~/.sitecheck wins.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if isFile(configPath) {
			return configPath
		}
		return ""
	}
	for _, p := range searchPaths() {
		if isFile(p) {
			return p
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
