package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the updater settings loaded from YAML.
type Config struct {
	// Download controls timeouts and retry counts for network operations.
	Download DownloadConfig `yaml:"download"`
	// Logging controls log level and the optional log file.
	Logging LoggingConfig `yaml:"logging"`
	// Files lists names to preserve in the live installation during updates.
	Files FilesConfig `yaml:"files"`
}

// DownloadConfig holds network tuning for the catalog API and archive downloads.
type DownloadConfig struct {
	// DownloadTimeoutSeconds is the timeout for archive downloads.
	// An absent key keeps the default; zero or empty means no timeout at all.
	DownloadTimeoutSeconds Seconds `yaml:"download_timeout"`
	// APITimeoutSeconds is the timeout for catalog API calls.
	// An absent key keeps the default; zero or empty means no timeout at all.
	APITimeoutSeconds Seconds `yaml:"api_timeout"`
	// MaxRetries is the attempt count for API calls and downloads, floored at 1.
	MaxRetries int `yaml:"max_retries"`
}

// Seconds is an optional whole-seconds setting that distinguishes an absent
// key from a key present with an empty or zero value.
type Seconds struct {
	set   bool
	value int
}

// UnmarshalYAML records that the key was present. An empty (null) value is an
// explicit zero, not the default.
func (s *Seconds) UnmarshalYAML(node *yaml.Node) error {
	s.set = true

	if node.Tag == "!!null" {
		s.value = 0

		return nil
	}

	return node.Decode(&s.value)
}

// LoggingConfig holds log level and file output settings.
type LoggingConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// SaveLogs enables writing logs to LogFile in addition to stdout.
	SaveLogs *bool `yaml:"save_logs"`
	// LogFile is the log file name, resolved relative to the target directory.
	LogFile string `yaml:"log_file"`
}

// FilesConfig holds newline-delimited exclude lists. Blank lines and lines
// starting with '#' are ignored.
type FilesConfig struct {
	ExcludeFiles string `yaml:"exclude_files"`
	ExcludeDirs  string `yaml:"exclude_dirs"`
}

const (
	// DefaultConfigFilename is the settings file looked up in the target
	// directory first and next to the executable second.
	DefaultConfigFilename = "updater-config.yaml"

	// DefaultDownloadTimeoutSeconds is used when download_timeout is absent.
	DefaultDownloadTimeoutSeconds = 60

	// DefaultAPITimeoutSeconds is used when api_timeout is absent.
	DefaultAPITimeoutSeconds = 30

	// DefaultMaxRetries is used when max_retries is absent or non-positive.
	DefaultMaxRetries = 3

	// DefaultLogLevel is used when log_level is absent.
	DefaultLogLevel = "info"

	// DefaultLogFile is used when log_file is absent.
	DefaultLogFile = "updater.log"
)

// Default returns a configuration with every field at its documented default.
func Default() *Config {
	cfg := new(Config)
	cfg.applyDefaults()

	return cfg
}

// Locate returns the path of the first settings file that exists, searching
// the target directory first and the executable's directory second. An empty
// string means no settings file is present, which is not an error.
func Locate(targetDir string) string {
	candidate := filepath.Join(targetDir, DefaultConfigFilename)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	executable, err := os.Executable()
	if err != nil {
		return ""
	}

	candidate = filepath.Join(filepath.Dir(executable), DefaultConfigFilename)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	return ""
}

// Load reads configuration from the provided path. An empty path or a missing
// file yields the defaults; a present but unparseable file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills absent fields with documented fallback values.
func (c *Config) applyDefaults() {
	if c.Download.MaxRetries < 1 {
		c.Download.MaxRetries = DefaultMaxRetries
	}

	if c.Logging.LogLevel == "" {
		c.Logging.LogLevel = DefaultLogLevel
	}

	if c.Logging.SaveLogs == nil {
		enabled := true
		c.Logging.SaveLogs = &enabled
	}

	if c.Logging.LogFile == "" {
		c.Logging.LogFile = DefaultLogFile
	}
}

// DownloadTimeout returns the archive download timeout.
// Zero means no timeout, deliberately blocking indefinitely.
func (c *Config) DownloadTimeout() time.Duration {
	return timeoutFromSeconds(c.Download.DownloadTimeoutSeconds, DefaultDownloadTimeoutSeconds)
}

// APITimeout returns the catalog API call timeout.
// Zero means no timeout, deliberately blocking indefinitely.
func (c *Config) APITimeout() time.Duration {
	return timeoutFromSeconds(c.Download.APITimeoutSeconds, DefaultAPITimeoutSeconds)
}

// ExcludeFileSet returns the parsed set of file names to drop from the
// extracted tree during updates.
func (c *Config) ExcludeFileSet() map[string]struct{} {
	return parseExcludeList(c.Files.ExcludeFiles)
}

// ExcludeDirSet returns the parsed set of directory names to drop from the
// extracted tree during updates.
func (c *Config) ExcludeDirSet() map[string]struct{} {
	return parseExcludeList(c.Files.ExcludeDirs)
}

// timeoutFromSeconds resolves an optional seconds value against a fallback.
// An explicit zero, negative, or empty value disables the timeout.
func timeoutFromSeconds(seconds Seconds, fallback int) time.Duration {
	if !seconds.set {
		return time.Duration(fallback) * time.Second
	}

	if seconds.value <= 0 {
		return 0
	}

	return time.Duration(seconds.value) * time.Second
}

// parseExcludeList splits a newline-delimited block into a name set,
// skipping blank lines and '#' comments.
func parseExcludeList(block string) map[string]struct{} {
	result := make(map[string]struct{})

	for _, line := range strings.Split(block, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}

		result[name] = struct{}{}
	}

	return result
}
