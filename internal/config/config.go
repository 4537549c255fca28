package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir        string `toml:"log_dir" yaml:"log_dir"`
	StateDir      string `toml:"state_dir" yaml:"state_dir"`
	ProjectRoot   string `toml:"project_root" yaml:"project_root"`
	TransferRoot  string `toml:"transfer_root" yaml:"transfer_root"`
	OutputDirName string `toml:"output_dir_name" yaml:"output_dir_name"`
}

// Host contains connection settings for the asset tracking server.
type Host struct {
	ServerURL      string `toml:"server_url" yaml:"server_url"`
	APIUser        string `toml:"api_user" yaml:"api_user"`
	APIKey         string `toml:"api_key" yaml:"api_key"`
	Username       string `toml:"username" yaml:"username"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// EventHub selects how host events reach the daemon.
type EventHub struct {
	Driver     string `toml:"driver" yaml:"driver"`
	URL        string `toml:"url" yaml:"url"`
	Exchange   string `toml:"exchange" yaml:"exchange"`
	Queue      string `toml:"queue" yaml:"queue"`
	ReplyTopic string `toml:"reply_topic" yaml:"reply_topic"`
	Prefetch   int    `toml:"prefetch" yaml:"prefetch"`
}

// Actions contains the launchable action settings.
type Actions struct {
	TaskNames           []string `toml:"task_names" yaml:"task_names"`
	UploadStatusIndex   int      `toml:"upload_status_index" yaml:"upload_status_index"`
	TransferStatusIndex int      `toml:"transfer_status_index" yaml:"transfer_status_index"`
	OutputManager       bool     `toml:"output_manager" yaml:"output_manager"`
	TransferFile        bool     `toml:"transfer_file" yaml:"transfer_file"`
	Viewer              bool     `toml:"viewer" yaml:"viewer"`
	StatusSync          bool     `toml:"status_sync" yaml:"status_sync"`
}

// Statuses pins named task statuses to host ids. Names without an id are
// matched against the host catalog by name.
type Statuses struct {
	IDs map[string]string `toml:"ids" yaml:"ids"`
}

// Viewer contains image viewer discovery settings.
type Viewer struct {
	Label      string   `toml:"label" yaml:"label"`
	Identifier string   `toml:"identifier" yaml:"identifier"`
	Globs      []string `toml:"globs" yaml:"globs"`
}

// Mail contains SMTP settings for transfer notifications.
type Mail struct {
	Enabled        bool   `toml:"enabled" yaml:"enabled"`
	Host           string `toml:"host" yaml:"host"`
	Port           int    `toml:"port" yaml:"port"`
	Username       string `toml:"username" yaml:"username"`
	Password       string `toml:"password" yaml:"password"`
	From           string `toml:"from" yaml:"from"`
	SubjectPrefix  string `toml:"subject_prefix" yaml:"subject_prefix"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
	// TLS is "mandatory", "opportunistic" or "none".
	TLS string `toml:"tls" yaml:"tls"`
}

// Sessions contains settings for the two-phase launch context store.
type Sessions struct {
	Driver        string `toml:"driver" yaml:"driver"`
	TTLSeconds    int    `toml:"ttl_seconds" yaml:"ttl_seconds"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db"`
	KeyPrefix     string `toml:"key_prefix" yaml:"key_prefix"`
}

// Ledger contains settings for the background job ledger.
type Ledger struct {
	Driver string `toml:"driver" yaml:"driver"`
	Path   string `toml:"path" yaml:"path"`
	DSN    string `toml:"dsn" yaml:"dsn"`
}

// Jobs contains background job settings.
type Jobs struct {
	DrainTimeoutSeconds int `toml:"drain_timeout_seconds" yaml:"drain_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format" yaml:"format"`
	Level         string `toml:"level" yaml:"level"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days"`
}

// Config encapsulates all configuration values for shothook.
//
// Configuration sections by subsystem:
//   - Paths: log/state directories and project storage roots
//   - Host: asset tracking server URL and API credentials
//   - EventHub: event transport (in-process or AMQP)
//   - Actions: enabled handlers, task gate and status indexes
//   - Statuses: status name to id pinning
//   - Viewer: image viewer discovery
//   - Mail: SMTP transfer notifications
//   - Sessions: two-phase launch context storage
//   - Ledger: background job history
//   - Jobs: shutdown drain behaviour
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths" yaml:"paths"`
	Host     Host     `toml:"host" yaml:"host"`
	EventHub EventHub `toml:"event_hub" yaml:"event_hub"`
	Actions  Actions  `toml:"actions" yaml:"actions"`
	Statuses Statuses `toml:"statuses" yaml:"statuses"`
	Viewer   Viewer   `toml:"viewer" yaml:"viewer"`
	Mail     Mail     `toml:"mail" yaml:"mail"`
	Sessions Sessions `toml:"sessions" yaml:"sessions"`
	Ledger   Ledger   `toml:"ledger" yaml:"ledger"`
	Jobs     Jobs     `toml:"jobs" yaml:"jobs"`
	Logging  Logging  `toml:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Files ending in .yaml or .yml are decoded as YAML.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := decode(file, resolvedPath, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(r io.Reader, path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err := yaml.NewDecoder(r).Decode(cfg)
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	default:
		return toml.NewDecoder(r).Decode(cfg)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shothook.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Project and transfer roots live on shared storage and are never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Ledger.Driver == LedgerSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Ledger.Path), 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}
	return nil
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "shothook.sock")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "shothook.lock")
}

// HostTimeout returns the host API request timeout.
func (c *Config) HostTimeout() time.Duration {
	return time.Duration(c.Host.TimeoutSeconds) * time.Second
}

// SessionTTL returns how long first-phase launch context is retained.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Sessions.TTLSeconds) * time.Second
}

// DrainTimeout bounds how long shutdown waits for background jobs.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.Jobs.DrainTimeoutSeconds) * time.Second
}

// MailTimeout returns the SMTP dial and send timeout.
func (c *Config) MailTimeout() time.Duration {
	return time.Duration(c.Mail.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
