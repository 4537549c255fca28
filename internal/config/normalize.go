package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHost()
	c.normalizeEventHub()
	c.normalizeActions()
	c.normalizeStatuses()
	c.normalizeViewer()
	c.normalizeMail()
	c.normalizeSessions()
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	if c.Jobs.DrainTimeoutSeconds <= 0 {
		c.Jobs.DrainTimeoutSeconds = defaultDrainTimeoutSeconds
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.ProjectRoot, err = normalizeRoot(c.Paths.ProjectRoot); err != nil {
		return fmt.Errorf("paths.project_root: %w", err)
	}
	if c.Paths.TransferRoot, err = normalizeRoot(c.Paths.TransferRoot); err != nil {
		return fmt.Errorf("paths.transfer_root: %w", err)
	}
	c.Paths.OutputDirName = strings.Trim(strings.TrimSpace(c.Paths.OutputDirName), `/\`)
	if c.Paths.OutputDirName == "" {
		c.Paths.OutputDirName = defaultOutputDirName
	}
	return nil
}

// normalizeRoot keeps drive-letter and share roots verbatim; only home
// shortcuts are expanded.
func normalizeRoot(value string) (string, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "~") {
		return expandPath(value)
	}
	return value, nil
}

func (c *Config) normalizeHost() {
	if value, ok := lookupEnv("FTRACK_SERVER"); ok {
		c.Host.ServerURL = value
	}
	if value, ok := lookupEnv("FTRACK_API_USER"); ok {
		c.Host.APIUser = value
	}
	if value, ok := lookupEnv("FTRACK_API_KEY"); ok {
		c.Host.APIKey = value
	}
	c.Host.ServerURL = strings.TrimRight(strings.TrimSpace(c.Host.ServerURL), "/")
	c.Host.APIUser = strings.TrimSpace(c.Host.APIUser)
	c.Host.APIKey = strings.TrimSpace(c.Host.APIKey)
	c.Host.Username = strings.TrimSpace(c.Host.Username)
	if c.Host.Username == "" {
		c.Host.Username = c.Host.APIUser
	}
	if c.Host.TimeoutSeconds <= 0 {
		c.Host.TimeoutSeconds = defaultHostTimeoutSeconds
	}
}

func (c *Config) normalizeEventHub() {
	c.EventHub.Driver = strings.ToLower(strings.TrimSpace(c.EventHub.Driver))
	if c.EventHub.Driver == "" {
		c.EventHub.Driver = defaultEventHubDriver
	}
	if value, ok := lookupEnv("SHOTHOOK_AMQP_URL"); ok {
		c.EventHub.URL = value
	}
	c.EventHub.URL = strings.TrimSpace(c.EventHub.URL)
	c.EventHub.Exchange = strings.TrimSpace(c.EventHub.Exchange)
	if c.EventHub.Exchange == "" {
		c.EventHub.Exchange = defaultEventHubExchange
	}
	c.EventHub.Queue = strings.TrimSpace(c.EventHub.Queue)
	if c.EventHub.Queue == "" {
		c.EventHub.Queue = defaultEventHubQueue
	}
	c.EventHub.ReplyTopic = strings.TrimSpace(c.EventHub.ReplyTopic)
	if c.EventHub.ReplyTopic == "" {
		c.EventHub.ReplyTopic = defaultReplyTopic
	}
	if c.EventHub.Prefetch <= 0 {
		c.EventHub.Prefetch = defaultEventHubPrefetch
	}
}

func (c *Config) normalizeActions() {
	names := make([]string, 0, len(c.Actions.TaskNames))
	seen := make(map[string]struct{}, len(c.Actions.TaskNames))
	for _, name := range c.Actions.TaskNames {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		names = append(names, trimmed)
	}
	if len(names) == 0 {
		names = defaultTaskNames()
	}
	c.Actions.TaskNames = names
}

func (c *Config) normalizeStatuses() {
	if len(c.Statuses.IDs) == 0 {
		return
	}
	ids := make(map[string]string, len(c.Statuses.IDs))
	for name, id := range c.Statuses.IDs {
		key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
		if key == "" || strings.TrimSpace(id) == "" {
			continue
		}
		ids[key] = strings.TrimSpace(id)
	}
	c.Statuses.IDs = ids
}

func (c *Config) normalizeViewer() {
	c.Viewer.Label = strings.TrimSpace(c.Viewer.Label)
	if c.Viewer.Label == "" {
		c.Viewer.Label = defaultViewerLabel
	}
	c.Viewer.Identifier = strings.TrimSpace(c.Viewer.Identifier)
	if c.Viewer.Identifier == "" {
		c.Viewer.Identifier = defaultViewerIdentifier
	}
	globs := c.Viewer.Globs[:0]
	for _, g := range c.Viewer.Globs {
		if trimmed := strings.TrimSpace(g); trimmed != "" {
			globs = append(globs, trimmed)
		}
	}
	c.Viewer.Globs = globs
}

func (c *Config) normalizeMail() {
	if value, ok := lookupEnv("SHOTHOOK_SMTP_PASSWORD"); ok {
		c.Mail.Password = value
	}
	c.Mail.Host = strings.TrimSpace(c.Mail.Host)
	if c.Mail.Host == "" {
		c.Mail.Host = defaultMailHost
	}
	if c.Mail.Port <= 0 {
		c.Mail.Port = defaultMailPort
	}
	c.Mail.Username = strings.TrimSpace(c.Mail.Username)
	c.Mail.From = strings.TrimSpace(c.Mail.From)
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.Username
	}
	c.Mail.SubjectPrefix = strings.TrimSpace(c.Mail.SubjectPrefix)
	if c.Mail.SubjectPrefix == "" {
		c.Mail.SubjectPrefix = defaultMailSubjectPrefix
	}
	if c.Mail.TimeoutSeconds <= 0 {
		c.Mail.TimeoutSeconds = defaultMailTimeoutSeconds
	}
	c.Mail.TLS = strings.ToLower(strings.TrimSpace(c.Mail.TLS))
	if c.Mail.TLS == "" {
		c.Mail.TLS = defaultMailTLS
	}
}

func (c *Config) normalizeSessions() {
	c.Sessions.Driver = strings.ToLower(strings.TrimSpace(c.Sessions.Driver))
	if c.Sessions.Driver == "" {
		c.Sessions.Driver = defaultSessionDriver
	}
	if value, ok := lookupEnv("SHOTHOOK_REDIS_PASSWORD"); ok {
		c.Sessions.RedisPassword = value
	}
	c.Sessions.RedisAddr = strings.TrimSpace(c.Sessions.RedisAddr)
	if c.Sessions.TTLSeconds <= 0 {
		c.Sessions.TTLSeconds = defaultSessionTTLSeconds
	}
	if strings.TrimSpace(c.Sessions.KeyPrefix) == "" {
		c.Sessions.KeyPrefix = defaultSessionKeyPrefix
	}
}

func (c *Config) normalizeLedger() error {
	c.Ledger.Driver = strings.ToLower(strings.TrimSpace(c.Ledger.Driver))
	if c.Ledger.Driver == "" {
		c.Ledger.Driver = defaultLedgerDriver
	}
	if value, ok := lookupEnv("SHOTHOOK_LEDGER_DSN"); ok {
		c.Ledger.DSN = value
	}
	c.Ledger.DSN = strings.TrimSpace(c.Ledger.DSN)
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
	}
	var err error
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
