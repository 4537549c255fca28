package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHost(); err != nil {
		return err
	}
	if err := c.validateEventHub(); err != nil {
		return err
	}
	if err := c.validateActions(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateSessions(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"host.timeout_seconds":       c.Host.TimeoutSeconds,
		"sessions.ttl_seconds":       c.Sessions.TTLSeconds,
		"jobs.drain_timeout_seconds": c.Jobs.DrainTimeoutSeconds,
		"event_hub.prefetch":         c.EventHub.Prefetch,
	})
}

func (c *Config) validateHost() error {
	if c.Host.ServerURL == "" {
		return fmt.Errorf("host.server_url is required. Set FTRACK_SERVER env var or edit %s (create with 'shothook config init')", displayConfigPath())
	}
	if !strings.HasPrefix(c.Host.ServerURL, "http://") && !strings.HasPrefix(c.Host.ServerURL, "https://") {
		return fmt.Errorf("host.server_url must be an http(s) URL, got %q", c.Host.ServerURL)
	}
	if c.Host.APIUser == "" {
		return errors.New("host.api_user is required (or set FTRACK_API_USER)")
	}
	if c.Host.APIKey == "" {
		return errors.New("host.api_key is required (or set FTRACK_API_KEY)")
	}
	return nil
}

func (c *Config) validateEventHub() error {
	switch c.EventHub.Driver {
	case EventHubMemory:
	case EventHubAMQP:
		if c.EventHub.URL == "" {
			return errors.New("event_hub.url must be set when event_hub.driver is amqp (or set SHOTHOOK_AMQP_URL)")
		}
	default:
		return fmt.Errorf("event_hub.driver: unsupported value %q", c.EventHub.Driver)
	}
	return nil
}

func (c *Config) validateActions() error {
	if len(c.Actions.TaskNames) == 0 {
		return errors.New("actions.task_names must include at least one task name")
	}
	if c.Actions.UploadStatusIndex < 0 {
		return errors.New("actions.upload_status_index must be >= 0")
	}
	if c.Actions.TransferStatusIndex < 0 {
		return errors.New("actions.transfer_status_index must be >= 0")
	}
	if (c.Actions.OutputManager || c.Actions.TransferFile) && c.Paths.ProjectRoot == "" {
		return errors.New("paths.project_root must be set when output_manager or transfer_file is enabled")
	}
	if c.Actions.TransferFile && c.Paths.TransferRoot == "" {
		return errors.New("paths.transfer_root must be set when transfer_file is enabled")
	}
	return nil
}

func (c *Config) validateMail() error {
	switch c.Mail.TLS {
	case MailTLSMandatory, MailTLSOpportunistic, MailTLSNone:
	default:
		return fmt.Errorf("mail.tls: unsupported value %q", c.Mail.TLS)
	}
	if !c.Mail.Enabled {
		return nil
	}
	if c.Mail.Host == "" {
		return errors.New("mail.host must be set when mail.enabled is true")
	}
	if c.Mail.From == "" {
		return errors.New("mail.from (or mail.username) must be set when mail.enabled is true")
	}
	return nil
}

func (c *Config) validateSessions() error {
	switch c.Sessions.Driver {
	case SessionsMemory:
	case SessionsRedis:
		if c.Sessions.RedisAddr == "" {
			return errors.New("sessions.redis_addr must be set when sessions.driver is redis")
		}
		if c.Sessions.RedisDB < 0 {
			return errors.New("sessions.redis_db must be >= 0")
		}
	default:
		return fmt.Errorf("sessions.driver: unsupported value %q", c.Sessions.Driver)
	}
	return nil
}

func (c *Config) validateLedger() error {
	switch c.Ledger.Driver {
	case LedgerSQLite:
		if c.Ledger.Path == "" {
			return errors.New("ledger.path must be set when ledger.driver is sqlite")
		}
	case LedgerMySQL:
		if c.Ledger.DSN == "" {
			return errors.New("ledger.dsn must be set when ledger.driver is mysql (or set SHOTHOOK_LEDGER_DSN)")
		}
	default:
		return fmt.Errorf("ledger.driver: unsupported value %q", c.Ledger.Driver)
	}
	return nil
}

func displayConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
