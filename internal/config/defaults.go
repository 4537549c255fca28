package config

const (
	defaultConfigPath          = "~/.config/shothook/config.toml"
	defaultLogDir              = "~/.local/share/shothook/logs"
	defaultStateDir            = "~/.local/share/shothook"
	defaultLedgerFile          = "jobs.db"
	defaultProjectRoot         = "Z:/projects/"
	defaultTransferRoot        = "Y:/"
	defaultOutputDirName       = "out"
	defaultHostTimeoutSeconds  = 30
	defaultEventHubDriver      = EventHubMemory
	defaultEventHubExchange    = "ftrack.events"
	defaultEventHubQueue       = "shothook"
	defaultReplyTopic          = "ftrack.meta.reply"
	defaultEventHubPrefetch    = 1
	defaultUploadStatusIndex   = 2
	defaultTransferStatusIndex = 4
	defaultViewerLabel         = "DJV View"
	defaultViewerIdentifier    = "djvviewer-launch-action"
	defaultMailHost            = "smtp.gmail.com"
	defaultMailPort            = 587
	defaultMailSubjectPrefix   = "SDE VFX update"
	defaultMailTimeoutSeconds  = 30
	defaultMailTLS             = MailTLSMandatory
	defaultSessionDriver       = SessionsMemory
	defaultSessionTTLSeconds   = 3600
	defaultSessionKeyPrefix    = "shothook:session:"
	defaultLedgerDriver        = LedgerSQLite
	defaultDrainTimeoutSeconds = 600
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

// Event hub drivers.
const (
	EventHubMemory = "memory"
	EventHubAMQP   = "amqp"
)

// Session store drivers.
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// SMTP transport security policies.
const (
	MailTLSMandatory     = "mandatory"
	MailTLSOpportunistic = "opportunistic"
	MailTLSNone          = "none"
)

// Ledger drivers.
const (
	LedgerSQLite = "sqlite"
	LedgerMySQL  = "mysql"
)

func defaultTaskNames() []string {
	return []string{"Compositing", "animation"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:        defaultLogDir,
			StateDir:      defaultStateDir,
			ProjectRoot:   defaultProjectRoot,
			TransferRoot:  defaultTransferRoot,
			OutputDirName: defaultOutputDirName,
		},
		Host: Host{
			TimeoutSeconds: defaultHostTimeoutSeconds,
		},
		EventHub: EventHub{
			Driver:     defaultEventHubDriver,
			Exchange:   defaultEventHubExchange,
			Queue:      defaultEventHubQueue,
			ReplyTopic: defaultReplyTopic,
			Prefetch:   defaultEventHubPrefetch,
		},
		Actions: Actions{
			TaskNames:           defaultTaskNames(),
			UploadStatusIndex:   defaultUploadStatusIndex,
			TransferStatusIndex: defaultTransferStatusIndex,
			OutputManager:       true,
			TransferFile:        true,
			Viewer:              true,
			StatusSync:          true,
		},
		Viewer: Viewer{
			Label:      defaultViewerLabel,
			Identifier: defaultViewerIdentifier,
		},
		Mail: Mail{
			Host:           defaultMailHost,
			Port:           defaultMailPort,
			SubjectPrefix:  defaultMailSubjectPrefix,
			TimeoutSeconds: defaultMailTimeoutSeconds,
			TLS:            defaultMailTLS,
		},
		Sessions: Sessions{
			Driver:     defaultSessionDriver,
			TTLSeconds: defaultSessionTTLSeconds,
			KeyPrefix:  defaultSessionKeyPrefix,
		},
		Ledger: Ledger{
			Driver: defaultLedgerDriver,
		},
		Jobs: Jobs{
			DrainTimeoutSeconds: defaultDrainTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
