// Package notifications delivers transfer notices by SMTP.
//
// The default implementation sends plain text mail through the server
// configured in the [mail] section of config.toml and degrades to a no-op when
// mail is disabled. Actions depend only on the small Service interface.
package notifications
