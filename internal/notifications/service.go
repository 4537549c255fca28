package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"shothook/internal/config"
	"shothook/internal/services"
)

// Transfer describes a file delivered to the editorial server.
type Transfer struct {
	File        string
	Destination string
	// Editors are the assistant editors the notice is addressed to.
	Editors []Recipient
	// Contacts are the artists named as points of contact.
	Contacts []Recipient
	// Copies are copied on the notice, typically artists and supervisors.
	Copies []Recipient
}

// Recipient is a named mail address.
type Recipient struct {
	Name  string
	Email string
}

// Service defines the notification surface exposed to actions.
type Service interface {
	NotifyTransfer(ctx context.Context, t Transfer) error
	TestNotification(ctx context.Context, to string) error
	Enabled() bool
}

// NewService builds an SMTP backed service when mail is enabled. Otherwise a
// noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil || !cfg.Mail.Enabled || strings.TrimSpace(cfg.Mail.Host) == "" {
		return noopService{}
	}
	return &smtpService{
		host:     cfg.Mail.Host,
		port:     cfg.Mail.Port,
		username: cfg.Mail.Username,
		password: cfg.Mail.Password,
		from:     cfg.Mail.From,
		prefix:   cfg.Mail.SubjectPrefix,
		tls:      TLSPolicy(cfg.Mail.TLS),
		cfg:      cfg,
	}
}

type smtpService struct {
	host     string
	port     int
	username string
	password string
	from     string
	prefix   string
	tls      mail.TLSPolicy
	cfg      *config.Config
}

func (s *smtpService) Enabled() bool { return true }

// TLSPolicy maps the mail.tls setting to a STARTTLS policy. Unknown or empty
// values require TLS.
func TLSPolicy(setting string) mail.TLSPolicy {
	switch setting {
	case config.MailTLSOpportunistic:
		return mail.TLSOpportunistic
	case config.MailTLSNone:
		return mail.NoTLS
	default:
		return mail.TLSMandatory
	}
}

// TransferSubject is the subject line of a transfer notice.
func TransferSubject(prefix, file string) string {
	return fmt.Sprintf("%s: %s has been transferred.", prefix, file)
}

// TransferBody is the plain text body of a transfer notice.
func TransferBody(t Transfer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", strings.Join(names(t.Editors), " and "))
	fmt.Fprintf(&b, "Just wanted you to know that %q has been moved to the transfer server.\n", t.File)
	b.WriteString("You can find it at:\n\n")
	b.WriteString(t.Destination)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Contact %s if you have any questions.\n\n", strings.Join(names(t.Contacts), " or "))
	b.WriteString("Your pal,\n")
	b.WriteString("- SDE VFX's automated response system")
	return b.String()
}

func (s *smtpService) NotifyTransfer(ctx context.Context, t Transfer) error {
	to := emails(t.Editors)
	if len(to) == 0 {
		return services.Wrap(services.ErrValidation, "notifications", "transfer notice", "no editor addresses", nil)
	}
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return services.Wrap(services.ErrConfiguration, "notifications", "from address", s.from, err)
	}
	if err := msg.To(to...); err != nil {
		return services.Wrap(services.ErrValidation, "notifications", "to addresses", strings.Join(to, ","), err)
	}
	if cc := emails(t.Copies); len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			return services.Wrap(services.ErrValidation, "notifications", "cc addresses", strings.Join(cc, ","), err)
		}
	}
	msg.Subject(TransferSubject(s.prefix, t.File))
	msg.SetBodyString(mail.TypeTextPlain, TransferBody(t))
	return s.send(ctx, msg)
}

func (s *smtpService) TestNotification(ctx context.Context, to string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return services.Wrap(services.ErrConfiguration, "notifications", "from address", s.from, err)
	}
	if to = strings.TrimSpace(to); to == "" {
		to = s.from
	}
	if err := msg.To(to); err != nil {
		return services.Wrap(services.ErrValidation, "notifications", "to address", to, err)
	}
	msg.Subject(s.prefix + ": notification test")
	msg.SetBodyString(mail.TypeTextPlain, "Mail delivery from shothook is working.")
	return s.send(ctx, msg)
}

func (s *smtpService) send(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTimeout(s.cfg.MailTimeout()),
		mail.WithTLSPolicy(s.tls),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}
	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "notifications", "smtp client", s.host, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return services.Wrap(services.ErrExternal, "notifications", "send mail", fmt.Sprintf("%s:%d", s.host, s.port), err)
	}
	return nil
}

func names(list []Recipient) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		if r.Name != "" {
			out = append(out, r.Name)
		}
	}
	return out
}

func emails(list []Recipient) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		if r.Email != "" {
			out = append(out, r.Email)
		}
	}
	return out
}

type noopService struct{}

func (noopService) NotifyTransfer(context.Context, Transfer) error { return nil }
func (noopService) TestNotification(context.Context, string) error { return nil }
func (noopService) Enabled() bool                                 { return false }
