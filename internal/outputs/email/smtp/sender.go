package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"

	mail "github.com/wneessen/go-mail"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/outputs/email"
)

// TLSMode determines how the SMTP client negotiates TLS.
type TLSMode string

const (
	TLSModeAuto     TLSMode = "auto"
	TLSModeDisabled TLSMode = "disabled"
	TLSModeStartTLS TLSMode = "starttls"
	TLSModeImplicit TLSMode = "implicit"
)

type Sender struct {
	cfg  config.SMTPEnvConfig
	mode TLSMode
}

// NewSender validates cfg and resolves the TLS mode up front. An empty
// mode means implicit TLS on port 465 and STARTTLS elsewhere.
func NewSender(cfg config.SMTPEnvConfig) (*Sender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp port must be positive")
	}
	mode, err := parseTLSMode(cfg.TLSMode)
	if err != nil {
		return nil, err
	}
	if mode == TLSModeAuto {
		mode = TLSModeStartTLS
		if cfg.Port == 465 {
			mode = TLSModeImplicit
		}
	}
	return &Sender{cfg: cfg, mode: mode}, nil
}

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	if message.From == "" {
		message.From = s.cfg.User
	}
	msg, err := buildMessage(message)
	if err != nil {
		return err
	}

	useAuth := s.cfg.User != ""
	err = s.dialAndSend(ctx, msg, useAuth)
	// Local sinks such as Mailpit reject AUTH; retry those without it.
	if err != nil && useAuth && isAuthUnsupported(err) && isLocalDevSMTPHost(s.cfg.Host) {
		if retryErr := s.dialAndSend(ctx, msg, false); retryErr == nil {
			return nil
		}
	}
	return err
}

func buildMessage(message email.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(message.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", message.From, err)
	}
	if err := m.ToFromString(message.To); err != nil {
		return nil, fmt.Errorf("invalid to address(es) %q: %w", message.To, err)
	}
	if err := m.EnvelopeFrom(message.From); err != nil {
		return nil, fmt.Errorf("invalid envelope from address %q: %w", message.From, err)
	}
	m.Subject(message.Subject)
	if message.TextBody != "" {
		m.SetBodyString(mail.TypeTextPlain, message.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, message.HTMLBody)
	} else {
		m.SetBodyString(mail.TypeTextHTML, message.HTMLBody)
	}
	return m, nil
}

func (s *Sender) dialAndSend(ctx context.Context, msg *mail.Msg, withAuth bool) error {
	client, err := mail.NewClient(s.cfg.Host, s.clientOptions(withAuth)...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *Sender) clientOptions(withAuth bool) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSConfig(&tls.Config{
			ServerName:         s.cfg.Host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: s.cfg.InsecureSkipVerify,
		}),
	}
	switch s.mode {
	case TLSModeDisabled:
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	case TLSModeImplicit:
		opts = append(opts, mail.WithSSL())
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	if withAuth && s.cfg.User != "" {
		opts = append(opts,
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}
	return opts
}

func parseTLSMode(mode string) (TLSMode, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return TLSModeAuto, nil
	case "disabled", "off", "none":
		return TLSModeDisabled, nil
	case "starttls", "start_tls":
		return TLSModeStartTLS, nil
	case "implicit", "smtps", "ssl":
		return TLSModeImplicit, nil
	default:
		return "", fmt.Errorf("invalid smtp tls mode %q (expected auto, disabled, starttls or implicit)", mode)
	}
}

func isAuthUnsupported(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "server does not support SMTP AUTH") ||
		strings.Contains(msg, "SMTP Auth autodiscover was not able to detect a supported authentication mechanism")
}

func isLocalDevSMTPHost(host string) bool {
	host = strings.TrimSpace(strings.ToLower(host))
	switch host {
	case "":
		return false
	case "localhost", "mailpit":
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
