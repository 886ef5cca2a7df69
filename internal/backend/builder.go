package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nhle/mailrepl/internal/credential"
	"github.com/nhle/mailrepl/internal/model"
)

// Build assembles the backend of acc, resolving server passwords with
// get (nil means the system keyring).
func Build(ctx context.Context, acc *model.AccountConfig, get credential.Getter) (*Backend, error) {
	mailbox, err := buildMailbox(ctx, acc, get)
	if err != nil {
		return nil, fmt.Errorf("building backend of account %s: %w", acc.Name, err)
	}
	sender, err := buildSender(ctx, acc, get)
	if err != nil {
		return nil, fmt.Errorf("building sending backend of account %s: %w", acc.Name, err)
	}

	slog.Debug("backend built",
		"account", acc.Name,
		"backend", acc.MailboxBackend(),
		"sender", acc.SendBackend(),
	)
	return New(acc, mailbox, sender), nil
}

func buildMailbox(ctx context.Context, acc *model.AccountConfig, get credential.Getter) (Mailbox, error) {
	switch kind := acc.MailboxBackend(); kind {
	case model.BackendNone:
		return nil, nil
	case model.BackendIMAP:
		if acc.IMAP == nil {
			return nil, fmt.Errorf("missing imap section")
		}
		password, err := acc.IMAP.Passwd.Resolve(ctx, get)
		if err != nil {
			return nil, fmt.Errorf("resolving imap password: %w", err)
		}
		login := acc.IMAP.Login
		if login == "" {
			login = acc.Email
		}
		port := acc.IMAP.Port
		if port == 0 {
			port = defaultPort(acc.IMAP.Encryption, 993, 143)
		}
		addr := fmt.Sprintf("%s:%d", acc.IMAP.Host, port)
		return NewIMAPClient(addr, login, password, acc.IMAP.Encryption), nil
	case model.BackendMaildir, model.BackendNotmuch:
		return nil, fmt.Errorf("%s: %w", kind, ErrUnsupported)
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

func buildSender(ctx context.Context, acc *model.AccountConfig, get credential.Getter) (Sender, error) {
	switch kind := acc.SendBackend(); kind {
	case model.BackendNone:
		return nil, nil
	case model.BackendSMTP:
		if acc.SMTP == nil {
			return nil, fmt.Errorf("missing smtp section")
		}
		password, err := acc.SMTP.Passwd.Resolve(ctx, get)
		if err != nil {
			return nil, fmt.Errorf("resolving smtp password: %w", err)
		}
		login := acc.SMTP.Login
		if login == "" {
			login = acc.Email
		}
		port := acc.SMTP.Port
		if port == 0 {
			port = defaultPort(acc.SMTP.Encryption, 465, 587)
		}
		return NewSMTPSender(SMTPConfig{
			Host:       acc.SMTP.Host,
			Port:       port,
			Username:   login,
			Password:   password,
			Encryption: acc.SMTP.Encryption,
		}), nil
	case model.BackendSendmail:
		cmd := "/usr/sbin/sendmail -t"
		if acc.Sendmail != nil && acc.Sendmail.Cmd != "" {
			cmd = acc.Sendmail.Cmd
		}
		return NewSendmailSender(cmd), nil
	default:
		return nil, fmt.Errorf("unknown sending backend %q", kind)
	}
}

func defaultPort(encryption string, implicitTLS, plain int) int {
	if encryption == "" || encryption == EncryptionTLS {
		return implicitTLS
	}
	return plain
}
