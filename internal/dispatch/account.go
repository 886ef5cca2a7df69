package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/mailrepl/internal/backend"
	"github.com/nhle/mailrepl/internal/model"
)

func accountList(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if len(args) > 0 {
		return Result{}, fmt.Errorf("unexpected argument %q", args[0])
	}

	names := d.cfg.AccountNames()
	if len(names) == 0 {
		return Result{}, model.ErrNoAccount
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		acc := d.cfg.Accounts[name]
		def := ""
		if acc.Default {
			def = "yes"
		}
		rows = append(rows, []string{name, backendsOf(acc), def})
	}
	return Result{Text: newTable("NAME", "BACKENDS", "DEFAULT").Rows(rows...).String()}, nil
}

func backendsOf(acc *model.AccountConfig) string {
	var kinds []string
	if k := acc.MailboxBackend(); k != model.BackendNone {
		kinds = append(kinds, k)
	}
	if k := acc.SendBackend(); k != model.BackendNone {
		kinds = append(kinds, k)
	}
	return strings.Join(kinds, ", ")
}

// accountDoctor checks that the account can list folders and has a way
// to send messages.
func accountDoctor(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	if len(args) > 1 {
		return Result{}, fmt.Errorf("unexpected argument %q", args[1])
	}

	b := d.backend
	if len(args) == 1 && !strings.EqualFold(args[0], b.Account().Name) {
		acc, err := d.cfg.Account(args[0])
		if err != nil {
			return Result{}, err
		}
		if b, err = d.build(ctx, acc); err != nil {
			return Result{}, fmt.Errorf("building backend of account %s: %w", acc.Name, err)
		}
	}
	acc := b.Account()

	var out strings.Builder
	fmt.Fprintf(&out, "Checking account %s…\n", acc.Name)

	if b.HasMailbox() {
		folders, err := b.ListFolders(ctx)
		switch {
		case backend.IsAuthError(err):
			fmt.Fprintf(&out, "Mailbox (%s): authentication failed: %v\n", acc.MailboxBackend(), err)
		case err != nil:
			fmt.Fprintf(&out, "Mailbox (%s): %v\n", acc.MailboxBackend(), err)
		default:
			fmt.Fprintf(&out, "Mailbox (%s): ok, %d %s\n", acc.MailboxBackend(), len(folders), plural(len(folders), "folder", "folders"))
		}
	} else {
		out.WriteString("Mailbox: not configured\n")
	}

	if b.HasSender() {
		fmt.Fprintf(&out, "Sender (%s): configured", acc.SendBackend())
	} else {
		out.WriteString("Sender: not configured")
	}

	return Result{Text: out.String()}, nil
}
