package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nhle/mailrepl/internal/model"
)

// ErrUnsupported is returned when an account asks for a backend kind this
// build cannot drive.
var ErrUnsupported = errors.New("backend not supported")

// AuthError indicates that the server rejected the credentials.
type AuthError struct {
	Backend string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Backend, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FeatureError is returned when an operation needs a side of the backend
// the account does not configure.
type FeatureError struct {
	Op      string
	Backend string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s: feature not available for backend %s", e.Op, e.Backend)
}

// Mailbox is the reading side of an account.
type Mailbox interface {
	ListFolders(ctx context.Context) ([]model.Folder, error)
	AddFolder(ctx context.Context, name string) error
	ExpungeFolder(ctx context.Context, name string) error
	PurgeFolder(ctx context.Context, name string) error
	DeleteFolder(ctx context.Context, name string) error
	FolderStatus(ctx context.Context, name string) (model.FolderStatus, error)

	// ListEnvelopes returns one page of envelopes, newest first. Page is
	// 1-based; a size below 1 returns every envelope of the folder.
	ListEnvelopes(ctx context.Context, folder string, page, size int) ([]model.Envelope, error)

	AddFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error
	SetFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error
	RemoveFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error

	// GetMessages fetches messages without marking them seen, in the
	// order of ids.
	GetMessages(ctx context.Context, folder string, ids []string) ([]model.Message, error)
	CopyMessages(ctx context.Context, from, to string, ids []string) error
	MoveMessages(ctx context.Context, from, to string, ids []string) error

	// AddMessage appends a raw message and returns its id.
	AddMessage(ctx context.Context, folder string, raw []byte, flags model.Flags) (string, error)
}

// Sender is the sending side of an account.
type Sender interface {
	Send(ctx context.Context, raw []byte) error
}

// Backend joins the reading and sending sides of one account. Folder
// arguments go through the account's folder aliases. Either side may be
// nil, in which case its operations fail with a FeatureError.
type Backend struct {
	account *model.AccountConfig
	mailbox Mailbox
	sender  Sender
}

// New returns a Backend for acc.
func New(acc *model.AccountConfig, mailbox Mailbox, sender Sender) *Backend {
	return &Backend{account: acc, mailbox: mailbox, sender: sender}
}

// Account returns the account the backend serves.
func (b *Backend) Account() *model.AccountConfig {
	return b.account
}

// HasMailbox reports whether a reading side is configured.
func (b *Backend) HasMailbox() bool {
	return b.mailbox != nil
}

// HasSender reports whether a sending side is configured.
func (b *Backend) HasSender() bool {
	return b.sender != nil
}

// Folder resolves a folder argument through the account aliases.
func (b *Backend) Folder(name string) string {
	return b.account.FolderAlias(name)
}

func (b *Backend) needMailbox(op string) error {
	if b.mailbox == nil {
		return &FeatureError{Op: op, Backend: b.account.MailboxBackend()}
	}
	return nil
}

func (b *Backend) ListFolders(ctx context.Context) ([]model.Folder, error) {
	if err := b.needMailbox("list folders"); err != nil {
		return nil, err
	}
	return b.mailbox.ListFolders(ctx)
}

func (b *Backend) AddFolder(ctx context.Context, name string) error {
	if err := b.needMailbox("add folder"); err != nil {
		return err
	}
	return b.mailbox.AddFolder(ctx, b.Folder(name))
}

func (b *Backend) ExpungeFolder(ctx context.Context, name string) error {
	if err := b.needMailbox("expunge folder"); err != nil {
		return err
	}
	return b.mailbox.ExpungeFolder(ctx, b.Folder(name))
}

func (b *Backend) PurgeFolder(ctx context.Context, name string) error {
	if err := b.needMailbox("purge folder"); err != nil {
		return err
	}
	return b.mailbox.PurgeFolder(ctx, b.Folder(name))
}

func (b *Backend) DeleteFolder(ctx context.Context, name string) error {
	if err := b.needMailbox("delete folder"); err != nil {
		return err
	}
	return b.mailbox.DeleteFolder(ctx, b.Folder(name))
}

func (b *Backend) FolderStatus(ctx context.Context, name string) (model.FolderStatus, error) {
	if err := b.needMailbox("folder status"); err != nil {
		return model.FolderStatus{}, err
	}
	return b.mailbox.FolderStatus(ctx, b.Folder(name))
}

func (b *Backend) ListEnvelopes(ctx context.Context, folder string, page, size int) ([]model.Envelope, error) {
	if err := b.needMailbox("list envelopes"); err != nil {
		return nil, err
	}
	return b.mailbox.ListEnvelopes(ctx, b.Folder(folder), page, size)
}

func (b *Backend) AddFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error {
	if err := b.needMailbox("add flags"); err != nil {
		return err
	}
	return b.mailbox.AddFlags(ctx, b.Folder(folder), ids, flags)
}

func (b *Backend) SetFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error {
	if err := b.needMailbox("set flags"); err != nil {
		return err
	}
	return b.mailbox.SetFlags(ctx, b.Folder(folder), ids, flags)
}

func (b *Backend) RemoveFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error {
	if err := b.needMailbox("remove flags"); err != nil {
		return err
	}
	return b.mailbox.RemoveFlags(ctx, b.Folder(folder), ids, flags)
}

func (b *Backend) GetMessages(ctx context.Context, folder string, ids []string) ([]model.Message, error) {
	if err := b.needMailbox("get messages"); err != nil {
		return nil, err
	}
	return b.mailbox.GetMessages(ctx, b.Folder(folder), ids)
}

func (b *Backend) CopyMessages(ctx context.Context, from, to string, ids []string) error {
	if err := b.needMailbox("copy messages"); err != nil {
		return err
	}
	return b.mailbox.CopyMessages(ctx, b.Folder(from), b.Folder(to), ids)
}

func (b *Backend) MoveMessages(ctx context.Context, from, to string, ids []string) error {
	if err := b.needMailbox("move messages"); err != nil {
		return err
	}
	return b.mailbox.MoveMessages(ctx, b.Folder(from), b.Folder(to), ids)
}

// DeleteMessages moves messages to the trash folder. Messages already in
// the trash are flagged as deleted instead.
func (b *Backend) DeleteMessages(ctx context.Context, folder string, ids []string) error {
	if err := b.needMailbox("delete messages"); err != nil {
		return err
	}
	src := b.Folder(folder)
	trash := b.Folder(model.FolderTrash)
	if strings.EqualFold(src, trash) {
		return b.mailbox.AddFlags(ctx, src, ids, model.Flags{model.FlagDeleted})
	}
	return b.mailbox.MoveMessages(ctx, src, trash, ids)
}

func (b *Backend) AddMessage(ctx context.Context, folder string, raw []byte, flags model.Flags) (string, error) {
	if err := b.needMailbox("add message"); err != nil {
		return "", err
	}
	return b.mailbox.AddMessage(ctx, b.Folder(folder), raw, flags)
}

// SendMessage sends raw and keeps a seen copy in the sent folder when a
// mailbox is configured. A failed copy is only logged.
func (b *Backend) SendMessage(ctx context.Context, raw []byte) error {
	if b.sender == nil {
		return &FeatureError{Op: "send message", Backend: b.account.SendBackend()}
	}
	if err := b.sender.Send(ctx, raw); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	if b.mailbox == nil {
		return nil
	}
	sent := b.Folder(model.FolderSent)
	if _, err := b.mailbox.AddMessage(ctx, sent, raw, model.Flags{model.FlagSeen}); err != nil {
		slog.Warn("saving sent copy failed", "folder", sent, "error", err)
	}
	return nil
}

// SaveDraft appends raw to the drafts folder flagged seen and draft.
func (b *Backend) SaveDraft(ctx context.Context, raw []byte) error {
	if _, err := b.AddMessage(ctx, model.FolderDrafts, raw, model.Flags{model.FlagSeen, model.FlagDraft}); err != nil {
		return fmt.Errorf("saving remote draft: %w", err)
	}
	return nil
}
