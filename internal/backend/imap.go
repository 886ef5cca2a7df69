package backend

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/mailrepl/internal/model"
)

// Encryption modes accepted for IMAP and SMTP servers.
const (
	EncryptionTLS      = "tls"
	EncryptionStartTLS = "start-tls"
	EncryptionNone     = "none"
)

// IMAPClient wraps go-imap v2. Every operation opens its own
// connection, selects the folder it needs and logs out.
type IMAPClient struct {
	addr       string
	username   string
	password   string
	encryption string
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(addr, username, password, encryption string) *IMAPClient {
	return &IMAPClient{
		addr:       addr,
		username:   username,
		password:   password,
		encryption: encryption,
	}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout/Close on the returned client.
func (c *IMAPClient) Connect(
	ctx context.Context,
) (*imapclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var client *imapclient.Client
	var err error

	switch c.encryption {
	case EncryptionNone:
		client, err = imapclient.DialInsecure(c.addr, nil)
	case EncryptionStartTLS:
		client, err = imapclient.DialStartTLS(c.addr, nil)
	default:
		client, err = imapclient.DialTLS(c.addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", c.addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Backend: model.BackendIMAP,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				c.username, err,
			),
		}
	}

	return client, nil
}

// withFolder connects, selects folder and runs fn.
func (c *IMAPClient) withFolder(
	ctx context.Context,
	folder string,
	fn func(*imapclient.Client, *imap.SelectData) error,
) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()
	defer closeOnDone(ctx, client)()

	data, err := client.Select(folder, nil).Wait()
	if err != nil {
		return fmt.Errorf("selecting %s: %w", folder, err)
	}
	return fn(client, data)
}

// withClient connects and runs fn without selecting a folder.
func (c *IMAPClient) withClient(
	ctx context.Context,
	fn func(*imapclient.Client) error,
) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()
	defer closeOnDone(ctx, client)()
	return fn(client)
}

// closeOnDone unblocks pending commands once ctx is done. The returned
// func detaches the hook.
func closeOnDone(ctx context.Context, client *imapclient.Client) func() {
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	return func() { stop() }
}

// ListFolders lists every mailbox of the account.
func (c *IMAPClient) ListFolders(ctx context.Context) ([]model.Folder, error) {
	var folders []model.Folder
	err := c.withClient(ctx, func(client *imapclient.Client) error {
		list, err := client.List("", "*", nil).Collect()
		if err != nil {
			return fmt.Errorf("listing folders: %w", err)
		}
		for _, data := range list {
			attrs := make([]string, 0, len(data.Attrs))
			for _, attr := range data.Attrs {
				attrs = append(attrs, string(attr))
			}
			folders = append(folders, model.Folder{
				Name: data.Mailbox,
				Desc: strings.Join(attrs, ", "),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].Name < folders[j].Name
	})
	return folders, nil
}

// AddFolder creates a mailbox.
func (c *IMAPClient) AddFolder(ctx context.Context, name string) error {
	return c.withClient(ctx, func(client *imapclient.Client) error {
		if err := client.Create(name, nil).Wait(); err != nil {
			return fmt.Errorf("creating folder %s: %w", name, err)
		}
		return nil
	})
}

// DeleteFolder removes a mailbox and its messages.
func (c *IMAPClient) DeleteFolder(ctx context.Context, name string) error {
	return c.withClient(ctx, func(client *imapclient.Client) error {
		if err := client.Delete(name).Wait(); err != nil {
			return fmt.Errorf("deleting folder %s: %w", name, err)
		}
		return nil
	})
}

// ExpungeFolder permanently removes messages flagged as deleted.
func (c *IMAPClient) ExpungeFolder(ctx context.Context, name string) error {
	return c.withFolder(ctx, name, func(client *imapclient.Client, _ *imap.SelectData) error {
		if err := client.Expunge().Close(); err != nil {
			return fmt.Errorf("expunging %s: %w", name, err)
		}
		return nil
	})
}

// PurgeFolder flags every message as deleted and expunges the folder.
func (c *IMAPClient) PurgeFolder(ctx context.Context, name string) error {
	return c.withFolder(ctx, name, func(client *imapclient.Client, data *imap.SelectData) error {
		if data.NumMessages == 0 {
			return nil
		}
		var all imap.SeqSet
		all.AddRange(1, 0)
		storeCmd := client.Store(all, &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagDeleted},
		}, nil)
		if err := storeCmd.Close(); err != nil {
			return fmt.Errorf("flagging %s as deleted: %w", name, err)
		}
		if err := client.Expunge().Close(); err != nil {
			return fmt.Errorf("expunging %s: %w", name, err)
		}
		return nil
	})
}

// FolderStatus returns the message and unseen counters of a folder.
func (c *IMAPClient) FolderStatus(ctx context.Context, name string) (model.FolderStatus, error) {
	status := model.FolderStatus{Name: name}
	err := c.withClient(ctx, func(client *imapclient.Client) error {
		data, err := client.Status(name, &imap.StatusOptions{
			NumMessages: true,
			NumUnseen:   true,
		}).Wait()
		if err != nil {
			return fmt.Errorf("getting status of %s: %w", name, err)
		}
		if data.NumMessages != nil {
			status.Messages = *data.NumMessages
		}
		if data.NumUnseen != nil {
			status.Unseen = *data.NumUnseen
		}
		return nil
	})
	return status, err
}

// ListEnvelopes searches the folder, keeps the requested page of the
// most recent UIDs and fetches their envelopes.
func (c *IMAPClient) ListEnvelopes(
	ctx context.Context, folder string, page, size int,
) ([]model.Envelope, error) {
	var envelopes []model.Envelope
	err := c.withFolder(ctx, folder, func(client *imapclient.Client, _ *imap.SelectData) error {
		searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
		if err != nil {
			return fmt.Errorf("searching messages: %w", err)
		}

		uids := pageUIDs(searchData.AllUIDs(), page, size)
		if len(uids) == 0 {
			return nil
		}

		fetchOpts := &imap.FetchOptions{
			Envelope:      true,
			Flags:         true,
			UID:           true,
			BodyStructure: &imap.FetchItemBodyStructure{Extended: true},
		}

		fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
		defer fetchCmd.Close()

		for {
			msg := fetchCmd.Next()
			if msg == nil {
				break
			}

			buf, err := msg.Collect()
			if err != nil {
				continue
			}

			envelopes = append(envelopes, envelopeFromBuffer(buf))
		}

		if err := fetchCmd.Close(); err != nil {
			return fmt.Errorf("fetching envelopes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(envelopes)
	return envelopes, nil
}

// pageUIDs returns the UIDs of the given 1-based page counted from the
// newest (highest) UID. A size below 1 keeps every UID. Pages past the
// end are empty.
func pageUIDs(uids []imap.UID, page, size int) []imap.UID {
	if size < 1 {
		return uids
	}
	if page < 1 {
		page = 1
	}
	if page-1 > len(uids)/size {
		return nil
	}
	sorted := append([]imap.UID(nil), uids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	end := len(sorted) - (page-1)*size
	if end <= 0 {
		return nil
	}
	start := end - size
	if start < 0 {
		start = 0
	}
	return sorted[start:end]
}

func sortNewestFirst(envelopes []model.Envelope) {
	sort.SliceStable(envelopes, func(i, j int) bool {
		a, _ := strconv.ParseUint(envelopes[i].ID, 10, 32)
		b, _ := strconv.ParseUint(envelopes[j].ID, 10, 32)
		return a > b
	})
}

func (c *IMAPClient) storeFlags(
	ctx context.Context,
	folder string,
	ids []string,
	flags model.Flags,
	op imap.StoreFlagsOp,
) error {
	uidSet, err := parseUIDs(ids)
	if err != nil {
		return err
	}
	return c.withFolder(ctx, folder, func(client *imapclient.Client, _ *imap.SelectData) error {
		storeCmd := client.Store(uidSet, &imap.StoreFlags{
			Op:     op,
			Silent: true,
			Flags:  toIMAPFlags(flags),
		}, nil)
		if err := storeCmd.Close(); err != nil {
			return fmt.Errorf("storing flags in %s: %w", folder, err)
		}
		return nil
	})
}

// AddFlags adds flags to messages.
func (c *IMAPClient) AddFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error {
	return c.storeFlags(ctx, folder, ids, flags, imap.StoreFlagsAdd)
}

// SetFlags replaces the flags of messages.
func (c *IMAPClient) SetFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error {
	return c.storeFlags(ctx, folder, ids, flags, imap.StoreFlagsSet)
}

// RemoveFlags removes flags from messages.
func (c *IMAPClient) RemoveFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error {
	return c.storeFlags(ctx, folder, ids, flags, imap.StoreFlagsDel)
}

// GetMessages fetches and parses full messages without setting \Seen.
func (c *IMAPClient) GetMessages(
	ctx context.Context, folder string, ids []string,
) ([]model.Message, error) {
	uidSet, err := parseUIDs(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Message, len(ids))
	err = c.withFolder(ctx, folder, func(client *imapclient.Client, _ *imap.SelectData) error {
		bodySection := &imap.FetchItemBodySection{
			Peek: true,
		}

		fetchOpts := &imap.FetchOptions{
			Envelope:      true,
			Flags:         true,
			UID:           true,
			BodyStructure: &imap.FetchItemBodyStructure{Extended: true},
			BodySection:   []*imap.FetchItemBodySection{bodySection},
		}

		fetchCmd := client.Fetch(uidSet, fetchOpts)
		defer fetchCmd.Close()

		for {
			msg := fetchCmd.Next()
			if msg == nil {
				break
			}

			buf, err := msg.Collect()
			if err != nil {
				return fmt.Errorf("collecting message data: %w", err)
			}

			parsed := model.Message{Envelope: envelopeFromBuffer(buf)}
			if raw := buf.FindBodySection(bodySection); raw != nil {
				parseMessage(raw, &parsed)
			}
			byID[parsed.ID] = parsed
		}

		if err := fetchCmd.Close(); err != nil {
			return fmt.Errorf("fetching messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		msg, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("message %s not found in %s", id, folder)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// CopyMessages copies messages to another folder.
func (c *IMAPClient) CopyMessages(ctx context.Context, from, to string, ids []string) error {
	uidSet, err := parseUIDs(ids)
	if err != nil {
		return err
	}
	return c.withFolder(ctx, from, func(client *imapclient.Client, _ *imap.SelectData) error {
		if _, err := client.Copy(uidSet, to).Wait(); err != nil {
			return fmt.Errorf("copying to %s: %w", to, err)
		}
		return nil
	})
}

// MoveMessages moves messages to another folder.
func (c *IMAPClient) MoveMessages(ctx context.Context, from, to string, ids []string) error {
	uidSet, err := parseUIDs(ids)
	if err != nil {
		return err
	}
	return c.withFolder(ctx, from, func(client *imapclient.Client, _ *imap.SelectData) error {
		if _, err := client.Move(uidSet, to).Wait(); err != nil {
			return fmt.Errorf("moving to %s: %w", to, err)
		}
		return nil
	})
}

// AddMessage appends a raw message to folder with the given flags.
func (c *IMAPClient) AddMessage(
	ctx context.Context, folder string, raw []byte, flags model.Flags,
) (string, error) {
	var id string
	err := c.withClient(ctx, func(client *imapclient.Client) error {
		appendCmd := client.Append(folder, int64(len(raw)), &imap.AppendOptions{
			Flags: toIMAPFlags(flags),
			Time:  time.Now(),
		})
		if _, err := appendCmd.Write(raw); err != nil {
			_ = appendCmd.Close()
			return fmt.Errorf("writing message to %s: %w", folder, err)
		}
		if err := appendCmd.Close(); err != nil {
			return fmt.Errorf("appending to %s: %w", folder, err)
		}
		data, err := appendCmd.Wait()
		if err != nil {
			return fmt.Errorf("appending to %s: %w", folder, err)
		}
		if data.UID != 0 {
			id = strconv.FormatUint(uint64(data.UID), 10)
		}
		return nil
	})
	return id, err
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) model.Envelope {
	env := model.Envelope{
		ID: strconv.FormatUint(uint64(buf.UID), 10),
	}

	if buf.Envelope != nil {
		env.MessageID = buf.Envelope.MessageID
		env.Subject = buf.Envelope.Subject
		env.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			env.From = fromIMAPAddress(buf.Envelope.From[0])
		}
		for _, to := range buf.Envelope.To {
			env.To = append(env.To, fromIMAPAddress(to))
		}
		if len(buf.Envelope.InReplyTo) > 0 {
			env.InReplyTo = buf.Envelope.InReplyTo[0]
		}
	}

	for _, flag := range buf.Flags {
		env.Flags = append(env.Flags, model.ParseFlag(string(flag)))
	}

	if buf.BodyStructure != nil {
		env.HasAttachment = hasAttachment(buf.BodyStructure)
	}

	return env
}

func fromIMAPAddress(addr imap.Address) model.Address {
	return model.Address{Name: addr.Name, Addr: addr.Addr()}
}

// hasAttachment walks the body structure looking for a part whose
// disposition is attachment.
func hasAttachment(bs imap.BodyStructure) bool {
	found := false
	bs.Walk(func(_ []int, part imap.BodyStructure) bool {
		if disp := part.Disposition(); disp != nil && strings.EqualFold(disp.Value, "attachment") {
			found = true
		}
		return !found
	})
	return found
}

func toIMAPFlags(flags model.Flags) []imap.Flag {
	out := make([]imap.Flag, 0, len(flags))
	for _, f := range flags {
		switch f {
		case model.FlagSeen:
			out = append(out, imap.FlagSeen)
		case model.FlagAnswered:
			out = append(out, imap.FlagAnswered)
		case model.FlagFlagged:
			out = append(out, imap.FlagFlagged)
		case model.FlagDeleted:
			out = append(out, imap.FlagDeleted)
		case model.FlagDraft:
			out = append(out, imap.FlagDraft)
		default:
			out = append(out, imap.Flag(f))
		}
	}
	return out
}

// parseUIDs converts backend ids to a UID set.
func parseUIDs(ids []string) (imap.UIDSet, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no message id given")
	}
	uids := make([]imap.UID, 0, len(ids))
	for _, id := range ids {
		uid, err := strconv.ParseUint(id, 10, 32)
		if err != nil || uid == 0 {
			return nil, fmt.Errorf("invalid message UID %q", id)
		}
		uids = append(uids, imap.UID(uid))
	}
	return imap.UIDSetNum(uids...), nil
}
