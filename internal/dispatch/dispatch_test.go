package dispatch_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailrepl/internal/backend"
	"github.com/nhle/mailrepl/internal/dispatch"
	"github.com/nhle/mailrepl/internal/grammar"
	"github.com/nhle/mailrepl/internal/model"
	"github.com/nhle/mailrepl/internal/store"
	"github.com/nhle/mailrepl/tests/testutil"
)

type fixture struct {
	d      *dispatch.Dispatcher
	cfg    *model.Config
	mbox   *testutil.Mailbox
	sender *testutil.Sender
	ids    store.IDMapper

	lunch, reply, report string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	work := &model.AccountConfig{
		Name:        "work",
		Default:     true,
		Email:       "jane@example.com",
		DisplayName: "Jane Doe",
		IMAP:        &model.ServerConfig{Host: "imap.example.com"},
		SMTP:        &model.ServerConfig{Host: "smtp.example.com"},
	}
	home := &model.AccountConfig{
		Name:     "home",
		Email:    "jane@home.example",
		Sendmail: &model.SendmailConfig{Cmd: "cat"},
	}
	cfg := &model.Config{Accounts: map[string]*model.AccountConfig{"work": work, "home": home}}

	f := &fixture{
		cfg:    cfg,
		mbox:   testutil.NewMailbox("INBOX", "Sent", "Drafts", "Trash", "Archive"),
		sender: &testutil.Sender{},
		ids:    testutil.NewTestMapper(t, "work"),
	}

	day := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	f.lunch = f.mbox.Put("INBOX", model.Message{
		Envelope: model.Envelope{
			Subject:   "Lunch",
			From:      model.Address{Name: "Bob", Addr: "bob@example.com"},
			To:        []model.Address{{Addr: "jane@example.com"}},
			Date:      day,
			MessageID: "lunch@example.com",
			Flags:     model.Flags{model.FlagSeen},
		},
		TextBody: "Noon?",
	})
	f.reply = f.mbox.Put("INBOX", model.Message{
		Envelope: model.Envelope{
			Subject:   "Re: Lunch",
			From:      model.Address{Name: "Carol", Addr: "carol@example.com"},
			To:        []model.Address{{Addr: "jane@example.com"}},
			Date:      day.Add(time.Hour),
			MessageID: "re-lunch@example.com",
			InReplyTo: "lunch@example.com",
		},
		TextBody: "Count me in.",
	})
	f.report = f.mbox.Put("INBOX", model.Message{
		Envelope: model.Envelope{
			Subject:       "Report",
			From:          model.Address{Addr: "boss@example.com"},
			To:            []model.Address{{Addr: "jane@example.com"}},
			Date:          day.Add(24 * time.Hour),
			MessageID:     "report@example.com",
			Flags:         model.Flags{model.FlagSeen, model.FlagFlagged},
			HasAttachment: true,
		},
		TextBody: "See attached.",
	})

	b := backend.New(work, f.mbox, f.sender)
	f.d = dispatch.New(cfg, b, f.ids, func(_ context.Context, acc *model.AccountConfig) (*backend.Backend, error) {
		return backend.New(acc, nil, &testutil.Sender{}), nil
	})
	return f
}

func (f *fixture) run(t *testing.T, line string) (dispatch.Result, error) {
	t.Helper()
	path, rest, err := grammar.Default().Resolve(line)
	require.NoError(t, err)
	return f.d.Execute(context.Background(), path, rest)
}

// list allocates aliases: newest first, so report=1, reply=2, lunch=3.
func (f *fixture) list(t *testing.T) string {
	t.Helper()
	res, err := f.run(t, "envelope list")
	require.NoError(t, err)
	return res.Text
}

func TestEveryLeafHasAHandler(t *testing.T) {
	for _, path := range grammar.Default().Leaves() {
		assert.True(t, dispatch.Handles(path), "%v", path)
	}
	assert.False(t, dispatch.Handles([]string{"account"}))
}

func TestExecuteUnknownPath(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Execute(context.Background(), []string{"account", "rename"}, "")
	assert.ErrorIs(t, err, dispatch.ErrNoHandler)
}

func TestExecuteBadQuoting(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, `folder add "unterminated`)
	assert.ErrorContains(t, err, "folder add: splitting arguments")
}

func TestAccountList(t *testing.T) {
	f := newFixture(t)
	res, err := f.run(t, "account list")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "NAME")
	assert.Contains(t, res.Text, "BACKENDS")
	assert.Contains(t, res.Text, "imap, smtp")
	assert.Contains(t, res.Text, "sendmail")
	assert.Less(t, strings.Index(res.Text, "home"), strings.Index(res.Text, "work"))
}

func TestAccountDoctor(t *testing.T) {
	f := newFixture(t)

	res, err := f.run(t, "account doctor")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Checking account work")
	assert.Contains(t, res.Text, "Mailbox (imap): ok, 5 folders")
	assert.Contains(t, res.Text, "Sender (smtp): configured")

	res, err = f.run(t, "account doctor home")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Mailbox: not configured")
	assert.Contains(t, res.Text, "Sender (sendmail): configured")

	_, err = f.run(t, "account doctor nope")
	assert.Error(t, err)
}

func TestAccountDoctorReportsMailboxErrors(t *testing.T) {
	f := newFixture(t)
	f.mbox.Err = &backend.AuthError{Backend: "imap", Message: "bad password"}

	res, err := f.run(t, "account doctor")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "authentication failed")
}

func TestFolderCommands(t *testing.T) {
	f := newFixture(t)

	res, err := f.run(t, "folder add Projects")
	require.NoError(t, err)
	assert.Equal(t, "Folder Projects successfully created", res.Text)
	assert.Contains(t, f.mbox.FolderNames(), "Projects")

	res, err = f.run(t, "folder list")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "DESC")
	assert.Contains(t, res.Text, "Projects")

	res, err = f.run(t, "folder expunge")
	require.NoError(t, err)
	assert.Equal(t, "Folder inbox successfully expunged", res.Text)

	res, err = f.run(t, "folder purge Archive")
	require.NoError(t, err)
	assert.Equal(t, "Folder Archive successfully purged", res.Text)

	res, err = f.run(t, "folder delete Projects")
	require.NoError(t, err)
	assert.Equal(t, "Folder Projects successfully deleted", res.Text)
	assert.NotContains(t, f.mbox.FolderNames(), "Projects")

	_, err = f.run(t, "folder delete")
	assert.ErrorContains(t, err, "folder delete: missing folder name")

	_, err = f.run(t, "folder add a b")
	assert.ErrorContains(t, err, `unexpected argument "b"`)
}

func TestEnvelopeList(t *testing.T) {
	f := newFixture(t)

	out := f.list(t)
	for _, s := range []string{"ID", "FLAGS", "SUBJECT", "FROM", "DATE", "Report", "Re: Lunch", "Carol", "boss@example.com"} {
		assert.Contains(t, out, s)
	}
	assert.Less(t, strings.Index(out, "Report"), strings.Index(out, "Re: Lunch"))

	alias, err := f.ids.Alias(context.Background(), "INBOX", f.report)
	require.NoError(t, err)
	assert.Equal(t, 1, alias)
	alias, err = f.ids.Alias(context.Background(), "INBOX", f.lunch)
	require.NoError(t, err)
	assert.Equal(t, 3, alias)
}

func TestEnvelopeListPaging(t *testing.T) {
	f := newFixture(t)

	res, err := f.run(t, "envelope list -s 1 -p 2")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Re: Lunch")
	assert.NotContains(t, res.Text, "Report")

	res, err = f.run(t, "envelope list --page 9")
	require.NoError(t, err)
	assert.Equal(t, "No envelopes in folder inbox (page 9)", res.Text)

	_, err = f.run(t, "envelope list -p 0")
	assert.ErrorContains(t, err, "invalid page 0")

	_, err = f.run(t, "envelope list -p 9223372036854775807")
	assert.ErrorContains(t, err, "offset out of range")

	res, err = f.run(t, "envelope list -s 9223372036854775807")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Lunch")
	assert.Contains(t, res.Text, "Report")

	_, err = f.run(t, "envelope list --bogus")
	assert.ErrorContains(t, err, "parsing arguments")
}

func TestEnvelopeThread(t *testing.T) {
	f := newFixture(t)
	f.list(t)

	res, err := f.run(t, "envelope thread")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "3 Lunch (Bob)")
	assert.Contains(t, res.Text, "2 Re: Lunch (Carol)")
	assert.Contains(t, res.Text, "1 Report")

	res, err = f.run(t, "envelope thread 2")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Lunch")
	assert.NotContains(t, res.Text, "Report")
}

func TestFlagCommands(t *testing.T) {
	f := newFixture(t)
	f.list(t)

	res, err := f.run(t, "flag add 2 3 flagged answered")
	require.NoError(t, err)
	assert.Equal(t, "Flags flagged, answered successfully added", res.Text)
	msgs := f.mbox.Messages("INBOX")
	assert.True(t, msgs[0].Flags.Has(model.FlagFlagged))
	assert.True(t, msgs[1].Flags.Has(model.FlagAnswered))

	res, err = f.run(t, `flag remove 1 \Flagged`)
	require.NoError(t, err)
	assert.Equal(t, "Flag flagged successfully removed", res.Text)
	assert.False(t, f.mbox.Messages("INBOX")[2].Flags.Has(model.FlagFlagged))

	res, err = f.run(t, "flag set 1 seen")
	require.NoError(t, err)
	assert.Equal(t, "Flag seen successfully set", res.Text)

	_, err = f.run(t, "flag add 1")
	assert.ErrorContains(t, err, "missing flag")

	_, err = f.run(t, "flag add seen")
	assert.ErrorContains(t, err, "missing envelope id")

	_, err = f.run(t, "flag add 42 seen")
	assert.ErrorIs(t, err, store.ErrAliasNotFound)
}

func TestMessageRead(t *testing.T) {
	f := newFixture(t)
	f.list(t)

	res, err := f.run(t, "message read --preview 2")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Subject: Re: Lunch")
	assert.Contains(t, res.Text, "Count me in.")
	assert.False(t, f.mbox.Messages("INBOX")[1].Flags.Has(model.FlagSeen))

	res, err = f.run(t, "message read 2 3")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Count me in.\n\nFrom: \"Bob\" <bob@example.com>")
	assert.True(t, f.mbox.Messages("INBOX")[1].Flags.Has(model.FlagSeen))

	_, err = f.run(t, "message read")
	assert.ErrorContains(t, err, "message read: missing envelope id")

	_, err = f.run(t, "message read abc")
	assert.ErrorContains(t, err, `invalid envelope id "abc"`)
}

func TestMessageThread(t *testing.T) {
	f := newFixture(t)
	f.list(t)

	res, err := f.run(t, "message thread 2")
	require.NoError(t, err)
	assert.Less(t, strings.Index(res.Text, "Noon?"), strings.Index(res.Text, "Count me in."))
	assert.NotContains(t, res.Text, "See attached.")
}

func TestMessageCompose(t *testing.T) {
	f := newFixture(t)
	f.list(t)

	res, err := f.run(t, "message write")
	require.NoError(t, err)
	require.NotNil(t, res.Compose)
	assert.Contains(t, res.Compose.Template, "From: \"Jane Doe\" <jane@example.com>\nTo: \n")
	assert.Nil(t, res.Compose.Answering)

	res, err = f.run(t, "message reply 3")
	require.NoError(t, err)
	require.NotNil(t, res.Compose)
	assert.Contains(t, res.Compose.Template, "Subject: Re: Lunch\n")
	assert.Equal(t, &dispatch.MessageRef{Folder: "inbox", ID: f.lunch}, res.Compose.Answering)

	res, err = f.run(t, "message forward -f inbox 1")
	require.NoError(t, err)
	require.NotNil(t, res.Compose)
	assert.Contains(t, res.Compose.Template, "Subject: Fwd: Report\n")

	_, err = f.run(t, "message reply 1 2")
	assert.ErrorContains(t, err, `unexpected argument "2"`)
}

func TestMessageCopyMoveDelete(t *testing.T) {
	f := newFixture(t)
	f.list(t)

	res, err := f.run(t, "message copy Archive 1")
	require.NoError(t, err)
	assert.Equal(t, "Message successfully copied to folder Archive", res.Text)
	assert.Len(t, f.mbox.Messages("Archive"), 1)
	assert.Len(t, f.mbox.Messages("INBOX"), 3)

	res, err = f.run(t, "message move Archive 2 3")
	require.NoError(t, err)
	assert.Equal(t, "Messages successfully moved to folder Archive", res.Text)
	assert.Len(t, f.mbox.Messages("INBOX"), 1)
	_, err = f.ids.ID(context.Background(), "INBOX", 2)
	assert.True(t, errors.Is(err, store.ErrAliasNotFound))

	res, err = f.run(t, "message delete 1")
	require.NoError(t, err)
	assert.Equal(t, "Message successfully deleted", res.Text)
	assert.Empty(t, f.mbox.Messages("INBOX"))
	require.Len(t, f.mbox.Messages("Trash"), 1)

	_, err = f.run(t, "message move")
	assert.ErrorContains(t, err, "missing folder name")
}

func TestMessageDeleteInTrashFlagsDeleted(t *testing.T) {
	f := newFixture(t)
	id := f.mbox.Put("Trash", model.Message{Envelope: model.Envelope{Subject: "Old"}})

	_, err := f.run(t, "envelope list -f trash")
	require.NoError(t, err)

	_, err = f.run(t, "message delete -f trash 1")
	require.NoError(t, err)

	msgs := f.mbox.Messages("Trash")
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)
	assert.True(t, msgs[0].Flags.Has(model.FlagDeleted))

	got, err := f.ids.ID(context.Background(), "Trash", 1)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestBackendErrorsAreWrapped(t *testing.T) {
	f := newFixture(t)
	f.mbox.Err = errors.New("connection reset")

	_, err := f.run(t, "folder list")
	assert.EqualError(t, err, "folder list: connection reset")
}
