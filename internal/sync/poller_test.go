package sync_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailrepl/internal/backend"
	"github.com/nhle/mailrepl/internal/model"
	"github.com/nhle/mailrepl/internal/sync"
	"github.com/nhle/mailrepl/tests/testutil"
)

func newBackend(mbox *testutil.Mailbox) *backend.Backend {
	return backend.New(&model.AccountConfig{Name: "work", Email: "jane@example.com"}, mbox, nil)
}

func next(t *testing.T, p *sync.Poller) sync.StatusMsg {
	t.Helper()
	done := make(chan sync.StatusMsg, 1)
	go func() {
		msg, _ := p.WaitForNextResult()().(sync.StatusMsg)
		done <- msg
	}()
	select {
	case msg := <-done:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for status")
		return sync.StatusMsg{}
	}
}

func TestPollerReportsUnseen(t *testing.T) {
	mbox := testutil.NewMailbox("INBOX")
	mbox.Put("INBOX", model.Message{Envelope: model.Envelope{Subject: "a"}})
	mbox.Put("INBOX", model.Message{Envelope: model.Envelope{Subject: "b", Flags: model.Flags{model.FlagSeen}}})

	p := sync.New(newBackend(mbox), model.FolderInbox, time.Hour)
	require.NotNil(t, p.Start())
	t.Cleanup(p.Stop)

	msg := next(t, p)
	require.NoError(t, msg.Error)
	assert.Equal(t, uint32(2), msg.Status.Messages)
	assert.Equal(t, uint32(1), msg.Status.Unseen)
	assert.Zero(t, msg.NewUnseen)

	mbox.Put("INBOX", model.Message{Envelope: model.Envelope{Subject: "c"}})
	mbox.Put("INBOX", model.Message{Envelope: model.Envelope{Subject: "d"}})
	p.Refresh()

	msg = next(t, p)
	assert.Equal(t, uint32(3), msg.Status.Unseen)
	assert.Equal(t, 2, msg.NewUnseen)
	assert.Equal(t, sync.SyncIdle, p.Status().State)
	assert.False(t, p.Status().LastSync.IsZero())
}

func TestPollerReportsErrors(t *testing.T) {
	mbox := testutil.NewMailbox("INBOX")
	mbox.Err = &backend.AuthError{Backend: "imap", Message: "bad password"}

	p := sync.New(newBackend(mbox), model.FolderInbox, time.Hour)
	require.NotNil(t, p.Start())
	t.Cleanup(p.Stop)

	msg := next(t, p)
	assert.True(t, msg.AuthError)
	var authErr *backend.AuthError
	assert.True(t, errors.As(msg.Error, &authErr))
	assert.Equal(t, sync.SyncError, p.Status().State)
}

func TestPollerDisabled(t *testing.T) {
	p := sync.New(newBackend(testutil.NewMailbox("INBOX")), model.FolderInbox, 0)
	assert.Nil(t, p.Start())
	p.Stop()
}

func TestPollerStartsOnce(t *testing.T) {
	p := sync.New(newBackend(testutil.NewMailbox("INBOX")), model.FolderInbox, time.Hour)
	require.NotNil(t, p.Start())
	t.Cleanup(p.Stop)
	assert.Nil(t, p.Start())
}
