package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailrepl/internal/credential"
	"github.com/nhle/mailrepl/internal/model"
)

func TestBuildNone(t *testing.T) {
	b, err := Build(context.Background(), &model.AccountConfig{Name: "x", Email: "x@y.z"}, nil)
	require.NoError(t, err)
	assert.False(t, b.HasMailbox())
	assert.False(t, b.HasSender())
}

func TestBuildIMAPAndSendmail(t *testing.T) {
	acc := &model.AccountConfig{
		Name:  "work",
		Email: "jane@example.com",
		IMAP: &model.ServerConfig{
			Host:       "imap.example.com",
			Encryption: EncryptionStartTLS,
			Passwd:     credential.Secret{Keyring: "work"},
		},
		Sendmail: &model.SendmailConfig{Cmd: "msmtp -t"},
	}
	get := func(key string) (string, error) { return "pw-" + key, nil }

	b, err := Build(context.Background(), acc, get)
	require.NoError(t, err)
	require.True(t, b.HasMailbox())
	require.True(t, b.HasSender())

	imapClient, ok := b.mailbox.(*IMAPClient)
	require.True(t, ok)
	assert.Equal(t, "imap.example.com:143", imapClient.addr)
	assert.Equal(t, "jane@example.com", imapClient.username)
	assert.Equal(t, "pw-work", imapClient.password)

	sm, ok := b.sender.(*SendmailSender)
	require.True(t, ok)
	assert.Equal(t, "msmtp -t", sm.cmd)
}

func TestBuildUnsupported(t *testing.T) {
	_, err := Build(context.Background(), &model.AccountConfig{Name: "m", Backend: model.BackendMaildir}, nil)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Build(context.Background(), &model.AccountConfig{Name: "m", Backend: model.BackendIMAP}, nil)
	assert.ErrorContains(t, err, "missing imap section")

	_, err = Build(context.Background(), &model.AccountConfig{
		Name: "m",
		IMAP: &model.ServerConfig{Host: "h"},
	}, nil)
	assert.ErrorIs(t, err, credential.ErrEmptySecret)
}

func TestDefaultPort(t *testing.T) {
	assert.Equal(t, 993, defaultPort("", 993, 143))
	assert.Equal(t, 993, defaultPort(EncryptionTLS, 993, 143))
	assert.Equal(t, 587, defaultPort(EncryptionStartTLS, 465, 587))
}
