package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailrepl/internal/model"
)

const multipartMessage = "From: Jane <jane@example.com>\r\n" +
	"To: bob@example.com, Carol <carol@example.com>\r\n" +
	"Cc: dave@example.com\r\n" +
	"Bcc: eve@example.com\r\n" +
	"Subject: Report\r\n" +
	"Message-ID: <report@example.com>\r\n" +
	"In-Reply-To: <ask@example.com>\r\n" +
	"References: <root@example.com> <ask@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"See attached.\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/csv\r\n" +
	"Content-Disposition: attachment; filename=\"q3.csv\"\r\n" +
	"\r\n" +
	"a,b\r\n" +
	"--XYZ--\r\n"

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage([]byte(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, "Report", msg.Subject)
	assert.Equal(t, model.Address{Name: "Jane", Addr: "jane@example.com"}, msg.From)
	assert.Len(t, msg.To, 2)
	assert.Equal(t, []model.Address{{Addr: "dave@example.com"}}, msg.Cc)
	assert.Equal(t, "report@example.com", msg.MessageID)
	assert.Equal(t, "ask@example.com", msg.InReplyTo)
	assert.Equal(t, []string{"root@example.com", "ask@example.com"}, msg.References)
	assert.Contains(t, msg.TextBody, "See attached.")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "q3.csv", msg.Attachments[0].Filename)
	assert.Equal(t, "text/csv", msg.Attachments[0].MIMEType)
	assert.True(t, msg.HasAttachment)
}

func TestParseMessageWithoutContentType(t *testing.T) {
	raw := "From: a@b.c\r\nSubject: hi\r\n\r\nplain body\r\n"
	msg, err := ParseMessage([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, msg.TextBody, "plain body")
}

func TestEnvelopeAddrs(t *testing.T) {
	from, rcpts, err := envelopeAddrs([]byte(multipartMessage))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", from)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com", "dave@example.com", "eve@example.com"}, rcpts)

	_, _, err = envelopeAddrs([]byte("Subject: x\r\n\r\nbody"))
	assert.ErrorContains(t, err, "From")

	_, _, err = envelopeAddrs([]byte("From: a@b.c\r\n\r\nbody"))
	assert.ErrorContains(t, err, "recipient")
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Hello&nbsp;<b>world</b></p><br><div>a &amp; b</div>")
	assert.Equal(t, "Hello world\n\na & b", got)
	assert.Empty(t, StripHTML(""))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "2.0 KB", FormatSize(2048))
	assert.Equal(t, "1.5 MB", FormatSize(3*1024*1024/2))
}
