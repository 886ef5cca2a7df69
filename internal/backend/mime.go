package backend

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailrepl/internal/model"
)

// parseMessage parses a raw RFC 5322 message with go-message and fills
// the header fields the IMAP envelope does not carry, the text/plain and
// text/html bodies, and attachment metadata.
func parseMessage(raw []byte, msg *model.Message) {
	msg.Raw = raw

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// If parsing fails, treat the whole thing as plain text
		msg.TextBody = string(raw)
		return
	}
	defer mr.Close()

	if cc, err := mr.Header.AddressList("Cc"); err == nil {
		msg.Cc = fromMailAddresses(cc)
	}
	if replyTo, err := mr.Header.AddressList("Reply-To"); err == nil {
		msg.ReplyTo = fromMailAddresses(replyTo)
	}
	if refs, err := mr.Header.MsgIDList("References"); err == nil {
		msg.References = refs
	}
	if msg.Envelope.MessageID == "" {
		msg.Envelope.MessageID, _ = mr.Header.MessageID()
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if contentType == "" {
				contentType = "text/plain"
			}
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain") && msg.TextBody == "":
				msg.TextBody = string(body)
			case strings.HasPrefix(contentType, "text/html") && msg.HTMLBody == "":
				msg.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			// Read to get size without storing content
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			msg.Attachments = append(msg.Attachments, model.Attachment{
				Filename: filename,
				Size:     int64(len(body)),
				MIMEType: contentType,
			})
		}
	}

	if len(msg.Attachments) > 0 {
		msg.HasAttachment = true
	}
}

// ParseMessage parses a raw message that did not come from a server,
// such as a local draft.
func ParseMessage(raw []byte) (model.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return model.Message{}, fmt.Errorf("parsing message: %w", err)
	}

	var msg model.Message
	msg.Subject, _ = mr.Header.Subject()
	msg.Date, _ = mr.Header.Date()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = fromMailAddresses(from)[0]
	}
	if to, err := mr.Header.AddressList("To"); err == nil {
		msg.To = fromMailAddresses(to)
	}
	if ids, err := mr.Header.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		msg.InReplyTo = ids[0]
	}
	_ = mr.Close()

	parseMessage(raw, &msg)
	return msg, nil
}

func fromMailAddresses(addrs []*mail.Address) []model.Address {
	out := make([]model.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, model.Address{Name: a.Name, Addr: a.Address})
	}
	return out
}

// envelopeAddrs returns the sender and every recipient (To, Cc, Bcc) of
// a raw message, as SMTP needs them.
func envelopeAddrs(raw []byte) (from string, rcpts []string, err error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("parsing message headers: %w", err)
	}
	defer mr.Close()

	senders, err := mr.Header.AddressList("From")
	if err != nil || len(senders) == 0 {
		return "", nil, fmt.Errorf("message has no valid From header")
	}
	from = senders[0].Address

	for _, key := range []string{"To", "Cc", "Bcc"} {
		list, err := mr.Header.AddressList(key)
		if err != nil {
			return "", nil, fmt.Errorf("parsing %s header: %w", key, err)
		}
		for _, a := range list {
			rcpts = append(rcpts, a.Address)
		}
	}
	if len(rcpts) == 0 {
		return "", nil, fmt.Errorf("message has no recipient")
	}
	return from, rcpts, nil
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}

// FormatSize formats a byte size into a human-readable string.
func FormatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
