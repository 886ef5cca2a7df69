package template

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
	"github.com/google/uuid"
)

// now is replaced in tests.
var now = time.Now

// ErrNoRecipient is returned when a template has no To, Cc or Bcc.
var ErrNoRecipient = errors.New("message has no recipient")

var addressFields = []string{"From", "To", "Cc", "Bcc", "Reply-To", "Sender"}

// Compile turns an edited template into an RFC 5322 message: empty
// headers are dropped, address and subject headers are re-encoded, and
// Date, Message-ID and the MIME headers are filled in.
func Compile(tpl string) ([]byte, error) {
	tpl = strings.ReplaceAll(tpl, "\r\n", "\n")
	if !strings.Contains(tpl, "\n\n") {
		tpl = strings.TrimRight(tpl, "\n") + "\n\n"
	}

	br := bufio.NewReader(strings.NewReader(tpl))
	raw, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("reading template headers: %w", err)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("reading template body: %w", err)
	}

	h, err := buildHeader(raw)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("writing message header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message body: %w", err)
	}
	return buf.Bytes(), nil
}

func buildHeader(raw textproto.Header) (mail.Header, error) {
	var h mail.Header

	fields := raw.Fields()
	for fields.Next() {
		key := fields.Key()
		value := strings.TrimSpace(fields.Value())
		if value == "" {
			continue
		}

		switch {
		case isAddressField(key):
			addrs, err := mail.ParseAddressList(value)
			if err != nil {
				return mail.Header{}, fmt.Errorf("parsing %s header: %w", key, err)
			}
			h.SetAddressList(key, addrs)
		case strings.EqualFold(key, "Subject"):
			h.SetSubject(value)
		case strings.EqualFold(key, "In-Reply-To") || strings.EqualFold(key, "References"):
			h.SetMsgIDList(key, parseMsgIDs(value))
		default:
			h.Add(key, value)
		}
	}

	from, err := h.AddressList("From")
	if err != nil || len(from) == 0 {
		return mail.Header{}, fmt.Errorf("template has no valid From header")
	}
	if !hasRecipient(h) {
		return mail.Header{}, ErrNoRecipient
	}

	if !h.Has("Date") {
		h.SetDate(now())
	}
	if !h.Has("Message-Id") {
		h.SetMessageID(newMessageID(from[0].Address))
	}
	h.Set("MIME-Version", "1.0")
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	return h, nil
}

func isAddressField(key string) bool {
	for _, f := range addressFields {
		if strings.EqualFold(f, key) {
			return true
		}
	}
	return false
}

func hasRecipient(h mail.Header) bool {
	for _, key := range []string{"To", "Cc", "Bcc"} {
		if list, err := h.AddressList(key); err == nil && len(list) > 0 {
			return true
		}
	}
	return false
}

func parseMsgIDs(value string) []string {
	var ids []string
	for _, f := range strings.Fields(value) {
		f = strings.TrimSuffix(strings.TrimPrefix(f, "<"), ">")
		if f != "" {
			ids = append(ids, f)
		}
	}
	return ids
}

// newMessageID builds a Message-ID on the sender's domain.
func newMessageID(from string) string {
	domain := "localhost"
	if i := strings.LastIndexByte(from, '@'); i >= 0 && i < len(from)-1 {
		domain = from[i+1:]
	}
	return uuid.New().String() + "@" + domain
}
