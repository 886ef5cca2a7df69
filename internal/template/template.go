package template

import (
	"fmt"
	"strings"

	"github.com/nhle/mailrepl/internal/backend"
	"github.com/nhle/mailrepl/internal/model"
)

const forwardMarker = "-------- Forwarded Message --------"

// header is one line of a template header section.
type header struct {
	key   string
	value string
}

func render(headers []header, body string) string {
	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h.key)
		b.WriteString(": ")
		b.WriteString(h.value)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

func withSignature(acc *model.AccountConfig, body string) string {
	sig := acc.SignatureBlock()
	if sig == "" {
		return body
	}
	return body + "\n\n" + sig + "\n"
}

// Write returns the template of a new message.
func Write(acc *model.AccountConfig) string {
	return render([]header{
		{"From", acc.From().String()},
		{"To", ""},
		{"Subject", ""},
	}, withSignature(acc, ""))
}

// Reply returns the template answering msg. With all set, every other
// recipient of msg except the account itself goes to Cc.
func Reply(acc *model.AccountConfig, msg model.Message, all bool) string {
	to := msg.ReplyTo
	if len(to) == 0 {
		to = []model.Address{msg.From}
	}

	headers := []header{
		{"From", acc.From().String()},
		{"To", model.JoinAddresses(to)},
	}

	if all {
		var cc []model.Address
		seen := map[string]bool{strings.ToLower(acc.Email): true}
		for _, a := range to {
			seen[strings.ToLower(a.Addr)] = true
		}
		for _, a := range append(append([]model.Address(nil), msg.To...), msg.Cc...) {
			key := strings.ToLower(a.Addr)
			if seen[key] {
				continue
			}
			seen[key] = true
			cc = append(cc, a)
		}
		if len(cc) > 0 {
			headers = append(headers, header{"Cc", model.JoinAddresses(cc)})
		}
	}

	headers = append(headers, header{"Subject", prefixSubject("Re:", msg.Subject)})

	if msg.MessageID != "" {
		headers = append(headers, header{"In-Reply-To", "<" + msg.MessageID + ">"})
		refs := make([]string, 0, len(msg.References)+1)
		for _, r := range msg.References {
			refs = append(refs, "<"+r+">")
		}
		refs = append(refs, "<"+msg.MessageID+">")
		headers = append(headers, header{"References", strings.Join(refs, " ")})
	}

	var body strings.Builder
	body.WriteString("\n\n")
	if !msg.Date.IsZero() {
		fmt.Fprintf(&body, "On %s, %s wrote:\n", msg.Date.Format("Mon, 2 Jan 2006 15:04"), msg.From.String())
	} else {
		fmt.Fprintf(&body, "%s wrote:\n", msg.From.String())
	}
	body.WriteString(quote(bodyText(msg)))

	return render(headers, withSignature(acc, body.String()))
}

// Forward returns the template forwarding msg.
func Forward(acc *model.AccountConfig, msg model.Message) string {
	headers := []header{
		{"From", acc.From().String()},
		{"To", ""},
		{"Subject", prefixSubject("Fwd:", msg.Subject)},
	}

	var body strings.Builder
	body.WriteString(withSignature(acc, ""))
	body.WriteString("\n\n")
	body.WriteString(forwardMarker)
	body.WriteString("\n")
	fmt.Fprintf(&body, "Subject: %s\n", msg.Subject)
	if !msg.Date.IsZero() {
		fmt.Fprintf(&body, "Date: %s\n", msg.Date.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	}
	fmt.Fprintf(&body, "From: %s\n", msg.From.String())
	if len(msg.To) > 0 {
		fmt.Fprintf(&body, "To: %s\n", model.JoinAddresses(msg.To))
	}
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&body, "Cc: %s\n", model.JoinAddresses(msg.Cc))
	}
	body.WriteString("\n")
	body.WriteString(strings.TrimRight(bodyText(msg), "\n"))
	body.WriteString("\n")

	return render(headers, body.String())
}

// Read renders msg for display.
func Read(msg model.Message) string {
	headers := []header{
		{"From", msg.From.String()},
		{"To", model.JoinAddresses(msg.To)},
	}
	if len(msg.Cc) > 0 {
		headers = append(headers, header{"Cc", model.JoinAddresses(msg.Cc)})
	}
	headers = append(headers, header{"Subject", msg.Subject})
	if !msg.Date.IsZero() {
		headers = append(headers, header{"Date", msg.Date.Format("Mon, 02 Jan 2006 15:04:05 -0700")})
	}

	body := strings.TrimRight(bodyText(msg), "\n")
	if len(msg.Attachments) > 0 {
		var b strings.Builder
		b.WriteString(body)
		b.WriteString("\n\n")
		for _, att := range msg.Attachments {
			fmt.Fprintf(&b, "<#part filename=%q type=%s size=%s>\n",
				att.Filename, att.MIMEType, backend.FormatSize(att.Size))
		}
		body = strings.TrimRight(b.String(), "\n")
	}
	return render(headers, body)
}

// bodyText prefers the plain text part and falls back to stripped HTML.
func bodyText(msg model.Message) string {
	text := strings.ReplaceAll(msg.TextBody, "\r\n", "\n")
	if text == "" && msg.HTMLBody != "" {
		text = backend.StripHTML(msg.HTMLBody)
	}
	return text
}

func quote(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ">\n"
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if line == "" || strings.HasPrefix(line, ">") {
			b.WriteString(">")
		} else {
			b.WriteString("> ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func prefixSubject(prefix, subject string) string {
	subject = strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToLower(subject), strings.ToLower(prefix)) {
		return subject
	}
	if subject == "" {
		return prefix
	}
	return prefix + " " + subject
}
