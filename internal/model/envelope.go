package model

import (
	"net/mail"
	"strings"
	"time"
)

// Flag is a message flag in its lowercase, backslash-free form
// ("seen", "answered", "flagged", "deleted", "draft") or a custom keyword.
type Flag string

const (
	FlagSeen     Flag = "seen"
	FlagAnswered Flag = "answered"
	FlagFlagged  Flag = "flagged"
	FlagDeleted  Flag = "deleted"
	FlagDraft    Flag = "draft"
)

// ParseFlag normalises a user or server flag: system flags lose their
// backslash and are lowercased, "replied" is read as answered, and
// keywords are kept as typed.
func ParseFlag(s string) Flag {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(strings.TrimPrefix(s, `\`))
	switch lower {
	case "seen", "answered", "flagged", "deleted", "draft":
		return Flag(lower)
	case "replied":
		return FlagAnswered
	}
	return Flag(s)
}

// Flags is a set of flags kept in insertion order.
type Flags []Flag

// Has reports whether f is in the set.
func (fs Flags) Has(f Flag) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// Address is a mailbox with an optional display name.
type Address struct {
	Name string
	Addr string
}

// String formats the address the way it appears in a header.
func (a Address) String() string {
	if a.Name == "" {
		return a.Addr
	}
	return (&mail.Address{Name: a.Name, Address: a.Addr}).String()
}

// Display returns the name when present, the address otherwise.
func (a Address) Display() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Addr
}

// JoinAddresses formats a list of addresses for a header.
func JoinAddresses(addrs []Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

// Envelope is the summary of a message shown in listings.
type Envelope struct {
	// ID is the backend identifier (the IMAP UID).
	ID            string
	Flags         Flags
	Subject       string
	From          Address
	To            []Address
	Date          time.Time
	MessageID     string
	InReplyTo     string
	HasAttachment bool
}

// Attachment holds metadata about a message attachment.
type Attachment struct {
	Filename string
	Size     int64
	MIMEType string
}

// Message is a fully fetched message.
type Message struct {
	Envelope

	Cc          []Address
	ReplyTo     []Address
	References  []string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
	Raw         []byte
}

// Folder is a mailbox on the server.
type Folder struct {
	Name string
	Desc string
}

// FolderStatus holds the message counters of a folder.
type FolderStatus struct {
	Name     string
	Messages uint32
	Unseen   uint32
}
