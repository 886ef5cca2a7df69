package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/nhle/mailrepl/internal/backend"
	"github.com/nhle/mailrepl/internal/model"
)

// Mailbox is an in-memory backend.Mailbox. Ids are decimal UIDs shared
// across folders.
type Mailbox struct {
	mu      sync.Mutex
	folders map[string][]model.Message
	nextUID uint64

	// Err, when set, is returned by every operation.
	Err error
}

var _ backend.Mailbox = (*Mailbox)(nil)

// NewMailbox returns a mailbox holding the given empty folders.
func NewMailbox(folders ...string) *Mailbox {
	m := &Mailbox{folders: map[string][]model.Message{}}
	for _, f := range folders {
		m.folders[f] = nil
	}
	return m
}

// Put stores msg in folder and returns its id.
func (m *Mailbox) Put(folder string, msg model.Message) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(folder, msg)
}

func (m *Mailbox) put(folder string, msg model.Message) string {
	m.nextUID++
	msg.ID = strconv.FormatUint(m.nextUID, 10)
	m.folders[folder] = append(m.folders[folder], msg)
	return msg.ID
}

// Messages returns a copy of the messages in folder, oldest first.
func (m *Mailbox) Messages(folder string) []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Message(nil), m.folders[folder]...)
}

// FolderNames returns the folder names in ascending order.
func (m *Mailbox) FolderNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.folders))
	for name := range m.folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Mailbox) folder(name string) ([]model.Message, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	msgs, ok := m.folders[name]
	if !ok {
		return nil, fmt.Errorf("folder %s does not exist", name)
	}
	return msgs, nil
}

func (m *Mailbox) ListFolders(_ context.Context) ([]model.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Folder, 0, len(m.folders))
	for name := range m.folders {
		out = append(out, model.Folder{Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Mailbox) AddFolder(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.folders[name]; ok {
		return fmt.Errorf("folder %s already exists", name)
	}
	m.folders[name] = nil
	return nil
}

func (m *Mailbox) ExpungeFolder(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, err := m.folder(name)
	if err != nil {
		return err
	}
	kept := msgs[:0:0]
	for _, msg := range msgs {
		if !msg.Flags.Has(model.FlagDeleted) {
			kept = append(kept, msg)
		}
	}
	m.folders[name] = kept
	return nil
}

func (m *Mailbox) PurgeFolder(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.folder(name); err != nil {
		return err
	}
	m.folders[name] = nil
	return nil
}

func (m *Mailbox) DeleteFolder(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.folder(name); err != nil {
		return err
	}
	delete(m.folders, name)
	return nil
}

func (m *Mailbox) FolderStatus(_ context.Context, name string) (model.FolderStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, err := m.folder(name)
	if err != nil {
		return model.FolderStatus{}, err
	}
	status := model.FolderStatus{Name: name, Messages: uint32(len(msgs))}
	for _, msg := range msgs {
		if !msg.Flags.Has(model.FlagSeen) {
			status.Unseen++
		}
	}
	return status, nil
}

func (m *Mailbox) ListEnvelopes(_ context.Context, folder string, page, size int) ([]model.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, err := m.folder(folder)
	if err != nil {
		return nil, err
	}

	envs := make([]model.Envelope, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		envs = append(envs, msgs[i].Envelope)
	}
	if size < 1 {
		return envs, nil
	}
	if page < 1 {
		page = 1
	}
	if page-1 > len(envs)/size {
		return nil, nil
	}
	start := (page - 1) * size
	if start >= len(envs) {
		return nil, nil
	}
	end := start + size
	if end > len(envs) {
		end = len(envs)
	}
	return envs[start:end], nil
}

func (m *Mailbox) updateFlags(folder string, ids []string, fn func(model.Flags) model.Flags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, err := m.folder(folder)
	if err != nil {
		return err
	}
	for _, id := range ids {
		i := indexOf(msgs, id)
		if i < 0 {
			return fmt.Errorf("message %s not found in %s", id, folder)
		}
		msgs[i].Flags = fn(msgs[i].Flags)
	}
	return nil
}

func (m *Mailbox) AddFlags(_ context.Context, folder string, ids []string, flags model.Flags) error {
	return m.updateFlags(folder, ids, func(cur model.Flags) model.Flags {
		for _, f := range flags {
			if !cur.Has(f) {
				cur = append(cur, f)
			}
		}
		return cur
	})
}

func (m *Mailbox) SetFlags(_ context.Context, folder string, ids []string, flags model.Flags) error {
	return m.updateFlags(folder, ids, func(model.Flags) model.Flags {
		return append(model.Flags(nil), flags...)
	})
}

func (m *Mailbox) RemoveFlags(_ context.Context, folder string, ids []string, flags model.Flags) error {
	return m.updateFlags(folder, ids, func(cur model.Flags) model.Flags {
		var out model.Flags
		for _, f := range cur {
			if !flags.Has(f) {
				out = append(out, f)
			}
		}
		return out
	})
}

func (m *Mailbox) GetMessages(_ context.Context, folder string, ids []string) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, err := m.folder(folder)
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		i := indexOf(msgs, id)
		if i < 0 {
			return nil, fmt.Errorf("message %s not found in %s", id, folder)
		}
		out = append(out, msgs[i])
	}
	return out, nil
}

func (m *Mailbox) transfer(from, to string, ids []string, remove bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, err := m.folder(from)
	if err != nil {
		return err
	}
	if _, err := m.folder(to); err != nil {
		return err
	}
	for _, id := range ids {
		i := indexOf(msgs, id)
		if i < 0 {
			return fmt.Errorf("message %s not found in %s", id, from)
		}
		m.put(to, msgs[i])
		if remove {
			msgs = append(msgs[:i], msgs[i+1:]...)
		}
	}
	m.folders[from] = msgs
	return nil
}

func (m *Mailbox) CopyMessages(_ context.Context, from, to string, ids []string) error {
	return m.transfer(from, to, ids, false)
}

func (m *Mailbox) MoveMessages(_ context.Context, from, to string, ids []string) error {
	return m.transfer(from, to, ids, true)
}

// AddMessage parses raw to fill the stored envelope.
func (m *Mailbox) AddMessage(_ context.Context, folder string, raw []byte, flags model.Flags) (string, error) {
	msg, err := backend.ParseMessage(raw)
	if err != nil {
		return "", err
	}
	msg.Flags = append(model.Flags(nil), flags...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.folder(folder); err != nil {
		return "", err
	}
	return m.put(folder, msg), nil
}

func indexOf(msgs []model.Message, id string) int {
	for i, msg := range msgs {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// Sender records sent messages.
type Sender struct {
	mu   sync.Mutex
	sent [][]byte

	// Err, when set, is returned by Send.
	Err error
}

var _ backend.Sender = (*Sender)(nil)

func (s *Sender) Send(_ context.Context, raw []byte) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, append([]byte(nil), raw...))
	return nil
}

// Sent returns the messages sent so far.
func (s *Sender) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}
