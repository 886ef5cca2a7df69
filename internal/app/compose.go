package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/mailrepl/internal/dispatch"
	"github.com/nhle/mailrepl/internal/editor"
	"github.com/nhle/mailrepl/internal/model"
	"github.com/nhle/mailrepl/internal/template"
)

// composeState is the message being written. The choices live on the
// heap so that huh's Value pointers stay valid across model copies.
type composeState struct {
	template  string
	answering *dispatch.MessageRef
	pre       *editor.PreEditChoice
	post      *editor.PostEditChoice
}

// editorFinishedMsg is sent when $EDITOR exits.
type editorFinishedMsg struct {
	err error
}

// composeFinishedMsg carries the outcome of sending or saving a message.
type composeFinishedMsg struct {
	text string
	err  error
}

var errNoOutbox = errors.New("no sending backend configured")

// startCompose begins the editor flow for a template, asking first what
// to do with a leftover draft.
func (m Model) startCompose(c *dispatch.Compose) (tea.Model, tea.Cmd) {
	if m.draft == nil {
		m.log.Fail(errors.New("no draft path configured"))
		m.syncLog()
		return m, nil
	}

	m.compose = &composeState{
		template:  c.Template,
		answering: c.Answering,
		pre:       new(editor.PreEditChoice),
		post:      new(editor.PostEditChoice),
	}

	if m.draft.Exists() {
		m.mode = modePreEdit
		m.form = editor.PreEditForm(m.compose.pre).WithWidth(m.layout.Width)
		return m, m.form.Init()
	}

	if err := m.draft.Write(c.Template); err != nil {
		return m.abortCompose(err)
	}
	return m.runEditor()
}

// runEditor suspends the program and opens the draft in $EDITOR.
func (m Model) runEditor() (tea.Model, tea.Cmd) {
	cmd, err := editor.Command(m.draft.Path())
	if err != nil {
		return m.abortCompose(err)
	}
	m.mode = modeEditing
	m.form = nil
	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m Model) editorFinished(msg editorFinishedMsg) (tea.Model, tea.Cmd) {
	if m.compose == nil {
		return m, nil
	}
	if msg.err != nil {
		return m.abortCompose(fmt.Errorf("running editor: %w", msg.err))
	}
	*m.compose.post = editor.PostEditSend
	m.mode = modePostEdit
	m.form = editor.PostEditForm(m.compose.post).WithWidth(m.layout.Width)
	return m, m.form.Init()
}

// updateForm forwards a message to the active huh form and acts on the
// answer once the form completes.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		if m.mode == modePreEdit {
			return m.applyPreEdit(*m.compose.pre)
		}
		return m.applyPostEdit(*m.compose.post)
	case huh.StateAborted:
		m.form = nil
		return m.endCompose("")
	}
	return m, cmd
}

func (m Model) applyPreEdit(choice editor.PreEditChoice) (tea.Model, tea.Cmd) {
	switch choice {
	case editor.PreEditEdit:
		return m.runEditor()
	case editor.PreEditDiscard:
		if err := m.draft.Write(m.compose.template); err != nil {
			return m.abortCompose(err)
		}
		return m.runEditor()
	default:
		return m.endCompose("")
	}
}

func (m Model) applyPostEdit(choice editor.PostEditChoice) (tea.Model, tea.Cmd) {
	switch choice {
	case editor.PostEditSend:
		return m.deliver(m.send)
	case editor.PostEditEdit:
		return m.runEditor()
	case editor.PostEditLocalDraft:
		return m.endCompose("Message successfully saved to " + m.draft.Path())
	case editor.PostEditRemoteDraft:
		return m.deliver(m.saveRemote)
	default:
		if err := m.draft.Remove(); err != nil {
			return m.abortCompose(err)
		}
		return m.endCompose("Message discarded")
	}
}

// deliver runs fn in a command under the command timeout.
func (m Model) deliver(fn func(ctx context.Context, raw []byte) (string, error)) (tea.Model, tea.Cmd) {
	m.mode = modeInput
	draft, timeout := m.draft, m.timeout
	cmd := func() tea.Msg {
		tpl, err := draft.Read()
		if err != nil {
			return composeFinishedMsg{err: err}
		}
		raw, err := template.Compile(tpl)
		if err != nil {
			return composeFinishedMsg{err: fmt.Errorf("compiling message: %w", err)}
		}

		ctx, cancel := commandContext(timeout)
		defer cancel()
		text, err := fn(ctx, raw)
		if err != nil {
			return composeFinishedMsg{err: err}
		}
		if err := draft.Remove(); err != nil {
			return composeFinishedMsg{text: text, err: err}
		}
		return composeFinishedMsg{text: text}
	}

	m.pending++
	if m.pending == 1 {
		return m, tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

// send is called off the update goroutine; it only reads compose state.
func (m Model) send(ctx context.Context, raw []byte) (string, error) {
	if m.outbox == nil {
		return "", errNoOutbox
	}
	if err := m.outbox.SendMessage(ctx, raw); err != nil {
		return "", err
	}
	if ref := m.compose.answering; ref != nil {
		if err := m.outbox.AddFlags(ctx, ref.Folder, []string{ref.ID}, model.Flags{model.FlagAnswered}); err != nil {
			return "", fmt.Errorf("flagging replied message: %w", err)
		}
	}
	return "Message successfully sent", nil
}

func (m Model) saveRemote(ctx context.Context, raw []byte) (string, error) {
	if m.outbox == nil {
		return "", errNoOutbox
	}
	if err := m.outbox.SaveDraft(ctx, raw); err != nil {
		return "", err
	}
	return "Message successfully saved to drafts", nil
}

func (m Model) composeFinished(msg composeFinishedMsg) (tea.Model, tea.Cmd) {
	m.pending--
	if msg.text != "" {
		m.log.Report(msg.text)
	}
	if msg.err != nil {
		m.log.Fail(msg.err)
	}
	m.compose = nil
	m.syncLog()
	return m, nil
}

func (m Model) abortCompose(err error) (tea.Model, tea.Cmd) {
	m.log.Fail(err)
	return m.endCompose("")
}

func (m Model) endCompose(text string) (tea.Model, tea.Cmd) {
	if text != "" {
		m.log.Report(text)
	}
	m.mode = modeInput
	m.form = nil
	m.compose = nil
	m.syncLog()
	return m, nil
}
