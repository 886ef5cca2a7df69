package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/mailrepl/internal/buffer"
	"github.com/nhle/mailrepl/internal/completion"
	"github.com/nhle/mailrepl/internal/dispatch"
	"github.com/nhle/mailrepl/internal/editor"
	"github.com/nhle/mailrepl/internal/grammar"
	"github.com/nhle/mailrepl/internal/keys"
	"github.com/nhle/mailrepl/internal/model"
	appsync "github.com/nhle/mailrepl/internal/sync"
	"github.com/nhle/mailrepl/internal/theme"
	"github.com/nhle/mailrepl/internal/ui"
)

const prompt = "mailrepl> "

// Executor runs a resolved leaf command. *dispatch.Dispatcher implements
// it.
type Executor interface {
	Execute(ctx context.Context, path []string, args string) (dispatch.Result, error)
}

// Outbox delivers composed messages. *backend.Backend implements it.
type Outbox interface {
	SendMessage(ctx context.Context, raw []byte) error
	SaveDraft(ctx context.Context, raw []byte) error
	AddFlags(ctx context.Context, folder string, ids []string, flags model.Flags) error
}

// Options configures a Model.
type Options struct {
	Account  string
	Grammar  *grammar.Grammar
	Executor Executor
	Outbox   Outbox

	// Poller watches the inbox; nil disables the unseen counter.
	Poller *appsync.Poller

	Draft          *editor.Draft
	Keybinds       string
	CommandTimeout time.Duration
}

// mode is what currently receives key presses.
type mode int

const (
	modeInput mode = iota
	modePreEdit
	modeEditing
	modePostEdit
)

// commandResultMsg carries the outcome of a dispatched command.
type commandResultMsg struct {
	result dispatch.Result
	err    error
}

// Model is the interactive loop: a line editor with command completion
// over a session log.
type Model struct {
	account   string
	grammar   *grammar.Grammar
	completer *completion.Completer
	executor  Executor
	outbox    Outbox
	poller    *appsync.Poller
	draft     *editor.Draft
	timeout   time.Duration
	keys      *keys.KeyMap

	buf        *buffer.TextBuffer
	candidates []string
	log        *SessionLog
	history    []string
	histPos    int
	stash      string
	normal     bool

	pending  int
	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	layout   ui.Layout
	ready    bool

	unseen   uint32
	watched  bool
	watchErr string

	mode    mode
	form    *huh.Form
	compose *composeState
}

// New creates the root model.
func New(opts Options) Model {
	g := opts.Grammar
	if g == nil {
		g = grammar.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.PromptStyle

	h := help.New()
	h.ShortSeparator = " · "

	return Model{
		account:   opts.Account,
		grammar:   g,
		completer: completion.New(g),
		executor:  opts.Executor,
		outbox:    opts.Outbox,
		poller:    opts.Poller,
		draft:     opts.Draft,
		timeout:   opts.CommandTimeout,
		keys:      keys.ForStyle(opts.Keybinds),
		buf:       buffer.New(),
		log:       &SessionLog{},
		histPos:   -1,
		spinner:   sp,
		viewport:  viewport.New(80, 20),
		help:      h,
		layout:    ui.NewLayout(80, 24),
	}
}

// Init starts the unseen watcher.
func (m Model) Init() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return m.poller.Start()
}

// Update handles messages: key presses edit the line, command and
// editor results are appended to the log.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.viewport.Width = msg.Width
		m.viewport.Height = m.layout.LogHeight()
		m.help.Width = msg.Width
		m.ready = true
		m.syncLog()
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case commandResultMsg:
		m.pending--
		if m.poller != nil {
			m.poller.Refresh()
		}
		if msg.err != nil {
			m.log.Fail(msg.err)
			m.syncLog()
			return m, nil
		}
		if msg.result.Compose != nil {
			return m.startCompose(msg.result.Compose)
		}
		if msg.result.Text != "" {
			m.log.Report(msg.result.Text)
			m.syncLog()
		}
		return m, nil

	case appsync.StatusMsg:
		if msg.Error != nil {
			m.watchErr = "offline"
			if msg.AuthError {
				m.watchErr = "authentication failed"
			}
		} else {
			m.watchErr = ""
			m.watched = true
			m.unseen = msg.Status.Unseen
			if msg.NewUnseen > 0 {
				m.log.Report(fmt.Sprintf("%d new %s in %s", msg.NewUnseen,
					plural(msg.NewUnseen, "message", "messages"), m.poller.Status().Folder))
				m.syncLog()
			}
		}
		return m, m.poller.WaitForNextResult()

	case editorFinishedMsg:
		return m.editorFinished(msg)

	case composeFinishedMsg:
		return m.composeFinished(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.log.Report("Bye!")
	m.syncLog()
	if m.poller != nil {
		m.poller.Stop()
	}
	return m, tea.Quit
}

// handleKey applies one key press to the line in insert mode, or hands it
// to the vi normal mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	if m.normal {
		return m.handleNormalKey(msg)
	}

	switch {
	case key.Matches(msg, k.Submit):
		return m.submit()
	case key.Matches(msg, k.Complete):
		m.complete()
	case key.Matches(msg, k.Normal):
		m.normal = true
		m.buf.MoveLeft()
	case key.Matches(msg, k.Backspace):
		m.edit(m.buf.DeleteCharBeforeCursor)
	case key.Matches(msg, k.Delete):
		m.edit(m.buf.DeleteCharAtCursor)
	case key.Matches(msg, k.Left):
		m.buf.MoveLeft()
	case key.Matches(msg, k.Right):
		m.buf.MoveRight()
	case key.Matches(msg, k.Home):
		m.buf.MoveHome()
	case key.Matches(msg, k.End):
		m.buf.MoveEnd()
	case key.Matches(msg, k.Prev):
		m.recall(-1)
	case key.Matches(msg, k.Next):
		m.recall(1)
	case key.Matches(msg, k.PageUp, k.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case msg.Type == tea.KeySpace:
		m.insert([]rune{' '})
	case msg.Type == tea.KeyRunes:
		m.insert(msg.Runes)
	}
	return m, nil
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Submit):
		m.normal = false
		return m.submit()
	case key.Matches(msg, k.Complete):
		m.complete()
	case key.Matches(msg, k.Insert):
		m.normal = false
	case key.Matches(msg, k.Append):
		m.buf.MoveRight()
		m.normal = false
	case key.Matches(msg, k.ViLeft, k.Left, k.Backspace):
		m.buf.MoveLeft()
	case key.Matches(msg, k.ViRight, k.Right):
		m.buf.MoveRight()
	case key.Matches(msg, k.ViHome, k.Home):
		m.buf.MoveHome()
	case key.Matches(msg, k.ViEnd, k.End):
		m.buf.MoveEnd()
	case key.Matches(msg, k.ViDelete, k.Delete):
		m.edit(m.buf.DeleteCharAtCursor)
	case key.Matches(msg, k.ViHistPrev, k.Prev):
		m.recall(-1)
	case key.Matches(msg, k.ViHistNext, k.Next):
		m.recall(1)
	}
	return m, nil
}

// edit applies a mutation to the line. Candidates of a previous
// completion no longer apply to the edited line.
func (m *Model) edit(fn func()) {
	fn()
	m.candidates = nil
}

func (m *Model) insert(runes []rune) {
	m.edit(func() {
		for _, r := range runes {
			if unicode.IsControl(r) {
				continue
			}
			m.buf.InsertChar(r)
		}
	})
}

// complete runs the completer against the whole line.
func (m *Model) complete() {
	res := m.completer.Complete(m.buf.String())
	switch res.Outcome {
	case completion.Completed:
		m.buf.SetText(res.Line)
		m.candidates = nil
	case completion.Ambiguous:
		m.candidates = res.Candidates
	default:
		m.candidates = nil
	}
}

// recall walks the lines submitted in this session.
func (m *Model) recall(dir int) {
	if len(m.history) == 0 {
		return
	}
	if m.histPos < 0 {
		if dir > 0 {
			return
		}
		m.stash = m.buf.String()
		m.histPos = len(m.history)
	}

	m.histPos += dir
	switch {
	case m.histPos < 0:
		m.histPos = 0
	case m.histPos >= len(m.history):
		m.histPos = -1
		m.edit(func() { m.buf.SetText(m.stash) })
		return
	}
	m.edit(func() { m.buf.SetText(m.history[m.histPos]) })
}

// submit logs the line, dispatches it when it names a leaf command and
// clears the editor.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.buf.String()
	m.buf.Reset()
	m.candidates = nil
	m.histPos = -1
	if line == "" {
		return m, nil
	}

	m.log.Submit(line)
	m.history = append(m.history, line)

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		m.syncLog()
		return m, nil
	}

	path, rest, err := m.grammar.Resolve(line)
	if err != nil {
		m.log.Report(fmt.Sprintf("%s: command not found", trimmed))
		m.syncLog()
		return m, nil
	}
	m.syncLog()

	cmd := m.execute(path, rest)
	m.pending++
	if m.pending == 1 {
		return m, tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

func (m Model) execute(path []string, rest string) tea.Cmd {
	exec, timeout := m.executor, m.timeout
	return func() tea.Msg {
		if exec == nil {
			return commandResultMsg{err: fmt.Errorf("%s: %w", strings.Join(path, " "), dispatch.ErrNoHandler)}
		}
		ctx, cancel := commandContext(timeout)
		defer cancel()
		res, err := exec.Execute(ctx, path, rest)
		return commandResultMsg{result: res, err: err}
	}
}

func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// syncLog refreshes the log viewport and scrolls to the newest entry.
func (m *Model) syncLog() {
	m.viewport.SetContent(m.log.Render())
	m.viewport.GotoBottom()
}

// Frame returns what the renderer needs for the current state.
func (m Model) Frame() Frame {
	return Frame{
		Text:       m.buf.String(),
		Cursor:     m.buf.Cursor(),
		Candidates: append([]string(nil), m.candidates...),
		Log:        m.log.String(),
	}
}

// Log returns the session log.
func (m Model) Log() *SessionLog {
	return m.log
}

// View renders the header, the log, the input area and the help line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.watchStatus())
	content := m.viewport.View() + "\n" + m.inputView()
	statusBar := m.layout.RenderStatusBar(m.help.View(m.keys))
	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) title() string {
	if m.account == "" {
		return "mailrepl"
	}
	return "mailrepl · " + m.account
}

// watchStatus shows the watched folder with its unseen count and the time
// of the last successful check.
func (m Model) watchStatus() string {
	if m.poller == nil {
		return ""
	}
	st := m.poller.Status()
	switch {
	case m.watchErr != "":
		return fmt.Sprintf("%s: %s", st.Folder, m.watchErr)
	case m.watched:
		status := fmt.Sprintf("%s [%d unseen]", st.Folder, m.unseen)
		if !st.LastSync.IsZero() {
			status += " · " + st.LastSync.Format("15:04")
		}
		return theme.UnseenStyle(m.unseen).Render(status)
	case st.State == appsync.SyncRunning:
		return fmt.Sprintf("%s: checking…", st.Folder)
	default:
		return ""
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (m Model) inputView() string {
	if m.form != nil {
		return m.form.View()
	}

	var cands strings.Builder
	for i, c := range m.candidates {
		if i == 0 {
			cands.WriteString(theme.SelectedCandidateStyle.Render(c))
			continue
		}
		cands.WriteString(theme.CandidateStyle.Render(c))
	}

	var line strings.Builder
	if m.pending > 0 {
		line.WriteString(m.spinner.View())
		line.WriteString(" ")
	}
	line.WriteString(theme.PromptStyle.Render(prompt))
	line.WriteString(renderLine(m.buf.String(), m.buf.Cursor()))

	return cands.String() + "\n" + line.String()
}

// renderLine draws text with the cell under the cursor reversed.
func renderLine(text string, cursor int) string {
	runes := []rune(text)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	at := " "
	after := ""
	if cursor < len(runes) {
		at = string(runes[cursor])
		after = string(runes[cursor+1:])
	}
	return string(runes[:cursor]) + theme.CursorStyle.Render(at) + after
}
