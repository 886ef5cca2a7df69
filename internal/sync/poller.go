package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailrepl/internal/backend"
	"github.com/nhle/mailrepl/internal/model"
)

// SyncState represents the current state of the watcher.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of the watched folder.
type SyncStatus struct {
	Folder   string
	State    SyncState
	LastSync time.Time
}

// StatusMsg is a tea.Msg sent after each check of the watched folder.
type StatusMsg struct {
	Status model.FolderStatus
	Error  error

	// AuthError is set when the server rejected the credentials.
	AuthError bool

	// NewUnseen is how many more unseen messages there are than at the
	// previous successful check.
	NewUnseen int
}

// fetchTimeout is the maximum time allowed for a single status check.
const fetchTimeout = 30 * time.Second

// StatusSource reports folder status. *backend.Backend implements it.
type StatusSource interface {
	FolderStatus(ctx context.Context, name string) (model.FolderStatus, error)
}

// Poller periodically checks the unseen count of one folder.
type Poller struct {
	src      StatusSource
	folder   string
	interval time.Duration

	status    SyncStatus
	lastCount uint32
	checked   bool

	resultCh  chan StatusMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller checking folder every interval.
func New(src StatusSource, folder string, interval time.Duration) *Poller {
	return &Poller{
		src:       src,
		folder:    folder,
		interval:  interval,
		status:    SyncStatus{Folder: folder, State: SyncIdle},
		resultCh:  make(chan StatusMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to results. It returns nil when the interval is not
// positive.
func (p *Poller) Start() tea.Cmd {
	if p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.poll()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate check.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A check is already pending.
	}
}

// Status returns the current watcher status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) poll() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.check()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.check()
		case <-p.triggerCh:
			p.check()
		}
	}
}

// check fetches the folder status once and sends a StatusMsg.
func (p *Poller) check() {
	p.setStatus(SyncRunning)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	status, err := p.src.FolderStatus(ctx, p.folder)
	if err != nil {
		slog.Warn("checking folder status failed", "folder", p.folder, "error", err)
		p.setStatus(SyncError)
		p.sendResult(StatusMsg{Error: err, AuthError: backend.IsAuthError(err)})
		return
	}

	p.mu.Lock()
	newUnseen := 0
	if p.checked && status.Unseen > p.lastCount {
		newUnseen = int(status.Unseen - p.lastCount)
	}
	p.lastCount = status.Unseen
	p.checked = true
	p.mu.Unlock()

	p.setStatus(SyncIdle)
	p.sendResult(StatusMsg{Status: status, NewUnseen: newUnseen})
}

func (p *Poller) setStatus(state SyncState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	if state == SyncIdle {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a StatusMsg on the result channel without blocking.
func (p *Poller) sendResult(msg StatusMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next status.
// It should be called after processing a StatusMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
