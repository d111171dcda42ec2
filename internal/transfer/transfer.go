package transfer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/octaspace/transfer-manager/internal/remote"
)

// Status is a Transfer's lifecycle state (SPEC_FULL.md §3).
type Status string

const (
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Transfer is a user-visible Upload or Download, owning an ordered list of
// WorkOrders and aggregate progress/speed. A single concrete struct with a
// Kind discriminator and two optional kind-specific payloads, rather than a
// class hierarchy (SPEC_FULL.md §3.1, §9's redesign note).
type Transfer struct {
	ID       string
	Kind     TransferKind
	Metadata map[string]interface{}

	CreatedAt  time.Time
	FinishedAt time.Time

	UserData remote.UserData

	Progress *Progress
	Speed    *Speed

	mu         sync.RWMutex
	status     Status
	statusText string

	ordersMu   sync.RWMutex
	WorkOrders []*WorkOrder

	ended atomic.Bool // "transfer ended" finalizer guard (SPEC_FULL.md §4.C, §8)

	clients *remote.Clients

	upload   *uploadState
	download *downloadState
}

func newTransfer(id string, kind TransferKind, ud remote.UserData, metadata map[string]interface{}, clients *remote.Clients) *Transfer {
	return &Transfer{
		ID:       id,
		Kind:     kind,
		Metadata: metadata,
		CreatedAt: time.Now(),
		UserData: ud,
		Progress: NewProgress(0),
		Speed:    NewSpeed(),
		status:   StatusCreated,
		clients:  clients,
	}
}

// Status returns the current status and status text.
func (t *Transfer) Status() (Status, string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.statusText
}

func (t *Transfer) setStatus(s Status, text string) {
	t.mu.Lock()
	t.status = s
	t.statusText = text
	if s.Terminal() && t.FinishedAt.IsZero() {
		t.FinishedAt = time.Now()
	}
	t.mu.Unlock()
}

// Start transitions created -> running. Any other starting state is
// rejected (SPEC_FULL.md §3: "stop before start is rejected").
func (t *Transfer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusCreated {
		return &transitionError{from: t.status, to: StatusRunning}
	}
	t.status = StatusRunning
	return nil
}

// Pause transitions running -> paused.
func (t *Transfer) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusRunning {
		return &transitionError{from: t.status, to: StatusPaused}
	}
	t.status = StatusPaused
	return nil
}

// Resume transitions paused -> running. Idempotent on an already-running
// transfer (SPEC_FULL.md §8: "Pause -> Resume is idempotent").
func (t *Transfer) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusRunning {
		return nil
	}
	if t.status != StatusPaused {
		return &transitionError{from: t.status, to: StatusRunning}
	}
	t.status = StatusRunning
	return nil
}

// Stop transitions any non-terminal status to failure. Workers observe this
// at their next suspension point; no new work orders of this transfer will
// be claimed once it is failure (SPEC_FULL.md §5).
func (t *Transfer) Stop(reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return &transitionError{from: t.status, to: StatusFailure}
	}
	t.status = StatusFailure
	t.statusText = reason
	if t.FinishedAt.IsZero() {
		t.FinishedAt = time.Now()
	}
	return nil
}

type transitionError struct {
	from, to Status
}

func (e *transitionError) Error() string {
	return "invalid transition from " + string(e.from) + " to " + string(e.to)
}

// Orders returns a snapshot slice of the work orders, safe for a caller
// (the control plane's /transfers/{id} handler, or a queue scan) to iterate
// without holding the transfer lock.
func (t *Transfer) Orders() []*WorkOrder {
	return t.orders()
}

// orders returns a snapshot slice of the work orders, safe to iterate
// without holding the transfer lock (SPEC_FULL.md §4.G: "the scanner
// tolerates concurrent appends by iterating a snapshot").
func (t *Transfer) orders() []*WorkOrder {
	t.ordersMu.RLock()
	defer t.ordersMu.RUnlock()
	out := make([]*WorkOrder, len(t.WorkOrders))
	copy(out, t.WorkOrders)
	return out
}

func (t *Transfer) setOrders(orders []*WorkOrder) {
	t.ordersMu.Lock()
	t.WorkOrders = orders
	t.ordersMu.Unlock()
}

// Initialize dispatches to the kind-specific initializer. It must run
// before the Transfer is registered with the manager and made visible to
// the worker pool (SPEC_FULL.md §4.C).
func (t *Transfer) Initialize(ctx context.Context) error {
	switch t.Kind {
	case KindUpload:
		return t.initializeUpload(ctx)
	case KindDownload:
		return t.initializeDownload(ctx)
	default:
		return &unknownKindError{kind: t.Kind}
	}
}

// ExecuteWorkOrder dispatches one work order to the kind-specific executor.
// ctx is the worker's own cancellation token (cancelled on ramp-down or
// daemon shutdown), not the transfer's status — pause/cancel-by-status is
// observed separately at each chunk boundary. onRetry, if non-nil, is
// called once per in-place retry (used by the upload queue's back-off —
// SPEC_FULL.md §4.D/§4.E).
func (t *Transfer) ExecuteWorkOrder(ctx context.Context, wo *WorkOrder, onRetry func()) error {
	switch t.Kind {
	case KindUpload:
		return t.executeUploadWorkOrder(ctx, wo, onRetry)
	case KindDownload:
		return t.executeDownloadWorkOrder(ctx, wo, onRetry)
	default:
		return &unknownKindError{kind: t.Kind}
	}
}

// Update recomputes aggregate progress after wo ends and, if every order is
// now terminal, runs the kind-specific finalizer exactly once.
func (t *Transfer) Update(ctx context.Context, wo *WorkOrder) {
	if t.Kind == KindDownload {
		if status, _ := wo.Status(); status == OrderSuccess {
			t.Progress.IncreaseDone(1)
		}
	}

	orders := t.orders()

	allTerminal := true
	anyFailure := false
	for _, o := range orders {
		if !o.IsTerminal() {
			allTerminal = false
			continue
		}
		status, _ := o.Status()
		if status == OrderFailure {
			anyFailure = true
		}
	}

	if !allTerminal || len(orders) == 0 {
		return
	}
	if !t.ended.CompareAndSwap(false, true) {
		return
	}

	switch t.Kind {
	case KindUpload:
		t.finalizeUpload(ctx, anyFailure)
	case KindDownload:
		t.finalizeDownload(anyFailure)
	}
}

type unknownKindError struct{ kind TransferKind }

func (e *unknownKindError) Error() string { return "unknown transfer kind: " + string(e.kind) }
