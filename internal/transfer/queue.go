package transfer

import (
	"context"
	"sync"

	"github.com/octaspace/transfer-manager/internal/constants"
)

// QueueStatus is a TransferQueue's run state.
type QueueStatus string

const (
	QueueRunning QueueStatus = "running"
	QueuePaused  QueueStatus = "paused"
)

// registryScanner is the narrow view of TransferManager a queue needs: a
// snapshot of every registered Transfer of the queue's kind, in insertion
// order (SPEC_FULL.md §4.D: "scans the TransferManager's registry on
// demand... registry insertion order, then work-order order").
type registryScanner interface {
	TransfersByKind(kind TransferKind) []*Transfer
}

type queueWorkerHandle struct {
	cancel context.CancelFunc
}

// TransferQueue is a shared worker pool draining WorkOrders across every
// Transfer of one kind. It does not buffer work orders; GetNextWorkOrder
// scans the registry fresh each time (SPEC_FULL.md §4.D). The worker-count
// bookkeeping (mutex-guarded slice of handles, add/remove on event) is
// grounded on the lineage's resources.Manager allocation-table pattern,
// generalized from per-transfer thread allocation to per-queue worker
// count management.
type TransferQueue struct {
	kind       TransferKind
	registry   registryScanner
	maxWorkers int // 0 disables ramp-up/back-off (download queue is fixed-size)
	onStart    func(ctx context.Context, q *TransferQueue, self *queueWorkerHandle)

	mu      sync.Mutex
	status  QueueStatus
	workers []*queueWorkerHandle
}

// NewUploadQueue builds the upload queue: ramps 1..MaxUploadWorkers on
// success, backs off by one on retry (SPEC_FULL.md §4.D). onStart is the
// worker goroutine body, supplied by the manager so the queue package
// doesn't need to know about Transfer execution details.
func NewUploadQueue(registry registryScanner, onStart func(context.Context, *TransferQueue, *queueWorkerHandle)) *TransferQueue {
	return &TransferQueue{
		kind:       KindUpload,
		registry:   registry,
		maxWorkers: constants.MaxUploadWorkers,
		onStart:    onStart,
		status:     QueueRunning,
	}
}

// NewDownloadQueue builds the download queue: a fixed worker count
// (SPEC_FULL.md §4.D), no ramp/back-off.
func NewDownloadQueue(registry registryScanner, onStart func(context.Context, *TransferQueue, *queueWorkerHandle)) *TransferQueue {
	return &TransferQueue{
		kind:     KindDownload,
		registry: registry,
		onStart:  onStart,
		status:   QueueRunning,
	}
}

// Status returns the queue's run state.
func (q *TransferQueue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// Pause stops the queue from yielding new work orders; running workers
// finish their current attempt and then spin at the idle poll interval.
func (q *TransferQueue) Pause() {
	q.mu.Lock()
	q.status = QueuePaused
	q.mu.Unlock()
}

// Resume allows the queue to yield work orders again.
func (q *TransferQueue) Resume() {
	q.mu.Lock()
	q.status = QueueRunning
	q.mu.Unlock()
}

// WorkerCount returns the number of currently live worker goroutines.
func (q *TransferQueue) WorkerCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.workers)
}

// GetNextWorkOrder scans every Transfer of the queue's kind, in registry
// order then work-order order, and atomically claims the first order that
// is created and whose owning Transfer is running. ok is false if none is
// available or the queue is paused.
func (q *TransferQueue) GetNextWorkOrder() (tr *Transfer, wo *WorkOrder, ok bool) {
	if q.Status() == QueuePaused {
		return nil, nil, false
	}

	for _, candidate := range q.registry.TransfersByKind(q.kind) {
		status, _ := candidate.Status()
		if status != StatusRunning {
			continue
		}
		for _, order := range candidate.orders() {
			if order.Claim() {
				return candidate, order, true
			}
		}
	}
	return nil, nil, false
}

// Spawn starts the queue's first worker. Called once per worker slot by
// the manager at daemon startup (1 for upload, DownloadWorkers for
// download).
func (q *TransferQueue) Spawn() {
	h, ctx := q.addWorker()
	go q.onStart(ctx, q, h)
}

func (q *TransferQueue) addWorker() (*queueWorkerHandle, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &queueWorkerHandle{cancel: cancel}
	q.mu.Lock()
	q.workers = append(q.workers, h)
	q.mu.Unlock()
	return h, ctx
}

// removeWorker drops a worker handle that exited on its own (daemon
// shutdown), distinct from the deliberate ramp-down in NotifyRetry.
func (q *TransferQueue) removeWorker(h *queueWorkerHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, w := range q.workers {
		if w == h {
			q.workers = append(q.workers[:i], q.workers[i+1:]...)
			return
		}
	}
}

// NotifySuccess is called by a worker after a WorkOrder succeeds. On the
// upload queue it ramps up by spawning one more worker, capped at
// MaxUploadWorkers; on the download queue it is a no-op (fixed pool).
func (q *TransferQueue) NotifySuccess() {
	if q.maxWorkers == 0 {
		return
	}
	q.mu.Lock()
	if q.status != QueueRunning || len(q.workers) >= q.maxWorkers {
		q.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &queueWorkerHandle{cancel: cancel}
	q.workers = append(q.workers, h)
	q.mu.Unlock()

	go q.onStart(ctx, q, h)
}

// NotifyRetry is called by a worker after a WorkOrder is retried. On the
// upload queue it kills one other worker (never self), releasing that
// worker's in-flight order back to created; on the download queue it is a
// no-op.
func (q *TransferQueue) NotifyRetry(self *queueWorkerHandle) {
	if q.maxWorkers == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, w := range q.workers {
		if w == self {
			continue
		}
		w.cancel()
		q.workers = append(q.workers[:i], q.workers[i+1:]...)
		return
	}
}
