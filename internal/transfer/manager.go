package transfer

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/octaspace/transfer-manager/internal/constants"
	"github.com/octaspace/transfer-manager/internal/logging"
	"github.com/octaspace/transfer-manager/internal/remote"
)

// Manager is the process-wide registry of every Transfer, plus the two
// shared worker-pool queues (SPEC_FULL.md §4.G). It is an owned value
// constructed once at daemon startup and threaded through the HTTP
// handlers and queues via explicit fields — never a package-level
// singleton (SPEC_FULL.md §9's redesign note); a direct generalization of
// the lineage's services.TransferService composition (owning a
// *transfer.Queue, a *resources.Manager, and an *api.Client as plain
// struct fields).
type Manager struct {
	Clients *remote.Clients
	logger  *logging.Logger

	UploadQueue   *TransferQueue
	DownloadQueue *TransferQueue

	mu    sync.RWMutex
	byID  map[string]*Transfer
	order []string // insertion order, for deterministic registry scans
}

// NewManager builds a Manager with both queues wired to its own registry
// scanner and ready to run once Start is called.
func NewManager(clients *remote.Clients, logger *logging.Logger) *Manager {
	m := &Manager{
		Clients: clients,
		logger:  logger,
		byID:    make(map[string]*Transfer),
	}
	m.UploadQueue = NewUploadQueue(m, func(ctx context.Context, q *TransferQueue, self *queueWorkerHandle) {
		RunQueueWorker(ctx, q, self, logger)
	})
	m.DownloadQueue = NewDownloadQueue(m, func(ctx context.Context, q *TransferQueue, self *queueWorkerHandle) {
		RunQueueWorker(ctx, q, self, logger)
	})
	return m
}

// Start spawns the initial worker for each queue: one for uploads (it
// ramps up from there) and DownloadWorkers for downloads (fixed).
func (m *Manager) Start() {
	m.UploadQueue.Spawn()
	for i := 0; i < constants.DownloadWorkers; i++ {
		m.DownloadQueue.Spawn()
	}
}

// NewUploadTransfer creates, initializes, registers, and starts an Upload.
func (m *Manager) NewUploadTransfer(ctx context.Context, ud remote.UserData, localFilePath, jobID string, info JobInfo, metadata map[string]interface{}) (*Transfer, error) {
	id := uuid.NewString()
	tr := NewUpload(id, ud, localFilePath, jobID, info, metadata, m.Clients)
	return m.register(ctx, tr)
}

// NewDownloadTransfer creates, initializes, registers, and starts a Download.
func (m *Manager) NewDownloadTransfer(ctx context.Context, ud remote.UserData, localDirPath, jobID string, metadata map[string]interface{}) (*Transfer, error) {
	id := uuid.NewString()
	tr := NewDownload(id, ud, localDirPath, jobID, metadata, m.Clients)
	return m.register(ctx, tr)
}

func (m *Manager) register(ctx context.Context, tr *Transfer) (*Transfer, error) {
	if err := tr.Initialize(ctx); err != nil {
		return nil, err
	}
	if err := tr.Start(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.byID[tr.ID] = tr
	m.order = append(m.order, tr.ID)
	m.mu.Unlock()
	return tr, nil
}

// Get returns the Transfer with the given id, if registered.
func (m *Manager) Get(id string) (*Transfer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tr, ok := m.byID[id]
	return tr, ok
}

// List returns a snapshot of every registered Transfer, in insertion order.
func (m *Manager) List() []*Transfer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Transfer, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

// Remove stops (if non-terminal) and deletes a Transfer. Returns false if
// the id is not registered.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	tr, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.byID, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if status, _ := tr.Status(); !status.Terminal() {
		_ = tr.Stop("deleted")
	}
	return true
}

// TransfersByKind implements registryScanner for TransferQueue: a snapshot
// of every registered Transfer of kind, in insertion order.
func (m *Manager) TransfersByKind(kind TransferKind) []*Transfer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Transfer, 0, len(m.order))
	for _, id := range m.order {
		if tr := m.byID[id]; tr != nil && tr.Kind == kind {
			out = append(out, tr)
		}
	}
	return out
}
