package transfer

import "sync"

// TransferKind discriminates Upload from Download. A small string-backed
// enum rather than an interface hierarchy (SPEC_FULL.md §9's redesign note).
type TransferKind string

const (
	KindUpload   TransferKind = "upload"
	KindDownload TransferKind = "download"
)

// OrderStatus is a WorkOrder's lifecycle state.
type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderRunning OrderStatus = "running"
	OrderSuccess OrderStatus = "success"
	OrderFailure OrderStatus = "failure"
)

// WorkOrder is the smallest retryable unit the worker pool pulls: one byte
// range of an upload, or one file of a download (SPEC_FULL.md §4.B).
type WorkOrder struct {
	Number     int
	TransferID string // non-owning back-reference; looked up via the manager's registry

	Progress *Progress

	mu         sync.Mutex
	status     OrderStatus
	statusText string
	history    []string

	// Upload payload.
	Offset         int64
	Size           int64
	PartNumber     int
	IsSingleUpload bool

	// Download payload.
	URL       string // full URL, as exposed to the UI
	R2Key     string // bare key, as passed to R2WorkerClient.Get
	LocalPath string
	RelPath   string
}

// NewUploadWorkOrder builds a WorkOrder covering one multipart part (or the
// whole file, when isSingle is true and PartNumber is unused).
func NewUploadWorkOrder(number int, offset, size int64, partNumber int, isSingle bool) *WorkOrder {
	return &WorkOrder{
		Number:         number,
		status:         OrderCreated,
		Progress:       NewProgress(size),
		Offset:         offset,
		Size:           size,
		PartNumber:     partNumber,
		IsSingleUpload: isSingle,
	}
}

// NewDownloadWorkOrder builds a WorkOrder for one output file. key is the
// bare R2 key (no host/scheme); url is the full URL as exposed to the UI.
func NewDownloadWorkOrder(number int, key, url, localPath, relPath string) *WorkOrder {
	return &WorkOrder{
		Number:    number,
		status:    OrderCreated,
		Progress:  NewProgress(0), // total is set once Content-Length is known
		URL:       url,
		R2Key:     key,
		LocalPath: localPath,
		RelPath:   relPath,
	}
}

// Status returns the current status and status text.
func (w *WorkOrder) Status() (OrderStatus, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status, w.statusText
}

// Claim atomically transitions the order from created to running, returning
// false if another worker already claimed it (SPEC_FULL.md §4.D).
func (w *WorkOrder) Claim() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status != OrderCreated {
		return false
	}
	w.status = OrderRunning
	return true
}

// Release reverts a running order back to created, so another worker can
// claim it. Used when a worker is killed mid-flight during queue back-off
// (SPEC_FULL.md §5 "killing a worker... lets its current order return to
// created"), not when the order itself failed.
func (w *WorkOrder) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == OrderRunning {
		w.status = OrderCreated
	}
}

// MarkSuccess transitions the order to success.
func (w *WorkOrder) MarkSuccess() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = OrderSuccess
	w.statusText = ""
}

// MarkFailure transitions the order to a terminal failure with reason.
func (w *WorkOrder) MarkFailure(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = OrderFailure
	w.statusText = reason
}

// ResetForRetry reverts a running order back to created and records why,
// leaving it eligible for another worker to claim.
func (w *WorkOrder) ResetForRetry(reason string) {
	w.mu.Lock()
	w.status = OrderCreated
	w.statusText = reason
	w.history = append(w.history, reason)
	w.mu.Unlock()
	w.Progress.Reset()
}

// History returns a copy of the retry narrative appended on each retry.
func (w *WorkOrder) History() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.history))
	copy(out, w.history)
	return out
}

// IsTerminal reports whether the order has reached success or failure.
func (w *WorkOrder) IsTerminal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status == OrderSuccess || w.status == OrderFailure
}
