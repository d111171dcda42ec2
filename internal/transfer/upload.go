package transfer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/octaspace/transfer-manager/internal/constants"
	"github.com/octaspace/transfer-manager/internal/httpretry"
	"github.com/octaspace/transfer-manager/internal/pathutil"
	"github.com/octaspace/transfer-manager/internal/remote"
	"github.com/octaspace/transfer-manager/internal/transfererr"
	"github.com/octaspace/transfer-manager/internal/util/buffers"
)

// JobInfo is the job metadata an Upload carries through to the job-spec
// builder (SPEC_FULL.md §4.I) once the archive has landed.
type JobInfo struct {
	Name           string
	Start          int
	End            int // end_input, before frame-end derivation
	BatchSize      int
	FrameStep      int
	RenderFormat   string
	RenderEngine   string
	BlenderVersion string
	BlendName      string
	ThumbnailSize  int
	RenderPasses   []remote.RenderPass
}

// uploadState is the Upload-kind payload of a Transfer (SPEC_FULL.md §3).
type uploadState struct {
	LocalFilePath string
	JobID         string
	JobInfo       JobInfo

	FileSize int64
	FileHash string // hex MD5, computed in initialize()

	uploadIDMu  sync.Mutex
	uploadID    string
	uploadIDSet bool
	uploadIDErr error

	etagsMu sync.Mutex
	etags   []remote.Part

	workDir string // temp staging directory, if any; removed on finalize
}

// NewUpload constructs an Upload-kind Transfer. Initialize() must still be
// called before it is registered with the manager.
func NewUpload(id string, ud remote.UserData, localFilePath, jobID string, info JobInfo, metadata map[string]interface{}, clients *remote.Clients) *Transfer {
	t := newTransfer(id, KindUpload, ud, metadata, clients)
	t.upload = &uploadState{
		LocalFilePath: localFilePath,
		JobID:         jobID,
		JobInfo:       info,
	}
	return t
}

// r2Key is the archive's R2 key. The render node's unzip step fetches this
// exact path (assets/scripts/files/unzip.py --url), so it must match the
// node's own contract (original_source/transfer_manager/lib/upload/upload.py
// sets self.url = f"{self.job_id}/input/package.zip").
func (u *uploadState) r2Key() string {
	return fmt.Sprintf("%s/input/package.zip", u.JobID)
}

// initializeUpload hashes the file, stats its size, and splits it into one
// single-upload work order (<25 MiB) or N multipart work orders
// (SPEC_FULL.md §4.C).
func (t *Transfer) initializeUpload(ctx context.Context) error {
	u := t.upload

	if resolved, err := pathutil.ResolveAbsolutePath(u.LocalFilePath); err == nil {
		u.LocalFilePath = resolved
	}

	info, err := os.Stat(u.LocalFilePath)
	if err != nil {
		return transfererr.InputValidation("cannot stat local file", err)
	}
	u.FileSize = info.Size()

	hash, err := hashFileMD5(u.LocalFilePath)
	if err != nil {
		return transfererr.InputValidation("cannot hash local file", err)
	}
	u.FileHash = hash

	var orders []*WorkOrder
	if u.FileSize < constants.MultipartThreshold {
		orders = []*WorkOrder{NewUploadWorkOrder(0, 0, u.FileSize, 0, true)}
	} else {
		numParts := int(math.Ceil(float64(u.FileSize) / float64(constants.PartSize)))
		orders = make([]*WorkOrder, 0, numParts)
		var offset int64
		for i := 0; i < numParts; i++ {
			size := int64(constants.PartSize)
			if remaining := u.FileSize - offset; remaining < size {
				size = remaining
			}
			orders = append(orders, NewUploadWorkOrder(i, offset, size, i+1, false))
			offset += size
		}
	}

	t.Progress.SetTotal(u.FileSize)
	t.setOrders(orders)
	return nil
}

func hashFileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	buf := buffers.GetHashBuffer()
	defer buffers.PutHashBuffer(buf)
	if _, err := io.CopyBuffer(h, f, *buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ensureUploadID lazily creates the multipart upload id under a per-upload
// lock; the first worker to need it creates it, others block on the lock
// and reuse the memoized result (SPEC_FULL.md §4.E, §5).
func (u *uploadState) ensureUploadID(ctx context.Context, clients *remote.Clients, ud remote.UserData) (string, error) {
	u.uploadIDMu.Lock()
	defer u.uploadIDMu.Unlock()

	if u.uploadIDSet {
		return u.uploadID, u.uploadIDErr
	}
	id, err := clients.R2.CreateMultipartUpload(ctx, ud, u.r2Key())
	u.uploadID, u.uploadIDErr, u.uploadIDSet = id, err, true
	return id, err
}

func (u *uploadState) appendETag(p remote.Part) {
	u.etagsMu.Lock()
	u.etags = append(u.etags, p)
	u.etagsMu.Unlock()
}

func (u *uploadState) etagSnapshot() []remote.Part {
	u.etagsMu.Lock()
	defer u.etagsMu.Unlock()
	out := make([]remote.Part, len(u.etags))
	copy(out, u.etags)
	return out
}

// executeUploadWorkOrder streams one work order's bytes, retrying with
// jittered exponential backoff up to UploadMaxAttempts (SPEC_FULL.md §4.E,
// §9's deliberate deviation from the unbounded source behavior).
func (t *Transfer) executeUploadWorkOrder(ctx context.Context, wo *WorkOrder, onRetry func()) error {
	u := t.upload

	var lastErr error
	for attempt := 1; attempt <= constants.UploadMaxAttempts; attempt++ {
		if status, _ := t.Status(); status == StatusFailure {
			wo.MarkFailure("transfer cancelled")
			return transfererr.Cancellation("transfer cancelled")
		}

		err := t.attemptUpload(ctx, wo, u)
		if err == nil {
			wo.MarkSuccess()
			return nil
		}
		lastErr = err

		if k, ok := transfererr.KindOf(err); ok && k == transfererr.KindCancellation {
			wo.MarkFailure(err.Error())
			return err
		}

		done, _ := wo.Progress.Snapshot()
		t.Progress.DecreaseDone(done)
		wo.ResetForRetry(err.Error())
		if onRetry != nil {
			onRetry()
		}

		if attempt == constants.UploadMaxAttempts {
			break
		}

		backoff := httpretry.CalculateBackoff(attempt, constants.UploadRetryInitialDelay, constants.UploadRetryMaxDelay)
		select {
		case <-ctx.Done():
			// Worker-context cancellation (ramp-down kill via NotifyRetry), not a
			// transfer-status cancellation: release the order so another worker
			// reclaims it, rather than failing it outright (SPEC_FULL.md §5).
			wo.Release()
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	wo.MarkFailure(fmt.Sprintf("exceeded %d attempts: %v", constants.UploadMaxAttempts, lastErr))
	return lastErr
}

func (t *Transfer) attemptUpload(ctx context.Context, wo *WorkOrder, u *uploadState) error {
	f, err := os.Open(u.LocalFilePath)
	if err != nil {
		return transfererr.InputValidation("cannot open local file", err)
	}
	defer f.Close()

	if _, err := f.Seek(wo.Offset, io.SeekStart); err != nil {
		return transfererr.InputValidation("cannot seek local file", err)
	}
	body := &chunkedReader{
		r:         io.LimitReader(f, wo.Size),
		chunkSize: constants.UploadChunkSize,
		t:         t,
		wo:        wo,
		ctx:       ctx,
	}

	if wo.IsSingleUpload {
		return t.clients.R2.SingleUpload(ctx, t.UserData, u.r2Key(), body, wo.Size)
	}

	uploadID, err := u.ensureUploadID(ctx, t.clients, t.UserData)
	if err != nil {
		return err
	}
	part, err := t.clients.R2.UploadPart(ctx, t.UserData, u.r2Key(), uploadID, wo.PartNumber, body, wo.Size)
	if err != nil {
		return err
	}
	u.appendETag(part)
	return nil
}

// finalizeUpload runs exactly once (guarded by Transfer.ended) after every
// work order has reached a terminal status.
func (t *Transfer) finalizeUpload(ctx context.Context, anyFailure bool) {
	u := t.upload

	if anyFailure {
		if u.uploadIDSet && u.uploadID != "" {
			_ = t.clients.R2.AbortMultipartUpload(ctx, t.UserData, u.r2Key(), u.uploadID)
		}
		t.cleanupWorkDir()
		t.setStatus(StatusFailure, "Some parts could not be uploaded")
		return
	}

	if u.uploadIDSet && u.uploadID != "" {
		if err := t.clients.R2.CompleteMultipartUpload(ctx, t.UserData, u.r2Key(), u.uploadID, u.etagSnapshot()); err != nil {
			t.cleanupWorkDir()
			t.setStatus(StatusFailure, "multipart completion failed: "+err.Error())
			return
		}
	}

	doc := buildJobCreationDocument(u, t.UserData)
	if err := t.clients.QueueMgr.NodeJob(ctx, t.UserData, doc); err != nil {
		t.cleanupWorkDir()
		t.setStatus(StatusFailure, "job creation rejected: "+err.Error())
		return
	}

	t.cleanupWorkDir()
	t.setStatus(StatusSuccess, "")
}

func (t *Transfer) cleanupWorkDir() {
	if t.upload.workDir != "" {
		_ = os.RemoveAll(t.upload.workDir)
	}
}

// chunkedReader wraps an io.Reader, capping each Read to chunkSize bytes
// and checking the owning transfer's status before each chunk — the
// suspension point for pause and the abort point for cancellation
// (SPEC_FULL.md §5). Progress and speed are advanced as bytes are read.
type chunkedReader struct {
	r         io.Reader
	chunkSize int64
	t         *Transfer
	wo        *WorkOrder
	ctx       context.Context
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	for {
		status, _ := c.t.Status()
		if status == StatusFailure {
			return 0, transfererr.Cancellation("transfer cancelled mid-stream")
		}
		if status != StatusPaused {
			break
		}
		select {
		case <-c.ctx.Done():
			return 0, c.ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}

	if int64(len(p)) > c.chunkSize {
		p = p[:c.chunkSize]
	}
	n, err := c.r.Read(p)
	if n > 0 {
		c.wo.Progress.IncreaseDone(int64(n))
		c.t.Progress.IncreaseDone(int64(n))
		c.t.Speed.Update(int64(n))
	}
	return n, err
}
