package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/octaspace/transfer-manager/internal/constants"
	"github.com/octaspace/transfer-manager/internal/diskspace"
	"github.com/octaspace/transfer-manager/internal/pathutil"
	"github.com/octaspace/transfer-manager/internal/remote"
	"github.com/octaspace/transfer-manager/internal/transfererr"
	"github.com/octaspace/transfer-manager/internal/util/buffers"
	"github.com/octaspace/transfer-manager/internal/validation"
)

// downloadState is the Download-kind payload of a Transfer (SPEC_FULL.md §3).
type downloadState struct {
	LocalDirPath string
	JobID        string
}

// NewDownload constructs a Download-kind Transfer. Initialize() must still
// be called before it is registered with the manager.
func NewDownload(id string, ud remote.UserData, localDirPath, jobID string, metadata map[string]interface{}, clients *remote.Clients) *Transfer {
	t := newTransfer(id, KindDownload, ud, metadata, clients)
	t.download = &downloadState{LocalDirPath: localDirPath, JobID: jobID}
	return t
}

// initializeDownload fetches the job detail, enumerates every declared
// output file as one work order, and pre-flights available disk space
// (SPEC_FULL.md §4.C).
func (t *Transfer) initializeDownload(ctx context.Context) error {
	d := t.download
	if d.LocalDirPath == "" {
		return transfererr.InputValidation("local_dir_path is required", nil)
	}
	if resolved, err := pathutil.ResolveAbsolutePath(d.LocalDirPath); err == nil {
		d.LocalDirPath = resolved
	}

	detail, err := t.clients.QueueMgr.JobDetail(ctx, t.UserData, d.JobID)
	if err != nil {
		return err
	}

	frameStart := detail.Start
	frameEnd := detail.End
	if detail.BatchSize > 1 {
		totalBatches := frameEnd - frameStart + 1
		totalFrames := totalBatches * detail.BatchSize
		frameEnd = frameStart + totalFrames - 1
	}

	var orders []*WorkOrder
	var estimatedBytes int64

	for _, pass := range detail.RenderPasses {
		for _, out := range pass.Outputs {
			if err := validation.ValidateFilename(out.Name); err != nil {
				return transfererr.InputValidation("invalid output pass name from job detail", err)
			}
			dir := filepath.Join(d.LocalDirPath, d.JobID, out.Name)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return transfererr.InputValidation("cannot create output directory", err)
			}
			for frame := frameStart; frame <= frameEnd; frame++ {
				name := fmt.Sprintf("%04d.%s", frame, out.Ext)
				key := fmt.Sprintf("%s/output/%s/%s", d.JobID, out.Name, name)
				url := fmt.Sprintf("%s/%s", t.UserData.FarmHost, key)
				local := filepath.Join(dir, name)
				orders = append(orders, NewDownloadWorkOrder(len(orders), key, url, local, filepath.Join(out.Name, name)))
				if out.Size > 0 {
					estimatedBytes += out.Size
				} else {
					estimatedBytes += estimatedFrameBytes
				}
			}
		}
	}

	if detail.RenderFormat != "" {
		for frame := frameStart; frame <= frameEnd; frame++ {
			name := fmt.Sprintf("%04d.%s", frame, detail.RenderFormat)
			key := fmt.Sprintf("%s/output/%s", d.JobID, name)
			url := fmt.Sprintf("%s/%s", t.UserData.FarmHost, key)
			local := filepath.Join(d.LocalDirPath, d.JobID, name)
			orders = append(orders, NewDownloadWorkOrder(len(orders), key, url, local, name))
			estimatedBytes += estimatedFrameBytes
		}
	}

	if err := diskspace.CheckAvailableSpace(d.LocalDirPath, estimatedBytes, diskSpaceSafetyMargin); err != nil {
		return transfererr.InputValidation("insufficient disk space for download", err)
	}

	t.Progress.SetTotal(int64(len(orders)))
	t.setOrders(orders)
	return nil
}

// estimatedFrameBytes is the coarse per-file estimate used for the
// disk-space pre-flight check when the job detail response omits per-file
// sizes (SPEC_FULL.md §4.C point 6).
const estimatedFrameBytes = 8 * 1024 * 1024

// diskSpaceSafetyMargin inflates the required-space estimate to leave
// headroom beyond the raw declared/estimated output size.
const diskSpaceSafetyMargin = 1.1

// executeDownloadWorkOrder streams one output file to disk, retrying
// forever on transient failure until the transfer is cancelled
// (SPEC_FULL.md §4.E, §9 "kept unbounded").
func (t *Transfer) executeDownloadWorkOrder(ctx context.Context, wo *WorkOrder, onRetry func()) error {
	for {
		if status, _ := t.Status(); status == StatusFailure {
			wo.MarkFailure("transfer cancelled")
			return transfererr.Cancellation("transfer cancelled")
		}

		err := t.attemptDownload(ctx, wo)
		if err == nil {
			wo.MarkSuccess()
			return nil
		}

		if k, ok := transfererr.KindOf(err); ok && k == transfererr.KindCancellation {
			wo.MarkFailure(err.Error())
			return err
		}

		wo.ResetForRetry(err.Error())
		if onRetry != nil {
			onRetry()
		}

		select {
		case <-ctx.Done():
			// Worker-context cancellation, not a transfer-status cancellation:
			// release the order so another worker reclaims it (SPEC_FULL.md §5).
			wo.Release()
			return ctx.Err()
		case <-time.After(constants.DownloadRetryInterval):
		}
	}
}

func (t *Transfer) attemptDownload(ctx context.Context, wo *WorkOrder) error {
	body, contentLength, err := t.clients.R2.Get(ctx, t.UserData, wo.R2Key)
	if err != nil {
		return err
	}
	defer body.Close()

	if contentLength > 0 {
		wo.Progress.SetTotal(contentLength)
	}

	if err := os.MkdirAll(filepath.Dir(wo.LocalPath), 0o755); err != nil {
		return transfererr.InputValidation("cannot create local directory", err)
	}

	f, err := os.Create(wo.LocalPath)
	if err != nil {
		return transfererr.InputValidation("cannot create local file", err)
	}
	defer f.Close()

	written, err := t.copyWithPauseCheck(ctx, wo, f, body)
	if err != nil {
		return err
	}
	if contentLength >= 0 && written != contentLength {
		return transfererr.Logical(fmt.Sprintf("downloaded %d bytes, expected %d", written, contentLength), nil)
	}
	return nil
}

// copyWithPauseCheck streams body into dst in chunkSize pieces, checking
// the transfer's status before each chunk (pause suspension, cancel abort).
func (t *Transfer) copyWithPauseCheck(ctx context.Context, wo *WorkOrder, dst io.Writer, body io.Reader) (int64, error) {
	bufp := buffers.GetChunkBuffer()
	defer buffers.PutChunkBuffer(bufp)
	buf := *bufp
	var total int64
	for {
		for {
			status, _ := t.Status()
			if status == StatusFailure {
				return total, transfererr.Cancellation("transfer cancelled mid-stream")
			}
			if status != StatusPaused {
				break
			}
			select {
			case <-ctx.Done():
				return total, ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return total, transfererr.TransientTransport("write to local file failed", err)
			}
			total += int64(n)
			wo.Progress.IncreaseDone(int64(n))
			t.Speed.Update(int64(n))
		}
		if readErr != nil {
			if readErr == io.EOF {
				return total, nil
			}
			return total, transfererr.TransientTransport("download stream read failed", readErr)
		}
	}
}

// finalizeDownload sets success when every order succeeded, else failure.
func (t *Transfer) finalizeDownload(anyFailure bool) {
	if anyFailure {
		t.setStatus(StatusFailure, "one or more files failed to download")
		return
	}
	t.setStatus(StatusSuccess, "")
}
