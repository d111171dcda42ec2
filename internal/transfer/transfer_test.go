package transfer

import (
	"testing"

	"github.com/octaspace/transfer-manager/internal/remote"
)

func newTestTransfer(kind TransferKind) *Transfer {
	return newTransfer("t-1", kind, remote.UserData{FarmHost: "https://farm.example"}, nil, nil)
}

func TestTransferStartOnlyFromCreated(t *testing.T) {
	tr := newTestTransfer(KindUpload)
	if err := tr.Start(); err != nil {
		t.Fatalf("expected start from created to succeed: %v", err)
	}
	if err := tr.Start(); err == nil {
		t.Fatal("expected second start to fail")
	}
}

func TestTransferPauseResume(t *testing.T) {
	tr := newTestTransfer(KindUpload)
	_ = tr.Start()

	if err := tr.Pause(); err != nil {
		t.Fatalf("expected pause to succeed: %v", err)
	}
	status, _ := tr.Status()
	if status != StatusPaused {
		t.Fatalf("expected paused, got %s", status)
	}

	if err := tr.Resume(); err != nil {
		t.Fatalf("expected resume to succeed: %v", err)
	}
	status, _ = tr.Status()
	if status != StatusRunning {
		t.Fatalf("expected running, got %s", status)
	}

	// Resume is idempotent on an already-running transfer.
	if err := tr.Resume(); err != nil {
		t.Fatalf("expected idempotent resume to succeed: %v", err)
	}
}

func TestTransferStopFromAnyNonTerminalState(t *testing.T) {
	tr := newTestTransfer(KindDownload)
	if err := tr.Stop("cancelled by user"); err != nil {
		t.Fatalf("expected stop from created to succeed: %v", err)
	}
	status, text := tr.Status()
	if status != StatusFailure || text != "cancelled by user" {
		t.Fatalf("unexpected status %s %q", status, text)
	}
}

func TestTransferStopIsNotIdempotentOnTerminal(t *testing.T) {
	tr := newTestTransfer(KindDownload)
	_ = tr.Stop("first")
	if err := tr.Stop("second"); err == nil {
		t.Fatal("expected stop on an already-terminal transfer to fail")
	}
}

func TestTransferUpdateFinalizesOnlyOnce(t *testing.T) {
	tr := newTestTransfer(KindDownload)
	tr.download = &downloadState{LocalDirPath: "/tmp", JobID: "job-1"}
	wo := NewDownloadWorkOrder(0, "job-1/output/0001.png", "https://farm.example/job-1/output/0001.png", "/tmp/0001.png", "0001.png")
	wo.Claim()
	wo.MarkSuccess()
	tr.setOrders([]*WorkOrder{wo})

	tr.Update(nil, wo)
	if !tr.ended.Load() {
		t.Fatal("expected finalizer guard to flip on first update")
	}
	status, _ := tr.Status()
	if status != StatusSuccess {
		t.Fatalf("expected success, got %s", status)
	}

	tr.setStatus(StatusRunning, "") // simulate an attempt to re-finalize
	tr.Update(nil, wo)
	status, _ = tr.Status()
	if status != StatusRunning {
		t.Fatal("expected second Update to be a no-op due to the ended guard")
	}
}
