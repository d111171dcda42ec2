package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/octaspace/transfer-manager/internal/remote"
)

func TestManagerRegisterListGet(t *testing.T) {
	m := NewManager(remote.NewClients(nil), nil)

	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := m.NewUploadTransfer(context.Background(), remote.UserData{}, path, "job-1", JobInfo{Start: 1, End: 1, BatchSize: 1, FrameStep: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error registering upload: %v", err)
	}

	got, ok := m.Get(tr.ID)
	if !ok || got != tr {
		t.Fatal("expected Get to return the registered transfer")
	}

	list := m.List()
	if len(list) != 1 || list[0].ID != tr.ID {
		t.Fatalf("expected list of 1 containing the transfer, got %v", list)
	}

	status, _ := tr.Status()
	if status != StatusRunning {
		t.Fatalf("expected registered transfer to be running, got %s", status)
	}
}

func TestManagerRemoveStopsNonTerminalTransfer(t *testing.T) {
	m := NewManager(remote.NewClients(nil), nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	_ = os.WriteFile(path, make([]byte, 4096), 0o644)

	tr, err := m.NewUploadTransfer(context.Background(), remote.UserData{}, path, "job-2", JobInfo{Start: 1, End: 1, BatchSize: 1, FrameStep: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !m.Remove(tr.ID) {
		t.Fatal("expected remove to succeed")
	}
	if _, ok := m.Get(tr.ID); ok {
		t.Fatal("expected transfer to no longer be registered")
	}
	status, _ := tr.Status()
	if status != StatusFailure {
		t.Fatalf("expected removed non-terminal transfer to be stopped, got %s", status)
	}
}

func TestManagerRemoveUnknownID(t *testing.T) {
	m := NewManager(remote.NewClients(nil), nil)
	if m.Remove("does-not-exist") {
		t.Fatal("expected remove of unknown id to return false")
	}
}

func TestManagerTransfersByKindFiltersAndPreservesOrder(t *testing.T) {
	m := NewManager(remote.NewClients(nil), nil)
	dir := t.TempDir()

	uploadPath := filepath.Join(dir, "a.zip")
	_ = os.WriteFile(uploadPath, make([]byte, 1024), 0o644)

	up, err := m.NewUploadTransfer(context.Background(), remote.UserData{}, uploadPath, "job-3", JobInfo{Start: 1, End: 1, BatchSize: 1, FrameStep: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}

	uploads := m.TransfersByKind(KindUpload)
	if len(uploads) != 1 || uploads[0].ID != up.ID {
		t.Fatalf("expected 1 upload transfer, got %v", uploads)
	}
	downloads := m.TransfersByKind(KindDownload)
	if len(downloads) != 0 {
		t.Fatalf("expected 0 download transfers, got %d", len(downloads))
	}
}
