package transfer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/octaspace/transfer-manager/internal/remote"
)

func TestInitializeUploadSinglePart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(path, make([]byte, 1048576), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := NewUpload("t-1", remote.UserData{}, path, "job-1", JobInfo{Start: 1, End: 1, BatchSize: 1, FrameStep: 1}, nil, remote.NewClients(nil))
	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	orders := tr.orders()
	if len(orders) != 1 {
		t.Fatalf("expected 1 work order, got %d", len(orders))
	}
	if !orders[0].IsSingleUpload {
		t.Fatal("expected single-upload work order")
	}
	if orders[0].Size != 1048576 {
		t.Fatalf("expected size 1048576, got %d", orders[0].Size)
	}
}

func TestInitializeUploadMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(60000000); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tr := NewUpload("t-2", remote.UserData{}, path, "job-2", JobInfo{Start: 1, End: 1, BatchSize: 1, FrameStep: 1}, nil, remote.NewClients(nil))
	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	orders := tr.orders()
	if len(orders) != 3 {
		t.Fatalf("expected 3 work orders, got %d", len(orders))
	}

	want := []struct{ offset, size int64; part int }{
		{0, 26214400, 1},
		{26214400, 26214400, 2},
		{52428800, 7571200, 3},
	}
	for i, w := range want {
		if orders[i].Offset != w.offset || orders[i].Size != w.size || orders[i].PartNumber != w.part {
			t.Fatalf("order %d: got offset=%d size=%d part=%d, want offset=%d size=%d part=%d",
				i, orders[i].Offset, orders[i].Size, orders[i].PartNumber, w.offset, w.size, w.part)
		}
		if orders[i].IsSingleUpload {
			t.Fatalf("order %d: expected multipart, not single-upload", i)
		}
	}
}

// fakeFarm serves both the R2 worker single-upload/complete/abort actions
// and the queue manager's uber_api envelope, recording node_job calls.
type fakeFarm struct {
	nodeJobCalls int
	abortCalls   int
}

func (f *fakeFarm) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/job-1/input/package.zip", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "single-upload":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	mux.HandleFunc("/qm/uber_api", func(w http.ResponseWriter, r *http.Request) {
		var envelope map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&envelope)
		if _, ok := envelope["node_job"]; ok {
			f.nodeJobCalls++
		}
		resp := map[string]interface{}{}
		for k := range envelope {
			resp[k] = map[string]interface{}{"status": "success", "body": map[string]interface{}{}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func TestUploadEndToEndSingleSuccess(t *testing.T) {
	farm := &fakeFarm{}
	srv := farm.server()
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}

	ud := remote.UserData{FarmHost: srv.URL, APIToken: "tok", QMAuthToken: "qtok"}
	tr := NewUpload("t-3", ud, path, "job-1", JobInfo{Start: 1, End: 1, BatchSize: 1, FrameStep: 1}, nil, remote.NewClients(nil))

	ctx := context.Background()
	if err := tr.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := tr.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	orders := tr.orders()
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	wo := orders[0]

	if err := tr.ExecuteWorkOrder(ctx, wo, nil); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	tr.Update(ctx, wo)

	status, text := tr.Status()
	if status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", status, text)
	}
	if farm.nodeJobCalls != 1 {
		t.Fatalf("expected exactly one node_job call, got %d", farm.nodeJobCalls)
	}
}

func TestUploadFinalizeAbortsOnPartialFailure(t *testing.T) {
	var abortCalled bool
	mux := http.NewServeMux()
	mux.HandleFunc("/job-9/input/package.zip", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "mpu-abort" {
			abortCalled = true
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ud := remote.UserData{FarmHost: srv.URL}
	tr := NewUpload("t-4", ud, "/irrelevant", "job-9", JobInfo{}, nil, remote.NewClients(nil))
	tr.upload.uploadID = "upload-abc"
	tr.upload.uploadIDSet = true

	wo1 := NewUploadWorkOrder(0, 0, 100, 1, false)
	wo2 := NewUploadWorkOrder(1, 100, 100, 2, false)
	wo1.Claim()
	wo1.MarkSuccess()
	wo2.Claim()
	wo2.MarkFailure("exceeded attempts")
	tr.setOrders([]*WorkOrder{wo1, wo2})

	tr.Update(context.Background(), wo2)

	status, text := tr.Status()
	if status != StatusFailure {
		t.Fatalf("expected failure, got %s", status)
	}
	if text != "Some parts could not be uploaded" {
		t.Fatalf("unexpected status text: %q", text)
	}
	if !abortCalled {
		t.Fatal("expected abort-multipart to be called")
	}
}
