package controlplane

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/octaspace/transfer-manager/internal/events"
	"github.com/octaspace/transfer-manager/internal/logging"
	"github.com/octaspace/transfer-manager/internal/remote"
	"github.com/octaspace/transfer-manager/internal/transfer"
	"github.com/octaspace/transfer-manager/internal/version"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := logging.NewLogger(nil, events.NewEventBus(0))
	clients := remote.NewClients(logger)
	manager := transfer.NewManager(clients, logger)
	logBuf := logging.NewLogBuffer(100)

	const defaultFarmHost = "https://farm.example.test"
	s := NewServer(Config{ListenPort: 0, DefaultFarmHost: defaultFarmHost}, manager, logger, logBuf)
	ts := httptest.NewServer(s.router(defaultFarmHost))
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHandleUploadRejectsMissingPath(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/upload", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("post upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleUploadRejectsMissingLocalFile(t *testing.T) {
	_, ts := newTestServer(t)

	body, _ := json.Marshal(uploadRequest{LocalFilePath: "/nonexistent/path/archive.zip"})
	resp, err := http.Post(ts.URL+"/upload", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 (input validation from os.Stat), got %d", resp.StatusCode)
	}
}

func TestHandleDownloadRequiresLocalDirAndJobID(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/download", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("post download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleListTransfersEmpty(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/transfers")
	if err != nil {
		t.Fatalf("get transfers: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out []transferSummary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty list, got %d", len(out))
	}
}

func TestHandleGetTransferNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/transfers/does-not-exist")
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleDeleteTransferNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/transfers/does-not-exist", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete transfer: %v", err)
	}
	defer resp.Body.Close()

	var out boolResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Result {
		t.Fatalf("expected false for nonexistent transfer")
	}
}

func TestHandleInfo(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/transfer_manager_info")
	if err != nil {
		t.Fatalf("get info: %v", err)
	}
	defer resp.Body.Close()

	var out infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Version != version.Version {
		t.Fatalf("expected version %s, got %s", version.Version, out.Version)
	}
	if out.Service == "" {
		t.Fatalf("expected non-empty service name")
	}
}

func TestHandleLogsEmpty(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/logs")
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	defer resp.Body.Close()

	var out logsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(out.Lines))
	}
}

func TestHandleLogsReflectsBuffer(t *testing.T) {
	s, ts := newTestServer(t)
	s.logBuffer.Add("info", "hello world", nil)

	resp, err := http.Get(ts.URL + "/logs")
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	defer resp.Body.Close()

	var out logsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out.Lines))
	}
}

func TestHandleQueues(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/queues")
	if err != nil {
		t.Fatalf("get queues: %v", err)
	}
	defer resp.Body.Close()

	var out queuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Queues) != 2 {
		t.Fatalf("expected 2 queues, got %d", len(out.Queues))
	}
}

func TestVersionGateRejectsMismatch(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/transfer_manager_info", nil)
	req.Header.Set("Transfer-Manager-Version", "v0.0.1-definitely-not-it")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get info: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPreconditionFailed {
		t.Fatalf("expected 412, got %d", resp.StatusCode)
	}
}

func TestVersionGateAllowsMissingHeader(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/transfer_manager_info")
	if err != nil {
		t.Fatalf("get info: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestUserDataDefaultsFarmHost(t *testing.T) {
	_, ts := newTestServer(t)

	// No farm_host header: handlers downstream should see the configured
	// default, not an empty string. We can't observe this directly without
	// a transfer, so we exercise the middleware's no-panic path via a plain
	// request and confirm the route still serves normally.
	resp, err := http.Get(ts.URL + "/transfers")
	if err != nil {
		t.Fatalf("get transfers: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
