package controlplane

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/octaspace/transfer-manager/internal/transfer"
	"github.com/octaspace/transfer-manager/internal/validation"
	"github.com/octaspace/transfer-manager/internal/version"
)

// handleUpload serves POST /upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateFilePath(req.LocalFilePath); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ud := userDataFromContext(r.Context())
	tr, err := s.manager.NewUploadTransfer(r.Context(), ud, req.LocalFilePath, req.JobInformation.Name, req.JobInformation.toJobInfo(), req.Metadata)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: tr.ID})
}

// handleDownload serves POST /download. A missing local_dir_path is a 400
// rather than invoking a native folder picker (SPEC_FULL.md §6: the picker
// is an out-of-scope UI concern).
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LocalDirPath == "" {
		writeError(w, http.StatusBadRequest, "local_dir_path is required")
		return
	}
	if err := validation.ValidateDirectoryPath(req.LocalDirPath); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.JobID == "" {
		writeError(w, http.StatusBadRequest, "job_id is required")
		return
	}

	ud := userDataFromContext(r.Context())
	tr, err := s.manager.NewDownloadTransfer(r.Context(), ud, req.LocalDirPath, req.JobID, req.Metadata)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: tr.ID})
}

// handleListTransfers serves GET /transfers.
func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers := s.manager.List()
	out := make([]transferSummary, 0, len(transfers))
	for _, tr := range transfers {
		out = append(out, toTransferSummary(tr))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetTransfer serves GET /transfers/{id}.
func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transfer not found")
		return
	}

	orders := tr.Orders()
	woSummaries := make([]workOrderSummary, 0, len(orders))
	for _, wo := range orders {
		woSummaries = append(woSummaries, toWorkOrderSummary(wo))
	}
	writeJSON(w, http.StatusOK, transferDetail{
		transferSummary: toTransferSummary(tr),
		WorkOrders:      woSummaries,
	})
}

// handleDeleteTransfer serves DELETE /transfers/{id}.
func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	ok := s.manager.Remove(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, boolResponse{Result: ok})
}

// handleSetTransferStatus serves PUT /transfers/{id}/status.
func (s *Server) handleSetTransferStatus(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transfer not found")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch transfer.Status(req.Status) {
	case transfer.StatusRunning:
		err = tr.Resume()
	case transfer.StatusPaused:
		err = tr.Pause()
	case transfer.StatusFailure:
		err = tr.Stop("cancelled by client")
	default:
		writeError(w, http.StatusBadRequest, "unsupported status: "+req.Status)
		return
	}

	if err != nil {
		writeJSON(w, http.StatusOK, boolResponse{Result: false})
		return
	}
	writeJSON(w, http.StatusOK, boolResponse{Result: true})
}

// handleInfo serves GET /transfer_manager_info.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Service:   "transfer-managerd",
		Version:   version.Version,
		ProcessID: os.Getpid(),
	})
}

// handleLogs serves GET /logs: the tail of the rolling log buffer.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := s.logBuffer.GetRecent(s.logTailLines)
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Timestamp+" ["+e.Level+"] "+e.Message)
	}
	writeJSON(w, http.StatusOK, logsResponse{Lines: lines})
}

// handleQueues serves GET /queues.
func (s *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, queuesResponse{Queues: []queueSummary{
		s.queueSummary(transfer.KindUpload, s.manager.UploadQueue),
		s.queueSummary(transfer.KindDownload, s.manager.DownloadQueue),
	}})
}

func (s *Server) queueSummary(kind transfer.TransferKind, q *transfer.TransferQueue) queueSummary {
	var speed float64
	for _, tr := range s.manager.TransfersByKind(kind) {
		if status, _ := tr.Status(); status == transfer.StatusRunning {
			speed += tr.Speed.Value()
		}
	}
	return queueSummary{
		Kind:        string(kind),
		Status:      string(q.Status()),
		WorkerCount: q.WorkerCount(),
		SpeedBps:    speed,
	}
}
