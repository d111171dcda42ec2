package controlplane

import (
	"time"

	"github.com/octaspace/transfer-manager/internal/remote"
	"github.com/octaspace/transfer-manager/internal/transfer"
)

// uploadRequest is the body of POST /upload.
type uploadRequest struct {
	LocalFilePath  string             `json:"local_file_path"`
	JobInformation jobInformationJSON `json:"job_information"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// jobInformationJSON mirrors transfer.JobInfo on the wire.
type jobInformationJSON struct {
	Name           string               `json:"name"`
	Start          int                  `json:"start"`
	End            int                  `json:"end"`
	BatchSize      int                  `json:"batch_size"`
	FrameStep      int                  `json:"frame_step"`
	RenderFormat   string               `json:"render_format"`
	RenderEngine   string               `json:"render_engine"`
	BlenderVersion string               `json:"blender_version"`
	BlendName      string               `json:"blend_name"`
	ThumbnailSize  int                  `json:"thumbnail_size"`
	RenderPasses   []remote.RenderPass `json:"render_passes"`
}

func (j jobInformationJSON) toJobInfo() transfer.JobInfo {
	return transfer.JobInfo{
		Name:           j.Name,
		Start:          j.Start,
		End:            j.End,
		BatchSize:      j.BatchSize,
		FrameStep:      j.FrameStep,
		RenderFormat:   j.RenderFormat,
		RenderEngine:   j.RenderEngine,
		BlenderVersion: j.BlenderVersion,
		BlendName:      j.BlendName,
		ThumbnailSize:  j.ThumbnailSize,
		RenderPasses:   j.RenderPasses,
	}
}

// downloadRequest is the body of POST /download.
type downloadRequest struct {
	LocalDirPath string                 `json:"local_dir_path"`
	JobID        string                 `json:"job_id"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// createdResponse is returned by POST /upload and POST /download.
type createdResponse struct {
	ID string `json:"id"`
}

// statusRequest is the body of PUT /transfers/{id}/status.
type statusRequest struct {
	Status string `json:"status"`
}

// boolResponse is returned by DELETE /transfers/{id} and the status handler.
type boolResponse struct {
	Result bool `json:"result"`
}

// errorResponse is the shape of every non-2xx response body.
type errorResponse struct {
	Error string `json:"error"`
}

// workOrderSummary is one WorkOrder on the wire.
type workOrderSummary struct {
	Number         int      `json:"number"`
	Status         string   `json:"status"`
	StatusText     string   `json:"status_text"`
	Done           int64    `json:"done"`
	Total          int64    `json:"total"`
	History        []string `json:"history"`
	Offset         int64    `json:"offset,omitempty"`
	Size           int64    `json:"size,omitempty"`
	PartNumber     int      `json:"part_number,omitempty"`
	IsSingleUpload bool     `json:"is_single_upload,omitempty"`
	URL            string   `json:"url,omitempty"`
	LocalPath      string   `json:"local_path,omitempty"`
	RelPath        string   `json:"rel_path,omitempty"`
}

// transferSummary is the array-element shape returned by GET /transfers.
type transferSummary struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	StatusText string    `json:"status_text"`
	Done       int64     `json:"done"`
	Total      int64     `json:"total"`
	Value      float64   `json:"value"`
	SpeedBps   float64   `json:"speed_bps"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// transferDetail is the shape returned by GET /transfers/{id}, a
// transferSummary plus the full work-order list.
type transferDetail struct {
	transferSummary
	WorkOrders []workOrderSummary `json:"work_orders"`
}

// infoResponse is returned by GET /transfer_manager_info.
type infoResponse struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	ProcessID int    `json:"process_id"`
}

// logsResponse is returned by GET /logs.
type logsResponse struct {
	Lines []string `json:"lines"`
}

// queueSummary is one element of GET /queues.
type queueSummary struct {
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	WorkerCount int     `json:"worker_count"`
	SpeedBps    float64 `json:"speed_bps"`
}

// queuesResponse is returned by GET /queues.
type queuesResponse struct {
	Queues []queueSummary `json:"queues"`
}

func toTransferSummary(tr *transfer.Transfer) transferSummary {
	status, text := tr.Status()
	done, total := tr.Progress.Snapshot()
	return transferSummary{
		ID:         tr.ID,
		Kind:       string(tr.Kind),
		Status:     string(status),
		StatusText: text,
		Done:       done,
		Total:      total,
		Value:      tr.Progress.Value(),
		SpeedBps:   tr.Speed.Value(),
		CreatedAt:  tr.CreatedAt,
		FinishedAt: tr.FinishedAt,
	}
}

func toWorkOrderSummary(wo *transfer.WorkOrder) workOrderSummary {
	status, text := wo.Status()
	done, total := wo.Progress.Snapshot()
	return workOrderSummary{
		Number:         wo.Number,
		Status:         string(status),
		StatusText:     text,
		Done:           done,
		Total:          total,
		History:        wo.History(),
		Offset:         wo.Offset,
		Size:           wo.Size,
		PartNumber:     wo.PartNumber,
		IsSingleUpload: wo.IsSingleUpload,
		URL:            wo.URL,
		LocalPath:      wo.LocalPath,
		RelPath:        wo.RelPath,
	}
}
