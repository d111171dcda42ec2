package remote

import "encoding/json"

// Part is a completed multipart-upload part, as returned by mpu-uploadpart
// and submitted (sorted by PartNumber) to mpu-complete.
type Part struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

// OutputFile is one declared output of a render pass (e.g. "beauty" -> png).
type OutputFile struct {
	Name string `json:"name"`
	Ext  string `json:"ext"`
	// Size is the declared output size in bytes, when the job detail
	// response includes per-file sizes (used for the disk-space pre-flight
	// check in initializeDownload, SPEC_FULL.md §4.C point 6).
	Size int64 `json:"size,omitempty"`
}

// RenderPass is a named output channel of a render job (e.g. diffuse, depth).
type RenderPass struct {
	Name    string       `json:"name"`
	Outputs []OutputFile `json:"outputs"`
}

// JobDetail is the subset of a render job's detail record the download path
// needs to enumerate expected output files.
type JobDetail struct {
	JobID        string       `json:"job_id"`
	Start        int          `json:"start"`
	End          int          `json:"end"`
	BatchSize    int          `json:"batch_size"`
	FrameStep    int          `json:"frame_step"`
	RenderPasses []RenderPass `json:"render_passes"`
	// RenderFormat, when non-empty, indicates composited frames are also
	// produced under {job_id}/output/NNNN.{composite_ext}.
	RenderFormat string `json:"render_format"`
}

// uberEnvelope is the queue manager's batched-call wire format: a
// single-key JSON object whose key is the endpoint name being invoked.
type uberEnvelope map[string]json.RawMessage

// uberResult is one endpoint's result inside an uber_api response envelope.
type uberResult struct {
	Status string          `json:"status"`
	Body   json.RawMessage `json:"body"`
}
