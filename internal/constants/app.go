// Package constants holds the daemon's fixed sizing and timing parameters.
package constants

import "time"

// Multipart upload sizing.
const (
	// MultipartThreshold is the file size at or above which an upload is split into
	// multipart work orders instead of a single-upload work order (25 MB).
	MultipartThreshold = 25 * 1024 * 1024

	// PartSize is the size of each multipart upload part, except the last
	// part of a file which is sized to the remainder (25 MB).
	PartSize = 25 * 1024 * 1024

	// UploadChunkSize is the size of each streamed chunk within a single
	// work order's PUT body (1 MiB), and the pause/cancel suspension granularity.
	UploadChunkSize = 1 * 1024 * 1024

	// HashReadSize is the read size used while streaming a file for its MD5
	// digest during Upload.initialize() (16 MiB).
	HashReadSize = 16 * 1024 * 1024
)

// Worker pool sizing (§4.D).
const (
	// MaxUploadWorkers is the upload queue's ramp-up ceiling.
	MaxUploadWorkers = 6

	// DownloadWorkers is the download queue's fixed worker count.
	DownloadWorkers = 4

	// QueueIdlePollInterval is how long a worker sleeps when it finds no
	// ready work order before scanning again.
	QueueIdlePollInterval = 1 * time.Second
)

// Retry and backoff.
const (
	// DownloadRetryInterval is the fixed sleep between download attempts;
	// download retries are unbounded by design (SPEC_FULL.md §9).
	DownloadRetryInterval = 5 * time.Second

	// UploadMaxAttempts bounds upload work-order retries, a deliberate
	// deviation from the unbounded source behavior (SPEC_FULL.md §9).
	UploadMaxAttempts = 8

	// UploadRetryInitialDelay and UploadRetryMaxDelay parameterize the
	// jittered exponential backoff between upload attempts.
	UploadRetryInitialDelay = 3 * time.Second
	UploadRetryMaxDelay     = 60 * time.Second

	// ControlPlaneRPCMaxAttempts bounds retries of short control-plane RPCs
	// (create/complete/abort/job-detail/node-job).
	ControlPlaneRPCMaxAttempts = 3

	// ControlPlaneRatePerSec and ControlPlaneBurstCapacity throttle outbound
	// control-plane RPCs against one farm host, the same token-bucket
	// politeness the lineage applies to Rescale's v3 API scopes, scoped here
	// to the R2 worker and queue manager instead.
	ControlPlaneRatePerSec    = 8.0
	ControlPlaneBurstCapacity = 20.0
)

// HTTP client timeouts.
const (
	ControlPlaneConnectTimeout = 15 * time.Second
	ControlPlaneReadTimeout    = 15 * time.Second
	StreamingReadTimeout       = 10 * time.Minute
)

// Local control-plane HTTP server.
const (
	DefaultListenPort = 7780

	// DaemonVersionHeader is the header whose value the control plane compares
	// against its own build version before accepting a request.
	DaemonVersionHeader = "Transfer-Manager-Version"
)

// Event bus.
const (
	EventBusDefaultBuffer = 1000
	EventBusMaxBuffer     = 10000
)

// Rolling log buffer exposed at GET /api/logs.
const (
	LogBufferMaxLines = 5000
)
