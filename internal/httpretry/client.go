// Package httpretry provides the HTTP transport tuning and retry classification
// shared by the remote R2 worker and queue-manager clients.
package httpretry

import (
	nethttp "net/http"
	"time"
)

// NewStreamingClient returns an HTTP client tuned for large, long-running
// request bodies (multipart part uploads, chunked frame downloads).
//
// Configuration mirrors the connection-pooling and HTTP/2 settings used for
// high-throughput object-storage transfers: a wide connection pool to allow
// several concurrent work orders against the same R2 worker host, no
// overall client timeout (data-plane streaming has no total timeout per
// SPEC_FULL.md §5 — progress is the liveness signal), and disabled body
// compression since archives and rendered frames are already compressed or
// binary.
func NewStreamingClient() *nethttp.Client {
	tr := &nethttp.Transport{
		MaxIdleConns:          512,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
	}
	return &nethttp.Client{
		Transport: tr,
		Timeout:   0,
	}
}

// NewControlClient returns an HTTP client for short request/response calls
// (control-plane RPCs: create/complete/abort/job-detail/node-job) with the
// fixed connect/read timeouts from SPEC_FULL.md §4.F.
func NewControlClient(timeout time.Duration) *nethttp.Client {
	return &nethttp.Client{
		Transport: &nethttp.Transport{
			MaxIdleConnsPerHost:   16,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   15 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: timeout,
	}
}
