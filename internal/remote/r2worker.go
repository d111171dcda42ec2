package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/octaspace/transfer-manager/internal/transfererr"
)

// R2WorkerClient wraps the custom multipart-upload HTTP contract exposed by
// the object-storage worker behind the render farm (SPEC_FULL.md §6). The
// short create/complete/abort calls go through the retried control client;
// data-plane PUT/GET (single-upload, upload-part, get) use the long-lived
// streaming client and a single attempt — the queue worker's own retry loop
// (SPEC_FULL.md §4.E) covers those, not this client.
type R2WorkerClient struct {
	streaming *http.Client
	control   *retryablehttp.Client
}

func r2URL(ud UserData, key, action string, extra ...string) string {
	base := strings.TrimRight(ud.FarmHost, "/")
	u := fmt.Sprintf("%s/%s?action=%s", base, key, action)
	for _, kv := range extra {
		u += "&" + kv
	}
	return u
}

func authHeader(ud UserData) map[string]string {
	return map[string]string{"authentication": ud.APIToken}
}

// CreateMultipartUpload starts a multipart upload and returns its upload id.
func (c *R2WorkerClient) CreateMultipartUpload(ctx context.Context, ud UserData, key string) (string, error) {
	var out struct {
		UploadID string `json:"uploadId"`
	}
	url := r2URL(ud, key, "mpu-create")
	if err := doJSON(ctx, c.control, http.MethodPost, url, authHeader(ud), nil, &out); err != nil {
		return "", classifyR2Err("mpu-create", err)
	}
	if out.UploadID == "" {
		return "", transfererr.Logical("mpu-create returned an empty upload id", nil)
	}
	return out.UploadID, nil
}

// CompleteMultipartUpload finalizes a multipart upload. Parts are sorted by
// PartNumber before submission, as required by SPEC_FULL.md §4.E.
func (c *R2WorkerClient) CompleteMultipartUpload(ctx context.Context, ud UserData, key, uploadID string, parts []Part) error {
	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	url := r2URL(ud, key, "mpu-complete", "uploadId="+uploadID)
	body := struct {
		Parts []Part `json:"parts"`
	}{Parts: sorted}

	if err := doJSON(ctx, c.control, http.MethodPost, url, authHeader(ud), body, nil); err != nil {
		return classifyR2Err("mpu-complete", err)
	}
	return nil
}

// AbortMultipartUpload aborts an in-progress multipart upload.
func (c *R2WorkerClient) AbortMultipartUpload(ctx context.Context, ud UserData, key, uploadID string) error {
	url := r2URL(ud, key, "mpu-abort", "uploadId="+uploadID)
	if err := doJSON(ctx, c.control, http.MethodDelete, url, authHeader(ud), nil, nil); err != nil {
		return classifyR2Err("mpu-abort", err)
	}
	return nil
}

// UploadPart streams size bytes from body as one multipart part. Single
// attempt; callers retry at the work-order level.
func (c *R2WorkerClient) UploadPart(ctx context.Context, ud UserData, key, uploadID string, partNumber int, body io.Reader, size int64) (Part, error) {
	url := r2URL(ud, key, "mpu-uploadpart", "uploadId="+uploadID, "partNumber="+strconv.Itoa(partNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return Part{}, fmt.Errorf("build mpu-uploadpart request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("authentication", ud.APIToken)

	resp, err := c.streaming.Do(req)
	if err != nil {
		return Part{}, transfererr.TransientTransport("mpu-uploadpart request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Part{}, transfererr.TransientTransport(fmt.Sprintf("mpu-uploadpart returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return Part{}, transfererr.PermanentTransport(fmt.Sprintf("mpu-uploadpart returned %d", resp.StatusCode), nil)
	}

	var out Part
	if err := decodeJSONBody(resp.Body, &out); err != nil {
		return Part{}, transfererr.Logical("mpu-uploadpart returned an unparsable body", err)
	}
	out.PartNumber = partNumber
	return out, nil
}

// SingleUpload streams size bytes from body as a whole-file upload (used
// for files under the multipart threshold). Single attempt.
func (c *R2WorkerClient) SingleUpload(ctx context.Context, ud UserData, key string, body io.Reader, size int64) error {
	url := r2URL(ud, key, "single-upload")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("build single-upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("authentication", ud.APIToken)

	resp, err := c.streaming.Do(req)
	if err != nil {
		return transfererr.TransientTransport("single-upload request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return transfererr.TransientTransport(fmt.Sprintf("single-upload returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return transfererr.PermanentTransport(fmt.Sprintf("single-upload returned %d", resp.StatusCode), nil)
	}
	return nil
}

// Get opens a streaming GET for key, returning the body (caller must Close)
// and the declared Content-Length (-1 if absent). Single attempt.
func (c *R2WorkerClient) Get(ctx context.Context, ud UserData, key string) (io.ReadCloser, int64, error) {
	url := r2URL(ud, key, "get")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build get request: %w", err)
	}
	req.Header.Set("authentication", ud.APIToken)

	resp, err := c.streaming.Do(req)
	if err != nil {
		return nil, 0, transfererr.TransientTransport("get request failed", err)
	}

	if resp.StatusCode >= 500 {
		resp.Body.Close()
		return nil, 0, transfererr.TransientTransport(fmt.Sprintf("get returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, 0, transfererr.PermanentTransport(fmt.Sprintf("get returned %d", resp.StatusCode), nil)
	}

	return resp.Body, resp.ContentLength, nil
}

func classifyR2Err(op string, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		if se.StatusCode >= 500 {
			return transfererr.TransientTransport(op+" failed", err)
		}
		return transfererr.PermanentTransport(op+" failed", err)
	}
	return transfererr.TransientTransport(op+" failed", err)
}

func decodeJSONBody(r io.Reader, out interface{}) error {
	return json.NewDecoder(r).Decode(out)
}
