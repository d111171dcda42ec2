package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/octaspace/transfer-manager/internal/transfererr"
	"github.com/octaspace/transfer-manager/internal/version"
)

// QueueManagerClient wraps the render farm's batched "uber_api" endpoint,
// POST {farm_host}/qm/uber_api (SPEC_FULL.md §6). Both calls it exposes
// (job detail lookup, node-job creation) are short control-plane RPCs and
// go through the retried client.
type QueueManagerClient struct {
	control *retryablehttp.Client
}

func (c *QueueManagerClient) headers(ud UserData) map[string]string {
	return map[string]string{
		"Auth-Token":        ud.QMAuthToken,
		"Sarfis-Version":    version.Version,
		"Sarfis-Soft-Version": version.Version,
	}
}

// call posts {endpoint: payload} to uber_api and returns the raw body of
// that endpoint's result, raising if its status is not "success".
func (c *QueueManagerClient) call(ctx context.Context, ud UserData, endpoint string, payload interface{}) (json.RawMessage, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", endpoint, err)
	}

	req := uberEnvelope{endpoint: payloadBytes}

	url := strings.TrimRight(ud.FarmHost, "/") + "/qm/uber_api"

	var respEnvelope map[string]uberResult
	if err := doJSON(ctx, c.control, http.MethodPost, url, c.headers(ud), req, &respEnvelope); err != nil {
		return nil, classifyQMErr(endpoint, err)
	}

	result, ok := respEnvelope[endpoint]
	if !ok {
		return nil, transfererr.Logical(fmt.Sprintf("uber_api response missing %q", endpoint), nil)
	}
	if result.Status != "success" {
		return nil, transfererr.Logical(fmt.Sprintf("%s rejected: status=%s", endpoint, result.Status), nil)
	}
	return result.Body, nil
}

// JobDetail fetches the render job's frame-range and output-pass declarations.
func (c *QueueManagerClient) JobDetail(ctx context.Context, ud UserData, jobID string) (JobDetail, error) {
	body, err := c.call(ctx, ud, "job_details", map[string]string{"job_id": jobID})
	if err != nil {
		return JobDetail{}, err
	}

	var detail JobDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return JobDetail{}, transfererr.Logical("job_details returned an unparsable body", err)
	}
	detail.JobID = jobID
	return detail, nil
}

// NodeJob posts a job-creation document built by internal/transfer/jobspec.go.
func (c *QueueManagerClient) NodeJob(ctx context.Context, ud UserData, doc interface{}) error {
	_, err := c.call(ctx, ud, "node_job", doc)
	return err
}

func classifyQMErr(op string, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		if se.StatusCode >= 500 {
			return transfererr.TransientTransport(op+" failed", err)
		}
		return transfererr.PermanentTransport(op+" failed", err)
	}
	return transfererr.TransientTransport(op+" failed", err)
}
