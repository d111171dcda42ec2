package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/octaspace/transfer-manager/internal/constants"
	"github.com/octaspace/transfer-manager/internal/httpretry"
	"github.com/octaspace/transfer-manager/internal/logging"
	"github.com/octaspace/transfer-manager/internal/ratelimit"
)

// Clients bundles the two remote collaborators a Transfer needs: the R2
// worker for bytes and the queue manager for job bookkeeping. Constructed
// once at daemon startup and threaded through the TransferManager.
type Clients struct {
	R2        *R2WorkerClient
	QueueMgr  *QueueManagerClient
	limiter   *ratelimit.RateLimiter
}

// NewClients builds both remote clients sharing one streaming HTTP client
// (for data-plane PUT/GET, no request timeout — progress is the liveness
// signal per SPEC_FULL.md §5), one retryable control-plane client (for
// short create/complete/abort/job-detail/node-job calls), and one shared
// token-bucket limiter so a burst of worker goroutines stays polite toward
// a single farm host's control plane.
func NewClients(logger *logging.Logger) *Clients {
	streaming := httpretry.NewStreamingClient()
	limiter := ratelimit.NewRateLimiter(constants.ControlPlaneRatePerSec, constants.ControlPlaneBurstCapacity)
	control := newControlRetryClient(logger, limiter)

	return &Clients{
		R2:       &R2WorkerClient{streaming: streaming, control: control},
		QueueMgr: &QueueManagerClient{control: control},
		limiter:  limiter,
	}
}

// newControlRetryClient wraps httpretry.NewControlClient with
// hashicorp/go-retryablehttp, reusing the shared ErrorType classifier and
// jittered-backoff policy from internal/httpretry rather than
// retryablehttp's default linear backoff, so control-plane RPC retry and
// upload-worker retry share one policy (SPEC_FULL.md §4.F). limiter gates
// every attempt (including retries) through a shared token bucket so a
// burst of queue workers doesn't hammer the farm host, and a 429 drains
// the bucket immediately the way the lineage's ratelimit package reacts
// to Rescale's own throttle responses.
func newControlRetryClient(logger *logging.Logger, limiter *ratelimit.RateLimiter) *retryablehttp.Client {
	base := httpretry.NewControlClient(constants.ControlPlaneReadTimeout)

	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = constants.ControlPlaneRPCMaxAttempts
	rc.Logger = nil

	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			limiter.Drain()
			return true, nil
		}
		if err != nil {
			return httpretry.ClassifyError(err) != httpretry.ErrorTypeFatal, nil
		}
		if resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}

	rc.Backoff = func(minDelay, maxDelay time.Duration, attempt int, resp *http.Response) time.Duration {
		return httpretry.CalculateBackoff(attempt, minDelay, maxDelay)
	}

	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if err := limiter.Wait(req.Context()); err != nil {
			return
		}
		if logger != nil && attempt > 0 {
			logger.Debug().Str("url", req.URL.String()).Int("attempt", attempt).Msg("retrying control-plane request")
		}
	}

	return rc
}

// doJSON issues a retried control-plane request with a JSON body (or no
// body) and decodes a JSON response into out (if out is non-nil).
func doJSON(ctx context.Context, client *retryablehttp.Client, method, url string, headers map[string]string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &statusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// statusError carries a non-2xx HTTP response for classification upstream.
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}
