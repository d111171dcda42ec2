package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// transferSummary mirrors controlplane.transferSummary on the wire — a
// separate, unexported-package-crossing copy since transfer-managerctl is a
// different binary talking to the daemon only over HTTP.
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

type queueSummary struct {
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	WorkerCount int     `json:"worker_count"`
	SpeedBps    float64 `json:"speed_bps"`
}

type queuesResponse struct {
	Queues []queueSummary `json:"queues"`
}

// daemonClient is a thin REST client over the daemon's control plane.
type daemonClient struct {
	baseURL string
	http    *http.Client
}

func newDaemonClient(host string, port int) *daemonClient {
	return &daemonClient{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *daemonClient) get(path string, out interface{}) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("%s: %s (status %d)", path, body.Error, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *daemonClient) transfers() ([]transferSummary, error) {
	var out []transferSummary
	if err := c.get("/transfers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *daemonClient) queues() ([]queueSummary, error) {
	var out queuesResponse
	if err := c.get("/queues", &out); err != nil {
		return nil, err
	}
	return out.Queues, nil
}
