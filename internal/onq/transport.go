package onq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	startPath  = "/api/sync_lms"
	statusPath = "/api/sync_lms/status"
)

// Transport issues the two backend calls. It never retries.
type Transport interface {
	StartJob(ctx context.Context, creds Credentials) (JobHandle, error)
	GetStatus(ctx context.Context, handle JobHandle) (SyncStatus, error)
}

type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type startRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type startResponse struct {
	JobID flexString `json:"job_id"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func (t *HTTPTransport) StartJob(ctx context.Context, creds Credentials) (JobHandle, error) {
	body, err := json.Marshal(startRequest{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return JobHandle{}, &TransportError{Op: OpStart, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+startPath, bytes.NewReader(body))
	if err != nil {
		return JobHandle{}, &TransportError{Op: OpStart, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return JobHandle{}, &TransportError{Op: OpStart, Err: err}
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return JobHandle{}, &RejectedError{
			Status: resp.StatusCode,
			Detail: readDetail(resp),
		}
	}

	var result startResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return JobHandle{}, &TransportError{Op: OpStart, Err: fmt.Errorf("failed to decode start response: %w", err)}
	}

	if result.JobID.value() == "" {
		return JobHandle{}, &TransportError{Op: OpStart, Err: errors.New("start response has no job_id")}
	}

	return JobHandle{JobID: result.JobID.value()}, nil
}

func (t *HTTPTransport) GetStatus(ctx context.Context, handle JobHandle) (SyncStatus, error) {
	u := t.baseURL + statusPath
	if handle.JobID != "" {
		u += "?" + url.Values{"job_id": {handle.JobID}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return SyncStatus{}, &TransportError{Op: OpPoll, Err: err}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return SyncStatus{}, &TransportError{Op: OpPoll, Err: err}
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return SyncStatus{}, &TransportError{Op: OpPoll, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	var status SyncStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return SyncStatus{}, &TransportError{Op: OpPoll, Err: fmt.Errorf("failed to decode status: %w", err)}
	}

	return status, nil
}

// readDetail extracts FastAPI's "detail" field. It is usually a string but
// validation failures send a list of objects, which is passed through as JSON.
func readDetail(resp *http.Response) string {
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && len(e.Detail) > 0 {
		var s string
		if err := json.Unmarshal(e.Detail, &s); err == nil {
			if s != "" {
				return s
			}
		} else if string(e.Detail) != "null" {
			return string(e.Detail)
		}
	}

	return http.StatusText(resp.StatusCode)
}
