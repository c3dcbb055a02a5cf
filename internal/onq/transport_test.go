package onq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, h http.HandlerFunc) *HTTPTransport {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPTransport(srv.URL+"/", time.Second)
}

func TestHTTPTransport_StartJob(t *testing.T) {
	tr := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync_lms", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"username": "20abc1", "password": "hunter2"}, body)

		_, _ = w.Write([]byte(`{"job_id": 17, "status": "started"}`))
	})

	handle, err := tr.StartJob(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, "17", handle.JobID)
}

func TestHTTPTransport_StartJobRejected(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"string detail": {
			status: http.StatusUnauthorized,
			body:   `{"detail": "Invalid NetID or password"}`,
			want:   "Invalid NetID or password",
		},
		"structured detail": {
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","username"]}]}`,
			want:   `[{"loc":["body","username"]}]`,
		},
		"no body": {
			status: http.StatusConflict,
			body:   ``,
			want:   "Conflict",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tr := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := tr.StartJob(context.Background(), creds)

			var rej *RejectedError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tc.status, rej.Status)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestHTTPTransport_StartJobWithoutJobID(t *testing.T) {
	tr := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "started"}`))
	})

	_, err := tr.StartJob(context.Background(), creds)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, OpStart, te.Op)
	assert.EqualError(t, err, "failed to start sync")
}

func TestHTTPTransport_StartJobUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(url, time.Second).StartJob(context.Background(), creds)
	assert.EqualError(t, err, "failed to start sync")
}

func TestHTTPTransport_GetStatus(t *testing.T) {
	tr := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sync_lms/status", r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("job_id"))

		_, _ = w.Write([]byte(`{
			"is_running": true,
			"current_step": "login",
			"progress": 15,
			"message": "Approve the sign-in",
			"error": null,
			"results": null,
			"twofa_number": 73
		}`))
	})

	status, err := tr.GetStatus(context.Background(), JobHandle{JobID: "abc"})
	require.NoError(t, err)
	assert.True(t, status.IsRunning)
	assert.Equal(t, StepLoggingIn, status.CurrentStep)
	assert.InDelta(t, 15, status.Progress, 0.001)
	require.NotNil(t, status.TwoFactorNumber)
	assert.Equal(t, "73", *status.TwoFactorNumber)
	assert.Nil(t, status.Error)
}

func TestHTTPTransport_GetStatusFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed payload": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"is_running": "maybe"`))
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newBackend(t, h).GetStatus(context.Background(), JobHandle{JobID: "x"})

			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, OpPoll, te.Op)
			assert.EqualError(t, err, "failed to check sync status")
		})
	}
}

func TestHTTPTransport_HonoursContext(t *testing.T) {
	release := make(chan struct{})
	tr := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.GetStatus(ctx, JobHandle{JobID: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
