package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govgate/internal/platform/config"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newSolver(t *testing.T, apiURL string) *Solver {
	t.Helper()
	return New(config.CaptchaConfig{
		Enabled:     true,
		APIURL:      apiURL,
		APIKey:      "test-key",
		PollDelay:   time.Millisecond,
		SolveWindow: 5 * time.Second,
	}, WithSleep(noSleep))
}

func TestSolve_PollsUntilReady(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/createTask", func(w http.ResponseWriter, r *http.Request) {
		var req createTaskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.ClientKey)
		assert.Equal(t, taskTypeImageToText, req.Task.Type)
		assert.NotEmpty(t, req.Task.Body)
		fmt.Fprint(w, `{"errorId":0,"taskId":42}`)
	})
	mux.HandleFunc("/getTaskResult", func(w http.ResponseWriter, r *http.Request) {
		var req taskResultRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.EqualValues(t, 42, req.TaskID)
		if polls.Add(1) < 3 {
			fmt.Fprint(w, `{"errorId":0,"status":"processing"}`)
			return
		}
		fmt.Fprint(w, `{"errorId":0,"status":"ready","solution":{"text":"71254"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	answer, err := newSolver(t, srv.URL).Solve(context.Background(), []byte("png-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "71254", answer)
	assert.EqualValues(t, 3, polls.Load())
}

func TestSolve_ServiceErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errorId":10,"errorDescription":"ERROR_ZERO_BALANCE"}`)
	}))
	t.Cleanup(srv.Close)

	_, err := newSolver(t, srv.URL).Solve(context.Background(), []byte("png"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERROR_ZERO_BALANCE")
}

func TestSolve_SolveWindowBoundsPolling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/createTask", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errorId":0,"taskId":7}`)
	})
	mux.HandleFunc("/getTaskResult", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errorId":0,"status":"processing"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	solver := New(config.CaptchaConfig{
		Enabled:     true,
		APIURL:      srv.URL,
		APIKey:      "test-key",
		PollDelay:   10 * time.Millisecond,
		SolveWindow: 50 * time.Millisecond,
	})

	_, err := solver.Solve(context.Background(), []byte("png"))

	assert.Error(t, err)
}

func TestEnabled(t *testing.T) {
	assert.True(t, New(config.CaptchaConfig{Enabled: true, APIKey: "k"}).Enabled())
	assert.False(t, New(config.CaptchaConfig{Enabled: true}).Enabled(), "no key means disabled")
	assert.False(t, New(config.CaptchaConfig{APIKey: "k"}).Enabled())
}
