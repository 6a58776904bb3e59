// Package captcha is a client for an image-to-text captcha solving service
// with the common createTask/getTaskResult API shape.
package captcha

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"govgate/internal/platform/config"
)

const taskTypeImageToText = "ImageToTextTask"

// Solver submits captcha images to the remote service and polls for the
// answer. It implements the gateway's captcha port.
type Solver struct {
	cfg    config.CaptchaConfig
	client *http.Client
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures a Solver.
type Option func(*Solver)

// WithClient sets the HTTP client.
func WithClient(client *http.Client) Option {
	return func(s *Solver) {
		s.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// WithSleep overrides the poll delay wait. Used by tests.
func WithSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Solver) {
		s.sleep = f
	}
}

// New creates a solver from configuration.
func New(cfg config.CaptchaConfig, opts ...Option) *Solver {
	s := &Solver{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: slog.Default(),
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether the solver is configured for use.
func (s *Solver) Enabled() bool {
	return s.cfg.Enabled && s.cfg.APIKey != ""
}

type createTaskRequest struct {
	ClientKey string `json:"clientKey"`
	Task      struct {
		Type string `json:"type"`
		Body string `json:"body"`
	} `json:"task"`
}

type createTaskResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorDescription string `json:"errorDescription"`
	TaskID           int64  `json:"taskId"`
}

type taskResultRequest struct {
	ClientKey string `json:"clientKey"`
	TaskID    int64  `json:"taskId"`
}

type taskResultResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorDescription string `json:"errorDescription"`
	Status           string `json:"status"`
	Solution         struct {
		Text string `json:"text"`
	} `json:"solution"`
}

// Solve submits the image and polls until the service produces an answer or
// the solve window closes.
func (s *Solver) Solve(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SolveWindow)
	defer cancel()

	taskID, err := s.createTask(ctx, image)
	if err != nil {
		return "", err
	}

	for {
		if err := s.sleep(ctx, s.cfg.PollDelay); err != nil {
			return "", fmt.Errorf("captcha solve window closed: %w", err)
		}

		text, ready, err := s.taskResult(ctx, taskID)
		if err != nil {
			return "", err
		}
		if ready {
			return text, nil
		}
	}
}

func (s *Solver) createTask(ctx context.Context, image []byte) (int64, error) {
	req := createTaskRequest{ClientKey: s.cfg.APIKey}
	req.Task.Type = taskTypeImageToText
	req.Task.Body = base64.StdEncoding.EncodeToString(image)

	var resp createTaskResponse
	if err := s.post(ctx, "/createTask", req, &resp); err != nil {
		return 0, err
	}
	if resp.ErrorID != 0 {
		return 0, fmt.Errorf("captcha create task: %s", resp.ErrorDescription)
	}
	return resp.TaskID, nil
}

func (s *Solver) taskResult(ctx context.Context, taskID int64) (string, bool, error) {
	req := taskResultRequest{ClientKey: s.cfg.APIKey, TaskID: taskID}

	var resp taskResultResponse
	if err := s.post(ctx, "/getTaskResult", req, &resp); err != nil {
		return "", false, err
	}
	if resp.ErrorID != 0 {
		return "", false, fmt.Errorf("captcha task result: %s", resp.ErrorDescription)
	}
	if resp.Status != "ready" {
		return "", false, nil
	}
	return resp.Solution.Text, true, nil
}

func (s *Solver) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal captcha request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha service %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha service %s: status %d", path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read captcha response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode captcha response: %w", err)
	}
	return nil
}
