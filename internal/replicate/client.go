// Package replicate talks to the external training and image-synthesis job
// services. Both expose the same shape: submit a job, then poll it until a
// terminal state.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// ErrJobTimeout is returned when a synthesis job does not reach a terminal
// state within the polling budget.
var ErrJobTimeout = errors.New("job did not finish in time")

type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	log          *slog.Logger
	pollInterval time.Duration
	maxAttempts  int
}

type Options struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	MaxAttempts    int
}

func NewClient(opts Options, log *slog.Logger) *Client {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 150
	}

	return &Client{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:          log,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

type TrainingRequest struct {
	InputImages     []string
	TriggerWord     string
	Hyperparameters map[string]any
}

type TrainingStatus struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

// SubmitTraining starts a training job and returns its external id.
func (c *Client) SubmitTraining(ctx context.Context, req TrainingRequest) (string, error) {
	input := map[string]any{
		"input_images": req.InputImages,
		"trigger_word": req.TriggerWord,
	}
	for k, v := range req.Hyperparameters {
		input[k] = v
	}

	body := map[string]any{
		"model": "flux-lora",
		"input": input,
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/v1/trainings", body, &resp); err != nil {
		return "", fmt.Errorf("submit training: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("empty training id in response")
	}

	if c.log != nil {
		c.log.Info("training job submitted", "job_id", resp.ID)
	}
	return resp.ID, nil
}

// GetTrainingStatus fetches the current status of a training job. It is a
// single poll; interpreting the status is the caller's concern.
func (c *Client) GetTrainingStatus(ctx context.Context, jobID string) (*TrainingStatus, error) {
	var resp TrainingStatus
	if err := c.get(ctx, "/v1/trainings/"+url.PathEscape(jobID), &resp); err != nil {
		return nil, fmt.Errorf("get training status: %w", err)
	}
	return &resp, nil
}

type PredictionRequest struct {
	Version        string
	Prompt         string
	NegativePrompt string
	NumOutputs     int
	GuidanceScale  float64
	Width          int
	Height         int
}

// GeneratePrediction submits a synthesis job and blocks until it reaches a
// terminal state, returning the output asset URLs.
func (c *Client) GeneratePrediction(ctx context.Context, req PredictionRequest) ([]string, error) {
	jobID, err := c.createPrediction(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.waitPrediction(ctx, jobID)
}

func (c *Client) createPrediction(ctx context.Context, req PredictionRequest) (string, error) {
	body := map[string]any{
		"version": req.Version,
		"input": map[string]any{
			"prompt":          req.Prompt,
			"negative_prompt": req.NegativePrompt,
			"num_outputs":     req.NumOutputs,
			"guidance_scale":  req.GuidanceScale,
			"width":           req.Width,
			"height":          req.Height,
		},
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/v1/predictions", body, &resp); err != nil {
		return "", fmt.Errorf("create prediction: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("empty prediction id in response")
	}

	if c.log != nil {
		c.log.Info("prediction submitted", "job_id", resp.ID)
	}
	return resp.ID, nil
}

func (c *Client) waitPrediction(ctx context.Context, jobID string) ([]string, error) {
	endpoint := "/v1/predictions/" + url.PathEscape(jobID)

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		var resp struct {
			ID     string   `json:"id"`
			Status string   `json:"status"`
			Output []string `json:"output"`
			Error  string   `json:"error,omitempty"`
		}
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("poll prediction: %w", err)
		}

		switch resp.Status {
		case StatusSucceeded:
			if len(resp.Output) == 0 {
				return nil, fmt.Errorf("prediction %s succeeded with no output", jobID)
			}
			if c.log != nil {
				c.log.Info("prediction completed", "job_id", jobID, "outputs", len(resp.Output), "attempt", attempt+1)
			}
			return resp.Output, nil

		case StatusFailed, StatusCanceled:
			msg := resp.Error
			if msg == "" {
				msg = resp.Status
			}
			if c.log != nil {
				c.log.Error("prediction failed", "job_id", jobID, "error", msg)
			}
			return nil, fmt.Errorf("prediction failed: %s", msg)

		default:
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}
	}

	return nil, fmt.Errorf("%w: prediction %s after %d attempts", ErrJobTimeout, jobID, c.maxAttempts)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("replicate request failed", "status", resp.StatusCode, "url", req.URL.String(), "body", truncateBody(rawBody))
		}
		return fmt.Errorf("replicate error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		return fmt.Errorf("decode response: %w (body=%s)", err, truncateBody(rawBody))
	}
	return nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
