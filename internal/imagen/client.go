// Package imagen is the client for the external image-generation API.
// The API is asynchronous: a generation request creates a task, and
// the client polls until the task succeeds or fails.
package imagen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shantoai/studio/internal/config"
)

// AspectRatios is the closed set accepted by the dashboard.
var AspectRatios = map[string]bool{
	"1:1":  true,
	"3:4":  true,
	"4:3":  true,
	"9:16": true,
	"16:9": true,
}

// GenerationError is a failure reported by the generation API itself,
// as opposed to a transport problem. Its message is shown to the user.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return e.Message
}

// Request describes one generation.
type Request struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
}

// Image is the generation result. The API returns hosted URLs.
type Image struct {
	URL string
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *slog.Logger

	pollInterval time.Duration
	maxAttempts  int
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		apiKey:       cfg.ImageGenAPIKey,
		baseURL:      strings.TrimRight(cfg.ImageGenBaseURL, "/"),
		model:        cfg.ImageGenModel,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
		pollInterval: 2 * time.Second,
		maxAttempts:  60,
	}
}

// Generate runs one text-to-image task and waits for its result.
func (c *Client) Generate(ctx context.Context, req Request) (*Image, error) {
	if !AspectRatios[req.AspectRatio] {
		return nil, fmt.Errorf("unsupported aspect ratio: %s", req.AspectRatio)
	}

	input := map[string]any{
		"prompt":       req.Prompt,
		"aspect_ratio": req.AspectRatio,
	}
	if req.NegativePrompt != "" {
		input["negative_prompt"] = req.NegativePrompt
	}
	payload := map[string]any{
		"model": c.model,
		"input": input,
	}

	taskID, err := c.createTask(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return c.pollTask(ctx, taskID)
}

func (c *Client) createTask(ctx context.Context, payload map[string]any) (string, error) {
	fullURL, err := c.endpoint("/api/v1/jobs/createTask", nil)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post create task: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		c.log.Error("image task create failed", "status", resp.StatusCode, "body", truncateBody(rawBody))
		return "", fmt.Errorf("imagegen error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	var createResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			TaskID string `json:"taskId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &createResp); err != nil {
		return "", fmt.Errorf("decode create task response: %w", err)
	}
	if createResp.Code != 200 {
		return "", &GenerationError{Message: fmt.Sprintf("create task failed: %s", createResp.Msg)}
	}
	if createResp.Data.TaskID == "" {
		return "", fmt.Errorf("empty taskId in response")
	}

	c.log.Info("image task created", "task_id", createResp.Data.TaskID, "model", c.model)
	return createResp.Data.TaskID, nil
}

func (c *Client) pollTask(ctx context.Context, taskID string) (*Image, error) {
	fullURL, err := c.endpoint("/api/v1/jobs/recordInfo", url.Values{"taskId": {taskID}})
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("get task status: %w", err)
		}
		rawBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if resp.StatusCode >= 300 {
			c.log.Error("image task poll failed", "status", resp.StatusCode, "body", truncateBody(rawBody))
			return nil, fmt.Errorf("imagegen error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
		}

		var statusResp struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
			Data struct {
				State      string `json:"state"`
				ResultJSON string `json:"resultJson"`
				FailMsg    string `json:"failMsg"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rawBody, &statusResp); err != nil {
			return nil, fmt.Errorf("decode status response: %w", err)
		}
		if statusResp.Code != 200 {
			return nil, &GenerationError{Message: fmt.Sprintf("task status failed: %s", statusResp.Msg)}
		}

		switch statusResp.Data.State {
		case "success":
			var result struct {
				ResultURLs []string `json:"resultUrls"`
			}
			if err := json.Unmarshal([]byte(statusResp.Data.ResultJSON), &result); err != nil {
				return nil, fmt.Errorf("parse resultJson: %w", err)
			}
			if len(result.ResultURLs) == 0 {
				return nil, fmt.Errorf("no resultUrls in result")
			}
			c.log.Info("image task completed", "task_id", taskID, "attempt", attempt+1)
			return &Image{URL: result.ResultURLs[0]}, nil

		case "fail":
			failMsg := statusResp.Data.FailMsg
			if failMsg == "" {
				failMsg = "unknown error"
			}
			c.log.Error("image task failed", "task_id", taskID, "fail_msg", failMsg)
			return nil, &GenerationError{Message: failMsg}

		case "waiting", "generating", "processing", "queued", "queueing":
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}

		default:
			return nil, fmt.Errorf("unknown task state: %s", statusResp.Data.State)
		}
	}
	return nil, fmt.Errorf("task timeout after %d attempts", c.maxAttempts)
}

func (c *Client) endpoint(path string, params url.Values) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if params != nil {
		ref.RawQuery = params.Encode()
	}
	return base.ResolveReference(ref).String(), nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
