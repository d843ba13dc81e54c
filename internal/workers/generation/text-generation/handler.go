// internal/workers/generation/text-generation/handler.go
package textgeneration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/common/logger"
	"f1-previews/internal/common/metrics"
)

const (
	TaskType = "text-generation"

	responsesPath = "/v1/responses"
)

var (
	ErrAPIStatus          = errors.New("API_ERROR")
	ErrResponseIncomplete = errors.New("RESPONSE_INCOMPLETE")
	ErrNoTextContent      = errors.New("NO_TEXT_CONTENT")
	ErrTimeout            = errors.New("GENERATION_TIMEOUT")
	ErrTransport          = errors.New("GENERATION_FAILED")
)

var gpt5Family = regexp.MustCompile(`(?i)^gpt-5`)

// Error carries the user-facing message; Kind is one of the sentinels above.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Code maps a client error onto the shared taxonomy.
func Code(err error) apperrors.ErrorCode {
	switch {
	case errors.Is(err, ErrResponseIncomplete):
		return apperrors.ErrCodeResponseIncomplete
	case errors.Is(err, ErrNoTextContent):
		return apperrors.ErrCodeNoTextContent
	case errors.Is(err, ErrTimeout):
		return apperrors.ErrCodeGenerationTimeout
	default:
		return apperrors.ErrCodeGenerationFailed
	}
}

// Generator is what the orchestrator depends on.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client calls the OpenAI Responses endpoint. It never retries.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		// deadline comes from the per-call context
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Complete sends one prompt and returns the first text part of the first
// message output item, trimmed.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	step := req.Step
	if step == "" {
		step = "unspecified"
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	metrics.GenerationCalls.WithLabelValues(step).Inc()

	text, err := c.execute(ctx, req)
	metrics.GenerationDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(step, string(Code(err))).Inc()
		c.logger.Error("text generation failed", map[string]interface{}{
			"step":  step,
			"model": req.Model,
			"error": err.Error(),
		})
		return "", err
	}

	c.logger.Debug("text generation complete", map[string]interface{}{
		"step":       step,
		"model":      req.Model,
		"chars":      len(text),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return text, nil
}

func (c *Client) execute(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return "", &Error{Kind: ErrTransport, Message: fmt.Sprintf("encode request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.config.BaseURL, "/")+responsesPath, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: ErrTransport, Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &Error{Kind: ErrTimeout, Message: "Request timed out waiting for the model"}
		}
		return "", &Error{Kind: ErrTransport, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &Error{Kind: ErrTimeout, Message: "Request timed out waiting for the model"}
		}
		return "", &Error{Kind: ErrTransport, Message: fmt.Sprintf("read response: %v", err)}
	}

	var data apiResponse
	// an unparseable body is treated as an empty object
	_ = json.Unmarshal(raw, &data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := ""
		if data.Error != nil {
			message = data.Error.Message
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		if message == "" {
			message = "Unknown error"
		}
		return "", &Error{
			Kind:       ErrAPIStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API Error: %d %s", resp.StatusCode, message),
		}
	}

	if data.Status == "incomplete" {
		reason := "unknown"
		if data.IncompleteDetails != nil && data.IncompleteDetails.Reason != "" {
			reason = data.IncompleteDetails.Reason
		}
		return "", &Error{
			Kind:    ErrResponseIncomplete,
			Message: fmt.Sprintf("Response incomplete: %s. Try increasing max_output_tokens.", reason),
		}
	}

	if text, ok := extractText(data); ok {
		return text, nil
	}

	return "", &Error{Kind: ErrNoTextContent, Message: "No text content found in response"}
}

func (c *Client) buildRequest(req Request) apiRequest {
	out := apiRequest{
		Model:           req.Model,
		Input:           req.Prompt,
		MaxOutputTokens: c.config.MaxOutputTokens,
	}

	isGPT5 := gpt5Family.MatchString(req.Model)
	if !isGPT5 {
		temp := req.Temperature
		out.Temperature = &temp
	}

	switch req.ResponseFormat.Type {
	case FormatJSONObject:
		out.Text = &textBlock{Format: textFormat{Type: string(FormatJSONObject)}}
	case FormatJSONSchema:
		if req.ResponseFormat.JSONSchema != nil {
			out.Text = &textBlock{Format: textFormat{
				Type:       string(FormatJSONSchema),
				JSONSchema: req.ResponseFormat.JSONSchema,
			}}
		}
	}

	if c.config.WebSearch && isGPT5 {
		out.Tools = []tool{{Type: "web_search"}}
	}

	return out
}

func extractText(data apiResponse) (string, bool) {
	for _, item := range data.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if (part.Type == "text" || part.Type == "output_text") && part.Text != nil {
				return strings.TrimSpace(*part.Text), true
			}
		}
	}
	return "", false
}
