// Package ai asks a multimodal model, through an OpenAI-compatible gateway,
// whether a video shows waste being disposed of correctly.
//
// The model is forced to answer with a single call to the validate_disposal
// tool. Its arguments are decoded strictly; anything that does not match the
// verdict schema is rejected rather than repaired.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/metrics"
	"github.com/ecohunt/serverless-backend/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// ToolName is the function the model must call.
const ToolName = "validate_disposal"

const systemPrompt = "You are an AI that validates waste disposal. Analyze if waste is being disposed correctly. " +
	"Return JSON with: {valid: boolean, wasteType: string, points: number (0-100), feedback: string}"

var (
	// ErrUpstream covers transport failures and non-success statuses.
	ErrUpstream = errors.New("ai: gateway call failed")
	// ErrNoToolCall means the response carried no validate_disposal call.
	ErrNoToolCall = errors.New("ai: no tool call in response")
	// ErrMalformedVerdict means the tool arguments did not match the schema.
	ErrMalformedVerdict = errors.New("ai: malformed verdict")
)

// Completer is the part of the go-openai client used here.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client validates disposal videos.
type Client struct {
	api     Completer
	model   string
	timeout time.Duration
	log     *logrus.Logger
}

// NewClient builds a Client talking to the gateway at baseURL.
func NewClient(apiKey, baseURL, model string, timeout time.Duration, log *logrus.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return New(openai.NewClientWithConfig(cfg), model, timeout, log)
}

// New wraps an existing Completer. A zero timeout leaves the call bounded
// only by ctx.
func New(api Completer, model string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{api: api, model: model, timeout: timeout, log: log}
}

// Request builds the chat completion request for one video.
func (c *Client) Request(videoURL string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Analyze this waste disposal video: %s. Did they dispose waste correctly?", videoURL),
			},
		},
		Tools: []openai.Tool{Tool()},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: ToolName},
		},
	}
}

// Validate asks the model for a verdict on the video at videoURL.
func (c *Client) Validate(ctx context.Context, videoURL string) (models.Verdict, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, c.Request(videoURL))
	if err != nil {
		metrics.RecordAICall("error", time.Since(start))
		c.logUpstream(err)
		return models.Verdict{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	v, err := verdictFrom(resp)
	if err != nil {
		metrics.RecordAICall("malformed", time.Since(start))
		c.log.WithError(err).Error("ai: unusable response")
		return models.Verdict{}, err
	}
	metrics.RecordAICall("ok", time.Since(start))
	return v, nil
}

func (c *Client) logUpstream(err error) {
	entry := c.log.WithError(err)
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		entry = entry.WithField("status", apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		entry = entry.WithField("status", reqErr.HTTPStatusCode)
	}
	entry.Error("ai gateway error")
}

func verdictFrom(resp openai.ChatCompletionResponse) (models.Verdict, error) {
	if len(resp.Choices) == 0 {
		return models.Verdict{}, ErrNoToolCall
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return models.Verdict{}, ErrNoToolCall
	}
	call := calls[0]
	if call.Function.Name != ToolName {
		return models.Verdict{}, fmt.Errorf("%w: unexpected tool %q", ErrNoToolCall, call.Function.Name)
	}
	return ParseVerdict(call.Function.Arguments)
}
