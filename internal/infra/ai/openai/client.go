package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/lawagent/internal/domain/ai"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/infra/ai/prompt"
)

const (
	maxTokens = 2048

	DefaultModel        = "gpt-4o"
	FollowupTemperature = 0.45
	AnalysisTemperature = 0.3
	FollowupTimeout     = 45 * time.Second
)

// Provider failure messages shown to users.
const (
	MsgAuthentication = "Authentication with the AI provider failed. Check your API key."
	MsgRateLimit      = "Rate limit reached. Please wait a moment and try again."
	MsgNetwork        = "Network error: unable to reach the AI service."
	MsgServerError    = "AI provider encountered a server error. Try again later."
	MsgRequestFailed  = "AI request failed. Verify the model and inputs."
	MsgBadRequest     = "The follow-up request was invalid or too large."
	MsgUnavailable    = "The AI service is temporarily unavailable. Try again later."
	MsgEmptyAnswer    = "The AI did not return a follow-up answer."
)

type Client struct {
	*openai.Client
	Model string
}

// Config for NewClient. BaseURL and HTTPClient are optional.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(cfg Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{Client: openai.NewClientWithConfig(clientConfig), Model: model}
}

// SpotIssues asks the model for a JSON analysis of req.Document.
func (c *Client) SpotIssues(ctx context.Context, req ai.SpotRequest) (analysis.Result, error) {
	chat := c.request(AnalysisTemperature, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(req)},
	})
	chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}

	content, err := c.complete(ctx, chat)
	if err != nil {
		return analysis.Result{}, err
	}
	var result analysis.Result
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil {
		return analysis.Result{}, &ai.ProviderError{Message: MsgRequestFailed, Err: fmt.Errorf("decode analysis: %w", err)}
	}
	return result, nil
}

// AnswerFollowup answers one follow-up question grounded on req.Context.
func (c *Client) AnswerFollowup(ctx context.Context, req analysis.FollowupRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, FollowupTimeout)
	defer cancel()

	msgs := prompt.FollowupMessages(req)
	chatMsgs := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	content, err := c.complete(ctx, c.request(FollowupTemperature, chatMsgs))
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(content)
	if answer == "" {
		return "", &ai.ProviderError{Message: MsgEmptyAnswer}
	}
	return answer, nil
}

func (c *Client) request(temperature float32, msgs []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{Model: c.Model, Messages: msgs}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
		req.Temperature = temperature
	}
	return req
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ai.ProviderError{Message: MsgEmptyAnswer, Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// classify translates a go-openai error into a ProviderError. Rate limits
// also match ai.ErrQuotaExceeded.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ai.ProviderError{Message: MsgAuthentication, Err: err}
	case status == http.StatusTooManyRequests:
		return &ai.ProviderError{Message: MsgRateLimit, Err: fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, err)}
	case status == http.StatusBadRequest || status == http.StatusRequestEntityTooLarge:
		return &ai.ProviderError{Message: MsgBadRequest, Err: err}
	case status >= 500 && status < 600:
		return &ai.ProviderError{Message: MsgServerError, Err: err}
	case status != 0:
		return &ai.ProviderError{Message: MsgRequestFailed, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &ai.ProviderError{Message: MsgNetwork, Err: err}
	}
	return &ai.ProviderError{Message: MsgUnavailable, Err: err}
}

// stripCodeFence removes a ```json fence some models add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
