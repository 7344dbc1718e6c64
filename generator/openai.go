package generator

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/ariclear/backend/report"
)

const DefaultModel = "gpt-4.1-mini"

// OpenAIOptions configures the chat completion client.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAI generates reports through the chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(opts OpenAIOptions) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (g *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	chat := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
	}
	// go-openai omits a zero temperature, which the API reads as its default.
	if chat.Temperature == 0 {
		chat.Temperature = math.SmallestNonzeroFloat32
	}
	if req.JSON {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Code == "rate_limit_exceeded" {
			return report.RateLimited(err)
		}
		return report.UpstreamFailure(apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return report.RateLimited(err)
		}
		return report.UpstreamFailure(reqErr.HTTPStatusCode, err)
	}

	return report.UpstreamFailure(0, err)
}
