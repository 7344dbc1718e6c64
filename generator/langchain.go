package generator

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/ariclear/backend/report"
)

// LangChain generates reports through any langchaingo model, which lets the
// service run against OpenAI-compatible gateways and self-hosted models.
type LangChain struct {
	model llms.Model
}

func NewLangChain(model llms.Model) *LangChain {
	return &LangChain{model: model}
}

// NewLangChainOpenAI builds a langchaingo OpenAI-compatible model.
func NewLangChainOpenAI(opts OpenAIOptions) (*LangChain, error) {
	lcOpts := []lcopenai.Option{}
	if opts.APIKey != "" {
		lcOpts = append(lcOpts, lcopenai.WithToken(opts.APIKey))
	}
	if opts.BaseURL != "" {
		lcOpts = append(lcOpts, lcopenai.WithBaseURL(opts.BaseURL))
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	lcOpts = append(lcOpts, lcopenai.WithModel(model))
	if opts.HTTPClient != nil {
		lcOpts = append(lcOpts, lcopenai.WithHTTPClient(opts.HTTPClient))
	}

	llm, err := lcopenai.New(lcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create langchain model: %w", err)
	}
	return NewLangChain(llm), nil
}

func (g *LangChain) Generate(ctx context.Context, req Request) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}
	opts := []llms.CallOption{llms.WithTemperature(float64(req.Temperature))}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := g.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", classifyLangChainError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

var statusPattern = regexp.MustCompile(`(?:status(?: code)?:?\s*)(\d{3})\b`)

// langchaingo providers flatten HTTP failures into strings.
func classifyLangChainError(err error) error {
	msg := strings.ToLower(err.Error())
	status := 0
	if m := statusPattern.FindStringSubmatch(msg); m != nil {
		status, _ = strconv.Atoi(m[1])
	}
	if status == http.StatusTooManyRequests || strings.Contains(msg, "rate limit") {
		return report.RateLimited(err)
	}
	return report.UpstreamFailure(status, err)
}
