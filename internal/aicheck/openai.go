package aicheck

import (
	"context"
	"net/http"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Defaults for the OpenAI-backed checker.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second
)

// OpenAIChecker validates diagram text with a hosted model through the
// official SDK. The API key comes from OPENAI_API_KEY unless supplied
// via WithAPIKey.
type OpenAIChecker struct {
	model   string
	timeout time.Duration
	opts    []option.RequestOption
}

var _ Checker = (*OpenAIChecker)(nil)

// Option configures an OpenAIChecker.
type Option func(*OpenAIChecker)

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(c *OpenAIChecker) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout bounds each check call.
func WithTimeout(d time.Duration) Option {
	return func(c *OpenAIChecker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAPIKey supplies the credential explicitly.
func WithAPIKey(key string) Option {
	return func(c *OpenAIChecker) {
		c.opts = append(c.opts, option.WithAPIKey(key))
	}
}

// WithBaseURL points the SDK at a different endpoint.
func WithBaseURL(url string) Option {
	return func(c *OpenAIChecker) {
		if url != "" {
			c.opts = append(c.opts, option.WithBaseURL(url))
		}
	}
}

// WithHTTPClient substitutes the transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *OpenAIChecker) {
		c.opts = append(c.opts, option.WithHTTPClient(client))
	}
}

// NewOpenAIChecker builds a checker with the given options applied over
// the defaults. No automatic retries: a failed call is Indeterminate
// and the caller falls back to the renderer verdict.
func NewOpenAIChecker(opts ...Option) *OpenAIChecker {
	c := &OpenAIChecker{
		model:   DefaultModel,
		timeout: DefaultTimeout,
		opts:    []option.RequestOption{option.WithMaxRetries(0)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check implements Checker. Transport errors, timeouts, empty choices,
// and contract-breaking responses all come back as Indeterminate.
func (c *OpenAIChecker) Check(ctx context.Context, text string) Verdict {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client := openai.NewClient(c.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(text)),
		},
	})
	if err != nil {
		return Indeterminate()
	}
	if len(resp.Choices) == 0 {
		return Indeterminate()
	}
	return parseVerdict(resp.Choices[0].Message.Content)
}
