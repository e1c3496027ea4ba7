// Package ai is the detective assistant. It talks to an OpenAI-compatible chat completion proxy.
package ai

import (
	"context"
	"io"
	"log/slog"

	"github.com/myrjola/casemate/internal/errors"
	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the model the proxy is asked for unless configured otherwise.
	DefaultModel = "gpt-4o"
	// MaxTokens caps every completion.
	MaxTokens = 4096

	analysisTemperature   = 0.8
	accusationTemperature = 0.7
)

// Config points the client at a proxy.
type Config struct {
	// BaseURL is the proxy's OpenAI-compatible root, e.g. https://ai.example.com/proxy/v1.
	BaseURL string
	APIKey  string
	Model   string
}

type Client struct {
	client *openai.Client
	model  string
	// configured is false without an API key. Every call then answers with a canned reply.
	configured bool
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		configured: cfg.APIKey != "",
		logger:     logger.With(slog.String("source", "ai")),
	}
}

// Configured reports whether an API key was provided.
func (c *Client) Configured() bool {
	return c.configured
}

// errEmptyCompletion is returned when the proxy answers without choices or content.
var errEmptyCompletion = errors.NewSentinel("empty completion")

func (c *Client) syncCompletion(
	ctx context.Context,
	messages []openai.ChatCompletionMessage,
	temperature float32,
	jsonMode bool,
) (string, error) {
	request := openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:       c.model,
		MaxTokens:   MaxTokens,
		Messages:    messages,
		Temperature: temperature,
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	completion, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion", slog.String("model", c.model))
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", errors.Wrap(errEmptyCompletion, "read chat completion", slog.String("model", c.model))
	}
	return completion.Choices[0].Message.Content, nil
}

// streamCompletion calls onDelta with every content fragment until the stream ends.
func (c *Client) streamCompletion(
	ctx context.Context,
	messages []openai.ChatCompletionMessage,
	temperature float32,
	onDelta func(string) error,
) error {
	stream, err := c.client.CreateChatCompletionStream(ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:       c.model,
			MaxTokens:   MaxTokens,
			Messages:    messages,
			Temperature: temperature,
			Stream:      true,
		},
	)
	if err != nil {
		return errors.Wrap(err, "create chat completion stream", slog.String("model", c.model))
	}
	defer stream.Close()
	for {
		response, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			return nil
		}
		if recvErr != nil {
			return errors.Wrap(recvErr, "receive chat completion delta")
		}
		if len(response.Choices) == 0 || response.Choices[0].Delta.Content == "" {
			continue
		}
		if err = onDelta(response.Choices[0].Delta.Content); err != nil {
			return errors.Wrap(err, "deliver chat completion delta")
		}
	}
}
