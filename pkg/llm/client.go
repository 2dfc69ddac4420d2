// Package llm wraps the Anthropic API behind the channel-pair streaming
// shape tarsy's gRPC LLM sidecar client exposed (GenerateStream
// returning a chunk channel and an error channel), so the rest of the
// module's controllers stay structurally unchanged even though the
// transport is now a direct HTTPS call instead of gRPC.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	ierrors "github.com/aldergate-legal/core/internal/errors"
)

// Role identifies the speaker of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history sent to the model. The
// system prompt is passed separately to GenerateStream/Generate rather
// than as a Message, following the Anthropic Messages API shape.
type Message struct {
	Role    Role
	Content string
}

// Chunk is one piece of streamed model output.
type Chunk struct {
	Text       string
	IsComplete bool
}

// Client wraps the Anthropic Messages API.
type Client struct {
	api         anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
	logger      *slog.Logger
}

// Config configures a Client.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// NewClient constructs a Client from Config, defaulting Model and
// MaxTokens the way tarsy's GEMINI_* environment defaults worked,
// adapted to Anthropic's model naming. Temperature is stored as given;
// it is not sent with requests.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Client{
		api:         anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       anthropic.Model(model),
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		logger:      slog.With("component", "llm.client"),
	}, nil
}

func toParams(systemPrompt string, messages []Message) anthropic.MessageNewParams {
	msgs := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	return anthropic.MessageNewParams{
		Messages: msgs,
		System:   []anthropic.TextBlockParam{{Text: systemPrompt}},
	}
}

// GenerateStream streams a completion for messages under systemPrompt,
// returning a Chunk channel and an error channel, mirroring tarsy's
// GenerateStream(ctx, session) (<-chan StreamChunk, <-chan error)
// shape. The chunk channel is closed when the stream ends; the caller
// should select on both channels until both are closed/have fired.
func (c *Client) GenerateStream(ctx context.Context, systemPrompt string, messages []Message) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		params := toParams(systemPrompt, messages)
		params.Model = c.model
		params.MaxTokens = c.maxTokens

		stream := c.api.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok {
				continue
			}
			select {
			case chunks <- Chunk{Text: text.Text}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := stream.Err(); err != nil {
			errs <- ierrors.UpstreamTransient("anthropic api", err)
			return
		}
		select {
		case chunks <- Chunk{IsComplete: true}:
		case <-ctx.Done():
			errs <- ctx.Err()
		}
	}()

	return chunks, errs
}

// Generate performs a single-shot, non-streaming completion and
// returns the accumulated text. Used for JSON-constrained calls
// (router classification, criterion evaluation, type identification)
// where the caller parses the returned text as JSON.
func (c *Client) Generate(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	params := toParams(systemPrompt, messages)
	params.Model = c.model
	params.MaxTokens = c.maxTokens

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", ierrors.UpstreamTransient("anthropic api", err)
	}

	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	return text, nil
}
