// Package llm wraps the OpenAI API for chat completion and voice
// transcription.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
)

// Completion parameters used for every request.
const (
	temperature = 0.8
	maxTokens   = 1000
)

// fallbackTranscriptionModel is used when the configured model id is
// rejected by the API.
const fallbackTranscriptionModel = openai.Whisper1

// api is the slice of the OpenAI client the Client needs.
// *openai.Client satisfies it.
type api interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Client talks to the OpenAI API.
type Client struct {
	api                api
	log                *zap.Logger
	model              string
	transcriptionModel string
}

// New creates a Client for the given API key and model ids.
func New(apiKey, model, transcriptionModel string, log *zap.Logger) *Client {
	return &Client{
		api:                openai.NewClient(apiKey),
		log:                log,
		model:              model,
		transcriptionModel: transcriptionModel,
	}
}

// Complete sends the instructions plus dialog history to the chat
// completion endpoint and returns the generated reply.
func (c *Client) Complete(ctx context.Context, instructions string, history []domain.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: instructions,
	})
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe converts a voice message to text. When the configured
// transcription model id is rejected, it retries once with the fallback.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	c.log.Info("transcribing voice message", zap.Int("bytes", len(audio)))

	resp, err := c.transcribeWith(ctx, c.transcriptionModel, audio, filename)
	if err != nil && strings.Contains(err.Error(), "invalid model") {
		c.log.Warn("transcription model unavailable, falling back",
			zap.String("model", c.transcriptionModel),
			zap.String("fallback", fallbackTranscriptionModel))
		resp, err = c.transcribeWith(ctx, fallbackTranscriptionModel, audio, filename)
	}
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return resp, nil
}

func (c *Client) transcribeWith(ctx context.Context, model string, audio []byte, filename string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
		Language: "ru",
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
