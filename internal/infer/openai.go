// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package infer

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/report-renamer/internal/cover"
	"github.com/pdiddy/report-renamer/pkg/types"
)

// OpenAIBackend calls an OpenAI-compatible chat completion API. Covers
// rendered as images are attached as base64 data URLs; the response is
// constrained to a JSON object.
type OpenAIBackend struct {
	Client *openai.Client
	Model  string
}

// NewOpenAIBackend builds an OpenAIBackend from the inference config.
// A non-empty Endpoint routes to a compatible self-hosted server.
func NewOpenAIBackend(cfg types.InferenceConfig) *OpenAIBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIBackend{
		Client: openai.NewClientWithConfig(clientCfg),
		Model:  model,
	}
}

// Infer sends the cover to the chat completion API and returns the reply.
func (b *OpenAIBackend) Infer(ctx context.Context, c cover.Cover) (string, error) {
	prompt, err := renderPrompt(c.Text)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(c.ImagePNG) > 0 {
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(c.ImagePNG),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		msg.Content = prompt
	}

	resp, err := b.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    b.Model,
		Messages: []openai.ChatCompletionMessage{msg},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
