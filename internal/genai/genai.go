// Package genai provides reply suggestions using the OpenAI API.

package genai

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// chatService defines minimal interface for chat completions.
type chatService interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const suggestSystemPrompt = "You suggest short replies for a buyer/seller negotiation chat. " +
	"Given the recent messages, propose up to three brief candidate replies, one per line, no numbering."

// Client wraps the OpenAI ChatCompletion service for generating reply
// suggestions.
type Client struct {
	chat chatService
}

// NewClient initializes a new GenAI client using the OPENAI_API_KEY environment variable.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cli := openai.NewClient(apiKey)
	return &Client{chat: cli}, nil
}

// Suggest generates up to three candidate replies from the recent messages.
func (c *Client) Suggest(ctx context.Context, recent []string) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(recent, "\n")},
		},
	}
	resp, err := c.chat.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	lines := strings.Split(resp.Choices[0].Message.Content, "\n")
	out := make([]string, 0, 3)
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
		if len(out) == 3 {
			break
		}
	}
	return out, nil
}
