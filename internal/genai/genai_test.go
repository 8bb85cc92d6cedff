package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp openai.ChatCompletionResponse
	err  error

	gotReq openai.ChatCompletionRequest
}

func (m *mockChatService) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.gotReq = req
	return m.resp, m.err
}

func TestSuggest_Success(t *testing.T) {
	mockResp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "On my way\n\n  Five minutes out  \nCall me if needed\nextra line"}},
		},
	}
	mock := &mockChatService{resp: mockResp}
	client := &Client{chat: mock}

	out, err := client.Suggest(context.Background(), []string{"where are you?", "running late?"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"On my way", "Five minutes out", "Call me if needed"}
	if len(out) != len(want) {
		t.Fatalf("expected %d suggestions, got %d: %v", len(want), len(out), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("suggestion %d: expected %q, got %q", i, want[i], out[i])
		}
	}

	if len(mock.gotReq.Messages) != 2 {
		t.Fatalf("expected 2 messages in request, got %d", len(mock.gotReq.Messages))
	}
	if !strings.Contains(mock.gotReq.Messages[1].Content, "where are you?") {
		t.Errorf("expected user message to carry recent chat, got %q", mock.gotReq.Messages[1].Content)
	}
}

func TestSuggest_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}}
	_, err := client.Suggest(context.Background(), []string{"hi"})
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestSuggest_NoChoices(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: openai.ChatCompletionResponse{}}}
	_, err := client.Suggest(context.Background(), []string{"hi"})
	if err == nil {
		t.Error("expected error on empty choices, got nil")
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	cli, err := NewClient()
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli == nil {
		t.Error("expected client instance, got nil")
	}
}
