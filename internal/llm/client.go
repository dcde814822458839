package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to any API implementing the OpenAI chat-completions wire
// format (OpenAI, OpenRouter, vLLM, Ollama, llama.cpp, ...). Non-streaming
// only; the chatbot relays one full response per request.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

func NewClient(endpoint, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
	}
}

// Complete sends system + user message and returns the assistant text.
func (c *Client) Complete(ctx context.Context, system, userMessage string) (string, error) {
	wireRequest := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: userMessage},
		},
		MaxTokens: 1024,
	}

	payload, err := json.Marshal(wireRequest)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: upstream status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var wireResponse chatResponse
	if err := json.Unmarshal(body, &wireResponse); err != nil {
		return "", fmt.Errorf("llm: parsing response: %w", err)
	}
	if wireResponse.Error != nil {
		return "", fmt.Errorf("llm: upstream error: %s", wireResponse.Error.Message)
	}
	if len(wireResponse.Choices) == 0 {
		return "", fmt.Errorf("llm: empty choices")
	}
	return wireResponse.Choices[0].Message.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// --- wire types (OpenAI chat-completions JSON) ---

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error,omitempty"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
