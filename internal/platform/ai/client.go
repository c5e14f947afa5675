// Package ai wraps the external generative-AI oracle: a chat-completion HTTP
// client, the daily quota governor, and the deterministic fallbacks used when
// the oracle is unavailable. Diagnostic assistance is advisory, so callers of
// the high-level Assistant always get usable text back, never an error.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// systemPreamble is sent as the leading system turn on every chat call. The
// oracle assists clinicians; it must never present itself as a diagnosis.
const systemPreamble = "You are a clinical decision-support assistant for hospital staff. " +
	"Provide cautious, evidence-oriented analysis of the information given. " +
	"You are assisting qualified medical professionals; your output is advisory " +
	"and is not a diagnosis. Recommend in-person evaluation whenever symptoms " +
	"could indicate a serious condition."

// Turn is one message in a multi-turn exchange.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single oracle call.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client talks to the chat-completion endpoint of the oracle.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the client-side deadline for a single call.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) { cl.httpClient.Timeout = d }
}

// NewClient creates an oracle client. The default per-call timeout is 50s,
// independent of any retry policy layered on top.
func NewClient(baseURL, apiKey, model string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 50 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type completionRequest struct {
	Model       string  `json:"model"`
	Messages    []Turn  `json:"messages"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Turn `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate performs a single-turn completion: prompt in, text out.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return c.Chat(ctx, []Turn{{Role: "user", Content: prompt}}, opts)
}

// Chat performs a multi-turn completion. The fixed system preamble is always
// prepended; callers supply user/assistant turns only.
func (c *Client) Chat(ctx context.Context, turns []Turn, opts Options) (string, error) {
	if c.apiKey == "" {
		return "", &ConfigError{Reason: "AI API key is not configured. Set AI_API_KEY to enable the assistant"}
	}

	messages := make([]Turn, 0, len(turns)+1)
	messages = append(messages, Turn{Role: "system", Content: systemPreamble})
	messages = append(messages, turns...)

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(resp.StatusCode, respBody)
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &InvalidResponseError{Reason: "response body is not valid JSON"}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &InvalidResponseError{Reason: "response has no completion choices"}
	}

	return parsed.Choices[0].Message.Content, nil
}
