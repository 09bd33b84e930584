package integrations

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/brewandbeans/kaizen/internal/config"
)

// OpenAIURL is the AI provider endpoint
const OpenAIURL = "https://api.openai.com"

// Chat roles accepted from the browser
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var (
	// ErrEmptyConversation is returned when no message was supplied
	ErrEmptyConversation = errors.New("conversation has no messages")

	// ErrStreamStalled is returned when the provider sends nothing for a
	// whole client timeout, before the headers or between chunks
	ErrStreamStalled = errors.New("chat stream stalled")
)

// ValidateMessages rejects unknown roles and empty conversations
func ValidateMessages(msgs []ChatMessage) error {
	if len(msgs) == 0 {
		return ErrEmptyConversation
	}
	for i, m := range msgs {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	return nil
}

// OpenAIClient streams chat completions
type OpenAIClient struct {
	*client
	model string
}

// NewOpenAI creates a chat client for cfg.Model
func NewOpenAI(cfg *config.OpenAIConfig, opts ...Option) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIClient{
		client: newClient("openai", OpenAIURL, bearer(cfg.APIKey), opts),
		model:  model,
	}
}

// Model returns the completion model in use
func (c *OpenAIClient) Model() string {
	return c.model
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Complete returns the full assistant reply
func (c *OpenAIClient) Complete(ctx context.Context, msgs []ChatMessage) (string, error) {
	if err := ValidateMessages(msgs); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/chat/completions", chatRequest{Model: c.model, Messages: msgs})
	if err != nil {
		return "", err
	}
	resp, err := c.send(req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat completion: %w", err)
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", errors.New("chat completion has no content")
	}
	return content.String(), nil
}

// Stream performs a streaming completion, calling onDelta for every content
// chunk as it arrives. It returns the concatenated reply. An error from
// onDelta stops the stream. The stream may run as long as ctx allows; it is
// abandoned with ErrStreamStalled only when a gap between chunks exceeds the
// client timeout.
func (c *OpenAIClient) Stream(ctx context.Context, msgs []ChatMessage, onDelta func(string) error) (string, error) {
	if err := ValidateMessages(msgs); err != nil {
		return "", err
	}
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	idle := time.AfterFunc(c.timeout, func() { cancel(ErrStreamStalled) })
	defer idle.Stop()

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/chat/completions", chatRequest{Model: c.model, Messages: msgs, Stream: true})
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.send(req)
	if err != nil {
		return "", fmt.Errorf("chat stream failed: %w", stalled(ctx, err))
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		idle.Reset(c.timeout)
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			break
		}
		if msg := gjson.Get(data, "error.message"); msg.Exists() {
			return full.String(), fmt.Errorf("chat stream error: %s", msg.String())
		}
		delta := gjson.Get(data, "choices.0.delta.content").String()
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return full.String(), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("failed to read chat stream: %w", stalled(ctx, err))
	}
	return full.String(), nil
}

// stalled swaps the cancellation error for ErrStreamStalled when the idle
// timer fired
func stalled(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), ErrStreamStalled) {
		return ErrStreamStalled
	}
	return err
}
