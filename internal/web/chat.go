package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/brewandbeans/kaizen/internal/gate"
	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
)

const (
	chatPath      = "/api/chat"
	msgChatFailed = "Failed to get a reply. Please try again."
)

var (
	errNoChatModel = errors.New("chat model is not configured")

	markdown   = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlPolicy = bluemonday.UGCPolicy()
)

type chatRequest struct {
	Messages []integrations.ChatMessage `json:"messages"`
	// Stream defaults to true
	Stream *bool `json:"stream,omitempty"`
}

type chatReply struct {
	Content string `json:"content"`
	HTML    string `json:"html"`
}

// renderMarkdown turns a model reply into sanitized HTML
func renderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}

func newChatReply(content string) chatReply {
	html, err := renderMarkdown(content)
	if err != nil {
		html = htmlPolicy.Sanitize(content)
	}
	return chatReply{Content: content, HTML: html}
}

// handleChat relays a chat completion. By default the reply is streamed as
// server-sent events: "delta" per chunk, then "done" with the rendered reply,
// or "error".
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.chatCORS(w.Header())

	if d := gate.Chat.Check(s.cfg); !d.Allowed() {
		writePlaceholder(w, d)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := integrations.ValidateMessages(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Stream != nil && !*req.Stream {
		s.completeChat(w, r, req.Messages)
		return
	}
	s.streamChat(w, r, req.Messages)
}

func (s *Server) completeChat(w http.ResponseWriter, r *http.Request, msgs []integrations.ChatMessage) {
	out := gate.Run(r.Context(), gate.Chat, s.cfg, func(ctx context.Context) (string, error) {
		if s.deps.Chat == nil {
			return "", errNoChatModel
		}
		ctx, end := s.traceIntegration(ctx, "openai", "complete")
		reply, err := s.deps.Chat.Complete(ctx, msgs)
		end(err)
		return reply, err
	}, s.gateOptions()...)

	switch out.State {
	case gate.Ready:
		writeSuccess(w, newChatReply(out.Value))
	case gate.Error:
		writeIntegrationError(w, r, out.Err, msgChatFailed)
	default:
		writePlaceholder(w, out.Decision)
	}
}

func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, msgs []integrations.ChatMessage) {
	logger := reqcontext.GetLogger(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		logger.Warn("ResponseWriter does not support flushing, chat will not stream")
	}
	send := func(event string, data any) error {
		return writeSSEEvent(w, flusher, event, data)
	}

	out := gate.Run(r.Context(), gate.Chat, s.cfg, func(ctx context.Context) (string, error) {
		if s.deps.Chat == nil {
			return "", errNoChatModel
		}
		ctx, end := s.traceIntegration(ctx, "openai", "stream")
		reply, err := s.deps.Chat.Stream(ctx, msgs, func(delta string) error {
			return send("delta", map[string]string{"content": delta})
		})
		end(err)
		return reply, err
	}, s.gateOptions()...)

	var err error
	switch out.State {
	case gate.Ready:
		err = send("done", newChatReply(out.Value))
	case gate.Error:
		logger.Warnw("Chat stream failed", "error", out.Err)
		err = send("error", map[string]string{"error": msgChatFailed})
	default:
		err = send("error", map[string]string{"error": out.Placeholder.Message})
	}
	if err != nil {
		logger.Debugw("Failed to write chat event", "error", err)
	}
}

// writeSSEEvent writes one event and flushes it
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}
