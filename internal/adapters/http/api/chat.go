package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/hangman/internal/adapters/chat"
	"github.com/okian/hangman/pkg/logger"
)

// Websocket tuning shared by the chat and presence streams.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The play page and the API share an origin in production; local
	// tooling connects from elsewhere.
	CheckOrigin: func(*http.Request) bool { return true },
}

type chatRequest struct {
	Message string      `json:"message"`
	History []chat.Turn `json:"history,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Frame types sent on /chat/ws.
const (
	frameChunk = "chunk"
	frameDone  = "done"
	frameError = "error"
)

type chatFrame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ChatHandler serves the study assistant.
type ChatHandler struct {
	deps    ChatDependencies
	timeout time.Duration
	logger  logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(deps ChatDependencies, timeout time.Duration, log logger.Logger) *ChatHandler {
	return &ChatHandler{deps: deps, timeout: timeout, logger: log}
}

// HandleChat handles POST /chat.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	const op = "api.chat"
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, h.logger, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reply, err := h.deps.Chat(ctx, req.Message, req.History)
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// HandleStream handles GET /chat/ws. Each request frame is answered by
// chunk frames followed by one done or error frame.
func (h *ChatHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "chat ws upgrade failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMessageSize)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug(r.Context(), "chat ws read failed", logger.Error(err))
			}
			return
		}
		if err := h.stream(r.Context(), conn, req); err != nil {
			h.logger.Debug(r.Context(), "chat ws write failed", logger.Error(err))
			return
		}
	}
}

// stream answers one request. It returns only write errors; chat failures
// become error frames.
func (h *ChatHandler) stream(parent context.Context, conn *websocket.Conn, req chatRequest) error {
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	var writeErr error
	err := h.deps.ChatStream(ctx, req.Message, req.History, func(chunk string) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		writeErr = conn.WriteJSON(chatFrame{Type: frameChunk, Text: chunk})
		return writeErr
	})
	if writeErr != nil {
		return writeErr
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		status, code := classify(err)
		return conn.WriteJSON(chatFrame{Type: frameError, Code: code, Message: publicMessage(status, code, err)})
	}
	return conn.WriteJSON(chatFrame{Type: frameDone})
}
