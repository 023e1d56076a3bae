// Package chat proxies study-assistant conversations to a hosted language
// model. Text goes in, text comes out; prompt content is configuration.
package chat

import (
	"context"
	"errors"
)

// Errors surfaced to callers. Transport and upstream failures wrap
// ErrUnavailable so the API can show one user-visible message.
var (
	ErrUnavailable   = errors.New("chat service unavailable")
	ErrNotConfigured = errors.New("chat service not configured")
	ErrEmptyMessage  = errors.New("message must not be empty")
)

// Roles understood by the upstream API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior message in the conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Client sends a message with prior turns and returns the reply.
type Client interface {
	Send(ctx context.Context, message string, history []Turn) (string, error)
	// Stream delivers the reply in chunks to onChunk. An error returned by
	// onChunk aborts the stream and is returned as is.
	Stream(ctx context.Context, message string, history []Turn, onChunk func(chunk string) error) error
}
