// Package chat defines the capabilities the service needs from the chat platform.
// Connectivity to the platform itself lives outside this module.
package chat

import (
	"context"
	"time"
)

// MessageType is the declared type of a chat message.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
)

// Message is one entry of a chat transcript.
type Message struct {
	ID        string
	ChatID    string
	Timestamp time.Time
	// Seq is the arrival order within the chat. It breaks ties between
	// messages sharing a timestamp.
	Seq       int64
	Type      MessageType
	Body      string
	Sender    string
	HasMedia  bool
}

// IsImage reports whether the message carries an image.
func (m Message) IsImage() bool {
	return m.Type == TypeImage
}

// Media is a downloaded attachment, base64 encoded.
type Media struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Chat describes a conversation.
type Chat struct {
	ID      string
	Name    string
	IsGroup bool
}

// Platform is the read side of the chat platform.
type Platform interface {
	// GetChat returns the chat metadata, or ErrChatNotFound.
	GetChat(ctx context.Context, chatID string) (*Chat, error)

	// FetchMessages returns up to limit of the most recent messages of the chat.
	// Order is unspecified; callers sort by timestamp, then Seq.
	FetchMessages(ctx context.Context, chatID string, limit int) ([]Message, error)

	// DownloadMedia returns the attachment of msg, or nil when it is no longer available.
	DownloadMedia(ctx context.Context, msg Message) (*Media, error)
}

// Handler receives live inbound messages.
type Handler func(ctx context.Context, msg InboundMessage) error

// Subscriber delivers live inbound messages one at a time until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler) error
}

// InboundMessage is the payload of a live message event.
type InboundMessage struct {
	ChatID    string      `json:"chat_id" validate:"required"`
	MessageID string      `json:"message_id" validate:"required"`
	Timestamp time.Time   `json:"timestamp" validate:"required"`
	Type      MessageType `json:"type" validate:"required,oneof=text image"`
	Body      string      `json:"body"`
	Sender    string      `json:"sender"`
	Media     *Media      `json:"media,omitempty"`
}

// Message converts the event to a transcript message.
func (m InboundMessage) Message() Message {
	return Message{
		ID:        m.MessageID,
		ChatID:    m.ChatID,
		Timestamp: m.Timestamp,
		Type:      m.Type,
		Body:      m.Body,
		Sender:    m.Sender,
		HasMedia:  m.Media != nil,
	}
}
