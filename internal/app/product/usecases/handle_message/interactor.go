package handle_message

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/app/product/usecases/process_chat"
	"github.com/light-bringer/chatsync-service/internal/chat"
)

// TranscriptAppender records inbound messages.
type TranscriptAppender interface {
	Append(ctx context.Context, msg chat.InboundMessage) error
}

// ChatProcessor runs one processing pass over a watched chat.
type ChatProcessor interface {
	Execute(ctx context.Context, chatID string) (*process_chat.Result, error)
}

// Interactor reacts to one live message.
type Interactor struct {
	transcript TranscriptAppender
	processor  ChatProcessor
	logger     *zap.Logger
}

// NewInteractor creates a new handle message interactor.
func NewInteractor(transcript TranscriptAppender, processor ChatProcessor, logger *zap.Logger) *Interactor {
	return &Interactor{
		transcript: transcript,
		processor:  processor,
		logger:     logger.Named("handle_message"),
	}
}

// Execute stores msg and processes its chat when the chat is watched.
// Messages of unwatched chats are stored and otherwise ignored; the result is
// nil for them.
func (i *Interactor) Execute(ctx context.Context, msg chat.InboundMessage) (*process_chat.Result, error) {
	if err := i.transcript.Append(ctx, msg); err != nil {
		return nil, &domain.TranscriptWriteError{ChatID: msg.ChatID, MessageID: msg.MessageID, Err: err}
	}

	// images alone never complete a product
	if msg.Type == chat.TypeImage {
		return nil, nil
	}

	result, err := i.processor.Execute(ctx, msg.ChatID)
	if errors.Is(err, domain.ErrChatNotWatched) {
		i.logger.Debug("message from unwatched chat",
			zap.String("chat_id", msg.ChatID),
			zap.String("message_id", msg.MessageID))
		return nil, nil
	}
	return result, err
}
