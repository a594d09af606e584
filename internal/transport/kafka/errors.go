package kafka

import (
	"context"
	"errors"

	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
)

// getCode classifies a handling error for logs and metrics.
func getCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	if isRetryable(err) {
		return codes.Unavailable
	}

	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	var missingImages *domain.MissingImagesError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, domain.ErrChatNotWatched):
		return codes.NotFound
	case errors.Is(err, domain.ErrCursorConflict):
		return codes.Aborted
	case errors.Is(err, domain.ErrCursorNotFound):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrEmptySKU), errors.As(err, &missingImages):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

func getLogLevel(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK:
		return zapcore.InfoLevel
	case codes.Canceled,
		codes.InvalidArgument,
		codes.NotFound,
		codes.AlreadyExists,
		codes.PermissionDenied,
		codes.Unauthenticated,
		codes.ResourceExhausted,
		codes.FailedPrecondition,
		codes.Aborted,
		codes.Unimplemented,
		codes.OutOfRange:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// isRetryable reports whether the message was never stored. Such a message
// must be handled again before its offset is committed.
func isRetryable(err error) bool {
	var writeErr *domain.TranscriptWriteError
	return errors.As(err, &writeErr)
}
