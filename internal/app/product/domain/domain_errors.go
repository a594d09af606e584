package domain

import (
	"errors"
	"fmt"
)

// Domain errors as sentinel values
var (
	// Product errors
	ErrProductNotFound = errors.New("product not found")
	ErrEmptySKU        = errors.New("product sku cannot be empty")
	ErrMissingImages   = errors.New("product has no images")

	// Chat errors
	ErrChatNotWatched = errors.New("chat is not watched")
	ErrCursorNotFound = errors.New("cursor message not found in fetched window")
	ErrCursorConflict = errors.New("chat cursor was advanced concurrently")
	ErrNoBatch        = errors.New("batch has no products")

	// Shop errors
	ErrShopNotFound    = errors.New("shop not found")
	ErrEmptyShopName   = errors.New("shop name cannot be empty")
	ErrEmptyCredential = errors.New("shop api key and access token are required")

	// Job errors
	ErrJobNotFound      = errors.New("sync job not found")
	ErrJobNotActive     = errors.New("sync job is not active")
	ErrUnknownJobStatus = errors.New("unknown sync job status")
)

// MissingImagesError is returned when a product without images is submitted for
// reconciliation. No remote call is made for that product.
type MissingImagesError struct {
	SKU string
}

func (e *MissingImagesError) Error() string {
	return fmt.Sprintf("product %q has no images", e.SKU)
}

// Is lets callers match with errors.Is(err, ErrMissingImages).
func (e *MissingImagesError) Is(target error) bool {
	return target == ErrMissingImages
}

// CatalogServiceError wraps a failure returned by the remote catalog.
type CatalogServiceError struct {
	Op  string
	SKU string
	Err error
}

func (e *CatalogServiceError) Error() string {
	if e.SKU == "" {
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("catalog %s for %q: %v", e.Op, e.SKU, e.Err)
}

func (e *CatalogServiceError) Unwrap() error {
	return e.Err
}

// TranscriptWriteError reports an inbound message that could not be stored.
// The message is not in the transcript, so no later scan can see it.
type TranscriptWriteError struct {
	ChatID    string
	MessageID string
	Err       error
}

func (e *TranscriptWriteError) Error() string {
	return fmt.Sprintf("store message %s of chat %s: %v", e.MessageID, e.ChatID, e.Err)
}

func (e *TranscriptWriteError) Unwrap() error {
	return e.Err
}

// TransactionError reports a failed persistence batch. Nothing from the batch,
// including the cursor advance, was committed.
type TransactionError struct {
	ChatID string
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("persist batch for chat %s: %v", e.ChatID, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// JobError reports a sync job that ended in the failed state.
type JobError struct {
	JobID string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("sync job %s failed: %v", e.JobID, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
