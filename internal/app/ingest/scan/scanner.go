// Package scan walks a chat transcript from the persisted cursor and extracts
// the product announcements posted since.
package scan

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/ingest/parser"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/chat"
)

// CursorPolicy decides what happens when the persisted cursor is not in the
// fetched window.
type CursorPolicy string

const (
	// CursorResync rescans the whole window. Products already stored are
	// overwritten with the same data.
	CursorResync CursorPolicy = "resync"
	// CursorFail aborts the scan with domain.ErrCursorNotFound.
	CursorFail CursorPolicy = "fail"
)

// ParseCursorPolicy validates a configured policy name.
func ParseCursorPolicy(s string) (CursorPolicy, error) {
	switch CursorPolicy(s) {
	case CursorResync, CursorFail:
		return CursorPolicy(s), nil
	}
	return "", fmt.Errorf("unknown cursor policy %q", s)
}

// DefaultWindow is the number of most recent messages fetched per scan.
const DefaultWindow = 1000

// Config tunes a Scanner.
type Config struct {
	Window              int
	Policy              CursorPolicy
	DownloadConcurrency int
}

// Result is the outcome of one scan. NewCursor equals the input cursor when no
// product was found.
type Result struct {
	Batch       []*domain.ProductRecord
	NewCursor   string
	CursorFound bool
	Scanned     int
}

// HasProducts reports whether the scan extracted anything to persist.
func (r *Result) HasProducts() bool {
	return len(r.Batch) > 0
}

// Scanner extracts product records from a chat transcript.
type Scanner struct {
	platform chat.Platform
	images   *ImageCollector
	cfg      Config
	logger   *zap.Logger
}

// NewScanner creates a Scanner reading from platform.
func NewScanner(platform chat.Platform, cfg Config, logger *zap.Logger) *Scanner {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Policy == "" {
		cfg.Policy = CursorResync
	}
	return &Scanner{
		platform: platform,
		images:   NewImageCollector(platform, cfg.DownloadConcurrency),
		cfg:      cfg,
		logger:   logger.Named("scanner"),
	}
}

// Scan fetches the recent transcript of chatID and extracts every product
// message strictly after cursor. An empty cursor scans the whole window.
// Nothing is persisted here; the caller stores the batch and the new cursor
// together.
func (s *Scanner) Scan(ctx context.Context, chatID, cursor string) (*Result, error) {
	// 1. Fetch the window, oldest first
	messages, err := s.platform.FetchMessages(ctx, chatID, s.cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages for chat %s: %w", chatID, err)
	}
	sort.SliceStable(messages, func(a, b int) bool {
		return postedBefore(messages[a], messages[b])
	})

	// 2. Locate the resume point
	start, found := resumeIndex(messages, cursor)
	if !found {
		if s.cfg.Policy == CursorFail {
			return nil, fmt.Errorf("chat %s cursor %s: %w", chatID, cursor, domain.ErrCursorNotFound)
		}
		s.logger.Warn("cursor not in fetched window, rescanning window",
			zap.String("chat_id", chatID),
			zap.String("cursor", cursor),
			zap.Int("window", len(messages)))
		start = 0
	}

	// 3. Extract products in order
	result := &Result{NewCursor: cursor, CursorFound: found}
	for i := start; i < len(messages); i++ {
		msg := messages[i]
		result.Scanned++

		c := parser.Classify(msg)
		if c.Kind != parser.KindProduct {
			continue
		}

		images, err := s.images.Collect(ctx, messages, i)
		if err != nil {
			return nil, fmt.Errorf("failed to collect images for %s: %w", c.Record.SKU, err)
		}

		record := c.Record
		record.Images = images
		record.SourceChatID = chatID
		record.SourceMessageID = msg.ID

		result.Batch = append(result.Batch, record)
		result.NewCursor = msg.ID

		s.logger.Debug("extracted product",
			zap.String("chat_id", chatID),
			zap.String("message_id", msg.ID),
			zap.String("sku", record.SKU),
			zap.Int("images", len(images)),
			zap.Int("variants", len(record.Variants)))
	}

	return result, nil
}

// resumeIndex returns the index of the first message after cursor.
func resumeIndex(messages []chat.Message, cursor string) (int, bool) {
	if cursor == "" {
		return 0, true
	}
	for i, msg := range messages {
		if msg.ID == cursor {
			return i + 1, true
		}
	}
	return 0, false
}

// postedBefore orders messages by timestamp. Timestamps have second
// resolution, so equal ones fall back to arrival order.
func postedBefore(a, b chat.Message) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Seq < b.Seq
}
