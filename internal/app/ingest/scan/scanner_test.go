package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/chat/chattest"
)

func newScanner(p *chattest.Platform, policy CursorPolicy) *Scanner {
	return NewScanner(p, Config{Window: 100, Policy: policy, DownloadConcurrency: 2}, zap.NewNop())
}

func TestScanner_ImageAssociation(t *testing.T) {
	p := chattest.NewPlatform()
	tr := p.Chat("chat-1")
	tr.Text("buenos días")
	tr.Image("img-a")
	tr.Image("img-b")
	productID := tr.Text("NOMBRE: Camisa\nSKU: S-1\nPRECIO: $10,00 USD")

	result, err := newScanner(p, CursorResync).Scan(context.Background(), "chat-1", "")
	require.NoError(t, err)

	require.Len(t, result.Batch, 1)
	record := result.Batch[0]
	assert.Equal(t, "S-1", record.SKU)
	assert.Equal(t, "chat-1", record.SourceChatID)
	assert.Equal(t, productID, record.SourceMessageID)

	// closest preceding image first
	require.Len(t, record.Images, 2)
	assert.Equal(t, "img-b", record.Images[0].Data)
	assert.Equal(t, "img-a", record.Images[1].Data)
	assert.Equal(t, "image/jpeg", record.Images[0].MimeType)

	assert.Equal(t, productID, result.NewCursor)
	assert.True(t, result.CursorFound)
}

func TestScanner_ImagesStopAtGap(t *testing.T) {
	p := chattest.NewPlatform()
	tr := p.Chat("chat-1")
	tr.Image("old")
	tr.Text("texto intermedio")
	tr.Image("new")
	tr.ExpiredImage()
	tr.Text("SKU: S-2")

	result, err := newScanner(p, CursorResync).Scan(context.Background(), "chat-1", "")
	require.NoError(t, err)
	require.Len(t, result.Batch, 1)
	require.Len(t, result.Batch[0].Images, 1)
	assert.Equal(t, "new", result.Batch[0].Images[0].Data)
}

func TestScanner_Resumption(t *testing.T) {
	p := chattest.NewPlatform()
	tr := p.Chat("chat-1")
	first := tr.Text("SKU: A-1")
	tr.Text("charla")
	second := tr.Text("SKU: A-2")

	s := newScanner(p, CursorResync)

	t.Run("cursor message itself is not reprocessed", func(t *testing.T) {
		result, err := s.Scan(context.Background(), "chat-1", first)
		require.NoError(t, err)
		require.Len(t, result.Batch, 1)
		assert.Equal(t, "A-2", result.Batch[0].SKU)
		assert.Equal(t, second, result.NewCursor)
		assert.Equal(t, 2, result.Scanned)
	})

	t.Run("unchanged cursor yields nothing", func(t *testing.T) {
		result, err := s.Scan(context.Background(), "chat-1", second)
		require.NoError(t, err)
		assert.False(t, result.HasProducts())
		assert.Equal(t, second, result.NewCursor)
		assert.Zero(t, result.Scanned)
	})
}

func TestScanner_SameSecondMessages(t *testing.T) {
	t.Run("images posted in the same second stay before the product", func(t *testing.T) {
		p := chattest.NewPlatform()
		tr := p.Chat("chat-1").Freeze()
		tr.Image("img-a")
		tr.Image("img-b")
		productID := tr.Text("SKU: T-1")

		result, err := newScanner(p, CursorResync).Scan(context.Background(), "chat-1", "")
		require.NoError(t, err)
		require.Len(t, result.Batch, 1)
		assert.Equal(t, productID, result.Batch[0].SourceMessageID)
		require.Len(t, result.Batch[0].Images, 2)
		assert.Equal(t, "img-b", result.Batch[0].Images[0].Data)
		assert.Equal(t, "img-a", result.Batch[0].Images[1].Data)
	})

	t.Run("product arriving in the cursor second is picked up", func(t *testing.T) {
		p := chattest.NewPlatform()
		tr := p.Chat("chat-1").Freeze()
		first := tr.Text("SKU: T-1")

		s := newScanner(p, CursorResync)
		result, err := s.Scan(context.Background(), "chat-1", "")
		require.NoError(t, err)
		require.Len(t, result.Batch, 1)
		assert.Equal(t, first, result.NewCursor)

		second := tr.Text("SKU: T-2")

		result, err = s.Scan(context.Background(), "chat-1", first)
		require.NoError(t, err)
		assert.True(t, result.CursorFound)
		require.Len(t, result.Batch, 1)
		assert.Equal(t, "T-2", result.Batch[0].SKU)
		assert.Equal(t, second, result.NewCursor)
	})
}

func TestScanner_CursorNotInWindow(t *testing.T) {
	p := chattest.NewPlatform()
	tr := p.Chat("chat-1")
	tr.Text("SKU: B-1")
	last := tr.Text("SKU: B-2")

	t.Run("resync rescans the window", func(t *testing.T) {
		result, err := newScanner(p, CursorResync).Scan(context.Background(), "chat-1", "gone")
		require.NoError(t, err)
		assert.False(t, result.CursorFound)
		require.Len(t, result.Batch, 2)
		assert.Equal(t, "B-1", result.Batch[0].SKU)
		assert.Equal(t, last, result.NewCursor)
	})

	t.Run("fail policy returns error", func(t *testing.T) {
		_, err := newScanner(p, CursorFail).Scan(context.Background(), "chat-1", "gone")
		assert.ErrorIs(t, err, domain.ErrCursorNotFound)
	})
}

func TestScanner_DownloadFailureAbortsScan(t *testing.T) {
	p := chattest.NewPlatform()
	tr := p.Chat("chat-1")
	img := tr.Image("img")
	tr.Text("SKU: C-1")
	p.FailDownload(img, errors.New("media server down"))

	_, err := newScanner(p, CursorResync).Scan(context.Background(), "chat-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media server down")
}

func TestParseCursorPolicy(t *testing.T) {
	p, err := ParseCursorPolicy("fail")
	require.NoError(t, err)
	assert.Equal(t, CursorFail, p)

	_, err = ParseCursorPolicy("ignore")
	assert.Error(t, err)
}
