package scan

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/chat"
)

// ImageCollector gathers the images posted right before a product message.
type ImageCollector struct {
	platform    chat.Platform
	concurrency int
}

// NewImageCollector creates an ImageCollector downloading at most concurrency
// attachments at a time.
func NewImageCollector(platform chat.Platform, concurrency int) *ImageCollector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ImageCollector{platform: platform, concurrency: concurrency}
}

// Collect returns the contiguous run of images immediately preceding
// transcript[i], closest first. The walk stops at the first non-image message
// or the start of the transcript. Attachments the platform no longer has are
// left out; any download error fails the whole collection.
func (c *ImageCollector) Collect(ctx context.Context, transcript []chat.Message, i int) ([]domain.ImageAttachment, error) {
	var run []chat.Message
	for j := i - 1; j >= 0 && transcript[j].IsImage(); j-- {
		run = append(run, transcript[j])
	}
	if len(run) == 0 {
		return nil, nil
	}

	media := make([]*chat.Media, len(run))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for k, msg := range run {
		g.Go(func() error {
			m, err := c.platform.DownloadMedia(gctx, msg)
			if err != nil {
				return fmt.Errorf("failed to download media of message %s: %w", msg.ID, err)
			}
			media[k] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := make([]domain.ImageAttachment, 0, len(media))
	for _, m := range media {
		if m == nil || m.Data == "" {
			continue
		}
		images = append(images, domain.ImageAttachment{MimeType: m.MimeType, Data: m.Data})
	}
	return images, nil
}
