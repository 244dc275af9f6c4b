// Package export saves rendered images to the user's album.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/rssmd/internal/host"
)

// DefaultDelay staggers the start of consecutive saves.
const DefaultDelay = 500 * time.Millisecond

// Saver writes batches of images to an album.
type Saver struct {
	album   host.Album
	delay   time.Duration
	batches *BatchStore
	log     *slog.Logger
}

func NewSaver(album host.Album, delay time.Duration, batches *BatchStore, log *slog.Logger) *Saver {
	if delay < 0 {
		delay = 0
	}
	if batches == nil {
		batches = NewBatchStore(time.Hour)
	}
	return &Saver{album: album, delay: delay, batches: batches, log: log}
}

// Album returns the album images are saved to.
func (s *Saver) Album() host.Album { return s.album }

// Batches returns the store tracking started batches.
func (s *Saver) Batches() *BatchStore { return s.batches }

// SaveAll saves every url, starting save i after i*delay. The first failure
// cancels the saves that have not started and is returned; saved counts the
// images written before that, so callers can report partial progress.
func (s *Saver) SaveAll(ctx context.Context, urls []string, progress func(saved int)) (int, error) {
	var saved atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			if wait := time.Duration(i) * s.delay; wait > 0 {
				timer := time.NewTimer(wait)
				defer timer.Stop()
				select {
				case <-timer.C:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			if err := s.album.Save(gctx, u); err != nil {
				return fmt.Errorf("save image %d of %d: %w", i+1, len(urls), err)
			}
			n := saved.Add(1)
			if progress != nil {
				progress(int(n))
			}
			return nil
		})
	}
	err := g.Wait()
	return int(saved.Load()), err
}

// Start saves urls in the background and returns the batch tracking it.
// The work outlives ctx's cancellation but keeps its values.
func (s *Saver) Start(ctx context.Context, articleID string, urls []string) *Batch {
	b := newBatch(articleID, len(urls))
	s.batches.Put(b)
	log := s.log.With("batch_id", b.ID, "images", len(urls))

	go func() {
		saved, err := s.SaveAll(context.WithoutCancel(ctx), urls, b.setSaved)
		b.finish(saved, err)
		if err != nil {
			log.Warn("batch save failed", "saved", saved, "error", err)
			return
		}
		log.Info("batch save completed")
	}()
	return b
}
