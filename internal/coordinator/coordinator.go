// Package coordinator keeps the local video cache in step with the remote
// catalog.
//
// Refresh replaces the whole cache with the catalog's list. Only the most
// recently issued refresh may apply its result: issuing a new one cancels
// the previous one, and a result that arrives late is dropped with
// ErrSuperseded. LoadOne reads the cache only. Rate submits a rating and
// patches the cached row with the catalog's canonical average.
//
// Errors returned by the coordinator are one of ErrUnavailable,
// ErrNotFound, ErrInvalidRating, ErrSuperseded or ErrCacheWriteFailure;
// transport detail is logged, not returned.
//
// The Request* methods run the same operations on background goroutines and
// deliver results to the attached View.
package coordinator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jgesser/mobilecloud-15/internal/catalog"
	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	"github.com/jgesser/mobilecloud-15/internal/entities"
)

// Cache is the local mirror the coordinator writes to.
type Cache interface {
	ReplaceAll(ctx context.Context, rows []entities.Video) error
	Query(ctx context.Context, filter videos.Filter) (*videos.Snapshot, error)
	GetByID(ctx context.Context, id int64) (entities.Video, error)
	UpdateOne(ctx context.Context, id int64, patch videos.Patch) (bool, error)
}

type confirmedRating struct {
	avg float64
	seq uint64
}

type Coordinator struct {
	remote catalog.Client
	cache  Cache

	generation atomic.Uint64

	mu            sync.Mutex
	cancelRefresh context.CancelFunc

	// applyMu serialises cache writes so refreshes land in issuance order.
	applyMu sync.Mutex

	// rated holds averages confirmed by Rate, keyed by video, so a refresh
	// whose list predates the rating does not roll it back. Guarded by
	// applyMu.
	rated   map[int64]confirmedRating
	rateSeq atomic.Uint64

	binding atomic.Pointer[Binding]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(remote catalog.Client, cache Cache) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		remote: remote,
		cache:  cache,
		rated:  make(map[int64]confirmedRating),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Refresh fetches the catalog list and atomically replaces the cache with
// it. The returned snapshot holds the rows just written.
func (c *Coordinator) Refresh(ctx context.Context) (*videos.Snapshot, error) {
	ctx, gen, done := c.beginRefresh(ctx)
	defer done()
	listedAfter := c.rateSeq.Load()

	list, err := c.remote.ListVideos(ctx)
	if c.generation.Load() != gen {
		log.WithField("generation", gen).Debug("Refresh superseded before apply, discarding result")
		return nil, ErrSuperseded
	}
	if err != nil {
		log.WithError(err).Warn("Catalog refresh failed")
		return nil, errors.Wrap(ErrUnavailable, "refresh")
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if c.generation.Load() != gen {
		log.WithField("generation", gen).Debug("Refresh superseded before apply, discarding result")
		return nil, ErrSuperseded
	}

	// Once applying, a newer refresh waits on applyMu instead of aborting
	// the transaction half way.
	writeCtx := context.WithoutCancel(ctx)
	rows := c.keepConfirmedRatings(catalog.Rows(list), listedAfter)
	if err := c.cache.ReplaceAll(writeCtx, rows); err != nil {
		log.WithError(err).Error("Failed to replace cached videos")
		return nil, cacheWriteFailure("refresh")
	}
	c.forgetRatings(listedAfter)

	snap, err := c.cache.Query(writeCtx, videos.Filter{})
	if err != nil {
		log.WithError(err).Error("Failed to read cached videos")
		return nil, errors.Wrap(ErrUnavailable, "refresh")
	}

	log.WithFields(log.Fields{
		"generation": gen,
		"videos":     snap.Len(),
	}).Info("Cache refreshed")
	return snap, nil
}

// keepConfirmedRatings overrides listed averages with ratings confirmed after
// seq. Callers hold applyMu.
func (c *Coordinator) keepConfirmedRatings(rows []entities.Video, seq uint64) []entities.Video {
	for i := range rows {
		if r, ok := c.rated[rows[i].ID]; ok && r.seq > seq {
			log.WithFields(log.Fields{
				"id":     rows[i].ID,
				"listed": rows[i].AvgRating,
				"rated":  r.avg,
			}).Debug("Keeping rating confirmed during refresh")
			rows[i].AvgRating = r.avg
		}
	}
	return rows
}

// forgetRatings drops confirmations that a list fetched after seq already
// reflects. Callers hold applyMu.
func (c *Coordinator) forgetRatings(seq uint64) {
	for id, r := range c.rated {
		if r.seq <= seq {
			delete(c.rated, id)
		}
	}
}

func (c *Coordinator) beginRefresh(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	if c.cancelRefresh != nil {
		c.cancelRefresh()
	}
	gen := c.generation.Add(1)
	c.cancelRefresh = cancel
	c.mu.Unlock()

	return ctx, gen, func() {
		c.mu.Lock()
		if c.generation.Load() == gen {
			c.cancelRefresh = nil
		}
		c.mu.Unlock()
		cancel()
	}
}

// Videos returns the cache contents without contacting the catalog.
func (c *Coordinator) Videos(ctx context.Context, filter videos.Filter) (*videos.Snapshot, error) {
	snap, err := c.cache.Query(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to query cached videos")
		return nil, errors.Wrap(ErrUnavailable, "query")
	}
	return snap, nil
}

// LoadOne reads one row from the cache. It never contacts the catalog.
func (c *Coordinator) LoadOne(ctx context.Context, id int64) (entities.Video, error) {
	row, err := c.cache.GetByID(ctx, id)
	if errors.Is(err, videos.ErrNotFound) {
		return entities.Video{}, errors.Wrapf(ErrNotFound, "load %d", id)
	}
	if err != nil {
		log.WithError(err).WithField("id", id).Error("Failed to read cached video")
		return entities.Video{}, errors.Wrapf(ErrUnavailable, "load %d", id)
	}
	return row, nil
}

// Rate submits rating for id and patches the cached row with the average
// the catalog returns. On failure the cached row is unchanged.
func (c *Coordinator) Rate(ctx context.Context, id int64, rating float64) (entities.Video, error) {
	video, err := c.remote.RateVideo(ctx, id, rating)
	if err != nil {
		return entities.Video{}, rateError(id, err)
	}

	canonical := video.AvgRating
	c.applyMu.Lock()
	c.rated[id] = confirmedRating{avg: canonical, seq: c.rateSeq.Add(1)}
	found, err := c.cache.UpdateOne(context.WithoutCancel(ctx), id, videos.Patch{AvgRating: &canonical})
	c.applyMu.Unlock()
	if err != nil {
		log.WithError(err).WithField("id", id).Error("Failed to patch cached rating")
		return entities.Video{}, cacheWriteFailure("rate")
	}

	log.WithFields(log.Fields{
		"id":        id,
		"submitted": rating,
		"canonical": canonical,
		"cached":    found,
	}).Info("Rating updated")

	if !found {
		return video.Row(), nil
	}
	row, err := c.cache.GetByID(ctx, id)
	if err != nil {
		return video.Row(), nil
	}
	return row, nil
}

func rateError(id int64, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return errors.Wrapf(ErrNotFound, "rate %d", id)
	case errors.Is(err, catalog.ErrInvalidRating):
		return errors.Wrapf(ErrInvalidRating, "rate %d", id)
	default:
		log.WithError(err).WithField("id", id).Warn("Rating submission failed")
		return errors.Wrapf(ErrUnavailable, "rate %d", id)
	}
}

// Attach binds v as the receiver of Request* results, replacing any
// previously attached view.
func (c *Coordinator) Attach(v View) *Binding {
	b := &Binding{c: c, view: v}
	if old := c.binding.Swap(b); old != nil {
		old.mu.Lock()
		old.view = nil
		old.mu.Unlock()
	}
	return b
}

func (c *Coordinator) deliver(fn func(View)) {
	b := c.binding.Load()
	if b == nil {
		return
	}
	if v := b.load(); v != nil {
		fn(v)
	}
}

func (c *Coordinator) async(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
}

// RequestRefresh runs Refresh in the background. A superseded refresh
// delivers nothing.
func (c *Coordinator) RequestRefresh() {
	c.async(func(ctx context.Context) {
		snap, err := c.Refresh(ctx)
		if errors.Is(err, ErrSuperseded) {
			return
		}
		if err != nil {
			c.deliver(func(v View) { v.Failed(OpRefresh, err) })
			return
		}
		c.deliver(func(v View) { v.VideosLoaded(snap) })
	})
}

// RequestVideo runs LoadOne in the background.
func (c *Coordinator) RequestVideo(id int64) {
	c.async(func(ctx context.Context) {
		row, err := c.LoadOne(ctx, id)
		if err != nil {
			c.deliver(func(v View) { v.Failed(OpLoad, err) })
			return
		}
		c.deliver(func(v View) { v.VideoLoaded(row) })
	})
}

// RequestRate runs Rate in the background. On failure the view is told
// about the error and then shown the last cached row again, so a rating it
// displayed optimistically reverts.
func (c *Coordinator) RequestRate(id int64, rating float64) {
	c.async(func(ctx context.Context) {
		row, err := c.Rate(ctx, id, rating)
		if err == nil {
			c.deliver(func(v View) { v.RatingUpdated(row) })
			return
		}

		c.deliver(func(v View) { v.Failed(OpRate, err) })
		if cached, lerr := c.cache.GetByID(ctx, id); lerr == nil {
			c.deliver(func(v View) { v.VideoLoaded(cached) })
		}
	})
}

// Close cancels background work and waits for it to return.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}
