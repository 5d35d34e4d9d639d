package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davinci-studio/studio-backend/internal/gallery/domain"
	"github.com/davinci-studio/studio-backend/internal/gallery/repository"
	gendomain "github.com/davinci-studio/studio-backend/internal/generation/domain"
	"github.com/davinci-studio/studio-backend/internal/logging"
)

// Gallery holds the in-memory image collection of every active session.
// Each session's collection is replaced wholesale on every change, so
// concurrent readers never observe a partially applied update.
//
// Records merged through Prepend are visible before they reach the store.
// Until their SaveImage completes, deletes and bookmark changes on them are
// queued and applied by the save itself, so the store never resurrects a
// deleted image or loses a bookmark.
type Gallery struct {
	store repository.SessionStore

	mu       sync.Mutex
	sessions map[string]*slot
	unsaved  map[string]*pendingWrite
}

type slot struct {
	col        atomic.Pointer[domain.Collection]
	lastAccess atomic.Int64
	// stale is set when the store could not be read; the next access retries
	stale atomic.Bool
}

func (s *slot) touch() { s.lastAccess.Store(time.Now().UnixNano()) }

type pendingWrite struct {
	sessionID string
	deleted   bool
	bookmark  *bool
}

// NewGallery creates a Gallery backed by store
func NewGallery(store repository.SessionStore) *Gallery {
	return &Gallery{
		store:    store,
		sessions: make(map[string]*slot),
		unsaved:  make(map[string]*pendingWrite),
	}
}

// Collection returns the session's current collection, loading it from the
// store on first use.
func (g *Gallery) Collection(ctx context.Context, sessionID string) (*domain.Collection, error) {
	s, err := g.slot(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	return s.col.Load(), nil
}

// Prepend merges a batch ahead of the existing images in one update. A store
// that cannot be read does not block the merge.
func (g *Gallery) Prepend(ctx context.Context, sessionID string, records []gendomain.GeneratedImageRecord) error {
	s, err := g.slot(ctx, sessionID, true)
	if err != nil {
		return err
	}

	g.mu.Lock()
	for _, rec := range records {
		g.unsaved[rec.ID] = &pendingWrite{sessionID: sessionID}
	}
	g.mu.Unlock()

	g.swap(s, func(c *domain.Collection) (*domain.Collection, error) {
		return c.Prepend(records), nil
	})
	return nil
}

// SaveImage persists a record merged by Prepend, then applies any delete or
// bookmark change made while the write was in flight.
func (g *Gallery) SaveImage(ctx context.Context, rec gendomain.GeneratedImageRecord) error {
	err := g.store.SaveImage(ctx, rec)
	if err != nil {
		g.mu.Lock()
		delete(g.unsaved, rec.ID)
		g.mu.Unlock()
		return err
	}

	logger := logging.NewLogger(ctx)
	for {
		g.mu.Lock()
		pw, ok := g.unsaved[rec.ID]
		if !ok || (!pw.deleted && pw.bookmark == nil) {
			delete(g.unsaved, rec.ID)
			g.mu.Unlock()
			return nil
		}
		deleted, bookmark := pw.deleted, pw.bookmark
		pw.bookmark = nil
		if deleted {
			delete(g.unsaved, rec.ID)
		}
		g.mu.Unlock()

		if deleted {
			if err := g.store.DeleteImage(ctx, rec.SessionID, rec.ID); err != nil && !errors.Is(err, domain.ErrImageNotFound) {
				logger.LogErrorf("delete_image", "session=%s image=%s error=%v", rec.SessionID, rec.ID, err)
			}
			return nil
		}
		if err := g.store.SetBookmark(ctx, rec.SessionID, rec.ID, *bookmark); err != nil {
			logger.LogErrorf("bookmark", "session=%s image=%s error=%v", rec.SessionID, rec.ID, err)
		}
	}
}

// ToggleBookmark flips the bookmark of an image and reports the new state.
// The store write is best effort.
func (g *Gallery) ToggleBookmark(ctx context.Context, sessionID, imageID string) (bool, error) {
	s, err := g.slot(ctx, sessionID, false)
	if err != nil {
		return false, err
	}

	var on bool
	_, err = g.swap(s, func(c *domain.Collection) (*domain.Collection, error) {
		next, state, err := c.ToggleBookmark(imageID)
		on = state
		return next, err
	})
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	if pw, ok := g.unsaved[imageID]; ok {
		pw.bookmark = &on
		g.mu.Unlock()
		return on, nil
	}
	g.mu.Unlock()

	if err := g.store.SetBookmark(ctx, sessionID, imageID, on); err != nil {
		logging.NewLogger(ctx).LogErrorf("bookmark", "session=%s image=%s error=%v", sessionID, imageID, err)
	}
	return on, nil
}

// Delete removes an image and any bookmark referencing it
func (g *Gallery) Delete(ctx context.Context, sessionID, imageID string) error {
	s, err := g.slot(ctx, sessionID, false)
	if err != nil {
		return err
	}
	if _, err := g.swap(s, func(c *domain.Collection) (*domain.Collection, error) {
		return c.Delete(imageID)
	}); err != nil {
		return err
	}

	g.mu.Lock()
	if pw, ok := g.unsaved[imageID]; ok {
		pw.deleted = true
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	if err := g.store.DeleteImage(ctx, sessionID, imageID); err != nil && !errors.Is(err, domain.ErrImageNotFound) {
		logging.NewLogger(ctx).LogErrorf("delete_image", "session=%s image=%s error=%v", sessionID, imageID, err)
	}
	return nil
}

// Forget drops a session's cached collection
func (g *Gallery) Forget(sessionID string) {
	g.mu.Lock()
	delete(g.sessions, sessionID)
	g.mu.Unlock()
}

// SweepIdle forgets sessions not accessed for longer than maxIdle and
// returns how many were dropped. Sessions with writes still in flight are
// kept.
func (g *Gallery) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle).UnixNano()

	g.mu.Lock()
	defer g.mu.Unlock()

	busy := make(map[string]bool)
	for _, pw := range g.unsaved {
		busy[pw.sessionID] = true
	}

	n := 0
	for id, s := range g.sessions {
		if s.lastAccess.Load() < cutoff && !busy[id] {
			delete(g.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of cached sessions
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func (g *Gallery) swap(s *slot, fn func(*domain.Collection) (*domain.Collection, error)) (*domain.Collection, error) {
	for {
		cur := s.col.Load()
		next, err := fn(cur)
		if err != nil {
			return nil, err
		}
		if s.col.CompareAndSwap(cur, next) {
			return next, nil
		}
	}
}

// slot returns the session's cache entry, loading it on first use. With
// tolerant set, a failed load yields an empty stale entry instead of an
// error; stale entries are reloaded and combined on the next access.
func (g *Gallery) slot(ctx context.Context, sessionID string, tolerant bool) (*slot, error) {
	g.mu.Lock()
	s, ok := g.sessions[sessionID]
	g.mu.Unlock()
	if ok {
		s.touch()
		if s.stale.Load() {
			g.reload(ctx, sessionID, s)
		}
		return s, nil
	}

	loaded, err := g.load(ctx, sessionID)
	if err != nil && !tolerant {
		return nil, err
	}

	fresh := &slot{}
	fresh.touch()
	if err != nil {
		logging.NewLogger(ctx).LogWarnf("load_session", "session=%s starting empty: %v", sessionID, err)
		fresh.stale.Store(true)
		loaded = domain.NewCollection(nil, nil)
	}
	fresh.col.Store(loaded)

	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[sessionID]; ok {
		return s, nil
	}
	g.sessions[sessionID] = fresh
	return fresh, nil
}

// reload folds the stored collection under the records merged while the
// store was unreadable.
func (g *Gallery) reload(ctx context.Context, sessionID string, s *slot) {
	stored, err := g.load(ctx, sessionID)
	if err != nil {
		logging.NewLogger(ctx).LogWarnf("load_session", "session=%s still unreadable: %v", sessionID, err)
		return
	}
	g.swap(s, func(c *domain.Collection) (*domain.Collection, error) {
		seen := make(map[string]bool, c.Len())
		for _, img := range c.Images() {
			seen[img.ID] = true
		}
		images := c.Images()
		for _, img := range stored.Images() {
			if !seen[img.ID] {
				images = append(images, img)
			}
		}
		return domain.NewCollection(images, append(c.BookmarkIDs(), stored.BookmarkIDs()...)), nil
	})
	s.stale.Store(false)
}

func (g *Gallery) load(ctx context.Context, sessionID string) (*domain.Collection, error) {
	images, err := g.store.LoadImages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	bookmarks, err := g.store.LoadBookmarks(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return domain.NewCollection(images, bookmarks), nil
}
