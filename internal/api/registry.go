package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// instance is one open screen. Events on it are serialized by mu.
type instance struct {
	mu       sync.Mutex
	id       string
	route    string
	def      *screenDef
	screen   screen
	lastUsed time.Time
}

func (in *instance) touch() { in.lastUsed = time.Now() }

// Registry tracks open screens. Closing a screen unloads it: requests it
// started keep running but their results are dropped.
type Registry struct {
	mu    sync.RWMutex
	pages map[string]*instance
	ttl   time.Duration
	log   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRegistry(ttl time.Duration, log *slog.Logger) *Registry {
	return &Registry{pages: make(map[string]*instance), ttl: ttl, log: log}
}

func (r *Registry) open(route string, def *screenDef, sc screen) *instance {
	in := &instance{id: uuid.NewString(), route: route, def: def, screen: sc, lastUsed: time.Now()}
	r.mu.Lock()
	r.pages[in.id] = in
	r.mu.Unlock()
	return in
}

func (r *Registry) get(id string) *instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pages[id]
}

// Close unloads and forgets the screen. It reports whether it was open.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	in, ok := r.pages[id]
	delete(r.pages, id)
	r.mu.Unlock()
	if ok {
		in.screen.Unload()
	}
	return ok
}

// CloseAll unloads every open screen.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	pages := r.pages
	r.pages = make(map[string]*instance)
	r.mu.Unlock()
	for _, in := range pages {
		in.screen.Unload()
	}
}

// Len returns the number of open screens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}

// Cleanup unloads screens idle for longer than the TTL. A screen handling
// an event is skipped.
func (r *Registry) Cleanup() {
	cutoff := time.Now().Add(-r.ttl)
	var idle []string
	r.mu.RLock()
	for id, in := range r.pages {
		if !in.mu.TryLock() {
			continue
		}
		if in.lastUsed.Before(cutoff) {
			idle = append(idle, id)
		}
		in.mu.Unlock()
	}
	r.mu.RUnlock()
	for _, id := range idle {
		r.Close(id)
	}
	if len(idle) > 0 {
		r.log.Info("unloaded idle pages", "count", len(idle))
	}
}

// Start runs Cleanup and the extra sweeps every interval until Stop.
func (r *Registry) Start(ctx context.Context, interval time.Duration, sweeps ...func()) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
				for _, sweep := range sweeps {
					sweep()
				}
			}
		}
	}()
}

// Stop ends the sweep loop and unloads every screen.
func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.CloseAll()
}
