package site

import (
	"sync"
	"time"

	"github.com/dalemusser/caligben/internal/contact"
	"go.uber.org/zap"
)

// Visitor is one browser's contact form: its controller and the page
// view model the controller writes to.
type Visitor struct {
	Controller *contact.Controller
	Page       *contact.Page

	lastSeen time.Time
}

// Visitors maps session IDs to visitors. Visitors idle for longer than ttl
// are evicted by a janitor goroutine; Close stops it.
type Visitors struct {
	mu     sync.Mutex
	byID   map[string]*Visitor
	ttl    time.Duration
	build  func(view contact.View) *contact.Controller
	now    func() time.Time
	logger *zap.Logger

	stop chan struct{}
	done chan struct{}
}

// NewVisitors starts the janitor. build creates the controller for a new
// visitor's page.
func NewVisitors(ttl time.Duration, build func(view contact.View) *contact.Controller, logger *zap.Logger) *Visitors {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Visitors{
		byID:   make(map[string]*Visitor),
		ttl:    ttl,
		build:  build,
		now:    time.Now,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go v.janitor(min(ttl, time.Minute))
	return v
}

// Get returns the visitor for id, creating it on first sight.
func (v *Visitors) Get(id string) *Visitor {
	v.mu.Lock()
	defer v.mu.Unlock()

	vis, ok := v.byID[id]
	if !ok {
		page := contact.NewPage()
		vis = &Visitor{Controller: v.build(page), Page: page}
		v.byID[id] = vis
	}
	vis.lastSeen = v.now()
	return vis
}

// Len reports the number of tracked visitors.
func (v *Visitors) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.byID)
}

func (v *Visitors) Close() {
	close(v.stop)
	<-v.done
}

func (v *Visitors) janitor(every time.Duration) {
	defer close(v.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-v.stop:
			return
		case <-ticker.C:
			v.sweep()
		}
	}
}

// sweep evicts idle visitors and cancels any reversion they still hold.
func (v *Visitors) sweep() {
	v.mu.Lock()
	now := v.now()
	var evicted []*Visitor
	for id, vis := range v.byID {
		if now.Sub(vis.lastSeen) > v.ttl {
			delete(v.byID, id)
			evicted = append(evicted, vis)
		}
	}
	v.mu.Unlock()

	for _, vis := range evicted {
		if rev := vis.Controller.Pending(); rev != nil {
			rev.Cancel()
		}
	}
	if len(evicted) > 0 {
		v.logger.Debug("idle visitors evicted",
			zap.Int("count", len(evicted)), zap.Int("remaining", v.Len()))
	}
}
