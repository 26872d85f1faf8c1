package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"patrol-ai/api/internal/inspect"
)

// Manager keeps one Controller per session key (web cookie or chat id).
// All sessions share one engine and one preview store.
type Manager struct {
	ctx      context.Context
	engine   inspect.Engine
	previews *PreviewStore
	log      *zap.Logger

	m sync.Map // key -> *Controller
}

func NewManager(ctx context.Context, engine inspect.Engine, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		ctx:      ctx,
		engine:   engine,
		previews: NewPreviewStore(),
		log:      log,
	}
}

// Get returns the session's controller, creating an idle one on first use.
// A controller closed by eviction is replaced, never returned.
func (m *Manager) Get(key string) *Controller {
	for {
		v, ok := m.m.Load(key)
		if !ok {
			c := NewController(m.ctx, m.engine, m.previews, m.log.With(zap.String("session", key)))
			v, _ = m.m.LoadOrStore(key, c)
		}
		c := v.(*Controller)
		if c.touch() {
			return c
		}
		m.m.CompareAndDelete(key, c)
	}
}

// Lookup returns an existing controller without creating one.
func (m *Manager) Lookup(key string) (*Controller, bool) {
	v, ok := m.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Controller), true
}

// Evict closes and forgets a session.
func (m *Manager) Evict(key string) {
	if v, ok := m.m.LoadAndDelete(key); ok {
		v.(*Controller).Close()
	}
}

// EvictIdle evicts sessions unused since before. Busy sessions stay.
func (m *Manager) EvictIdle(before time.Time) int {
	n := 0
	m.m.Range(func(k, v any) bool {
		c := v.(*Controller)
		if c.closeIfIdle(before) {
			m.m.CompareAndDelete(k, c)
			n++
		}
		return true
	})
	return n
}

// RunJanitor evicts sessions idle for longer than ttl until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, every, ttl time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := m.EvictIdle(now.Add(-ttl)); n > 0 {
				m.log.Info("sessions evicted", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) Previews() *PreviewStore { return m.previews }

func (m *Manager) Engine() inspect.Engine { return m.engine }
