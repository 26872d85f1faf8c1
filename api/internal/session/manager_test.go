package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_GetIsStablePerKey(t *testing.T) {
	m := NewManager(context.Background(), &fakeEngine{result: brokenHigh}, nil)

	a := m.Get("web:1")
	require.Same(t, a, m.Get("web:1"))
	require.NotSame(t, a, m.Get("tg:1"))

	_, ok := m.Lookup("web:2")
	require.False(t, ok)
}

func TestManager_SessionsShareEngineButNotState(t *testing.T) {
	eng := &fakeEngine{result: brokenHigh}
	m := NewManager(context.Background(), eng, nil)

	an, err := m.Get("a").Select(photo)
	require.NoError(t, err)
	an.Wait()

	require.Equal(t, StateResult, m.Get("a").Snapshot().State)
	require.Equal(t, StateIdle, m.Get("b").Snapshot().State)
	require.Equal(t, 1, eng.Calls())
	require.Same(t, eng, m.Engine())
}

func TestManager_EvictReleasesPreview(t *testing.T) {
	m := NewManager(context.Background(), &fakeEngine{result: brokenHigh}, nil)

	an, err := m.Get("a").Select(photo)
	require.NoError(t, err)
	an.Wait()
	require.Equal(t, 1, m.Previews().Len())

	m.Evict("a")
	require.Zero(t, m.Previews().Len())
	_, ok := m.Lookup("a")
	require.False(t, ok)
}

func TestManager_EvictIdleKeepsBusy(t *testing.T) {
	eng := &fakeEngine{result: brokenHigh, gate: make(chan struct{})}
	m := NewManager(context.Background(), eng, nil)

	m.Get("idle")
	an, err := m.Get("busy").Select(photo)
	require.NoError(t, err)

	require.Equal(t, 1, m.EvictIdle(time.Now().Add(time.Hour)))
	_, ok := m.Lookup("idle")
	require.False(t, ok)
	_, ok = m.Lookup("busy")
	require.True(t, ok)

	close(eng.gate)
	an.Wait()
	require.Zero(t, m.EvictIdle(time.Now().Add(-time.Hour)))
	require.Equal(t, 1, m.EvictIdle(time.Now().Add(time.Hour)))
	require.Zero(t, m.Previews().Len())
}

func TestManager_GetRefreshesIdleClock(t *testing.T) {
	m := NewManager(context.Background(), &fakeEngine{result: brokenHigh}, nil)

	a := m.Get("a")
	before := time.Now()
	require.Same(t, a, m.Get("a"))
	require.Zero(t, m.EvictIdle(before))
	_, ok := m.Lookup("a")
	require.True(t, ok)
}

func TestManager_GetReplacesEvicted(t *testing.T) {
	m := NewManager(context.Background(), &fakeEngine{result: brokenHigh}, nil)

	old := m.Get("a")
	require.Equal(t, 1, m.EvictIdle(time.Now().Add(time.Hour)))

	// a caller still holding the evicted controller is refused
	_, err := old.Select(photo)
	require.ErrorIs(t, err, ErrBusy)

	fresh := m.Get("a")
	require.NotSame(t, old, fresh)
	an, err := fresh.Select(photo)
	require.NoError(t, err)
	require.Equal(t, StateResult, an.Wait().State)
}

func TestManager_EvictedEntryIsReplacedOnGet(t *testing.T) {
	m := NewManager(context.Background(), &fakeEngine{result: brokenHigh}, nil)

	// closed but still stored, as between close and delete
	old := m.Get("a")
	old.Close()

	fresh := m.Get("a")
	require.NotSame(t, old, fresh)
	require.Equal(t, StateIdle, fresh.Snapshot().State)
}

func TestPreviewStore(t *testing.T) {
	s := NewPreviewStore()
	id := s.Acquire([]byte("x"), "image/png")
	p, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, "image/png", p.MIME)

	require.NoError(t, s.Release(id))
	require.ErrorIs(t, s.Release(id), ErrUnknownPreview)
	require.Zero(t, s.Len())
}
