package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"patrol-ai/api/internal/inspect"
	"patrol-ai/api/internal/inspect/types"
)

type fakeEngine struct {
	mu     sync.Mutex
	calls  int
	gate   chan struct{}
	result types.AssessmentResult
	err    error
	panic  any
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) GetModel() string { return "fake-1" }

func (f *fakeEngine) Analyze(ctx context.Context, _ []byte, _ string) (types.AssessmentResult, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.panic != nil {
		panic(f.panic)
	}
	return f.result, f.err
}

func (f *fakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var (
	photo = CapturedImage{Data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, MIME: "image/jpeg"}

	brokenHigh = types.AssessmentResult{
		Status:         types.StatusBroken,
		Severity:       types.SeverityHigh,
		Confidence:     92,
		Description:    "ลูกถ้วยแตก",
		Recommendation: "เปลี่ยนทันที",
		DetectedIssues: []string{"รอยบิ่นที่ขอบ"},
	}
)

func newTestController(eng inspect.Engine) (*Controller, *PreviewStore) {
	store := NewPreviewStore()
	return NewController(context.Background(), eng, store, nil), store
}

func TestController_SelectToResult(t *testing.T) {
	eng := &fakeEngine{result: brokenHigh}
	c, store := newTestController(eng)
	require.Equal(t, StateIdle, c.Snapshot().State)

	a, err := c.Select(photo)
	require.NoError(t, err)

	snap := a.Wait()
	require.Equal(t, StateResult, snap.State)
	require.NotNil(t, snap.Result)
	require.Equal(t, types.StatusBroken, snap.Result.Status)
	require.Equal(t, types.SeverityHigh, snap.Result.Severity)
	require.Equal(t, "แตกหัก (Broken)", snap.Result.Status.Display().Label)
	require.Equal(t, "CRITICAL / สูง", snap.Result.Severity.Display().Label)
	require.NotEmpty(t, snap.PreviewID)
	require.Equal(t, 1, store.Len())
	require.Equal(t, 1, eng.Calls())
	require.Nil(t, c.Pending())
}

func TestController_LoadingRejectsSecondSelection(t *testing.T) {
	eng := &fakeEngine{gate: make(chan struct{}), result: brokenHigh}
	c, _ := newTestController(eng)

	a, err := c.Select(photo)
	require.NoError(t, err)
	require.Equal(t, StateLoading, c.Snapshot().State)
	require.Same(t, a, c.Pending())

	_, err = c.Select(photo)
	require.ErrorIs(t, err, ErrBusy)
	require.ErrorIs(t, c.Reset(), ErrBusy)

	close(eng.gate)
	require.Equal(t, StateResult, a.Wait().State)
	require.Equal(t, 1, eng.Calls())
}

func TestController_FailuresCollapseToGenericMessage(t *testing.T) {
	tests := []struct {
		name string
		eng  *fakeEngine
	}{
		{"decode failure", &fakeEngine{err: inspect.Fail("fake", inspect.StageDecode, types.ErrMalformedReply)}},
		{"empty reply", &fakeEngine{err: inspect.Fail("fake", inspect.StageEmpty, types.ErrEmptyReply)}},
		{"network failure", &fakeEngine{err: errors.New("dial tcp 10.0.0.1:443: connection refused")}},
		{"engine panic", &fakeEngine{panic: "nil map"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(tt.eng)
			a, err := c.Select(photo)
			require.NoError(t, err)

			snap := a.Wait()
			require.Equal(t, StateError, snap.State)
			require.Equal(t, inspect.MsgAnalysisFailed, snap.ErrorMessage)
			require.Nil(t, snap.Result)
			require.Equal(t, snap, c.Snapshot())
		})
	}
}

func TestController_NoImageIsIgnored(t *testing.T) {
	eng := &fakeEngine{}
	c, store := newTestController(eng)

	_, err := c.Select(CapturedImage{MIME: "image/jpeg"})
	require.ErrorIs(t, err, ErrNoImage)
	require.Equal(t, StateIdle, c.Snapshot().State)
	require.Zero(t, store.Len())
	require.Zero(t, eng.Calls())
}

func TestController_ResetReleasesPreviewOnce(t *testing.T) {
	eng := &fakeEngine{err: errors.New("timeout")}
	c, store := newTestController(eng)

	a, err := c.Select(photo)
	require.NoError(t, err)
	snap := a.Wait()
	require.Equal(t, StateError, snap.State)
	require.Equal(t, 1, store.Len())

	require.NoError(t, c.Reset())
	require.Equal(t, Snapshot{State: StateIdle}, c.Snapshot())
	require.Zero(t, store.Len())
	require.ErrorIs(t, store.Release(snap.PreviewID), ErrUnknownPreview)

	// Reset from Idle is a no-op.
	require.NoError(t, c.Reset())
	require.Zero(t, store.Len())
}

func TestController_RepeatedCyclesDoNotLeak(t *testing.T) {
	eng := &fakeEngine{result: brokenHigh}
	c, store := newTestController(eng)

	for i := 0; i < 25; i++ {
		a, err := c.Select(photo)
		require.NoError(t, err)
		a.Wait()
		require.Equal(t, 1, store.Len())
		if i%2 == 0 {
			require.NoError(t, c.Reset())
			require.Zero(t, store.Len())
		}
	}
	require.Equal(t, 25, eng.Calls())
	require.NoError(t, c.Reset())
	require.Zero(t, store.Len())
}

func TestController_ReplacementReleasesPrevious(t *testing.T) {
	c, store := newTestController(&fakeEngine{result: brokenHigh})

	first := mustSettle(t, c)
	second := mustSettle(t, c)
	require.NotEqual(t, first.PreviewID, second.PreviewID)
	require.Equal(t, 1, store.Len())
	_, ok := store.Get(first.PreviewID)
	require.False(t, ok)
}

func TestController_Preview(t *testing.T) {
	c, _ := newTestController(&fakeEngine{result: brokenHigh})
	snap := mustSettle(t, c)

	p, ok := c.Preview(snap.PreviewID)
	require.True(t, ok)
	require.Equal(t, "image/jpeg", p.MIME)
	require.Equal(t, photo.Data, p.Data)

	_, ok = c.Preview("someone-else")
	require.False(t, ok)
}

func TestController_CloseWhileLoading(t *testing.T) {
	eng := &fakeEngine{gate: make(chan struct{}), result: brokenHigh}
	c, store := newTestController(eng)

	a, err := c.Select(photo)
	require.NoError(t, err)
	c.Close()
	require.Equal(t, 1, store.Len())

	close(eng.gate)
	a.Wait()
	require.Zero(t, store.Len())
	require.Equal(t, StateIdle, c.Snapshot().State)

	_, err = c.Select(photo)
	require.ErrorIs(t, err, ErrBusy)
}

func TestController_SnapshotIsACopy(t *testing.T) {
	c, _ := newTestController(&fakeEngine{result: brokenHigh})
	snap := mustSettle(t, c)
	snap.Result.DetectedIssues[0] = "changed"
	require.Equal(t, "รอยบิ่นที่ขอบ", c.Snapshot().Result.DetectedIssues[0])
}

func mustSettle(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	a, err := c.Select(photo)
	require.NoError(t, err)
	return a.Wait()
}
