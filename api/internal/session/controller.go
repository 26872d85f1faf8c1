package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"patrol-ai/api/internal/inspect"
	"patrol-ai/api/internal/inspect/types"
	"patrol-ai/api/internal/util"
)

// Controller drives one session: it holds the selected image, runs at most
// one analysis at a time and keeps the outcome for rendering.
type Controller struct {
	ctx      context.Context
	engine   inspect.Engine
	previews *PreviewStore
	log      *zap.Logger

	mu      sync.Mutex
	state   State
	preview string
	result  *types.AssessmentResult
	errMsg  string
	pending *Analysis
	closed  bool
	touched time.Time
}

// NewController builds an idle controller. ctx bounds analyses for the life
// of the process; the UI has no way to cancel one.
func NewController(ctx context.Context, engine inspect.Engine, previews *PreviewStore, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		ctx:      ctx,
		engine:   engine,
		previews: previews,
		log:      log,
		state:    StateIdle,
		touched:  time.Now(),
	}
}

// Select holds img and starts its analysis. A result or error on screen is
// replaced; a running analysis makes Select fail with ErrBusy.
func (c *Controller) Select(img CapturedImage) (*Analysis, error) {
	if len(img.Data) == 0 {
		return nil, ErrNoImage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("session closed: %w", ErrBusy)
	}
	c.touched = time.Now()
	if c.state.Busy() {
		return nil, ErrBusy
	}

	c.releaseLocked()
	mime := util.PickMIME(img.MIME, "", img.Data)
	c.preview = c.previews.Acquire(img.Data, mime)
	c.result = nil
	c.errMsg = ""
	c.state = StateSelected

	a := newAnalysis()
	c.pending = a
	c.state = StateLoading
	c.log.Info("analysis started", zap.String("mime", mime), zap.Int("bytes", len(img.Data)))

	go c.run(a, img.Data, mime)
	return a, nil
}

func (c *Controller) run(a *Analysis, data []byte, mime string) {
	res, err := c.analyze(data, mime)

	c.mu.Lock()
	if err != nil {
		ae := inspect.AsAnalysisError(c.engine.Name(), err)
		c.log.Warn("analysis failed",
			zap.String("engine", ae.Engine),
			zap.String("stage", string(ae.Stage)),
			zap.Error(ae.Cause))
		c.state = StateError
		c.errMsg = ae.UserMessage()
	} else {
		c.log.Info("analysis done",
			zap.String("status", string(res.Status)),
			zap.String("severity", string(res.Severity)),
			zap.Float64("confidence", res.Confidence))
		c.state = StateResult
		c.result = &res
	}
	c.pending = nil
	snap := c.snapshotLocked()
	if c.closed {
		c.clearLocked()
	}
	c.mu.Unlock()

	a.settle(snap)
}

// analyze turns an engine panic into an ordinary failure.
func (c *Controller) analyze(data []byte, mime string) (res types.AssessmentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = inspect.Fail(c.engine.Name(), inspect.StageTransport, fmt.Errorf("panic: %v", r))
		}
	}()
	return c.engine.Analyze(c.ctx, data, mime)
}

// Reset returns to Idle and releases the held preview. It is refused while
// an analysis runs.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched = time.Now()
	if c.state.Busy() {
		return ErrBusy
	}
	c.clearLocked()
	return nil
}

// Close releases everything the session holds. A running analysis finishes
// and its preview is released when it settles.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if !c.state.Busy() {
		c.clearLocked()
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched = time.Now()
	return c.snapshotLocked()
}

// touch marks the session as used. It fails once the session is closed.
func (c *Controller) touch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.touched = time.Now()
	return true
}

// closeIfIdle closes the session when it is not busy and was last used
// before t.
func (c *Controller) closeIfIdle(t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Busy() || !c.touched.Before(t) {
		return false
	}
	c.closed = true
	c.clearLocked()
	return true
}

// Pending returns the running analysis, or nil.
func (c *Controller) Pending() *Analysis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Preview returns the held image if id is this session's current handle.
func (c *Controller) Preview(id string) (Preview, bool) {
	c.mu.Lock()
	cur := c.preview
	c.mu.Unlock()
	if id == "" || id != cur {
		return Preview{}, false
	}
	return c.previews.Get(id)
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{State: c.state, PreviewID: c.preview, ErrorMessage: c.errMsg}
	if c.result != nil {
		r := *c.result
		r.DetectedIssues = append([]string(nil), c.result.DetectedIssues...)
		if r.DetectedIssues == nil {
			r.DetectedIssues = []string{}
		}
		s.Result = &r
	}
	return s
}

func (c *Controller) clearLocked() {
	c.releaseLocked()
	c.state = StateIdle
	c.result = nil
	c.errMsg = ""
}

func (c *Controller) releaseLocked() {
	if c.preview == "" {
		return
	}
	if err := c.previews.Release(c.preview); err != nil {
		c.log.Error("preview release", zap.String("preview", c.preview), zap.Error(err))
	}
	c.preview = ""
}
