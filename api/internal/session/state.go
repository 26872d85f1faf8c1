package session

import (
	"errors"

	"patrol-ai/api/internal/inspect/types"
)

// State of one inspection session.
type State string

const (
	StateIdle     State = "idle"     // prompt for a photo
	StateSelected State = "selected" // image held, request not sent yet
	StateLoading  State = "loading"  // request in flight
	StateResult   State = "result"
	StateError    State = "error"
)

// Busy reports whether new input must be refused.
func (s State) Busy() bool { return s == StateSelected || s == StateLoading }

var (
	// ErrNoImage: the picker returned nothing. Callers ignore it silently.
	ErrNoImage = errors.New("no image provided")
	// ErrBusy: an analysis is in flight for this session.
	ErrBusy = errors.New("analysis in progress")
)

// CapturedImage is what the camera or file picker delivered.
type CapturedImage struct {
	Data []byte
	MIME string
}

// Snapshot is a read-only copy of the session state for renderers.
type Snapshot struct {
	State        State                   `json:"state"`
	PreviewID    string                  `json:"preview_id,omitempty"`
	Result       *types.AssessmentResult `json:"result,omitempty"`
	ErrorMessage string                  `json:"error,omitempty"`
}

// Analysis is the pending/settled handle of one request.
type Analysis struct {
	done chan struct{}
	snap Snapshot
}

func newAnalysis() *Analysis { return &Analysis{done: make(chan struct{})} }

// Done is closed once the analysis settles.
func (a *Analysis) Done() <-chan struct{} { return a.done }

// Wait blocks until the analysis settles and returns the state it produced.
func (a *Analysis) Wait() Snapshot {
	<-a.done
	return a.snap
}

func (a *Analysis) settle(s Snapshot) {
	a.snap = s
	close(a.done)
}
