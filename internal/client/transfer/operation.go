package transfer

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophsend/internal/client/api"
	"github.com/google/uuid"
)

// Direction tells uploads from downloads.
type Direction uint8

const (
	DirectionUpload Direction = iota
	DirectionDownload
)

func (d Direction) String() string {
	switch d {
	case DirectionUpload:
		return "upload"
	case DirectionDownload:
		return "download"
	}
	return "unknown"
}

// State of an Operation.
type State uint8

const (
	StatePending State = iota
	StateInFlight
	StateCancelled
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in-flight"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateCompleted || s == StateFailed
}

// Progress is a byte count of a running transfer. Total is -1 when
// unknown.
type Progress struct {
	Done  int64
	Total int64
}

// Ratio is Done/Total in [0, 1], or 0 when Total is unknown.
func (p Progress) Ratio() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

// Operation is one cancellable transfer.
type Operation struct {
	ID        uuid.UUID
	Direction Direction

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    State
	progress Progress
	err      error
}

func newOperation(parent context.Context, dir Direction) *Operation {
	ctx, cancel := context.WithCancel(parent)
	return &Operation{
		ID:        uuid.New(),
		Direction: dir,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		progress:  Progress{Total: -1},
	}
}

func (o *Operation) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Operation) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Err is the terminal error; nil while running, after completion and after
// cancellation.
func (o *Operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Cancel asks the transfer to stop. It is safe to call at any time and
// more than once.
func (o *Operation) Cancel() { o.cancel() }

// Done is closed once the operation reached a terminal state.
func (o *Operation) Done() <-chan struct{} { return o.done }

func (o *Operation) start() {
	o.mu.Lock()
	if o.state == StatePending {
		o.state = StateInFlight
	}
	o.mu.Unlock()
}

// setProgress records loaded/total and reports whether it moved forward.
func (o *Operation) setProgress(loaded, total int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Terminal() || loaded < o.progress.Done {
		return false
	}
	o.progress = Progress{Done: loaded, Total: total}
	return true
}

func (o *Operation) finish(err error) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Terminal() {
		return o.state
	}
	switch {
	case err == nil:
		o.state = StateCompleted
	case isCancelled(err):
		o.state = StateCancelled
	default:
		o.state = StateFailed
		o.err = err
	}
	o.cancel()
	close(o.done)
	return o.state
}

func isCancelled(err error) bool {
	return errors.Is(err, api.ErrCancelled) || errors.Is(err, context.Canceled)
}
