package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/api"
	"github.com/dmitrijs2005/gophsend/internal/client/lifecycle"
	"github.com/dmitrijs2005/gophsend/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsend/internal/client/sink"
	"github.com/dmitrijs2005/gophsend/internal/logging"
)

// DefaultPollInterval is the period of the reconciliation sweep.
const DefaultPollInterval = 2 * time.Minute

var (
	// ErrBusy is returned when a transfer is started while another one is
	// active.
	ErrBusy = errors.New("another transfer is in progress")
	// ErrStopped is returned once Run has returned.
	ErrStopped = errors.New("coordinator stopped")
	// ErrRunning is returned by a second call to Run.
	ErrRunning = errors.New("coordinator already running")
)

// Counters records transfer totals.
type Counters interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// Snapshot is the coordinator state at one point in time.
type Snapshot struct {
	Status Status
	// Active is nil when idle.
	Active *Operation
}

type Coordinator struct {
	sender   *Sender
	receiver *Receiver
	files    *lifecycle.Manager
	counters Counters
	sink     sink.Sink
	logger   logging.Logger
	interval time.Duration

	cmds    chan command
	results chan result
	sweeps  chan sweepResult
	events  chan Event
	stopped chan struct{}
	running atomic.Bool

	// owned by the Run goroutine
	status   Status
	active   *Operation
	sweeping bool
}

type CoordinatorOption func(*Coordinator)

func WithPollInterval(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithCoordinatorLogger(l logging.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n >= 0 {
			c.events = make(chan Event, n)
		}
	}
}

func NewCoordinator(sender *Sender, receiver *Receiver, files *lifecycle.Manager, counters Counters, out sink.Sink, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		sender:   sender,
		receiver: receiver,
		files:    files,
		counters: counters,
		sink:     out,
		logger:   logging.Nop(),
		interval: DefaultPollInterval,
		cmds:     make(chan command),
		results:  make(chan result, 1),
		sweeps:   make(chan sweepResult, 1),
		events:   make(chan Event, 64),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events delivers coordinator notifications. It is closed when Run
// returns. Consumers must keep draining it while Run is active.
func (c *Coordinator) Events() <-chan Event { return c.events }

type command interface{ command() }

type startCmd struct {
	dir      Direction
	upload   UploadIntent
	download DownloadIntent
	reply    chan startReply
}

type startReply struct {
	op  *Operation
	err error
}

type cancelCmd struct{}

type refreshCmd struct{}

type snapshotCmd struct{ reply chan Snapshot }

func (startCmd) command()    {}
func (cancelCmd) command()   {}
func (refreshCmd) command()  {}
func (snapshotCmd) command() {}

type result struct {
	op       *Operation
	err      error
	file     *lifecycle.OwnedFile
	name     string
	location string
}

type sweepResult struct {
	res lifecycle.SweepResult
	err error
}

func (c *Coordinator) send(ctx context.Context, cmd command) error {
	select {
	case c.cmds <- cmd:
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartUpload begins an upload, or fails with ErrBusy.
func (c *Coordinator) StartUpload(ctx context.Context, in UploadIntent) (*Operation, error) {
	return c.start(ctx, startCmd{dir: DirectionUpload, upload: in})
}

// StartDownload begins a download, or fails with ErrBusy.
func (c *Coordinator) StartDownload(ctx context.Context, in DownloadIntent) (*Operation, error) {
	return c.start(ctx, startCmd{dir: DirectionDownload, download: in})
}

func (c *Coordinator) start(ctx context.Context, cmd startCmd) (*Operation, error) {
	cmd.reply = make(chan startReply, 1)
	if err := c.send(ctx, cmd); err != nil {
		return nil, err
	}
	r := <-cmd.reply
	return r.op, r.err
}

// Cancel stops the active transfer. It does nothing when idle.
func (c *Coordinator) Cancel(ctx context.Context) error {
	return c.send(ctx, cancelCmd{})
}

// Refresh requests a sweep of the owned files now.
func (c *Coordinator) Refresh(ctx context.Context) error {
	return c.send(ctx, refreshCmd{})
}

func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	cmd := snapshotCmd{reply: make(chan Snapshot, 1)}
	if err := c.send(ctx, cmd); err != nil {
		return Snapshot{}, err
	}
	return <-cmd.reply, nil
}

// Run owns the coordinator state until ctx is done. It sweeps once at
// start and then on every tick. On return the active transfer has been
// cancelled and has finished, and Events is closed.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(c.events)
	defer close(c.stopped)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.startSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			c.shutdown(ctx)
			return nil
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
		case r := <-c.results:
			c.finish(ctx, r)
		case s := <-c.sweeps:
			c.sweepDone(ctx, s)
		case <-ticker.C:
			c.startSweep(ctx)
		}
	}
}

func (c *Coordinator) shutdown(ctx context.Context) {
	if c.active != nil {
		c.active.Cancel()
		r := <-c.results
		r.op.finish(r.err)
		c.active = nil
		c.status = StatusIdle
	}
	if c.sweeping {
		<-c.sweeps
		c.sweeping = false
	}
	c.logger.Debug(context.WithoutCancel(ctx), "coordinator stopped")
}

func (c *Coordinator) handle(ctx context.Context, cmd command) {
	switch cmd := cmd.(type) {
	case startCmd:
		if c.active != nil {
			cmd.reply <- startReply{err: ErrBusy}
			return
		}
		op := newOperation(ctx, cmd.dir)
		op.start()
		c.active = op
		if cmd.dir == DirectionUpload {
			c.status = StatusUploading
			go c.runUpload(op, cmd.upload)
		} else {
			c.status = StatusDownloading
			go c.runDownload(op, cmd.download)
		}
		c.logger.Info(ctx, "transfer started", "op_id", op.ID, "direction", op.Direction)
		c.emit(ctx, EventStarted{OpID: op.ID, Direction: op.Direction})
		cmd.reply <- startReply{op: op}
	case cancelCmd:
		if c.active != nil {
			c.active.Cancel()
		}
	case refreshCmd:
		c.startSweep(ctx)
	case snapshotCmd:
		cmd.reply <- Snapshot{Status: c.status, Active: c.active}
	}
}

func (c *Coordinator) progressFunc(op *Operation) api.ProgressFunc {
	return func(loaded, total int64) {
		if !op.setProgress(loaded, total) {
			return
		}
		select {
		case c.events <- EventProgress{OpID: op.ID, Direction: op.Direction, Progress: Progress{Done: loaded, Total: total}}:
		default:
		}
	}
}

func (c *Coordinator) phaseFunc(op *Operation) func(Phase) {
	return func(p Phase) {
		select {
		case c.events <- EventPhase{OpID: op.ID, Phase: p}:
		case <-op.ctx.Done():
		}
	}
}

func (c *Coordinator) runUpload(op *Operation, in UploadIntent) {
	ctx := op.ctx
	file, err := c.sender.Send(ctx, in, c.phaseFunc(op), c.progressFunc(op))
	if err != nil {
		c.results <- result{op: op, err: err}
		return
	}

	// the file exists on the server now; track it even if ctx was cancelled
	bg := context.WithoutCancel(ctx)
	if err := c.files.Add(bg, file); err != nil {
		c.results <- result{op: op, err: fmt.Errorf("track upload: %w", err)}
		return
	}
	c.count(bg, metadata.KeyTotalUploads)
	c.results <- result{op: op, file: &file, name: file.Name}
}

func (c *Coordinator) runDownload(op *Operation, in DownloadIntent) {
	ctx := op.ctx
	got, err := c.receiver.Receive(ctx, in, c.phaseFunc(op), c.progressFunc(op))
	if err != nil {
		c.results <- result{op: op, err: err}
		return
	}

	location, err := c.sink.Save(ctx, got.Name, got.Type, got.Data)
	if err != nil {
		c.results <- result{op: op, err: fmt.Errorf("save %s: %w", got.Name, err)}
		return
	}
	c.count(context.WithoutCancel(ctx), metadata.KeyTotalDownloads)
	c.results <- result{op: op, name: got.Name, location: location}
}

func (c *Coordinator) count(ctx context.Context, key string) {
	if c.counters == nil {
		return
	}
	if _, err := c.counters.Incr(ctx, key); err != nil {
		c.logger.Warn(ctx, "counter not updated", "key", key, "error", err)
	}
}

func (c *Coordinator) finish(ctx context.Context, r result) {
	state := r.op.finish(r.err)
	c.active = nil
	c.status = StatusIdle

	ev := EventTransferDone{
		OpID:      r.op.ID,
		Direction: r.op.Direction,
		File:      r.file,
		Name:      r.name,
		Location:  r.location,
	}
	switch state {
	case StateCompleted:
		ev.Outcome = OutcomeCompleted
		c.logger.Info(ctx, "transfer completed", "op_id", r.op.ID, "direction", r.op.Direction)
	case StateCancelled:
		ev.Outcome = OutcomeCancelled
		c.logger.Info(ctx, "transfer cancelled", "op_id", r.op.ID, "direction", r.op.Direction)
	default:
		ev.Outcome = OutcomeErrored
		ev.Err = r.err
		ev.NotFound = r.op.Direction == DirectionDownload && errors.Is(r.err, api.ErrNotFound)
		c.logger.Error(ctx, "transfer failed", "op_id", r.op.ID, "direction", r.op.Direction,
			"not_found", ev.NotFound, "error", r.err)
	}
	c.emit(ctx, ev)
}

func (c *Coordinator) startSweep(ctx context.Context) {
	if c.sweeping {
		c.logger.Debug(ctx, "sweep already running")
		return
	}
	c.sweeping = true
	go func() {
		res, err := c.files.Sweep(ctx)
		c.sweeps <- sweepResult{res: res, err: err}
	}()
}

func (c *Coordinator) sweepDone(ctx context.Context, s sweepResult) {
	c.sweeping = false
	if s.err != nil && !isCancelled(s.err) {
		c.logger.Warn(ctx, "sweep failed", "error", s.err)
	}
	if s.res.Empty() {
		return
	}
	c.emit(ctx, EventFilesChanged{Changed: s.res.Changed, Removed: s.res.Removed})
}

// emit blocks until the event is consumed or ctx is done.
func (c *Coordinator) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}
