package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Async      bool
	BufferSize int
	DropIfFull bool
}

// Notifier is satisfied by both the synchronous and the buffered delivery paths.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
	Dropped() uint64
	Close()
}

// New returns a synchronous notifier unless cfg.Async is set.
func New(cfg Config, sink Sink) Notifier {
	if sink == nil {
		sink = NoOpSink{}
	}
	if !cfg.Async {
		return direct{sink: sink}
	}
	return NewDispatcher(cfg, sink)
}

type direct struct {
	sink Sink
}

func (d direct) Notify(ctx context.Context, msg Message) {
	if ctx == nil {
		ctx = context.Background()
	}
	d.sink.Emit(ctx, msg)
}

func (direct) Dropped() uint64 { return 0 }

func (direct) Close() {}

// Dispatcher asynchronously forwards notifications to a sink.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	ch        chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan Message, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.ch:
			d.sink.Emit(context.Background(), msg)
		case <-d.done:
			for {
				select {
				case msg := <-d.ch:
					d.sink.Emit(context.Background(), msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- msg:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- msg:
	case <-ctx.Done():
	case <-d.done:
	}
}

func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
