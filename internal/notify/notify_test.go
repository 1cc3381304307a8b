package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Message) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Message) {
	<-s.gate
}

func TestMessageValidate(t *testing.T) {
	if err := (Message{Title: " "}).Validate(); err != ErrEmptyTitle {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if err := (Message{Title: "ok"}).Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestKindVariant(t *testing.T) {
	cases := map[Kind]string{
		KindSuccess: "success",
		KindError:   "destructive",
		KindInfo:    "info",
		"":          "info",
	}
	for k, want := range cases {
		if got := k.Variant(); got != want {
			t.Fatalf("%q.Variant() = %q, want %q", k, got, want)
		}
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Message{Title: "Logged out successfully", Kind: KindSuccess})
	sink.Emit(context.Background(), Message{Title: "Access Denied", Kind: KindError})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var m Message
	if err := json.Unmarshal([]byte(lines[1]), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Title != "Access Denied" || m.Kind != KindError {
		t.Fatalf("unexpected message %+v", m)
	}
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	sink.Emit(context.Background(), Message{Title: "Welcome Admin", Kind: KindSuccess})
	sink.Emit(context.Background(), Message{Title: "Login Failed", Kind: KindError})

	out := buf.String()
	if !strings.Contains(out, `"level":"info"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("expected info and warn lines, got %q", out)
	}
	if !strings.Contains(out, `"message":"Login Failed"`) {
		t.Fatalf("expected title as message, got %q", out)
	}
}

func TestDirectNotifierIsSynchronous(t *testing.T) {
	sink := &countingSink{}
	n := New(Config{}, sink)
	n.Notify(context.Background(), Message{Title: "x"})
	if sink.count.Load() != 1 {
		t.Fatalf("expected synchronous delivery, got %d", sink.count.Load())
	}
	n.Close()
	if n.Dropped() != 0 {
		t.Fatal("direct notifier never drops")
	}
}

func TestDispatcherDeliversAndFlushesOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Async: true, BufferSize: 16, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), Message{Title: "x"})
	}
	d.Close()

	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected 10 deliveries after Close, got %d", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Async: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), Message{Title: "x"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and a full buffer")
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherBlockingRespectsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Async: true, BufferSize: 1, DropIfFull: false}, sink)

	d.Notify(context.Background(), Message{Title: "in sink"})
	d.Notify(context.Background(), Message{Title: "in buffer"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	d.Notify(ctx, Message{Title: "blocked"})
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("expected Notify to block until the context expired")
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherIgnoresAfterClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Async: true, BufferSize: 4}, sink)
	d.Close()
	d.Close()
	d.Notify(context.Background(), Message{Title: "late"})
	if sink.count.Load() != 0 {
		t.Fatal("expected no delivery after Close")
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), Message{Title: "first"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Emit(ctx, Message{Title: "dropped"})

	m := <-sink.Messages()
	if m.Title != "first" {
		t.Fatalf("unexpected message %+v", m)
	}
	select {
	case m := <-sink.Messages():
		t.Fatalf("unexpected second message %+v", m)
	default:
	}
}
