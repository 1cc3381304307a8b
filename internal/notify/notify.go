package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrEmptyTitle is returned by [Message.Validate] when the title is blank.
var ErrEmptyTitle = errors.New("notification title must not be empty")

// Kind classifies a user-facing notification.
type Kind string

const (
	KindSuccess Kind = "SUCCESS"
	KindError   Kind = "ERROR"
	KindInfo    Kind = "INFO"
)

// Variant maps the kind onto the toast renderer's variant names.
func (k Kind) Variant() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "destructive"
	default:
		return "info"
	}
}

// Message is the canonical toast model shared by the resolver and its sinks.
type Message struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Kind        Kind      `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
}

// Validate reports whether the message can be displayed.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Sink receives notifications for display.
type Sink interface {
	Emit(ctx context.Context, msg Message)
}

// NoOpSink drops notifications.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Message) {}

// ChannelSink writes notifications into a buffered channel.
type ChannelSink struct {
	messages chan Message
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		messages: make(chan Message, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, msg Message) {
	select {
	case s.messages <- msg:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Messages() <-chan Message {
	return s.messages
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, msg Message) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LogSink renders notifications as structured log lines.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, msg Message) {
	if s == nil {
		return
	}
	ev := s.logger.Info()
	if msg.Kind == KindError {
		ev = s.logger.Warn()
	}
	ev.Str("kind", string(msg.Kind)).
		Str("description", msg.Description).
		Msg(msg.Title)
}
