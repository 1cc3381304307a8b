package goSession

import "sync"

// LoadingState is a snapshot of the global loading indicator.
type LoadingState struct {
	Active  bool
	Message string
}

// GlobalLoading is the process-wide show/hide flag for the full-screen loader.
//
// It is independent of session state and safe for concurrent use.
type GlobalLoading struct {
	mu    sync.Mutex
	state LoadingState
}

// NewGlobalLoading creates a hidden loader with the given default message.
// An empty message falls back to [DefaultLoadingMessage].
func NewGlobalLoading(message string) *GlobalLoading {
	if message == "" {
		message = DefaultLoadingMessage
	}
	return &GlobalLoading{state: LoadingState{Message: message}}
}

// Show activates the loader. An empty msg keeps the previous message.
func (g *GlobalLoading) Show(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Active = true
	if msg != "" {
		g.state.Message = msg
	}
}

// Hide deactivates the loader and keeps the message.
func (g *GlobalLoading) Hide() {
	g.mu.Lock()
	g.state.Active = false
	g.mu.Unlock()
}

func (g *GlobalLoading) State() LoadingState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
