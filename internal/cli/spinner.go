package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on a terminal while a long call runs. It
// stops on Stop or when its context ends, whichever comes first.
type Spinner struct {
	w        io.Writer
	interval time.Duration

	mu      sync.Mutex
	message string
	width   int // widest line drawn, for clearing

	ctx      context.Context
	cancel   context.CancelFunc
	finished chan struct{}
	stopOnce sync.Once
}

// newSpinner creates a spinner on stderr that stops when ctx ends.
func newSpinner(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:        w,
		interval: 80 * time.Millisecond,
		message:  message,
		ctx:      sctx,
		cancel:   cancel,
		finished: make(chan struct{}),
	}
}

// Start begins drawing in the background.
func (s *Spinner) Start() {
	go func() {
		defer close(s.finished)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, len(s.message)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
	}
}

// Stop halts the animation and erases the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.finished
	})
}

// Cancelled reports whether the spinner's context has ended, including by
// Stop.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
