package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Fetching workshop metadata...")
	s.interval = time.Millisecond
	s.Start()

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Fetching workshop metadata..."))
	}, time.Second, time.Millisecond)

	s.Stop()
	assert.True(t, s.Cancelled())
	assert.Regexp(t, `\r +\r$`, out.String(), "line is blanked on stop")
}

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	s := newSpinnerTo(ctx, &out, "waiting")
	s.Start()

	cancel()
	assert.Eventually(t, s.Cancelled, time.Second, time.Millisecond)
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "x")
	s.Start()
	s.Stop()
	s.Stop()
	assert.True(t, s.Cancelled())
}

func TestSpinnerStopBeforeFirstFrame(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "x")
	s.interval = time.Hour
	s.Start()
	s.Stop()
	assert.Empty(t, out.String(), "nothing drawn, nothing to clear")
}
