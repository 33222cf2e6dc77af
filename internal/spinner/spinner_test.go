package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncWriter keeps the spinner goroutine from racing the assertions.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestSpinner_DrawsAndClears(t *testing.T) {
	w := &syncWriter{}
	s := Start(w, "Loading model...")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := w.String()
	assert.Contains(t, out, "Loading model...")
	// The final write clears the line.
	assert.True(t, strings.HasSuffix(out, "\r"))
}

func TestSpinner_StopTwice(t *testing.T) {
	w := &syncWriter{}
	s := Start(w, "working")
	s.Stop()
	s.Stop()
}
