// Package spinner renders a line-clearing activity indicator for long
// waits, like loading a multi-gigabyte model into the server.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const frameInterval = 80 * time.Millisecond

// Spinner is a single-line activity indicator. Start one per wait; it is
// not reusable after Stop.
type Spinner struct {
	w        io.Writer
	message  string
	done     chan struct{}
	cleared  chan struct{}
	stopOnce sync.Once
}

// Start begins animating message on w.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		message: message,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Spinner) loop() {
	i := 0
	for {
		select {
		case <-s.done:
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+2)) //nolint:errcheck
			close(s.cleared)
			return
		case <-time.After(frameInterval):
			fmt.Fprintf(s.w, "\r%s %s", frames[i%len(frames)], s.message) //nolint:errcheck
			i++
		}
	}
}

// Stop halts the animation and clears the line. Safe to call more than
// once; it blocks until the line is cleared.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.cleared
}
