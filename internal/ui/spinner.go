package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a busy indicator on a terminal line. Start and Stop may
// be called repeatedly; nested Starts keep it running until the matching
// number of Stops.
type Spinner struct {
	out      io.Writer
	interval time.Duration

	mu    sync.Mutex
	depth int
	label string
	stop  chan struct{}
	done  chan struct{}
}

// NewSpinner creates a spinner that draws on out, usually stderr.
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out, interval: 80 * time.Millisecond}
}

// Start shows label next to the animation.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
	s.depth++
	if s.depth > 1 {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
}

// Stop clears the line once the outermost Start is matched.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if s.depth == 0 {
		s.mu.Unlock()
		return
	}
	s.depth--
	if s.depth > 0 {
		s.mu.Unlock()
		return
	}
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth > 0
}

func (s *Spinner) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		s.mu.Lock()
		label := s.label
		s.mu.Unlock()
		fmt.Fprintf(s.out, "\r%s  %s", StyleAccent.Render(spinnerFrames[i%len(spinnerFrames)]), label)

		select {
		case <-stop:
			fmt.Fprintf(s.out, "\r%-60s\r", "")
			return
		case <-ticker.C:
		}
	}
}
