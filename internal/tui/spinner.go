package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// spinnerFrames are the animation frames for the spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"} //nolint:gochecknoglobals // Package-level constant for spinner animation

// SpinnerInterval is the update interval for spinner animation.
const SpinnerInterval = 100 * time.Millisecond

// ElapsedTimeThreshold is the duration after which elapsed time is shown.
const ElapsedTimeThreshold = 10 * time.Second

// Spinner shows an animated line while a sync run is in progress. It only
// animates when its writer is a terminal; otherwise Start and Stop do nothing.
type Spinner struct {
	w       io.Writer
	tty     bool
	styles  *OutputStyles
	message string
	started time.Time

	mu      sync.Mutex
	running bool
	done    chan struct{}
	exited  chan struct{}
}

// NewSpinner creates a spinner that writes to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{
		w:      w,
		tty:    isTTY(w),
		styles: NewOutputStyles(),
	}
}

// Start begins the animation. Calling it while running only swaps the message.
func (s *Spinner) Start(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	if !s.tty || s.running {
		return
	}

	s.running = true
	s.started = time.Now()
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	go s.animate(ctx, s.done, s.exited)
}

// Stop ends the animation and clears the line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done, exited := s.done, s.exited
	s.mu.Unlock()

	close(done)
	<-exited
	_, _ = fmt.Fprint(s.w, "\r\033[K")
}

func (s *Spinner) animate(ctx context.Context, done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	ticker := time.NewTicker(SpinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = fmt.Fprintf(s.w, "\r\033[K%s %s",
				s.styles.Info.Render(spinnerFrames[frame%len(spinnerFrames)]), s.line())
		}
	}
}

func (s *Spinner) line() string {
	s.mu.Lock()
	msg := s.message
	if elapsed := time.Since(s.started); elapsed > ElapsedTimeThreshold {
		msg = fmt.Sprintf("%s (%ds elapsed)", msg, int(elapsed.Seconds()))
	}
	s.mu.Unlock()

	// frame, space and one column of margin
	return truncateToWidth(msg, terminalWidth(s.w)-3)
}

// terminalWidth returns the column count of w, or 80 when unknown.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

// truncateToWidth shortens s to maxWidth display columns, ending in "…".
func truncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}
