package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on w while a settle or render runs. When
// it knows a frame total, it shows how many frames have been stepped.
type Spinner struct {
	w       io.Writer
	message string
	total   int
	frames  atomic.Int64

	ctx      context.Context
	cancel   context.CancelFunc
	started  atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	width int
}

// newSpinner creates a spinner that stops on its own when ctx is done.
// total is the frame count to report against; zero hides the counter.
func newSpinner(ctx context.Context, w io.Writer, message string, total int) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		total:   total,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Frame records how many frames have been stepped. It may be called from
// any goroutine and matches the pipeline's OnFrame hook.
func (s *Spinner) Frame(done, _ int) { s.frames.Store(int64(done)) }

// Start begins the animation.
func (s *Spinner) Start() {
	s.started.Store(true)
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.draw(s.line(i))
			}
		}
	}()
}

// line is the status text for animation step i.
func (s *Spinner) line(i int) string {
	text := s.message
	if s.total > 0 {
		text = fmt.Sprintf("%s %d/%d frames", s.message, s.frames.Load(), s.total)
	}
	return styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]) + " " + StyleDim.Render(text)
}

func (s *Spinner) draw(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s", line)
	s.width = max(s.width, len(line))
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.started.Load() {
			<-s.stopped
		}
	})
}

// Fail stops the spinner and reports msg as an error.
func (s *Spinner) Fail(msg string) {
	s.Stop()
	printError("%s", msg)
}
