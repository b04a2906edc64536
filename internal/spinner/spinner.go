// Package spinner repaints a busy line while a slow call is outstanding.
package spinner

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultFrames   = `|/-\`
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// visibleWidth counts the runes of msg a terminal actually draws.
func visibleWidth(msg string) int {
	return len([]rune(ansiEscape.ReplaceAllString(msg, "")))
}

type Spinner struct {
	w        io.Writer
	msg      string
	interval time.Duration
	frames   []rune

	active atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Spinner)

func WithInterval(d time.Duration) Option { return func(s *Spinner) { s.interval = d } }
func WithFrames(frames string) Option    { return func(s *Spinner) { s.frames = []rune(frames) } }

// Start begins repainting "\r<msg><frame>" on w until Stop is called or ctx ends.
func Start(ctx context.Context, w io.Writer, msg string, opts ...Option) *Spinner {
	s := &Spinner{
		w:        w,
		msg:      msg,
		interval: DefaultInterval,
		frames:   []rune(DefaultFrames),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if len(s.frames) == 0 {
		s.frames = []rune(DefaultFrames)
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.active.Store(true)
	go s.run(ctx)
	return s
}

func (s *Spinner) run(ctx context.Context) {
	defer close(s.done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for i := 0; s.active.Load(); i++ {
		fmt.Fprintf(s.w, "\r%s%c", s.msg, s.frames[i%len(s.frames)])
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Stop clears the flag, waits for the painter to exit and blanks the line.
// It is safe to call more than once.
func (s *Spinner) Stop() {
	if !s.active.Swap(false) {
		return
	}
	s.cancel()
	<-s.done
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", visibleWidth(s.msg)+1))
}

// With runs fn while a spinner is shown.
func With(ctx context.Context, w io.Writer, msg string, fn func(context.Context) error, opts ...Option) error {
	s := Start(ctx, w, msg, opts...)
	defer s.Stop()
	return fn(ctx)
}
