package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SimpleSpinner is a non-interactive spinner for short blocking work
type SimpleSpinner struct {
	out     io.Writer
	frames  []string
	message string
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSimpleSpinner creates a spinner that draws on out
func NewSimpleSpinner(out io.Writer, message string) *SimpleSpinner {
	return &SimpleSpinner{
		out:     out,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
		done:    make(chan struct{}),
	}
}

// Start starts the spinner animation
func (s *SimpleSpinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		style := lipgloss.NewStyle().Foreground(PrimaryColor)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i = (i + 1) % len(s.frames) {
			fmt.Fprintf(s.out, "\r  %s %s", style.Render(s.frames[i]), WhiteStyle.Render(s.message))
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *SimpleSpinner) stop() {
	close(s.done)
	s.wg.Wait()
	fmt.Fprint(s.out, "\r\033[K")
}

// StopWithSuccess stops the spinner and shows a success message
func (s *SimpleSpinner) StopWithSuccess(message string) {
	s.stop()
	fmt.Fprintln(s.out, RenderStatus("success", message))
}

// StopWithError stops the spinner and shows an error message
func (s *SimpleSpinner) StopWithError(message string) {
	s.stop()
	fmt.Fprintln(s.out, RenderStatus("error", message))
}

// Stop stops the spinner and clears the line
func (s *SimpleSpinner) Stop() {
	s.stop()
}

// WithSpinner runs fn while the spinner turns. On success the line is
// cleared; on failure the error is printed.
func WithSpinner(out io.Writer, message string, fn func() error) error {
	spinner := NewSimpleSpinner(out, message)
	spinner.Start()
	if err := fn(); err != nil {
		spinner.StopWithError(err.Error())
		return err
	}
	spinner.Stop()
	return nil
}
