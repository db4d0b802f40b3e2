package output

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Dialog asks the user where to save a recording. ok is false when the user
// cancelled. An empty path with ok true means defaultPath.
type Dialog interface {
	ShowSaveDialog(ctx context.Context, defaultPath string) (path string, ok bool, err error)
}

// DialogFunc adapts a function to Dialog.
type DialogFunc func(ctx context.Context, defaultPath string) (string, bool, error)

func (f DialogFunc) ShowSaveDialog(ctx context.Context, defaultPath string) (string, bool, error) {
	return f(ctx, defaultPath)
}

// StaticDialog answers without asking: Path if set, the default otherwise.
// It is used in headless mode.
type StaticDialog struct {
	Path string
}

func (d StaticDialog) ShowSaveDialog(_ context.Context, defaultPath string) (string, bool, error) {
	if d.Path != "" {
		return d.Path, true, nil
	}
	return defaultPath, true, nil
}

// CancelDialog always cancels.
type CancelDialog struct{}

func (CancelDialog) ShowSaveDialog(context.Context, string) (string, bool, error) {
	return "", false, nil
}

// PromptDialog asks for a path on a line-oriented terminal. An empty answer
// takes the default; "-" or end of input cancels. One dialog can be asked
// repeatedly: input that arrives after a cancelled ask answers the next one.
type PromptDialog struct {
	in  *bufio.Reader
	out io.Writer

	mu      sync.Mutex
	pending chan promptLine // read in flight, nil when idle
}

type promptLine struct {
	line string
	err  error
}

func NewPromptDialog(in io.Reader, out io.Writer) *PromptDialog {
	return &PromptDialog{in: bufio.NewReader(in), out: out}
}

// readLine returns the channel of the read in flight, starting one if
// needed. At most one goroutine reads d.in at a time.
func (d *PromptDialog) readLine() <-chan promptLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		ch := make(chan promptLine, 1)
		go func() {
			line, err := d.in.ReadString('\n')
			ch <- promptLine{line, err}
		}()
		d.pending = ch
	}
	return d.pending
}

func (d *PromptDialog) ShowSaveDialog(ctx context.Context, defaultPath string) (string, bool, error) {
	fmt.Fprintf(d.out, "Save video [%s] (- to discard): ", defaultPath)

	var a promptLine
	select {
	case <-ctx.Done():
		fmt.Fprintln(d.out)
		return "", false, ctx.Err()
	case a = <-d.readLine():
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
	}

	line := strings.TrimSpace(a.line)
	if a.err != nil {
		if errors.Is(a.err, io.EOF) && line == "" {
			fmt.Fprintln(d.out)
			return "", false, nil
		}
		if !errors.Is(a.err, io.EOF) {
			return "", false, a.err
		}
	}
	switch line {
	case "-":
		return "", false, nil
	case "":
		return defaultPath, true, nil
	}
	return line, true, nil
}
