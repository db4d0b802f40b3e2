package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fakeyudi/screenrec/internal/capture"
)

// Formatter prints progress lines for the headless commands.
type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) SourceSelected(t capture.Target) {
	fmt.Fprintf(f.w, "🎯 Source: %s\n", t.DisplayName)
}

func (f *Formatter) RecordingStarted(mime string) {
	fmt.Fprintf(f.w, "🔴 Recording (%s)... press Ctrl+C or run 'screenrec stop' to finish\n", mime)
}

func (f *Formatter) RecordingStopped(duration time.Duration, bytes int64) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped (%s, %s)\n", FormatDuration(duration), FormatBytes(bytes))
}

func (f *Formatter) Saved(r Result) {
	if r.Abandoned {
		fmt.Fprintf(f.w, "🗑️  Recording discarded\n")
		return
	}
	fmt.Fprintf(f.w, "✅ Video saved: %s (%s)\n", r.Path, FormatBytes(r.Bytes))
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) SourceListItem(t capture.Target) {
	icon := "🖥️ "
	if t.Kind == capture.KindWindow {
		icon = "🪟"
	}
	fmt.Fprintf(f.w, "  %s %-28s %s\n", icon, t.ID, t.DisplayName)
}

func (f *Formatter) Check(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

// FormatDuration renders d as 1h02m03s, 2m03s or 3s.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
