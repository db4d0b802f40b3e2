package capture

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	screenPrefix = "screen:"
	windowPrefix = "window:"

	defaultFrameRate = 30
)

// X11Platform implements Platform on an X11 desktop with PulseAudio (or
// PipeWire's pulse shim). Screens come from xrandr, windows from wmctrl and
// microphones from pactl; the returned tracks carry ffmpeg x11grab/pulse
// input arguments.
type X11Platform struct {
	Display     string // e.g. ":0.0"
	AudioDevice string // pulse source name; empty picks the first microphone
	Runner      Runner // if nil, uses real subprocesses
	Logger      *zap.Logger
}

func (p *X11Platform) run(ctx context.Context, name string, args ...string) (string, error) {
	runner := p.Runner
	if runner == nil {
		runner = defaultRunner
	}
	return runner(ctx, name, args...)
}

func (p *X11Platform) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// ListSources implements Platform.
func (p *X11Platform) ListSources(ctx context.Context, kinds ...Kind) ([]Target, error) {
	if p.Display == "" {
		return nil, fmt.Errorf("%w: DISPLAY is not set", ErrPlatformQuery)
	}
	want := map[Kind]bool{}
	for _, k := range kinds {
		want[k] = true
	}
	if len(want) == 0 {
		want[KindScreen], want[KindWindow] = true, true
	}

	targets := []Target{}
	if want[KindScreen] {
		screens, err := p.screens(ctx)
		if err != nil {
			return nil, err
		}
		targets = append(targets, screens...)
	}
	if want[KindWindow] {
		windows, err := p.windows(ctx)
		if err != nil {
			if !errors.Is(err, exec.ErrNotFound) {
				return nil, err
			}
			// Window listing is optional; screens are still usable.
			p.logger().Warn("wmctrl not found, windows will not be listed")
		}
		targets = append(targets, windows...)
	}
	return targets, nil
}

func (p *X11Platform) screens(ctx context.Context) ([]Target, error) {
	out, err := p.run(ctx, "xrandr", "--display", p.Display, "--listmonitors")
	if err != nil {
		return nil, classify("xrandr", err)
	}
	return parseMonitors(out), nil
}

func (p *X11Platform) windows(ctx context.Context) ([]Target, error) {
	out, err := p.run(ctx, "wmctrl", "-lG")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, err
		}
		return nil, classify("wmctrl", err)
	}
	return parseWindows(out), nil
}

// GetUserMedia implements Platform.
func (p *X11Platform) GetUserMedia(ctx context.Context, c Constraints) (*Stream, error) {
	switch {
	case c.Video != nil:
		return p.videoStream(ctx, *c.Video)
	case c.Audio:
		return p.audioStream(ctx)
	default:
		return nil, fmt.Errorf("get user media: empty constraints")
	}
}

func (p *X11Platform) videoStream(ctx context.Context, vc VideoConstraints) (*Stream, error) {
	rate := vc.FrameRate
	if rate <= 0 {
		rate = defaultFrameRate
	}

	var kind Kind
	switch {
	case strings.HasPrefix(vc.Target.ID, screenPrefix):
		kind = KindScreen
	case strings.HasPrefix(vc.Target.ID, windowPrefix):
		kind = KindWindow
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTarget, vc.Target.ID)
	}

	// Re-list so a target that disappeared since enumeration is rejected.
	current, err := p.ListSources(ctx, kind)
	if err != nil {
		return nil, err
	}
	var live *Target
	for i := range current {
		if current[i].ID == vc.Target.ID {
			live = &current[i]
			break
		}
	}
	if live == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTarget, vc.Target.ID)
	}

	input := []string{"-f", "x11grab", "-framerate", strconv.Itoa(rate)}
	if kind == KindScreen {
		input = append(input,
			"-video_size", fmt.Sprintf("%dx%d", live.Width, live.Height),
			"-i", fmt.Sprintf("%s+%d,%d", p.Display, live.X, live.Y))
	} else {
		input = append(input,
			"-window_id", strings.TrimPrefix(live.ID, windowPrefix),
			"-i", p.Display)
	}

	track := NewTrack(uuid.New().String(), TrackVideo, live.DisplayName, input, func() {
		p.logger().Debug("video track released", zap.String("target", live.ID))
	})
	return NewStream(uuid.New().String(), track), nil
}

// Microphones lists the PulseAudio sources that can be recorded from.
func (p *X11Platform) Microphones(ctx context.Context) ([]string, error) {
	out, err := p.run(ctx, "pactl", "list", "short", "sources")
	if err != nil {
		return nil, classify("pactl", err)
	}
	return parseSources(out), nil
}

func (p *X11Platform) audioStream(ctx context.Context) (*Stream, error) {
	names, err := p.Microphones(ctx)
	if err != nil {
		return nil, err
	}

	stream := NewStream(uuid.New().String())
	for _, name := range names {
		name := name
		if p.AudioDevice != "" && name != p.AudioDevice {
			continue
		}
		track := NewTrack(uuid.New().String(), TrackAudio, name, []string{"-f", "pulse", "-i", name}, func() {
			p.logger().Debug("audio track released", zap.String("source", name))
		})
		if err := stream.AddTrack(track); err != nil {
			return nil, err
		}
	}
	return stream, nil
}

// classify maps a failed platform command onto the capture error taxonomy.
func classify(name string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s not installed", ErrPlatformQuery, name)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "authorization required"),
		strings.Contains(msg, "no protocol specified"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %v", ErrPlatformQuery, err)
	}
}

var monitorGeometry = regexp.MustCompile(`^(\d+)/\d+x(\d+)/\d+\+(-?\d+)\+(-?\d+)$`)

// parseMonitors parses `xrandr --listmonitors` output:
//
//	Monitors: 2
//	 0: +*eDP-1 1920/344x1080/193+0+0  eDP-1
//	 1: +HDMI-1 2560/597x1440/336+1920+0  HDMI-1
func parseMonitors(out string) []Target {
	var targets []Target
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || !strings.HasSuffix(fields[0], ":") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(fields[0], ":"))
		if err != nil {
			continue
		}
		m := monitorGeometry.FindStringSubmatch(fields[2])
		if m == nil {
			continue
		}
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		x, _ := strconv.Atoi(m[3])
		y, _ := strconv.Atoi(m[4])
		targets = append(targets, Target{
			ID:          screenPrefix + strconv.Itoa(idx),
			Kind:        KindScreen,
			DisplayName: fmt.Sprintf("Screen %d (%s)", idx+1, fields[len(fields)-1]),
			X:           x, Y: y, Width: w, Height: h,
		})
	}
	if len(targets) == 1 {
		targets[0].DisplayName = "Entire Screen"
	}
	return targets
}

// parseWindows parses `wmctrl -lG` output:
//
//	0x03a00003  0 0    0    1920 1080 host Title words
//
// Sticky windows (desktop -1, usually panels and docks) and untitled windows
// are skipped.
func parseWindows(out string) []Target {
	var targets []Target
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 8 || !strings.HasPrefix(fields[0], "0x") {
			continue
		}
		if fields[1] == "-1" {
			continue
		}
		nums := make([]int, 4)
		ok := true
		for i := range nums {
			n, err := strconv.Atoi(fields[2+i])
			if err != nil {
				ok = false
				break
			}
			nums[i] = n
		}
		if !ok {
			continue
		}
		title := strings.Join(fields[7:], " ")
		targets = append(targets, Target{
			ID:          windowPrefix + fields[0],
			Kind:        KindWindow,
			DisplayName: title,
			X:           nums[0], Y: nums[1], Width: nums[2], Height: nums[3],
		})
	}
	return targets
}

// parseSources returns microphone names from `pactl list short sources`,
// skipping the ".monitor" loopbacks of output sinks.
func parseSources(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimSpace(fields[1])
		if name == "" || strings.HasSuffix(name, ".monitor") {
			continue
		}
		names = append(names, name)
	}
	return names
}
