package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fakeyudi/screenrec/internal/capture"
)

// DefaultChunkSize is the read size used to slice ffmpeg output into chunks.
const DefaultChunkSize = 64 * 1024

// ErrNotRunning is returned by Stop when Start was never called.
var ErrNotRunning = errors.New("encoder not running")

// FFmpeg encodes by running ffmpeg with the stream's track inputs and reading
// the muxed output from its stdout.
type FFmpeg struct {
	Path      string // ffmpeg binary; defaults to "ffmpeg"
	LogPath   string // ffmpeg stderr is appended here when set
	ChunkSize int
	Logger    *zap.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	logFile *os.File
	done    chan result
}

type result struct {
	bytes   int64
	readErr error
	waitErr error
}

// CheckFFmpeg reports whether the ffmpeg binary can be found.
func (f *FFmpeg) CheckFFmpeg() error {
	if _, err := exec.LookPath(f.path()); err != nil {
		return fmt.Errorf("ffmpeg not found (%s): install it with your package manager", f.path())
	}
	return nil
}

func (f *FFmpeg) path() string {
	if f.Path == "" {
		return "ffmpeg"
	}
	return f.Path
}

func (f *FFmpeg) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// Start implements Encoder.
func (f *FFmpeg) Start(ctx context.Context, stream *capture.Stream, params Params, emit func([]byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cmd != nil {
		return fmt.Errorf("ffmpeg already running")
	}

	args, err := BuildArgs(stream, params)
	if err != nil {
		return err
	}

	// Not bound to ctx: the recording must outlive the request that started
	// it and is shut down through Stop.
	cmd := exec.Command(f.path(), args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if f.LogPath != "" {
		if lf, err := os.OpenFile(f.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			cmd.Stderr = lf
			f.logFile = lf
		}
	}

	if err := cmd.Start(); err != nil {
		f.closeLog()
		return fmt.Errorf("starting ffmpeg: %w", err)
	}
	f.logger().Info("ffmpeg started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("args", strings.Join(args, " ")))

	size := f.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	done := make(chan result, 1)
	go func() {
		n, readErr := Pump(stdout, size, emit)
		// Wait only after stdout is drained.
		waitErr := cmd.Wait()
		done <- result{bytes: n, readErr: readErr, waitErr: waitErr}
	}()

	f.cmd, f.stdin, f.done = cmd, stdin, done
	return nil
}

// Stop implements Encoder. It asks ffmpeg to quit so the container trailer is
// written, then waits for the output to drain. If ctx ends first the process
// is killed.
func (f *FFmpeg) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cmd == nil {
		return ErrNotRunning
	}
	defer func() {
		f.closeLog()
		f.cmd, f.stdin, f.done = nil, nil, nil
	}()

	if _, err := io.WriteString(f.stdin, "q"); err != nil {
		f.logger().Warn("could not ask ffmpeg to quit, interrupting", zap.Error(err))
		_ = f.cmd.Process.Signal(os.Interrupt)
	}
	_ = f.stdin.Close()

	var res result
	select {
	case res = <-f.done:
	case <-ctx.Done():
		_ = f.cmd.Process.Kill()
		<-f.done
		return fmt.Errorf("stopping ffmpeg: %w", ctx.Err())
	}

	if res.readErr != nil {
		return fmt.Errorf("reading ffmpeg output: %w", res.readErr)
	}
	if res.waitErr != nil {
		if res.bytes == 0 {
			return fmt.Errorf("ffmpeg exited without output: %w", res.waitErr)
		}
		f.logger().Warn("ffmpeg exited with error after producing output", zap.Error(res.waitErr))
	}
	f.logger().Info("ffmpeg finished", zap.Int64("bytes", res.bytes))
	return nil
}

func (f *FFmpeg) closeLog() {
	if f.logFile != nil {
		f.logFile.Close()
		f.logFile = nil
	}
}

// Pump reads r until EOF and hands each read to emit as a fresh slice, in
// order. It returns the number of bytes delivered.
func Pump(r io.Reader, size int, emit func([]byte)) (int64, error) {
	buf := make([]byte, size)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			emit(chunk)
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// BuildArgs returns the ffmpeg arguments that mux the stream's first video
// and first audio track into params.Container on stdout.
func BuildArgs(stream *capture.Stream, params Params) ([]string, error) {
	if stream == nil {
		return nil, fmt.Errorf("build ffmpeg args: nil stream")
	}
	video := stream.VideoTracks()
	if len(video) == 0 {
		return nil, fmt.Errorf("build ffmpeg args: stream has no video track")
	}
	audio := stream.AudioTracks()
	if len(audio) == 0 {
		return nil, fmt.Errorf("build ffmpeg args: %w", capture.ErrNoAudioTrack)
	}

	def := DefaultParams()
	if params.Container == "" {
		params.Container = def.Container
	}
	if params.VideoCodec == "" {
		params.VideoCodec = def.VideoCodec
	}
	if params.AudioCodec == "" {
		params.AudioCodec = def.AudioCodec
	}

	args := []string{"-hide_banner", "-loglevel", "warning", "-nostats"}
	args = append(args, video[0].Input...)
	args = append(args, audio[0].Input...)
	args = append(args,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", params.VideoCodec,
	)
	if strings.HasPrefix(params.VideoCodec, "libvpx") {
		args = append(args, "-deadline", "realtime", "-cpu-used", "8")
	}
	if params.FrameRate > 0 {
		args = append(args, "-r", strconv.Itoa(params.FrameRate))
	}
	args = append(args,
		"-c:a", params.AudioCodec,
		"-f", params.Container,
		"pipe:1",
	)
	return args, nil
}
