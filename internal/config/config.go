package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/fakeyudi/screenrec/internal/encoder"
)

// ProjectFile is the per-directory override file.
const ProjectFile = ".screenrecconfig"

// Config holds all configurable screenrec settings.
type Config struct {
	OutputDir   string `json:"output_dir"`
	Container   string `json:"container"`   // ffmpeg muxer: "webm" | "matroska" | "mp4"
	VideoCodec  string `json:"video_codec"` // e.g. "libvpx-vp9"
	AudioCodec  string `json:"audio_codec"` // e.g. "libopus"
	FrameRate   int    `json:"frame_rate"`
	AudioDevice string `json:"audio_device"` // PulseAudio source name; empty = first microphone
	FFmpegPath  string `json:"ffmpeg_path"`
	LogLevel    string `json:"log_level"` // "debug" | "info" | "warn" | "error"
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	p := encoder.DefaultParams()
	return Config{
		OutputDir:  ".",
		Container:  p.Container,
		VideoCodec: p.VideoCodec,
		AudioCodec: p.AudioCodec,
		FrameRate:  p.FrameRate,
		FFmpegPath: "ffmpeg",
		LogLevel:   "info",
	}
}

// Params returns the encoding parameters described by c.
func (c Config) Params() encoder.Params {
	return encoder.Params{
		Container:  c.Container,
		VideoCodec: c.VideoCodec,
		AudioCodec: c.AudioCodec,
		FrameRate:  c.FrameRate,
	}
}

// GlobalPath returns ~/.config/screenrec/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "screenrec", "config.json"), nil
}

// LoadGlobal reads ~/.config/screenrec/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .screenrecconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// Load reads both files and merges them.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Defaults(), err
	}
	project, err := LoadProject()
	if err != nil {
		return Defaults(), err
	}
	return Merge(global, project), nil
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	apply(&result, global)
	apply(&result, project)
	return result
}

func apply(dst, src *Config) {
	if src == nil {
		return
	}
	setString(&dst.OutputDir, src.OutputDir)
	setString(&dst.Container, src.Container)
	setString(&dst.VideoCodec, src.VideoCodec)
	setString(&dst.AudioCodec, src.AudioCodec)
	setString(&dst.AudioDevice, src.AudioDevice)
	setString(&dst.FFmpegPath, src.FFmpegPath)
	setString(&dst.LogLevel, src.LogLevel)
	if src.FrameRate > 0 {
		dst.FrameRate = src.FrameRate
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
