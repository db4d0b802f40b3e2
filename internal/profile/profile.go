// Package profile manages the user's persistent screenrec profile.
// The profile is stored at ~/.config/screenrec/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	OutputDir        string `json:"output_dir"`         // where recordings are saved by default
	AudioDevice      string `json:"audio_device"`       // PulseAudio source; empty = first microphone
	FrameRate        int    `json:"frame_rate"`         // 0 = config default
	PromptOnSave     bool   `json:"prompt_on_save"`     // ask for a path in headless mode
	ShellIndicator   bool   `json:"shell_indicator"`    // install the prompt plugin
	ShellPluginShell string `json:"shell_plugin_shell"` // "zsh" | "bash" | ""
}

// profilePath returns the path to the profile file.
func profilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// ConfigDir returns the screenrec config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "screenrec"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'screenrec setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Defaults is the profile offered on first run.
func Defaults() *Profile {
	return &Profile{
		OutputDir:    defaultOutputDir(),
		PromptOnSave: true,
	}
}

// RunSetup runs the interactive setup wizard and returns the resulting
// profile. If existing is non-nil, it is used as the default for each prompt
// (edit mode). devices, when non-empty, is offered as the list of
// microphones.
func RunSetup(existing *Profile, devices []string, in io.Reader, out io.Writer) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		return strings.ToLower(ans) == "y" || strings.ToLower(ans) == "yes", nil
	}

	prof := Defaults()
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │  screenrec, first-time setup    │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	prof.OutputDir, err = ask("  Save recordings to", prof.OutputDir)
	if err != nil {
		return nil, err
	}

	if len(devices) > 0 {
		fmt.Fprintln(out, "  Microphones:")
		for i, d := range devices {
			fmt.Fprintf(out, "    %d) %s\n", i+1, d)
		}
	}
	dev, err := ask("  Microphone (number, name, or empty for the first one)", prof.AudioDevice)
	if err != nil {
		return nil, err
	}
	if n, convErr := strconv.Atoi(dev); convErr == nil && n >= 1 && n <= len(devices) {
		dev = devices[n-1]
	}
	prof.AudioDevice = dev

	rate := ""
	if prof.FrameRate > 0 {
		rate = strconv.Itoa(prof.FrameRate)
	}
	rate, err = ask("  Frame rate (empty for default)", rate)
	if err != nil {
		return nil, err
	}
	prof.FrameRate = 0
	if n, convErr := strconv.Atoi(rate); convErr == nil && n > 0 {
		prof.FrameRate = n
	}

	prof.PromptOnSave, err = askBool("  Ask where to save each headless recording", prof.PromptOnSave)
	if err != nil {
		return nil, err
	}

	prof.ShellIndicator, err = askBool("  Show ● REC in your shell prompt while recording", prof.ShellIndicator)
	if err != nil {
		return nil, err
	}

	if prof.ShellIndicator {
		shell, err := ask("  Shell (zsh/bash)", detectShell(prof.ShellPluginShell))
		if err != nil {
			return nil, err
		}
		prof.ShellPluginShell = shell
	} else {
		prof.ShellPluginShell = ""
	}

	fmt.Fprintln(out)
	return prof, nil
}

// detectShell returns current if set, else the base name of $SHELL.
func detectShell(current string) string {
	if current != "" {
		return current
	}
	shell := filepath.Base(os.Getenv("SHELL"))
	if shell == "zsh" || shell == "bash" {
		return shell
	}
	return "zsh"
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	videos := filepath.Join(home, "Videos")
	if info, err := os.Stat(videos); err == nil && info.IsDir() {
		return videos
	}
	return "."
}
