// Package shell installs the prompt plugin that shows when a recording is
// in progress.
package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PluginPath returns the path where the plugin file should be written.
func PluginPath(shell string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	name := "screenrec.plugin." + shell
	return filepath.Join(home, ".config", "screenrec", name), nil
}

// Install writes the plugin file for the given shell and prints the source
// instruction the user needs to add to their rc file.
func Install(shell string, w io.Writer) error {
	path, err := PluginPath(shell)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var content string
	switch shell {
	case "zsh":
		content = ZshPlugin
	case "bash":
		content = BashPlugin
	default:
		return fmt.Errorf("unsupported shell for plugin: %s (supported: zsh, bash)", shell)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing plugin file: %w", err)
	}

	rcFile := rcFileName(shell)
	fmt.Fprintf(w, "\n  ✓ Plugin written to %s\n", path)
	fmt.Fprintf(w, "\n  Add this line to your %s:\n", rcFile)
	fmt.Fprintf(w, "    source %s\n", path)
	fmt.Fprintf(w, "\n  Then reload: source %s\n\n", rcFile)
	return nil
}

// IsInstalled reports whether the plugin file exists on disk.
func IsInstalled(shell string) bool {
	path, err := PluginPath(shell)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Detect returns the base name of the current shell, defaulting to zsh.
func Detect() string {
	shell := filepath.Base(os.Getenv("SHELL"))
	if shell == "zsh" || shell == "bash" {
		return shell
	}
	return "zsh"
}

func rcFileName(shell string) string {
	switch shell {
	case "zsh":
		return "~/.zshrc"
	case "bash":
		return "~/.bashrc"
	default:
		return "~/." + shell + "rc"
	}
}
