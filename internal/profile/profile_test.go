package profile

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunSetupAnswers(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHELL", "/bin/bash")

	input := strings.Join([]string{
		"/tmp/videos", // output dir
		"2",           // second microphone
		"24",          // frame rate
		"n",           // prompt on save
		"y",           // shell indicator
		"",            // shell: detected default
	}, "\n") + "\n"

	var out bytes.Buffer
	prof, err := RunSetup(nil, []string{"mic-a", "mic-b"}, strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}

	want := Profile{
		OutputDir:        "/tmp/videos",
		AudioDevice:      "mic-b",
		FrameRate:        24,
		PromptOnSave:     false,
		ShellIndicator:   true,
		ShellPluginShell: "bash",
	}
	if *prof != want {
		t.Errorf("got %+v, want %+v", *prof, want)
	}
	if !strings.Contains(out.String(), "2) mic-b") {
		t.Error("microphones not listed")
	}
}

func TestRunSetupKeepsExistingOnEmptyAnswers(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	existing := &Profile{OutputDir: "/rec", AudioDevice: "usb-mic", FrameRate: 60, PromptOnSave: true}

	prof, err := RunSetup(existing, nil, strings.NewReader("\n\n\n\n\n"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if *prof != *existing {
		t.Errorf("got %+v, want %+v", *prof, *existing)
	}
}

func TestRunSetupEOF(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := RunSetup(nil, nil, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error on empty input")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if Exists() {
		t.Fatal("profile exists in empty home")
	}
	in := &Profile{OutputDir: "/v", AudioDevice: "mic", FrameRate: 15, ShellIndicator: true, ShellPluginShell: "zsh"}
	if err := Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *out != *in {
		t.Errorf("got %+v, want %+v", *out, *in)
	}
}
