package cmd

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/screenrec/internal/encoder"
	"github.com/fakeyudi/screenrec/internal/output"
	"github.com/fakeyudi/screenrec/internal/shell"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the tools screenrec needs are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := output.NewFormatter(cmd.OutOrStdout())
		c := GetConfig()

		failed := 0
		check := func(name string, err error, ok string) {
			if err != nil {
				failed++
				f.Check(name, false, err.Error())
				return
			}
			f.Check(name, true, ok)
		}

		ff := &encoder.FFmpeg{Path: c.FFmpegPath}
		check("ffmpeg", ff.CheckFFmpeg(), c.FFmpegPath)
		for _, tool := range []string{"xrandr", "wmctrl", "pactl"} {
			path, err := exec.LookPath(tool)
			check(tool, err, path)
		}

		if display := os.Getenv("DISPLAY"); display == "" {
			failed++
			f.Check("DISPLAY", false, "not set; screenrec needs an X11 session")
		} else {
			f.Check("DISPLAY", true, display)
		}

		// The prompt indicator is optional, so it never fails the check.
		if sh := shell.Detect(); sh != "" {
			if shell.IsInstalled(sh) {
				f.Check(sh+" prompt indicator", true, "installed")
			} else {
				f.Check(sh+" prompt indicator", true, "not installed (run 'screenrec setup')")
			}
		}

		if failed > 0 {
			f.Warning("some checks failed; recording may not work")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
