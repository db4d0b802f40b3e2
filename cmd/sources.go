package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/screenrec/internal/output"
	"github.com/fakeyudi/screenrec/internal/session"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the screens and windows that can be recorded",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore()
		if err != nil {
			return err
		}
		ctrl := newController(&liveConfig{cfg: GetConfig()}, store)

		targets, err := ctrl.Sources(cmd.Context())
		if err != nil {
			return userError{err}
		}

		if sourcesJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(targets)
		}
		f := output.NewFormatter(cmd.OutOrStdout())
		if len(targets) == 0 {
			f.Info("no screens or windows found")
			return nil
		}
		for _, t := range targets {
			f.SourceListItem(t)
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "print the sources as JSON")
	rootCmd.AddCommand(sourcesCmd)
}
