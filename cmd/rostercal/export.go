package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"rostercal/internal/ics"
	"rostercal/internal/store"
)

var exportOpts struct {
	person string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export-ics",
	Short: "Write the saved events as an iCalendar file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Read-only: a fresh State without a persister never writes back.
		snap, err := store.Load(cfg.StatePath)
		if err != nil {
			return err
		}
		st := newReadOnlyState(cfg.Location())
		st.Restore(snap)

		out := ics.Export(st.Events(exportOpts.person), time.Now())
		if exportOpts.output == "" || exportOpts.output == "-" {
			_, err := io.WriteString(cmd.OutOrStdout(), out)
			return err
		}
		return store.WriteFileAtomic(exportOpts.output, []byte(out), ".rostercal-export-*.tmp")
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOpts.person, "person", "", "Only events for this person")
	exportCmd.Flags().StringVarP(&exportOpts.output, "output", "o", "-", "Output file, - for stdout")
}
