package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"techhourse/internal/behavior"
)

func newBehaviorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "behavior",
		Short: "Record or show usage behavior snapshots",
	}
	cmd.AddCommand(newBehaviorRecordCmd(app), newBehaviorShowCmd(app))
	return cmd
}

func newBehaviorRecordCmd(app *App) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append a snapshot from key=value readings",
		Example: "  techhourse behavior record --field battery=85% --field game_time=3.5小时\n" +
			"  techhourse behavior record --field 夜间拍照=经常",
		RunE: func(cmd *cobra.Command, args []string) error {
			usage := make(map[string]string, len(fields))
			for _, f := range fields {
				k, v, ok := strings.Cut(f, "=")
				if !ok || strings.TrimSpace(k) == "" {
					return fmt.Errorf("invalid --field %q, want key=value", f)
				}
				usage[strings.TrimSpace(k)] = v
			}

			snap, err := app.Recorder.Record(cmd.Context(), usage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded snapshot %d\n", snap.ID)
			printSnapshot(cmd, snap)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "Reading as key=value (repeatable)")

	return cmd
}

func newBehaviorShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the newest snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.Store.LatestBehavior(cmd.Context())
			if err != nil {
				return err
			}
			if snap == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No behavior recorded.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %d, recorded %s\n", snap.ID, humanize.Time(snap.RecordedAt))
			printSnapshot(cmd, snap)
			return nil
		},
	}
}

func printSnapshot(cmd *cobra.Command, s *behavior.Snapshot) {
	out := cmd.OutOrStdout()
	rows := []struct{ label, value string }{
		{"Screen usage", s.ScreenUsage},
		{"Battery", s.Battery},
		{"Memory", s.Memory},
		{"Usage period", s.UsagePeriod},
		{"Gallery ratio", s.GalleryRatio},
		{"Game time", s.GameTime},
		{"Night photos", s.NightPhoto},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-14s %s\n", r.label+":", r.value)
	}
}
