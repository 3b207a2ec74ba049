package cli

import (
	"fmt"
	"time"

	"github.com/soyeahso/jsmdeploy/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit, prune int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent lifecycle runs, or the steps of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := store.OpenHistory(cmd.Context(), historyPath(), log)
			if err != nil {
				return err
			}
			defer h.Close()
			w := cmd.OutOrStdout()

			if cmd.Flags().Changed("prune") {
				n, err := h.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "pruned %d run(s)\n", n)
				return nil
			}

			if len(args) == 1 {
				run, err := h.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				steps, err := h.Steps(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s %s %s\n", titleStyle.Render(run.Operation), statusText(run.Status), run.ID)
				for _, s := range steps {
					detail := s.Message
					if s.Status == store.RunOK {
						detail = s.Duration.Round(time.Millisecond).String()
					}
					if s.Error != "" {
						detail = s.Error
					}
					fmt.Fprintf(w, "  %-8s %-16s %s\n", statusText(s.Status), s.Name, detail)
				}
				return nil
			}

			runs, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(w, "no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %-9s %-8s %8s  %s\n",
					r.Started.Local().Format("2006-01-02 15:04:05"),
					r.Operation, statusText(r.Status),
					r.Duration().Round(time.Second), r.ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the newest N runs")
	return cmd
}
