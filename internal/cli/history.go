package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Nikola31267/food-management/internal/history"
)

var errNoRedis = errors.New("run history needs REDIS_HOST")

func newHistoryCmd(a *app) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "history [kind]",
		Short: "Show recorded export runs",
		Long: `
Show the most recent export runs recorded in Redis, newest first.
kind defaults to the full export prefix. MONGODB_URI is not required.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{offlineAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := a.cfg.Export.Prefix
			if len(args) == 1 {
				kind = args[0]
			}
			if limit <= 0 {
				limit = a.cfg.Export.HistoryLimit
			}

			ctx := cmd.Context()
			if a.cfg.Redis.Addr() == "" {
				return errNoRedis
			}
			rdb := a.redis(ctx)
			if rdb == nil {
				return fmt.Errorf("redis %s is not reachable", a.cfg.Redis.Addr())
			}
			defer rdb.Close()

			runs, err := history.NewRedisRecorder(rdb, "", a.cfg.Export.HistoryLimit).List(ctx, kind, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				color.New(color.FgYellow).Fprintf(a.out, "No runs recorded for %s\n", kind)
				return nil
			}
			printRuns(a, runs)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "n", 0, "number of runs to show (default EXPORT_HISTORY_LIMIT)")
	return cmd
}

func printRuns(a *app, runs []history.Run) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tDURATION\tDOCUMENTS\tFILE\tUPLOADED")
	for _, r := range runs {
		uploaded := r.Uploaded
		if uploaded == "" {
			uploaded = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Total(), r.File, uploaded)
	}
	tw.Flush()
}
