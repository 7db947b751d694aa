package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Nikola31267/food-management/internal/config"
	"github.com/Nikola31267/food-management/internal/database"
	"github.com/Nikola31267/food-management/internal/document/repository"
	"github.com/Nikola31267/food-management/internal/export"
	"github.com/Nikola31267/food-management/internal/history"
	"github.com/Nikola31267/food-management/internal/storage"
	"github.com/Nikola31267/food-management/pkg/logger"
	"github.com/Nikola31267/food-management/pkg/metrics"
)

// openSource connects to the document store. Replaced in tests.
var openSource = func(ctx context.Context, cfg *config.Config) (export.Source, func(), error) {
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := database.Disconnect(client, cfg.MongoDB.Timeout); err != nil {
			logger.Warnf("%v", err)
		}
	}
	return repository.NewMongoRepo(client.Database(cfg.MongoDB.Database)), release, nil
}

func newFullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "Export every configured collection into one file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFull(cmd.Context())
		},
	}
}

func newUnpaidsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unpaids",
		Short: "Export the unpaids collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), export.CollectionPlan("unpaids", ""))
		},
	}
}

func newCollectionCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "collection <name>",
		Short: "Export a single collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), export.CollectionPlan(args[0], kind))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "output file prefix (default is the collection name)")
	return cmd
}

func (a *app) runFull(ctx context.Context) error {
	return a.run(ctx, export.FullPlan(a.cfg.Export.Prefix, a.cfg.Export.Collections))
}

func (a *app) run(ctx context.Context, plan export.Plan) error {
	if ctx == nil {
		ctx = context.Background()
	}
	plan.Stream = a.cfg.Export.Stream

	// Reject bad input before touching the network.
	if err := plan.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	defer a.writeMetrics(reg)

	fmt.Fprintln(a.out, "Connecting to MongoDB...")
	src, release, err := openSource(ctx, a.cfg)
	if err != nil {
		metrics.Runs.WithLabelValues(plan.Kind, metrics.StatusFailure).Inc()
		return err
	}
	defer release()
	fmt.Fprintf(a.out, "%s\n\n", color.GreenString("Connection successful!"))

	e := export.New(src, a.cfg.Export.OutputDir)
	e.Progress = export.NewConsoleProgress(a.out, plan)
	if up := a.uploader(ctx); up != nil {
		e.Uploader = up
	}
	if rdb := a.redis(ctx); rdb != nil {
		defer rdb.Close()
		e.Recorder = history.NewRedisRecorder(rdb, "", a.cfg.Export.HistoryLimit)
	}

	res, err := e.Run(ctx, plan)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%s %s\n", color.GreenString("Export complete →"), res.Path)
	return nil
}

// uploader returns nil when MinIO is not configured or unreachable.
func (a *app) uploader(ctx context.Context) export.Uploader {
	if !a.cfg.MinIO.Enabled() {
		return nil
	}
	st, err := storage.NewMinIOStorage(ctx, a.cfg.MinIO)
	if err != nil {
		logger.Warnf("artifact upload disabled: %v", err)
		return nil
	}
	return st
}

// redis returns a connected client, or nil when Redis is not configured or
// does not answer.
func (a *app) redis(ctx context.Context) *redis.Client {
	addr := a.cfg.Redis.Addr()
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		logger.Warnf("run history disabled: redis %s: %v", addr, err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func (a *app) writeMetrics(g prometheus.Gatherer) {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile, g); err != nil {
		logger.Warnf("write metrics: %v", err)
	}
}
