package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Nikola31267/food-management/internal/config"
	"github.com/Nikola31267/food-management/internal/document/repository"
	"github.com/Nikola31267/food-management/internal/export"
)

// setupEnv points the CLI at a temp output dir and an in-memory source.
func setupEnv(t *testing.T) (string, *repository.MemoryRepo) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "exports")
	for _, k := range []string{
		"MONGODB_DATABASE", "MONGODB_TIMEOUT", "EXPORT_PREFIX", "EXPORT_COLLECTIONS",
		"EXPORT_STREAM", "EXPORT_HISTORY_LIMIT", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD",
		"REDIS_DB", "MINIO_ENDPOINT", "METRICS_TEXTFILE", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("EXPORT_OUTPUT_DIR", dir)

	src := repository.NewMemoryRepo()
	src.Insert("unpaids", bson.D{{Key: "name", Value: "Ivan"}, {Key: "amount", Value: int32(42)}})
	src.Insert("users", bson.D{{Key: "email", Value: "ivan@example.com"}})

	orig := openSource
	openSource = func(context.Context, *config.Config) (export.Source, func(), error) {
		return src, func() {}, nil
	}
	t.Cleanup(func() { openSource = orig })
	return dir, src
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func exportFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRootRunsFullExport(t *testing.T) {
	dir, _ := setupEnv(t)

	out, err := execute(t)
	require.NoError(t, err)
	require.Contains(t, out, "Connecting to MongoDB...")
	require.Contains(t, out, "Connection successful!")
	require.Contains(t, out, "unpaids: 1 document(s)")
	require.Contains(t, out, "weeklymenu: 0 document(s)")
	require.Contains(t, out, "Export complete")

	files := exportFiles(t, dir)
	require.Len(t, files, 1)
	require.Regexp(t, `^foodmanagement_\d{8}_\d{6}\.json$`, files[0])
}

func TestFullCommandWithDatabaseFlag(t *testing.T) {
	dir, _ := setupEnv(t)
	var got string
	openSource = func(_ context.Context, cfg *config.Config) (export.Source, func(), error) {
		got = cfg.MongoDB.Database
		return repository.NewMemoryRepo(), func() {}, nil
	}

	_, err := execute(t, "full", "--database", "foodmanagement")
	require.NoError(t, err)
	require.Equal(t, "foodmanagement", got)
	require.Len(t, exportFiles(t, dir), 1)
}

func TestFullCommandStreamFlag(t *testing.T) {
	dir, _ := setupEnv(t)

	_, err := execute(t, "full", "--stream")
	require.NoError(t, err)
	files := exportFiles(t, dir)
	require.Len(t, files, 1)

	b, err := os.ReadFile(filepath.Join(dir, files[0]))
	require.NoError(t, err)
	require.Contains(t, string(b), "\"daydeliveries\": []")
	require.Contains(t, string(b), `"email": "ivan@example.com"`)
}

func TestUnpaidsCommand(t *testing.T) {
	dir, _ := setupEnv(t)

	out, err := execute(t, "unpaids")
	require.NoError(t, err)
	require.Contains(t, out, "unpaids: 1 document(s) found")
	require.NotContains(t, out, "users:")

	files := exportFiles(t, dir)
	require.Len(t, files, 1)
	require.Regexp(t, `^unpaids_\d{8}_\d{6}\.json$`, files[0])

	b, err := os.ReadFile(filepath.Join(dir, files[0]))
	require.NoError(t, err)
	require.Contains(t, string(b), `"name": "Ivan"`)
}

func TestCollectionCommandWithKindAndOutputDir(t *testing.T) {
	setupEnv(t)
	other := filepath.Join(t.TempDir(), "elsewhere")

	_, err := execute(t, "collection", "users", "--kind", "users_backup", "--output-dir", other)
	require.NoError(t, err)

	files := exportFiles(t, other)
	require.Len(t, files, 1)
	require.Regexp(t, `^users_backup_\d{8}_\d{6}\.json$`, files[0])
}

func TestCollectionCommandRejectsBadKind(t *testing.T) {
	dir, _ := setupEnv(t)

	_, err := execute(t, "collection", "users", "--kind", "a/b")
	require.ErrorIs(t, err, export.ErrInvalidPlan)
	require.Empty(t, exportFiles(t, dir))
}

func TestMissingURIFails(t *testing.T) {
	dir, _ := setupEnv(t)
	t.Setenv("MONGODB_URI", "")

	_, err := execute(t, "unpaids")
	require.ErrorIs(t, err, config.ErrMissingURI)
	require.Empty(t, exportFiles(t, dir))
}

func TestConnectFailureWritesNothing(t *testing.T) {
	dir, _ := setupEnv(t)
	openSource = func(context.Context, *config.Config) (export.Source, func(), error) {
		return nil, nil, errors.New("mongo ping: server selection timeout")
	}

	out, err := execute(t)
	require.ErrorContains(t, err, "mongo ping")
	require.NotContains(t, out, "Connection successful!")
	require.Empty(t, exportFiles(t, dir))
}

func TestMetricsTextfileWritten(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "mongo_export.prom")
	t.Setenv("METRICS_TEXTFILE", path)

	_, err := execute(t, "unpaids")
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `mongo_export_runs_total{kind="unpaids",status="success"}`)
}

func TestHistoryAfterExport(t *testing.T) {
	setupEnv(t)
	s := miniredis.RunT(t)
	t.Setenv("REDIS_HOST", s.Host())
	t.Setenv("REDIS_PORT", s.Port())

	_, err := execute(t, "unpaids")
	require.NoError(t, err)
	_, err = execute(t, "unpaids")
	require.NoError(t, err)

	out, err := execute(t, "history", "unpaids", "--limit", "1")
	require.NoError(t, err)
	require.Contains(t, out, "STARTED")
	require.Equal(t, 1, strings.Count(out, "unpaids_"))

	out, err = execute(t, "history", "weeklymenu")
	require.NoError(t, err)
	require.Contains(t, out, "No runs recorded for weeklymenu")
}

func TestHistoryWithoutMongoURI(t *testing.T) {
	setupEnv(t)
	t.Setenv("MONGODB_URI", "")
	s := miniredis.RunT(t)
	t.Setenv("REDIS_HOST", s.Host())
	t.Setenv("REDIS_PORT", s.Port())

	out, err := execute(t, "history", "unpaids")
	require.NoError(t, err)
	require.Contains(t, out, "No runs recorded for unpaids")

	_, err = execute(t, "unpaids")
	require.ErrorIs(t, err, config.ErrMissingURI)
}

func TestHistoryUnavailableRedis(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "history")
	require.ErrorIs(t, err, errNoRedis)

	t.Setenv("REDIS_HOST", "127.0.0.1")
	t.Setenv("REDIS_PORT", "1")
	_, err = execute(t, "history")
	require.ErrorContains(t, err, "not reachable")
}

func TestExportContinuesWithoutRedis(t *testing.T) {
	dir, _ := setupEnv(t)
	t.Setenv("REDIS_HOST", "127.0.0.1")
	t.Setenv("REDIS_PORT", "1")

	_, err := execute(t, "unpaids")
	require.NoError(t, err)
	require.Len(t, exportFiles(t, dir), 1)
}
