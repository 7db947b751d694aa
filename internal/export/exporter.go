package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Nikola31267/food-management/internal/codec"
	"github.com/Nikola31267/food-management/internal/document"
	"github.com/Nikola31267/food-management/internal/history"
	"github.com/Nikola31267/food-management/pkg/logger"
	"github.com/Nikola31267/food-management/pkg/metrics"
)

// Source yields every document of a collection in storage order. A missing
// collection yields nothing and is not an error.
type Source interface {
	Each(ctx context.Context, collection string, fn func(document.Document) error) error
}

// Uploader stores a finished export file and returns its object key.
type Uploader interface {
	UploadFile(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

// Result describes a finished export.
type Result struct {
	Path      string
	Counts    []history.Count
	StartedAt time.Time
	Duration  time.Duration
	Uploaded  string
}

// Exporter writes collections from a Source into timestamped JSON files.
// Progress, Uploader and Recorder are optional.
type Exporter struct {
	source    Source
	outputDir string

	Progress Progress
	Uploader Uploader
	Recorder history.Recorder
	// Now defaults to time.Now.
	Now func() time.Time
}

func New(source Source, outputDir string) *Exporter {
	return &Exporter{source: source, outputDir: outputDir}
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) progress() Progress {
	if e.Progress != nil {
		return e.Progress
	}
	return noProgress{}
}

// Run performs one export. Read and encode failures abort the run before an
// output file is created. In stream mode the file is created first and is
// removed again if the run fails.
func (e *Exporter) Run(ctx context.Context, plan Plan) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	started := e.now()
	logger.Debugf("export %s: %d collection(s) into %s (stream=%v)", plan.Kind, len(plan.Collections), e.outputDir, plan.Stream)

	var res *Result
	err := EnsureDir(e.outputDir)
	if err == nil {
		if plan.Stream {
			res, err = e.runStream(ctx, plan, started)
		} else {
			res, err = e.runBuffered(ctx, plan, started)
		}
	}
	e.observe(plan.Kind, started, res, err)
	if err != nil {
		return nil, err
	}

	e.publish(ctx, plan, res)
	return res, nil
}

func (e *Exporter) runBuffered(ctx context.Context, plan Plan, started time.Time) (*Result, error) {
	bundle := make([]codec.Collection, 0, len(plan.Collections))
	counts := make([]history.Count, 0, len(plan.Collections))
	for _, name := range plan.Collections {
		docs := []codec.Object{}
		err := e.source.Each(ctx, name, func(d document.Document) error {
			obj, err := codec.EncodeDocument(d)
			if err != nil {
				return fmt.Errorf("document %d: %w", len(docs), err)
			}
			docs = append(docs, obj)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", name, err)
		}
		bundle = append(bundle, codec.Collection{Name: name, Documents: docs})
		counts = append(counts, history.Count{Collection: name, Documents: len(docs)})
		e.progress().Collection(name, len(docs))
	}

	f, path, err := createOutput(e.outputDir, plan.Kind, started)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(f)
	err = codec.WriteBundle(bw, bundle)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			logger.Warnf("remove partial export %s: %v", path, rerr)
		}
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return &Result{Path: path, Counts: counts, StartedAt: started, Duration: e.now().Sub(started)}, nil
}

func (e *Exporter) runStream(ctx context.Context, plan Plan, started time.Time) (*Result, error) {
	f, path, err := createOutput(e.outputDir, plan.Kind, started)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(f)
	w := codec.NewWriter(bw)

	counts, err := e.stream(ctx, plan, w)
	if err == nil {
		err = w.Close()
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			logger.Warnf("remove partial export %s: %v", path, rerr)
		}
		return nil, err
	}
	return &Result{Path: path, Counts: counts, StartedAt: started, Duration: e.now().Sub(started)}, nil
}

func (e *Exporter) stream(ctx context.Context, plan Plan, w *codec.Writer) ([]history.Count, error) {
	counts := make([]history.Count, 0, len(plan.Collections))
	for _, name := range plan.Collections {
		if err := w.BeginCollection(name); err != nil {
			return nil, err
		}
		n := 0
		err := e.source.Each(ctx, name, func(d document.Document) error {
			obj, err := codec.EncodeDocument(d)
			if err != nil {
				return fmt.Errorf("document %d: %w", n, err)
			}
			if err := w.WriteDocument(obj); err != nil {
				return err
			}
			n++
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", name, err)
		}
		if err := w.EndCollection(); err != nil {
			return nil, err
		}
		counts = append(counts, history.Count{Collection: name, Documents: n})
		e.progress().Collection(name, n)
	}
	return counts, nil
}

func (e *Exporter) observe(kind string, started time.Time, res *Result, err error) {
	metrics.RunDuration.WithLabelValues(kind).Observe(e.now().Sub(started).Seconds())
	if err != nil {
		metrics.Runs.WithLabelValues(kind, metrics.StatusFailure).Inc()
		return
	}
	metrics.Runs.WithLabelValues(kind, metrics.StatusSuccess).Inc()
	metrics.LastSuccess.WithLabelValues(kind).Set(float64(e.now().Unix()))
	for _, c := range res.Counts {
		metrics.DocumentsExported.WithLabelValues(c.Collection).Add(float64(c.Documents))
	}
}

// publish runs the optional post-export steps. Their failures are logged;
// the local file stays the primary artifact.
func (e *Exporter) publish(ctx context.Context, plan Plan, res *Result) {
	if e.Uploader != nil {
		key, err := e.upload(ctx, res.Path)
		if err != nil {
			logger.Warnf("upload %s: %v", res.Path, err)
		} else {
			res.Uploaded = key
			logger.Infof("uploaded %s as %s", res.Path, key)
		}
	}
	if e.Recorder != nil {
		run := history.Run{
			Kind:       plan.Kind,
			File:       res.Path,
			Counts:     res.Counts,
			StartedAt:  res.StartedAt,
			FinishedAt: res.StartedAt.Add(res.Duration),
			Uploaded:   res.Uploaded,
		}
		if err := e.Recorder.Record(ctx, run); err != nil {
			logger.Warnf("record run %s: %v", plan.Kind, err)
		}
	}
}

func (e *Exporter) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", err
	}
	return e.Uploader.UploadFile(ctx, filepath.Base(path), f, st.Size(), "application/json")
}
