// Package worker answers queue requests: it fetches a project's files,
// annotates them and saves the result.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/cognicore/annotator/internal/metrics"
	"github.com/cognicore/annotator/internal/queue"
	"github.com/cognicore/annotator/pkg/annotator"
	"github.com/cognicore/annotator/pkg/annotator/extract"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/store"
)

// Downloader fetches an uploaded file by object key.
type Downloader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Processor annotates a project's sources.
type Processor interface {
	ProcessProject(ctx context.Context, sources []annotator.Source) (*annotator.ProjectMetadata, error)
}

// Options wires a Worker. Metrics and Logger are optional.
type Options struct {
	Files     Downloader
	Annotator Processor
	Store     store.Store
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Worker handles one request at a time.
type Worker struct {
	files     Downloader
	annotator Processor
	store     store.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Worker.
func New(opts Options) *Worker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		files:     opts.Files,
		annotator: opts.Annotator,
		store:     opts.Store,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Handle runs the whole pipeline for req. Any failing file fails the
// request; the error ends up in the response message.
func (w *Worker) Handle(ctx context.Context, req queue.Request) queue.Response {
	start := time.Now()
	resp := queue.Response{UserID: req.UserID, ProjectID: req.ProjectID}

	if err := w.run(ctx, req); err != nil {
		w.logger.Error("project failed", "project_id", req.ProjectID, "error", err)
		w.metrics.RunFinished(queue.StatusError, time.Since(start))
		resp.Status = queue.StatusError
		resp.Message = fmt.Sprintf("Ошибка обработки проекта %d: %v", req.ProjectID, err)
		return resp
	}

	w.metrics.RunFinished(queue.StatusSuccess, time.Since(start))
	resp.Status = queue.StatusSuccess
	resp.Message = fmt.Sprintf("Проект %d обработан успешно", req.ProjectID)
	return resp
}

func (w *Worker) run(ctx context.Context, req queue.Request) error {
	if len(req.ObjectKeys) == 0 {
		return fmt.Errorf("no files: %w", internalerr.ErrInvalidInput)
	}

	sources := make([]annotator.Source, 0, len(req.ObjectKeys))
	for _, key := range req.ObjectKeys {
		src, err := w.load(ctx, key)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	meta, err := w.annotator.ProcessProject(ctx, sources)
	if err != nil {
		return err
	}
	w.metrics.DocumentsProcessed(len(sources))

	if err := w.store.SaveProject(ctx, req.ProjectID, store.NewRecord(*meta)); err != nil {
		return fmt.Errorf("save project %d: %w", req.ProjectID, err)
	}
	w.logger.Info("project saved", "project_id", req.ProjectID, "run_id", meta.RunID, "documents", len(sources))
	return nil
}

// load downloads one file and extracts both text renditions.
func (w *Worker) load(ctx context.Context, key string) (annotator.Source, error) {
	data, err := w.files.Download(ctx, key)
	if err != nil {
		return annotator.Source{}, err
	}
	name := path.Base(key)
	plain, withTables, err := extract.Texts(data, extract.FormatOf(name))
	if err != nil {
		return annotator.Source{}, fmt.Errorf("%s: %w", name, err)
	}
	if strings.TrimSpace(plain) == "" {
		return annotator.Source{}, fmt.Errorf("%s: %w", name, internalerr.ErrEmptyExtraction)
	}
	return annotator.Source{Name: name, Text: plain, TextWithTables: withTables}, nil
}
