package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"

	"github.com/cognicore/annotator/internal/metrics"
	"github.com/cognicore/annotator/internal/objectstore"
	"github.com/cognicore/annotator/internal/queue"
	"github.com/cognicore/annotator/internal/worker"
	"github.com/cognicore/annotator/pkg/annotator"
	"github.com/cognicore/annotator/pkg/annotator/config"
	"github.com/cognicore/annotator/pkg/annotator/extract"
	"github.com/cognicore/annotator/pkg/annotator/store"
	"github.com/cognicore/annotator/pkg/annotator/store/sqlite"
	"github.com/cognicore/annotator/pkg/annotator/stoplist"
	"github.com/cognicore/annotator/pkg/annotator/tags"
)

func annotateAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("annotate: at least one FILE is required", 2)
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	a, err := buildAnnotator(cfg, logger, nil)
	if err != nil {
		return err
	}

	sources := make([]annotator.Source, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		src, err := readSource(path)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	meta, err := a.ProcessProject(c.Context, sources)
	if err != nil {
		return err
	}

	if dbPath := c.String("save-sqlite"); dbPath != "" {
		title := c.String("title")
		if title == "" {
			title = sources[0].Name
		}
		id, err := saveLocal(c.Context, cfg, dbPath, title, meta)
		if err != nil {
			return err
		}
		logger.Info("project saved", "db", dbPath, "project_id", id)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func readSource(path string) (annotator.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return annotator.Source{}, err
	}
	name := filepath.Base(path)
	plain, withTables, err := extract.Texts(data, extract.FormatOf(name))
	if err != nil {
		return annotator.Source{}, fmt.Errorf("%s: %w", path, err)
	}
	return annotator.Source{Name: name, Text: plain, TextWithTables: withTables}, nil
}

// saveLocal stores meta as a new project. Catalog tags are registered first
// so the project's tags can be linked.
func saveLocal(ctx context.Context, cfg config.Config, dbPath, title string, meta *annotator.ProjectMetadata) (int64, error) {
	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	if cfg.Tags.CatalogPath != "" {
		catalog, err := tags.LoadCatalog(cfg.Tags.CatalogPath)
		if err != nil {
			return 0, err
		}
		if err := st.EnsureTags(ctx, catalog.Names()); err != nil {
			return 0, err
		}
	}
	id, err := st.CreateProject(ctx, title)
	if err != nil {
		return 0, err
	}
	if err := st.SaveProject(ctx, id, store.NewRecord(*meta)); err != nil {
		return 0, err
	}
	return id, nil
}

func connectJetStream(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url, nats.Name("annotator"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", url, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	return nc, js, nil
}

func queueConfig(cfg config.NATS) queue.Config {
	return queue.Config{
		Stream:          cfg.Stream,
		RequestSubject:  cfg.RequestSubject,
		ResponseSubject: cfg.ResponseSubject,
		Durable:         cfg.Durable,
	}
}

func workerAction(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	a, err := buildAnnotator(cfg, logger, m)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	nc, js, err := connectJetStream(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer nc.Drain()

	files, err := objectstore.Open(ctx, js, cfg.NATS.ObjectBucket, logger)
	if err != nil {
		return err
	}
	consumer := queue.NewConsumer(js, queueConfig(cfg.NATS), logger)
	if err := consumer.Setup(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	w := worker.New(worker.Options{
		Files:     files,
		Annotator: a,
		Store:     st,
		Metrics:   m,
		Logger:    logger,
	})

	err = consumer.Run(ctx, w.Handle)
	if errors.Is(err, context.Canceled) {
		logger.Info("worker stopped")
		return nil
	}
	return err
}

func submitAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("submit: at least one FILE is required", 2)
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	nc, js, err := connectJetStream(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer nc.Drain()

	files, err := objectstore.Open(ctx, js, cfg.NATS.ObjectBucket, logger)
	if err != nil {
		return err
	}
	consumer := queue.NewConsumer(js, queueConfig(cfg.NATS), logger)
	if err := consumer.Setup(ctx); err != nil {
		return err
	}

	user := c.String("user")
	project := c.Int64("project")
	req := queue.Request{UserID: user, ProjectID: project}
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		up, err := files.Upload(ctx, user, strconv.FormatInt(project, 10), filepath.Base(path), data)
		if err != nil {
			return err
		}
		req.ObjectKeys = append(req.ObjectKeys, up.ObjectKey)
	}

	if err := consumer.Submit(ctx, req); err != nil {
		return err
	}
	fmt.Printf("submitted project %d with %d file(s)\n", project, len(req.ObjectKeys))
	return nil
}

func buildTagsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("build-tags: NAMES_FILE is required", 2)
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	out := c.String("out")
	if out == "" {
		out = cfg.Tags.CatalogPath
	}
	if out == "" {
		return cli.Exit("build-tags: --out or tags.catalog_path is required", 2)
	}
	enc := newEncoder(cfg.Embedding, logger)
	if enc == nil {
		return cli.Exit("build-tags: embedding.base_url is required", 2)
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	names := stoplist.Lines(string(data))

	catalog, err := tags.BuildCatalog(c.Context, enc, names)
	if err != nil {
		return err
	}
	if err := catalog.Save(out); err != nil {
		return err
	}
	logger.Info("tag catalog written", "path", out, "tags", catalog.Len(), "dimensions", catalog.Dimensions())

	if c.Bool("seed-store") {
		st, err := openStore(c.Context, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.EnsureTags(c.Context, catalog.Names()); err != nil {
			return err
		}
	}
	return nil
}
