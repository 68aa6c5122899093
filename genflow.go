// Package genflow provides a top-level convenience entry point for
// embedding the generation engine without wiring every package by hand.
//
// Usage:
//
//	import "github.com/BaSui01/genflow"
//
//	eng, err := genflow.New(
//		genflow.WithProvider("fal", falClient),
//		genflow.WithUploader(uploader),
//	)
//	err = eng.Orchestrator.Start(ctx, req)
//
// The engine runs entirely in process: results land in the media store
// and progress arrives on eng.Orchestrator.Events(). Servers that need
// the HTTP surface should use cmd/genflow instead.
package genflow

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/dispatch"
	"github.com/BaSui01/genflow/mediastore"
	"github.com/BaSui01/genflow/orchestrate"
	"github.com/BaSui01/genflow/poll"
	"github.com/BaSui01/genflow/providers"
	"github.com/BaSui01/genflow/reconcile"
	"github.com/BaSui01/genflow/types"
)

// Engine bundles an assembled orchestrator with the pieces callers
// interact with directly.
type Engine struct {
	Orchestrator *orchestrate.Orchestrator
	Catalog      *catalog.Catalog
	Store        mediastore.Store
}

type options struct {
	catalog      *catalog.Catalog
	clients      map[string]providers.Client
	uploader     providers.Uploader
	store        mediastore.Store
	logger       *zap.Logger
	pollInterval time.Duration
	onComplete   orchestrate.CompletionFunc
}

// Option configures the engine created by [New].
type Option func(*options)

// WithCatalog replaces the built-in model catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(o *options) { o.catalog = cat }
}

// WithProvider registers a provider client under name. The name must
// match the Provider field of the catalog models it serves.
func WithProvider(name string, client providers.Client) Option {
	return func(o *options) {
		if o.clients == nil {
			o.clients = make(map[string]providers.Client)
		}
		o.clients[name] = client
	}
}

// WithUploader sets the upload-for-reference client used for models
// that require hosted input.
func WithUploader(uploader providers.Uploader) Option {
	return func(o *options) { o.uploader = uploader }
}

// WithStore replaces the in-memory media store.
func WithStore(store mediastore.Store) Option {
	return func(o *options) { o.store = store }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPollInterval overrides the job status poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = d }
}

// WithOnComplete registers a callback invoked when a batch reaches a
// terminal phase.
func WithOnComplete(fn orchestrate.CompletionFunc) Option {
	return func(o *options) { o.onComplete = fn }
}

// New assembles an engine. At minimum one provider client must be
// registered via [WithProvider].
func New(opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.clients) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "at least one provider client is required")
	}
	if o.catalog == nil {
		o.catalog = catalog.Default()
	}
	if o.store == nil {
		o.store = mediastore.NewMemory(o.logger)
	}

	dispatcher := dispatch.New(o.clients, o.uploader, nil, o.logger)
	poller := poll.New(poll.Config{Interval: o.pollInterval}, nil, o.logger)
	reconciler := reconcile.New(o.store, nil, o.logger)

	orc := orchestrate.New(orchestrate.Config{
		Catalog:    o.catalog,
		Dispatcher: dispatcher,
		Poller:     poller,
		Reconciler: reconciler,
		Logger:     o.logger,
		OnComplete: o.onComplete,
	})

	return &Engine{
		Orchestrator: orc,
		Catalog:      o.catalog,
		Store:        o.store,
	}, nil
}
