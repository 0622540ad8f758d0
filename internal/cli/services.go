package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ppiankov/lawai/internal/backend"
	"github.com/ppiankov/lawai/internal/cache"
	"github.com/ppiankov/lawai/internal/model"
	"github.com/ppiankov/lawai/internal/normalize"
	"github.com/ppiankov/lawai/internal/worker"
	"github.com/ppiankov/lawai/internal/workflow"
)

// services bundles the backend clients built from one configuration
type services struct {
	cfg       *model.Config
	client    *backend.Client
	inference backend.Inference
	cases     *backend.CaseStore
	catalog   *backend.Catalog
}

func newServices(cfg *model.Config) (*services, error) {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	client := backend.NewClient(cfg,
		backend.WithLogger(logger),
		backend.WithLimiter(limiter),
	)

	inference, err := backend.NewInference(cfg, client, cache.FromConfig(cfg.Cache), logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("services configured",
		zap.String("base_url", cfg.Backend.BaseURL),
		zap.String("catalog_url", cfg.Backend.CatalogURL),
		zap.String("inference", inference.Name()),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	return &services{
		cfg:       cfg,
		client:    client,
		inference: inference,
		cases:     backend.NewCaseStore(client),
		catalog:   backend.NewCatalog(client),
	}, nil
}

// workflowOptions returns the options every workflow built from cfg shares
func (s *services) workflowOptions() []workflow.Option {
	return []workflow.Option{
		workflow.WithLogger(logger),
		workflow.WithNormalizer(normalize.New(s.cfg.Normalize.StripMarkup)),
		workflow.WithRejectEmptyQuery(s.cfg.Backend.RejectEmptyQuery),
		workflow.WithTransitionObserver(func(from, to workflow.State) {
			if verbose && to == workflow.Submitting {
				s.progress("⚙️  Querying %s...\n", s.inference.Name())
			}
		}),
	}
}

func (s *services) progress(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
}

// signalContext is cancelled on Ctrl-C so in-flight requests are aborted
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
