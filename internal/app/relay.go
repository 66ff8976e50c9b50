package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samvad-hq/babel-client/internal/config"
	"github.com/samvad-hq/babel-client/internal/logger"
	"github.com/samvad-hq/babel-client/internal/relay"
	"github.com/samvad-hq/babel-client/internal/storage"
	"github.com/samvad-hq/babel-client/pkg/babel"
	"github.com/samvad-hq/babel-client/pkg/publishers"
	"github.com/samvad-hq/babel-client/pkg/targets"
)

// Relay is the babel-relay runtime. It owns the poll loop, the babel client,
// the publishers fanout, the local store and the optional metrics endpoint.
type Relay struct {
	cfg          *config.Config
	targetReg    *targets.Registry
	fanout       *publishers.Fanout
	service      *relay.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
	metrics      *prometheus.Registry
}

// NewRelay builds a relay runtime from config files.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.PersonaToken) == "" {
		return nil, fmt.Errorf("persona_token is required to poll babel")
	}

	targetReg, err := targets.LoadRegistry(cfg.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("load targets registry: %w", err)
	}
	enabledTargets := targetReg.Enabled()
	targetIDs := make([]string, 0, len(enabledTargets))
	for _, t := range enabledTargets {
		targetIDs = append(targetIDs, t.ID)
	}
	log.InfoObj("targets registry loaded", "targets_meta", map[string]any{
		"count": len(targetIDs),
		"ids":   targetIDs,
	})

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := newBabelClient(cfg, log, metrics)
	if err != nil {
		return nil, fmt.Errorf("init babel client: %w", err)
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(log), enabledPublishers)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		AnnotationTTL:   cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"annotation_ttl_seconds":   int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Relay{
		cfg:          cfg,
		targetReg:    targetReg,
		fanout:       fanout,
		service:      relay.NewService(client, fanout, store, cfg.PersonaToken, log),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
		metrics:      metrics,
	}, nil
}

func newBabelClient(cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (*babel.Client, error) {
	opts := []babel.Option{
		babel.WithTimeout(cfg.HTTPTimeout),
		babel.WithLogger(log),
		babel.WithPrometheus(reg),
		babel.WithUserAgent(cfg.AppName),
	}
	if cfg.BabelBaseURL != "" {
		return babel.NewWithBaseURL(cfg.BabelBaseURL, opts...)
	}
	return babel.New(cfg.BabelHost, cfg.BabelPort, opts...)
}

// Run starts the poll loop until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.shutdown()

	if r.cfg.MetricsAddr != "" {
		stopMetrics := r.serveMetrics(r.cfg.MetricsAddr)
		defer stopMetrics()
	}

	list := r.targetReg.Enabled()
	if len(list) == 0 {
		r.log.WarnObj("no targets enabled; relay idle", "targets_file", r.cfg.TargetsFile)
		<-ctx.Done()
		return nil
	}

	r.log.InfoObj("relay loop starting", "relay_state", map[string]any{
		"targets_count":    len(list),
		"publishers_count": r.fanout.Size(),
		"poll_interval":    r.pollInterval.String(),
	})

	if err := r.runOnce(ctx, list); err != nil {
		r.log.ErrorObj("initial relay pass failed", "error", err.Error())
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("relay loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx, list); err != nil {
				r.log.ErrorObj("scheduled relay pass failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single relay pass across the enabled targets.
func (r *Relay) runOnce(ctx context.Context, list []targets.Target) error {
	start := time.Now()
	res, err := r.service.Run(ctx, list)
	r.log.InfoObj("relay pass completed", "relay_pass", map[string]any{
		"targets_count": res.Targets,
		"skipped":       res.Skipped,
		"items":         res.Items,
		"published":     res.Published,
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return err
}

// serveMetrics exposes the client and runtime collectors on addr and returns a stop function.
func (r *Relay) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.metrics, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.ErrorObj("metrics server failed", "error", err.Error())
		}
	}()
	r.log.InfoObj("metrics endpoint listening", "metrics_addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// shutdown releases publishers and the store, logging any errors encountered.
func (r *Relay) shutdown() {
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
