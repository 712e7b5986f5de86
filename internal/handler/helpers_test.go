package handler

import (
	"io"
	"log/slog"

	"jobboard-edge/internal/client"
	"jobboard-edge/internal/config"
	"jobboard-edge/internal/metrics"
	"jobboard-edge/internal/service"
	"jobboard-edge/internal/store"
)

type testDeps struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	proxy   *ProxyHandler
	docs    *DocumentHandler
	state   *StateHandler
	health  *HealthHandler
	set     *store.Set
	ref     *store.Reference
}

// newTestDeps builds the handler graph against backendURL, which may be empty.
func newTestDeps(backendURL string) *testDeps {
	cfg := &config.Config{
		Backend: config.BackendConfig{
			BaseURL:         backendURL,
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
		Documents: config.DocumentsConfig{RevalidateSeconds: 3600},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	c := client.New(cfg, logger, m)

	proxySvc := service.NewProxyService(c, cfg, logger)
	docSvc := service.NewDocumentService(c, cfg, logger)
	set := store.NewSet()
	ref := store.NewReference()

	return &testDeps{
		cfg:     cfg,
		metrics: m,
		proxy:   NewProxyHandler(proxySvc, logger),
		docs:    NewDocumentHandler(docSvc, m, logger),
		state:   NewStateHandler(set, ref, proxySvc, logger),
		health:  NewHealthHandler(cfg, "test", set, ref),
		set:     set,
		ref:     ref,
	}
}
