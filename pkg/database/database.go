// Package database owns the process-wide schedule store.
//
// A Handle is built once from the configured backend and the bundled dataset,
// and hands out gateways bound to that store. Provider guards construction so
// concurrent first callers share a single Handle.
package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wilhg/busschedule/pkg/config"
	"github.com/wilhg/busschedule/pkg/dataset"
	"github.com/wilhg/busschedule/pkg/errmodel"
	"github.com/wilhg/busschedule/pkg/gateway"
	"github.com/wilhg/busschedule/pkg/live"
	"github.com/wilhg/busschedule/pkg/schedule"
	"github.com/wilhg/busschedule/pkg/store"
	"github.com/wilhg/busschedule/pkg/store/entstore"
	"github.com/wilhg/busschedule/pkg/store/memstore"
)

// MemoryURL selects the in-memory backend.
const MemoryURL = "memory:"

// Handle is the single connection to the schedule store.
type Handle struct {
	backend string
	rows    int
	gateway *gateway.ScheduleGateway
	closer  func() error
}

// ScheduleGateway returns the gateway bound to this store. Every call returns
// the same gateway; subscriptions made through it are independent.
func (h *Handle) ScheduleGateway() *gateway.ScheduleGateway { return h.gateway }

// Backend names the store backend: memory, sqlite3 or postgres.
func (h *Handle) Backend() string { return h.backend }

// Rows is the number of dataset rows loaded at construction.
func (h *Handle) Rows() int { return h.rows }

// Close releases the store connection.
func (h *Handle) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

type backend interface {
	store.ScheduleReader
	store.Observable
}

// Open loads the dataset and builds the store described by cfg. Any failure is
// fatal for the caller: the pipeline cannot run without its dataset.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Handle, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rows, err := loadDataset(cfg.DatasetPath)
	if err != nil {
		return nil, err
	}

	h := &Handle{rows: len(rows)}
	var be backend
	if strings.HasPrefix(strings.ToLower(cfg.DatabaseURL), MemoryURL) {
		be = memstore.New(rows)
		h.backend = "memory"
	} else {
		st, err := entstore.Open(ctx, cfg.DatabaseURL, entstore.WithLogger(log))
		if err != nil {
			return nil, errmodel.System("store_unavailable", "open store", nil, err)
		}
		if err := st.Materialize(ctx, rows); err != nil {
			_ = st.Close()
			return nil, errmodel.System("store_unavailable", "load dataset into store", nil, err)
		}
		be = st
		h.backend = st.Dialect()
		h.closer = st.Close
	}

	h.gateway = gateway.New(be, be.Tracker(),
		gateway.WithExecutor(live.NewExecutor(cfg.QueryWorkers)),
		gateway.WithLogger(log),
	)
	log.Info("schedule store ready", zap.String("backend", h.backend), zap.Int("rows", h.rows))
	return h, nil
}

func loadDataset(path string) ([]schedule.Schedule, error) {
	if path == "" {
		return dataset.LoadEmbedded()
	}
	return dataset.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// Provider lazily constructs the process-wide Handle. The first call to Get
// builds it; later calls return the cached Handle, or the cached error if
// construction failed.
type Provider struct {
	cfg  config.Config
	log  *zap.Logger
	open func(context.Context, config.Config, *zap.Logger) (*Handle, error)

	mu     sync.Mutex
	built  bool
	handle *Handle
	err    error
}

// NewProvider creates a provider for cfg. Nothing is opened until Get.
func NewProvider(cfg config.Config, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{cfg: cfg, log: log, open: Open}
}

// Get returns the Handle, constructing it on first use. Concurrent callers
// block until the single construction finishes.
func (p *Provider) Get(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.built {
		p.handle, p.err = p.open(ctx, p.cfg, p.log)
		p.built = true
		if p.err != nil {
			p.log.Error("schedule store unavailable", zap.Error(p.err))
		}
	}
	return p.handle, p.err
}

// Close closes the Handle if it was constructed.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == nil {
		return nil
	}
	return p.handle.Close()
}
