// Package coordinator applies user control toggles optimistically, sends
// them to the risk server and reconciles local state with the server's
// answers and with fresh models.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"riskdash/internal/engine"
	"riskdash/internal/models"
	"riskdash/internal/riskclient"
	"riskdash/internal/store"

	"github.com/google/uuid"
)

var (
	ErrNotAssertable   = errors.New("control set is not assertable")
	ErrUnknownStrategy = errors.New("control strategy not in model")
)

// RiskServer is the external risk-calculation server.
type RiskServer interface {
	GetModel(ctx context.Context, modelID string) (*models.Model, error)
	UpdateControlSet(ctx context.Context, modelID string, u riskclient.ControlUpdate) (*models.ControlSet, error)
	UpdateControlSets(ctx context.Context, modelID string, u riskclient.BatchControlUpdate) ([]string, error)
}

// AuditFunc receives one record per settled dispatch.
type AuditFunc func(entry models.AuditLog)

type Options struct {
	// per dispatch / refresh; zero means no timeout
	Timeout time.Duration

	// fetch the full model after every successful dispatch
	RefreshOnAck bool

	// defaults for the summary compliance view
	Compliance engine.AggregateOptions

	Audit AuditFunc
}

// Stats counts control sets per update state.
type Stats struct {
	Pending int `json:"pending"`
	Errors  int `json:"errors"`
}

// Coordinator owns the control set store of one loaded model. All state
// changes happen under mu and recompute synchronously before it is
// released, so readers always see a read model consistent with the store.
type Coordinator struct {
	mu sync.Mutex

	modelID string
	server  RiskServer
	engine  *engine.Engine
	logger  *slog.Logger
	opts    Options

	index        *models.Index
	store        *store.Store
	modelVersion uint64
	read         *engine.ReadModel

	appliedFetch uint64 // fetch whose model is installed

	wg sync.WaitGroup
}

func New(model *models.Model, server RiskServer, opts Options, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if model == nil {
		model = &models.Model{}
	}

	c := &Coordinator{
		modelID: model.ID,
		server:  server,
		engine:  engine.New(logger),
		logger:  logger.With("model", model.ID),
		opts:    opts,
		store:   store.New(nil),
	}
	c.applyLocked(model, 0, false)
	return c
}

func (c *Coordinator) ModelID() string { return c.modelID }

// ====== reads ======

func (c *Coordinator) ReadModel() *engine.ReadModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read
}

// Compliance aggregates the current read model with the given options.
func (c *Coordinator) Compliance(opts engine.AggregateOptions) *engine.ComplianceReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Compliance(c.read, c.index, opts)
}

// SummaryOptions are the options used by the summary compliance view.
func (c *Coordinator) SummaryOptions() engine.AggregateOptions {
	return c.opts.Compliance
}

func (c *Coordinator) ControlSets() []store.ControlSetState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.States()
}

func (c *Coordinator) ControlSet(uri string) (store.ControlSetState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get(uri)
}

func (c *Coordinator) Assets() []*models.Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Model.Assets
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Pending: c.store.Count(store.Pending),
		Errors:  c.store.Count(store.Error),
	}
}

// Wait blocks until every in-flight dispatch and refresh has settled.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// ====== model replacement ======

// ApplyModel installs a full server model handed in from outside, such as a
// pushed recalculation. It is authoritative for every control set: pending
// values are superseded until their own ack arrives. Error entries are kept.
func (c *Coordinator) ApplyModel(m *models.Model) *engine.ReadModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(m, c.store.BeginFetch(), true)
}

// Refresh fetches the model from the server and installs it unless a newer
// one arrived meanwhile. Pending toggles stay visible: the server has not
// acknowledged them, so the fetched model cannot account for them.
func (c *Coordinator) Refresh(ctx context.Context) (*engine.ReadModel, error) {
	return c.fetch(ctx, "refresh", false)
}

// Reload is the explicit user refresh: like Refresh, but also clears every
// error indicator.
func (c *Coordinator) Reload(ctx context.Context) (*engine.ReadModel, error) {
	return c.fetch(ctx, "reload", true)
}

func (c *Coordinator) fetch(ctx context.Context, trigger string, clearErrors bool) (*engine.ReadModel, error) {
	c.mu.Lock()
	seq := c.store.BeginFetch()
	c.mu.Unlock()

	m, err := c.server.GetModel(ctx, c.modelID)
	if err != nil {
		modelRefreshTotal.WithLabelValues(trigger, "error").Inc()
		c.logger.Error("model fetch failed", "trigger", trigger, "error", err)
		return nil, err
	}
	modelRefreshTotal.WithLabelValues(trigger, "ok").Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	if clearErrors {
		if cleared := c.store.ClearErrors(); len(cleared) > 0 {
			c.logger.Info("cleared control set errors", "count", len(cleared))
		}
	}

	if seq < c.appliedFetch {
		c.logger.Debug("discarding stale model", "fetch", seq, "applied", c.appliedFetch)
		return c.recomputeLocked(), nil
	}
	return c.applyLocked(m, seq, false), nil
}

func (c *Coordinator) applyLocked(m *models.Model, seq uint64, supersede bool) *engine.ReadModel {
	c.appliedFetch = seq
	c.index = models.NewIndex(m)
	c.store.Replace(m.ControlSets, seq, supersede)
	c.modelVersion++
	return c.recomputeLocked()
}

func (c *Coordinator) recomputeLocked() *engine.ReadModel {
	eff := c.store.Effective()
	gen := engine.Generation{Model: c.modelVersion, Controls: engine.Fingerprint(eff)}
	if c.read != nil && c.read.Generation == gen {
		return c.read
	}

	start := time.Now()
	c.read = c.engine.Recompute(gen, c.index, eff)
	recomputeDuration.Observe(time.Since(start).Seconds())
	return c.read
}

// ====== single toggles ======

// Toggle sets one control set's proposed / workInProgress flags. The new
// value is visible in the returned read model immediately; the server call
// runs in the background.
func (c *Coordinator) Toggle(ctx context.Context, uri string, proposed, workInProgress bool) (*engine.ReadModel, error) {
	if !proposed {
		workInProgress = false
	}

	c.mu.Lock()
	cs, ok := c.store.Base(uri)
	if !ok {
		c.mu.Unlock()
		c.logger.Warn("toggle of unknown control set", "control_set", uri)
		return nil, store.ErrUnknownControlSet
	}
	if !cs.Assertable {
		c.mu.Unlock()
		return nil, ErrNotAssertable
	}

	reqID := uuid.NewString()
	seq, err := c.store.Begin(uri, proposed, workInProgress, reqID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	rm := c.recomputeLocked()
	c.mu.Unlock()

	c.dispatchOne(ctx, "toggle", seq, reqID, riskclient.ControlUpdate{
		AssetID:        cs.AssetID,
		ControlSetURI:  uri,
		Proposed:       proposed,
		WorkInProgress: workInProgress,
	})
	return rm, nil
}

// Retry re-sends the intended value of a control set in error state.
func (c *Coordinator) Retry(ctx context.Context, uri string) (*engine.ReadModel, error) {
	c.mu.Lock()
	e, ok := c.store.Entry(uri)
	if !ok || e.State != store.Error {
		c.mu.Unlock()
		return nil, store.ErrNotInError
	}
	cs, _ := c.store.Base(uri)

	reqID := uuid.NewString()
	seq, err := c.store.Begin(uri, e.Proposed, e.WorkInProgress, reqID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	rm := c.recomputeLocked()
	c.mu.Unlock()

	c.dispatchOne(ctx, "retry", seq, reqID, riskclient.ControlUpdate{
		AssetID:        cs.AssetID,
		ControlSetURI:  uri,
		Proposed:       e.Proposed,
		WorkInProgress: e.WorkInProgress,
	})
	return rm, nil
}

// Abandon gives up on a failed toggle and shows the server value again.
func (c *Coordinator) Abandon(uri string) (*engine.ReadModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.ClearError(uri); err != nil {
		return nil, err
	}
	return c.recomputeLocked(), nil
}

// ====== batch toggles ======

// ToggleBatch sets proposed on every eligible control set with one server
// call. Eligible means assertable and either not already at the target or
// still work in progress. It returns the URIs actually dispatched.
func (c *Coordinator) ToggleBatch(ctx context.Context, uris []string, proposed bool) (*engine.ReadModel, []string, error) {
	c.mu.Lock()
	eligible := c.eligibleLocked(uris, proposed)
	if len(eligible) == 0 {
		rm := c.read
		c.mu.Unlock()
		return rm, nil, nil
	}

	reqID := uuid.NewString()
	members := make([]member, 0, len(eligible))
	for _, uri := range eligible {
		seq, err := c.store.Begin(uri, proposed, false, reqID)
		if err != nil {
			continue
		}
		members = append(members, member{uri: uri, seq: seq})
	}
	rm := c.recomputeLocked()
	c.mu.Unlock()

	c.dispatchBatch(ctx, reqID, members, proposed)
	return rm, eligible, nil
}

// AssertAll proposes every control set of a control strategy.
func (c *Coordinator) AssertAll(ctx context.Context, csgURI string) (*engine.ReadModel, []string, error) {
	uris, err := c.strategyControlSets(csgURI)
	if err != nil {
		return nil, nil, err
	}
	return c.ToggleBatch(ctx, uris, true)
}

// RemoveAll retracts every control set of a control strategy.
func (c *Coordinator) RemoveAll(ctx context.Context, csgURI string) (*engine.ReadModel, []string, error) {
	uris, err := c.strategyControlSets(csgURI)
	if err != nil {
		return nil, nil, err
	}
	return c.ToggleBatch(ctx, uris, false)
}

// RemoveAllControls retracts every proposed control set in the model.
func (c *Coordinator) RemoveAllControls(ctx context.Context) (*engine.ReadModel, []string, error) {
	c.mu.Lock()
	var uris []string
	for _, st := range c.store.States() {
		if st.Proposed {
			uris = append(uris, st.URI)
		}
	}
	c.mu.Unlock()

	return c.ToggleBatch(ctx, uris, false)
}

func (c *Coordinator) strategyControlSets(csgURI string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	csg, ok := c.index.ControlStrategies[csgURI]
	if !ok {
		return nil, ErrUnknownStrategy
	}
	return csg.ControlSets(), nil
}

func (c *Coordinator) eligibleLocked(uris []string, target bool) []string {
	seen := make(map[string]struct{}, len(uris))
	var out []string
	for _, uri := range uris {
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}

		st, ok := c.store.Get(uri)
		if !ok {
			c.logger.Warn("batch references unknown control set", "control_set", uri)
			continue
		}
		if !st.Assertable {
			continue
		}
		if st.Proposed == target && !st.WorkInProgress {
			continue
		}
		out = append(out, uri)
	}
	return out
}
