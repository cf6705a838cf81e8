// Package workspace keeps one coordinator per loaded model.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"riskdash/internal/coordinator"
)

var ErrModelNotLoaded = errors.New("model not loaded")

type Registry struct {
	mu     sync.RWMutex
	server coordinator.RiskServer
	opts   coordinator.Options
	logger *slog.Logger
	models map[string]*coordinator.Coordinator
}

func NewRegistry(server coordinator.RiskServer, opts coordinator.Options, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		server: server,
		opts:   opts,
		logger: logger,
		models: make(map[string]*coordinator.Coordinator),
	}
}

// Load fetches a model from the risk server. A model that is already loaded
// is refreshed in place so its pending toggles and errors survive.
func (r *Registry) Load(ctx context.Context, modelID string) (*coordinator.Coordinator, error) {
	if c, err := r.Get(modelID); err == nil {
		if _, err := c.Refresh(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}

	m, err := r.server.GetModel(ctx, modelID)
	if err != nil {
		r.logger.Error("model load failed", "model", modelID, "error", err)
		return nil, err
	}
	// later fetches and updates must use the path the model was loaded under
	m.ID = modelID

	r.mu.Lock()
	defer r.mu.Unlock()

	// lost a race with a concurrent load
	if c, ok := r.models[modelID]; ok {
		c.ApplyModel(m)
		return c, nil
	}

	c := coordinator.New(m, r.server, r.opts, r.logger)
	r.models[modelID] = c
	r.logger.Info("model loaded", "model", modelID,
		"threats", len(m.Threats), "control_sets", len(m.ControlSets))
	return c, nil
}

func (r *Registry) Get(modelID string) (*coordinator.Coordinator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.models[modelID]
	if !ok {
		return nil, ErrModelNotLoaded
	}
	return c, nil
}

// Drop forgets a model after its in-flight dispatches settle.
func (r *Registry) Drop(modelID string) error {
	r.mu.Lock()
	c, ok := r.models[modelID]
	delete(r.models, modelID)
	r.mu.Unlock()

	if !ok {
		return ErrModelNotLoaded
	}
	c.Wait()
	return nil
}

// IDs returns the loaded model IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Wait blocks until every loaded model's dispatches have settled.
func (r *Registry) Wait() {
	r.mu.RLock()
	all := make([]*coordinator.Coordinator, 0, len(r.models))
	for _, c := range r.models {
		all = append(all, c)
	}
	r.mu.RUnlock()

	for _, c := range all {
		c.Wait()
	}
}
