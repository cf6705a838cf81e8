// Package engine derives threat management status and compliance from the
// server model plus the current control set state.
//
// Everything here is a pure function of its inputs: the same model, control
// sets and generation always produce the same views. Missing references are
// data-integrity faults; they are logged and skipped, never returned as
// errors, because the model may be mid-transition.
package engine

import (
	"log/slog"

	"riskdash/internal/models"
)

// ResolvedEffect is one control strategy's effect on one threat.
type ResolvedEffect struct {
	CSG     string        `json:"csg"`
	Effect  models.Effect `json:"effect"`
	Enabled bool          `json:"enabled"`
}

type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve returns every control strategy that applies to the threat, in the
// threat's declared order.
func (r *Resolver) Resolve(
	threat *models.Threat,
	csgs map[string]*models.ControlStrategy,
	controlSets map[string]*models.ControlSet,
) []ResolvedEffect {
	if threat == nil {
		return nil
	}

	resolved := make([]ResolvedEffect, 0, len(threat.ControlStrategies))
	for _, ref := range threat.ControlStrategies {
		if !ref.Effect.Valid() {
			r.logger.Warn("unknown control strategy effect",
				"threat", threat.URI, "csg", ref.CSG, "effect", string(ref.Effect))
			continue
		}

		csg, ok := csgs[ref.CSG]
		if !ok {
			r.logger.Warn("control strategy not in model",
				"threat", threat.URI, "csg", ref.CSG)
			continue
		}

		enabled, ok := r.Enabled(csg, controlSets)
		if !ok {
			continue
		}

		resolved = append(resolved, ResolvedEffect{
			CSG:     ref.CSG,
			Effect:  ref.Effect,
			Enabled: enabled,
		})
	}
	return resolved
}

// Enabled reports whether every mandatory control set of the strategy is
// proposed. An empty mandatory set is vacuously enabled. The second result
// is false when a mandatory control set is missing from the model, in which
// case the strategy cannot be evaluated.
func (r *Resolver) Enabled(csg *models.ControlStrategy, controlSets map[string]*models.ControlSet) (bool, bool) {
	enabled := true
	for _, uri := range csg.MandatoryControlSets {
		cs, ok := controlSets[uri]
		if !ok || cs == nil {
			r.logger.Warn("control set not in model",
				"csg", csg.URI, "control_set", uri)
			return false, false
		}
		if !cs.Proposed {
			enabled = false
		}
	}
	return enabled, true
}
