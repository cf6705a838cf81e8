package engine

import (
	"log/slog"

	"riskdash/internal/models"
)

// CSGView is a control strategy with its derived enabled flag.
type CSGView struct {
	URI       string                   `json:"uri"`
	Label     string                   `json:"label"`
	Enabled   bool                     `json:"enabled"`
	Evaluable bool                     `json:"evaluable"` // false if a mandatory control set is missing
	Mandatory []string                 `json:"mandatoryControlSets"`
	Optional  []string                 `json:"optionalControlSets"`
	Threats   map[string]models.Effect `json:"threats"`
}

// ReadModel is everything the presentation layer reads for one generation.
// It is rebuilt, never mutated, on each recompute.
type ReadModel struct {
	Generation  Generation                  `json:"generation"`
	Threats     map[string]ThreatStatusView `json:"threats"`
	ThreatOrder []string                    `json:"threatOrder"`
	Strategies  []CSGView                   `json:"strategies"`
}

// Ordered returns the threat views in model order.
func (rm *ReadModel) Ordered() []ThreatStatusView {
	out := make([]ThreatStatusView, 0, len(rm.ThreatOrder))
	for _, uri := range rm.ThreatOrder {
		if v, ok := rm.Threats[uri]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Engine runs the resolve -> status -> aggregate cascade. One Engine per
// loaded model; the aggregation cache is keyed by generation only.
type Engine struct {
	resolver   *Resolver
	aggregator *Aggregator
}

func New(logger *slog.Logger) *Engine {
	return &Engine{
		resolver:   NewResolver(logger),
		aggregator: NewAggregator(),
	}
}

func (e *Engine) Resolver() *Resolver { return e.resolver }

// Recompute derives every threat view from the model and the effective
// control sets.
func (e *Engine) Recompute(gen Generation, idx *models.Index, controlSets map[string]*models.ControlSet) *ReadModel {
	rm := &ReadModel{
		Generation:  gen,
		Threats:     make(map[string]ThreatStatusView, len(idx.ThreatOrder)),
		ThreatOrder: make([]string, 0, len(idx.ThreatOrder)),
		Strategies:  make([]CSGView, 0, len(idx.StrategyOrder)),
	}

	for _, uri := range idx.ThreatOrder {
		th := idx.Threats[uri]
		resolved := e.resolver.Resolve(th, idx.ControlStrategies, controlSets)
		rm.Threats[uri] = DeriveStatus(th, resolved)
		rm.ThreatOrder = append(rm.ThreatOrder, uri)
	}

	for _, uri := range idx.StrategyOrder {
		csg := idx.ControlStrategies[uri]
		enabled, ok := e.resolver.Enabled(csg, controlSets)
		rm.Strategies = append(rm.Strategies, CSGView{
			URI:       csg.URI,
			Label:     csg.Label,
			Enabled:   enabled,
			Evaluable: ok,
			Mandatory: csg.MandatoryControlSets,
			Optional:  csg.OptionalControlSets,
			Threats:   csg.ThreatCsgTypes,
		})
	}

	return rm
}

// Compliance aggregates the read model's threats into compliance sets.
func (e *Engine) Compliance(rm *ReadModel, idx *models.Index, opts AggregateOptions) *ComplianceReport {
	return e.aggregator.Aggregate(rm.Generation, idx.ComplianceSets, rm.Threats, opts)
}
