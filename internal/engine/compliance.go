package engine

import (
	"strings"
	"sync"

	"riskdash/internal/models"
)

// ComplianceSetView is the derived state of one compliance set.
type ComplianceSetView struct {
	URI         string `json:"uri"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`

	Compliant       bool `json:"compliant"`
	ServerCompliant bool `json:"serverCompliant"`
	NCompThreats    int  `json:"nCompThreats"`
	NTreatedThreats int  `json:"nTreatedThreats"`

	ModellingErrors bool     `json:"modellingErrors"`
	Threats         []string `json:"threats"`
}

// Summary is the "N of M compliant" header. The modelling-errors set is not
// counted.
type Summary struct {
	Compliant int `json:"compliant"`
	Total     int `json:"total"`
}

type ComplianceReport struct {
	Generation      Generation          `json:"generation"`
	Sets            []ComplianceSetView `json:"sets"`
	ModellingErrors *ComplianceSetView  `json:"modellingErrors,omitempty"`
	Summary         Summary             `json:"summary"`
}

type AggregateOptions struct {
	// Drop conditional threats whose trigger is not enabled. The summary view
	// sets this; the compliance explorer does not.
	ExcludeUntriggered bool

	// URI suffix of the modelling-errors compliance set.
	ModellingErrorsSuffix string
}

// Aggregate computes per-set compliance. Threat URIs absent from threats are
// dropped. A set is compliant if the server says so, if it has no threats,
// or if every threat is treated locally; the last clause lets a just-applied
// toggle show before the server recalculates.
func Aggregate(gen Generation, sets []*models.ComplianceSet, threats map[string]ThreatStatusView, opts AggregateOptions) *ComplianceReport {
	report := &ComplianceReport{
		Generation: gen,
		Sets:       make([]ComplianceSetView, 0, len(sets)),
	}

	for _, set := range sets {
		if set == nil {
			continue
		}

		view := ComplianceSetView{
			URI:             set.URI,
			Label:           set.Label,
			Description:     set.Description,
			ServerCompliant: set.Compliant,
			ModellingErrors: isModellingErrors(set, opts.ModellingErrorsSuffix),
			Threats:         make([]string, 0, len(set.Threats)),
		}

		for _, uri := range set.Threats {
			th, ok := threats[uri]
			if !ok {
				continue
			}
			if opts.ExcludeUntriggered && th.Untriggered() {
				continue
			}
			view.Threats = append(view.Threats, uri)
			view.NCompThreats++
			if th.Status.Treated() {
				view.NTreatedThreats++
			}
		}

		view.Compliant = set.Compliant ||
			view.NCompThreats == 0 ||
			view.NTreatedThreats == view.NCompThreats

		report.Sets = append(report.Sets, view)

		if view.ModellingErrors {
			me := view
			report.ModellingErrors = &me
			continue
		}
		report.Summary.Total++
		if view.Compliant {
			report.Summary.Compliant++
		}
	}

	return report
}

func isModellingErrors(set *models.ComplianceSet, suffix string) bool {
	return suffix != "" && strings.HasSuffix(set.URI, suffix)
}

type aggregateKey struct {
	gen  Generation
	opts AggregateOptions
}

// Aggregator memoizes Aggregate per (generation, options). The cache is
// dropped as soon as a new generation is seen.
type Aggregator struct {
	mu    sync.Mutex
	gen   Generation
	cache map[aggregateKey]*ComplianceReport
}

func NewAggregator() *Aggregator {
	return &Aggregator{cache: make(map[aggregateKey]*ComplianceReport)}
}

func (a *Aggregator) Aggregate(gen Generation, sets []*models.ComplianceSet, threats map[string]ThreatStatusView, opts AggregateOptions) *ComplianceReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.gen {
		a.gen = gen
		a.cache = make(map[aggregateKey]*ComplianceReport)
	}

	key := aggregateKey{gen: gen, opts: opts}
	if r, ok := a.cache[key]; ok {
		return r
	}

	r := Aggregate(gen, sets, threats, opts)
	a.cache[key] = r
	return r
}
