package models

// Model is the system model as returned by the risk-calculation server.
type Model struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	Valid           bool   `json:"valid"`
	RiskLevelsValid bool   `json:"riskLevelsValid"`

	Assets            []*Asset           `json:"assets"`
	ControlSets       []*ControlSet      `json:"controlSets"`
	ControlStrategies []*ControlStrategy `json:"controlStrategies"`
	Threats           []*Threat          `json:"threats"`
	ComplianceSets    []*ComplianceSet   `json:"complianceSets"`
}

// Index gives typed URI lookups over an immutable Model. Slices keep the
// server's order; duplicate URIs keep the last occurrence.
type Index struct {
	Model *Model

	Assets            map[string]*Asset
	ControlSets       map[string]*ControlSet
	ControlStrategies map[string]*ControlStrategy
	Threats           map[string]*Threat

	ThreatOrder     []string
	StrategyOrder   []string
	ControlSetOrder []string
	ComplianceSets  []*ComplianceSet
}

func NewIndex(m *Model) *Index {
	if m == nil {
		m = &Model{}
	}

	idx := &Index{
		Model:             m,
		Assets:            make(map[string]*Asset, len(m.Assets)),
		ControlSets:       make(map[string]*ControlSet, len(m.ControlSets)),
		ControlStrategies: make(map[string]*ControlStrategy, len(m.ControlStrategies)),
		Threats:           make(map[string]*Threat, len(m.Threats)),
	}

	for _, a := range m.Assets {
		if a == nil || a.URI == "" {
			continue
		}
		idx.Assets[a.URI] = a
	}
	for _, cs := range m.ControlSets {
		if cs == nil || cs.URI == "" {
			continue
		}
		if _, dup := idx.ControlSets[cs.URI]; !dup {
			idx.ControlSetOrder = append(idx.ControlSetOrder, cs.URI)
		}
		idx.ControlSets[cs.URI] = cs
	}
	for _, s := range m.ControlStrategies {
		if s == nil || s.URI == "" {
			continue
		}
		if _, dup := idx.ControlStrategies[s.URI]; !dup {
			idx.StrategyOrder = append(idx.StrategyOrder, s.URI)
		}
		idx.ControlStrategies[s.URI] = s
	}
	for _, t := range m.Threats {
		if t == nil || t.URI == "" {
			continue
		}
		if _, dup := idx.Threats[t.URI]; !dup {
			idx.ThreatOrder = append(idx.ThreatOrder, t.URI)
		}
		idx.Threats[t.URI] = t
	}
	for _, set := range m.ComplianceSets {
		if set == nil || set.URI == "" {
			continue
		}
		idx.ComplianceSets = append(idx.ComplianceSets, set)
	}

	return idx
}
