package engine

import (
	"bytes"
	"io"
	"log/slog"

	"riskdash/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func strPtr(s string) *string { return &s }

func controlSets(sets ...*models.ControlSet) map[string]*models.ControlSet {
	out := make(map[string]*models.ControlSet, len(sets))
	for _, cs := range sets {
		out[cs.URI] = cs
	}
	return out
}

func strategies(csgs ...*models.ControlStrategy) map[string]*models.ControlStrategy {
	out := make(map[string]*models.ControlStrategy, len(csgs))
	for _, s := range csgs {
		out[s.URI] = s
	}
	return out
}

// scenarioModel: threat T has CSG A (MITIGATE, mandatory CS1) and CSG B
// (TRIGGER, mandatory CS2).
func scenarioModel(cs1, cs2 bool) *models.Model {
	return &models.Model{
		ID: "m1",
		ControlSets: []*models.ControlSet{
			{URI: "CS1", AssetID: "a1", Assertable: true, Proposed: cs1},
			{URI: "CS2", AssetID: "a1", Assertable: true, Proposed: cs2},
		},
		ControlStrategies: []*models.ControlStrategy{
			{URI: "A", MandatoryControlSets: []string{"CS1"}, ThreatCsgTypes: map[string]models.Effect{"T": models.EffectMitigate}},
			{URI: "B", MandatoryControlSets: []string{"CS2"}, ThreatCsgTypes: map[string]models.Effect{"T": models.EffectTrigger}},
		},
		Threats: []*models.Threat{
			{URI: "T", ControlStrategies: models.EffectMap{
				{CSG: "A", Effect: models.EffectMitigate},
				{CSG: "B", Effect: models.EffectTrigger},
			}},
		},
	}
}
