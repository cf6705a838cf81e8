package engine

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"riskdash/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var effects = []models.Effect{models.EffectBlock, models.EffectMitigate, models.EffectTrigger}

// randomModel builds a model from a seed so gopter can shrink on the seed.
func randomModel(seed int64) *models.Model {
	rng := rand.New(rand.NewSource(seed))
	m := &models.Model{ID: "prop"}

	nCS := 1 + rng.Intn(6)
	for i := 0; i < nCS; i++ {
		m.ControlSets = append(m.ControlSets, &models.ControlSet{
			URI:        fmt.Sprintf("cs%d", i),
			Assertable: true,
			Proposed:   rng.Intn(2) == 0,
		})
	}

	nCSG := rng.Intn(5)
	for i := 0; i < nCSG; i++ {
		csg := &models.ControlStrategy{URI: fmt.Sprintf("csg%d", i)}
		for j := 0; j < nCS; j++ {
			if rng.Intn(3) == 0 {
				csg.MandatoryControlSets = append(csg.MandatoryControlSets, fmt.Sprintf("cs%d", j))
			}
		}
		m.ControlStrategies = append(m.ControlStrategies, csg)
	}

	nT := 1 + rng.Intn(6)
	for i := 0; i < nT; i++ {
		th := &models.Threat{URI: fmt.Sprintf("t%d", i)}
		if rng.Intn(3) == 0 {
			th.AcceptanceJustification = strPtr("ok")
		}
		for j := 0; j < nCSG; j++ {
			if rng.Intn(2) == 0 {
				th.ControlStrategies = append(th.ControlStrategies, models.CSGEffect{
					CSG:    fmt.Sprintf("csg%d", j),
					Effect: effects[rng.Intn(len(effects))],
				})
			}
		}
		m.Threats = append(m.Threats, th)
	}

	nSets := rng.Intn(4)
	for i := 0; i < nSets; i++ {
		set := &models.ComplianceSet{URI: fmt.Sprintf("set%d", i), Compliant: rng.Intn(4) == 0}
		for j := 0; j < nT; j++ {
			if rng.Intn(2) == 0 {
				set.Threats = append(set.Threats, fmt.Sprintf("t%d", j))
			}
		}
		m.ComplianceSets = append(m.ComplianceSets, set)
	}

	return m
}

func recomputeAll(seed int64) (*models.Index, *ReadModel, *ComplianceReport) {
	idx := models.NewIndex(randomModel(seed))
	gen := Generation{Model: 1, Controls: Fingerprint(idx.ControlSets)}
	rm := New(discardLogger()).Recompute(gen, idx, idx.ControlSets)
	return idx, rm, Aggregate(gen, idx.ComplianceSets, rm.Threats, AggregateOptions{})
}

func TestPropertyRecomputeIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same inputs give identical read model and report", prop.ForAll(
		func(seed int64) bool {
			_, rm1, r1 := recomputeAll(seed)
			_, rm2, r2 := recomputeAll(seed)
			return reflect.DeepEqual(rm1, rm2) && reflect.DeepEqual(r1, r2)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestPropertyStatusRules(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("status follows the precedence rules", prop.ForAll(
		func(seed int64) bool {
			idx, rm, _ := recomputeAll(seed)
			for uri, v := range rm.Threats {
				th := idx.Threats[uri]

				if len(th.ControlStrategies) == 0 && th.AcceptanceJustification == nil {
					if v.Status != StatusUnmanaged || v.Triggerable {
						return false
					}
				}

				mit := anyEnabled(v.Effects, models.EffectMitigate)
				blk := anyEnabled(v.Effects, models.EffectBlock)
				switch {
				case mit && v.Status != StatusMitigated:
					return false
				case !mit && blk && v.Status != StatusBlocked:
					return false
				case !mit && !blk && th.AcceptanceJustification != nil && v.Status != StatusAccepted:
					return false
				}

				if v.Triggered != (!v.Triggerable || anyEnabled(v.Effects, models.EffectTrigger)) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestPropertyComplianceOrRule(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("compliant iff server flag, empty, or fully treated", prop.ForAll(
		func(seed int64) bool {
			_, _, report := recomputeAll(seed)
			for _, s := range report.Sets {
				want := s.ServerCompliant || s.NCompThreats == 0 || s.NTreatedThreats == s.NCompThreats
				if s.Compliant != want || s.NTreatedThreats > s.NCompThreats {
					return false
				}
			}
			return report.Summary.Total == len(report.Sets)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
