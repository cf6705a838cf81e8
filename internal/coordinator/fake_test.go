package coordinator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"riskdash/internal/models"
	"riskdash/internal/riskclient"
)

// fakeServer stands in for the risk-calculation server. Successful updates
// are applied to its model so later fetches reflect them.
type fakeServer struct {
	mu sync.Mutex

	model *models.Model

	updateFn func(u riskclient.ControlUpdate) error
	batchErr error

	updateGate chan struct{}
	getGate    chan struct{}

	// per control set URI; checked after updateGate
	gates map[string]chan struct{}

	updates []riskclient.ControlUpdate
	batches []riskclient.BatchControlUpdate
	gets    int
}

func (f *fakeServer) GetModel(ctx context.Context, modelID string) (*models.Model, error) {
	if f.getGate != nil {
		<-f.getGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return cloneModel(f.model), nil
}

func (f *fakeServer) UpdateControlSet(ctx context.Context, modelID string, u riskclient.ControlUpdate) (*models.ControlSet, error) {
	if f.updateGate != nil {
		<-f.updateGate
	}
	f.mu.Lock()
	gate := f.gates[u.ControlSetURI]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)

	if f.updateFn != nil {
		if err := f.updateFn(u); err != nil {
			return nil, err
		}
	}
	for _, cs := range f.model.ControlSets {
		if cs.URI == u.ControlSetURI {
			cs.Proposed = u.Proposed
			cs.WorkInProgress = u.WorkInProgress
			c := *cs
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeServer) UpdateControlSets(ctx context.Context, modelID string, u riskclient.BatchControlUpdate) ([]string, error) {
	if f.updateGate != nil {
		<-f.updateGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, u)

	if f.batchErr != nil {
		return nil, f.batchErr
	}
	want := make(map[string]bool, len(u.Controls))
	for _, uri := range u.Controls {
		want[uri] = true
	}
	var changed []string
	for _, cs := range f.model.ControlSets {
		if want[cs.URI] {
			cs.Proposed = u.Proposed
			cs.WorkInProgress = false
			changed = append(changed, cs.URI)
		}
	}
	return changed, nil
}

func (f *fakeServer) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeServer) setControl(uri string, proposed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cs := range f.model.ControlSets {
		if cs.URI == uri {
			cs.Proposed = proposed
		}
	}
}

func (f *fakeServer) snapshot() *models.Model {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneModel(f.model)
}

func cloneModel(m *models.Model) *models.Model {
	data, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	var out models.Model
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testModel:
//
//	T1: MITIGATE by csgA (mandatory CS1)
//	T2: BLOCK by csgB (mandatory CS2, CS3; optional CS4)
//	T3: TRIGGER by csgT (mandatory CS5), no other strategy
//
// CS4 is not assertable. Compliance set GDPR holds T1 and T2.
func testModel() *models.Model {
	return &models.Model{
		ID: "m1",
		ControlSets: []*models.ControlSet{
			{URI: "CS1", AssetID: "a1", Assertable: true},
			{URI: "CS2", AssetID: "a1", Assertable: true},
			{URI: "CS3", AssetID: "a2", Assertable: true, Proposed: true, WorkInProgress: true},
			{URI: "CS4", AssetID: "a2", Assertable: false},
			{URI: "CS5", AssetID: "a3", Assertable: true},
		},
		ControlStrategies: []*models.ControlStrategy{
			{URI: "csgA", MandatoryControlSets: []string{"CS1"}},
			{URI: "csgB", MandatoryControlSets: []string{"CS2", "CS3"}, OptionalControlSets: []string{"CS4"}},
			{URI: "csgT", MandatoryControlSets: []string{"CS5"}},
		},
		Threats: []*models.Threat{
			{URI: "T1", ControlStrategies: models.EffectMap{{CSG: "csgA", Effect: models.EffectMitigate}}},
			{URI: "T2", ControlStrategies: models.EffectMap{{CSG: "csgB", Effect: models.EffectBlock}}},
			{URI: "T3", ControlStrategies: models.EffectMap{{CSG: "csgT", Effect: models.EffectTrigger}}},
		},
		ComplianceSets: []*models.ComplianceSet{
			{URI: "system#GDPR", Threats: []string{"T1", "T2"}},
			{URI: "system#ModellingErrors", Threats: []string{"T3"}},
		},
	}
}
