package models

type Asset struct {
	URI      string `json:"uri"`
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"` // domain model class URI
	Asserted bool   `json:"asserted"`
}

// ControlSet is a concrete control applied to one asset.
type ControlSet struct {
	URI      string `json:"uri"`
	Label    string `json:"label"`
	Control  string `json:"control"` // control type URI
	AssetURI string `json:"assetUri"`
	AssetID  string `json:"assetId"`

	Assertable     bool `json:"assertable"`
	Proposed       bool `json:"proposed"`
	WorkInProgress bool `json:"workInProgress"` // only meaningful when Proposed
	Optional       bool `json:"optional"`
}

// Normalize enforces workInProgress => proposed.
func (cs *ControlSet) Normalize() {
	if !cs.Proposed {
		cs.WorkInProgress = false
	}
}
