package models

// ComplianceSet groups threats whose collective treatment determines
// compliance with a policy or regulation.
type ComplianceSet struct {
	URI         string   `json:"uri"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Threats     []string `json:"systemThreats"`
	Compliant   bool     `json:"compliant"` // server-computed
}
