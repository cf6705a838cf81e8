package models

// ControlStrategy (CSG) is a named combination of control sets that together
// block, mitigate or trigger threats.
type ControlStrategy struct {
	URI         string `json:"uri"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`

	MandatoryControlSets []string `json:"mandatoryControlSets"`
	OptionalControlSets  []string `json:"optionalControlSets"`

	// threat URI -> effect of this strategy on that threat
	ThreatCsgTypes map[string]Effect `json:"threatCsgTypes"`
}

// ControlSets returns mandatory then optional control set URIs.
func (s *ControlStrategy) ControlSets() []string {
	out := make([]string, 0, len(s.MandatoryControlSets)+len(s.OptionalControlSets))
	out = append(out, s.MandatoryControlSets...)
	out = append(out, s.OptionalControlSets...)
	return out
}
