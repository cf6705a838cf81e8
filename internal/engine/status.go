package engine

import "riskdash/internal/models"

// Status is a threat's management state.
type Status string

const (
	StatusUnmanaged Status = "UNMANAGED"
	StatusMitigated Status = "MITIGATED"
	StatusBlocked   Status = "BLOCKED"
	StatusAccepted  Status = "ACCEPTED"
)

// Treated is true for every status except UNMANAGED.
func (s Status) Treated() bool {
	return s != StatusUnmanaged
}

// TriggerState is orthogonal to Status.
type TriggerState string

const (
	TriggerNotApplicable TriggerState = "not-applicable"
	TriggerUntriggered   TriggerState = "untriggered"
	TriggerTriggered     TriggerState = "triggered"
)

// ThreatStatusView is the read-only projection of one threat.
type ThreatStatusView struct {
	URI   string `json:"uri"`
	Label string `json:"label"`

	Status Status `json:"status"`

	Triggerable  bool         `json:"triggerable"`
	Triggered    bool         `json:"triggered"`
	TriggerState TriggerState `json:"triggerState"`

	SecondaryThreat bool `json:"secondaryThreat"`
	RootCause       bool `json:"rootCause"`

	Likelihood *models.Level `json:"likelihood,omitempty"`
	RiskLevel  *models.Level `json:"riskLevel,omitempty"`

	Effects []ResolvedEffect `json:"effects"`
}

// Untriggered is true for a conditional threat whose gate is closed.
func (v ThreatStatusView) Untriggered() bool {
	return v.Triggerable && !v.Triggered
}

// DeriveStatus applies the precedence MITIGATED > BLOCKED > ACCEPTED >
// UNMANAGED. Each effect kind is checked over the whole list so a disabled
// MITIGATE never hides an enabled BLOCK.
func DeriveStatus(threat *models.Threat, resolved []ResolvedEffect) ThreatStatusView {
	view := ThreatStatusView{
		URI:             threat.URI,
		Label:           threat.Label,
		SecondaryThreat: threat.SecondaryThreat,
		RootCause:       threat.RootCause,
		Likelihood:      threat.Likelihood,
		RiskLevel:       threat.RiskLevel,
		Effects:         make([]ResolvedEffect, len(resolved)),
	}
	copy(view.Effects, resolved)

	switch {
	case anyEnabled(resolved, models.EffectMitigate):
		view.Status = StatusMitigated
	case anyEnabled(resolved, models.EffectBlock):
		view.Status = StatusBlocked
	case threat.AcceptanceJustification != nil:
		view.Status = StatusAccepted
	default:
		view.Status = StatusUnmanaged
	}

	view.Triggerable = hasEffect(resolved, models.EffectTrigger)
	switch {
	case !view.Triggerable:
		// no conditional gate, always shown as active
		view.Triggered = true
		view.TriggerState = TriggerNotApplicable
	case anyEnabled(resolved, models.EffectTrigger):
		view.Triggered = true
		view.TriggerState = TriggerTriggered
	default:
		view.Triggered = false
		view.TriggerState = TriggerUntriggered
	}

	return view
}

func anyEnabled(resolved []ResolvedEffect, effect models.Effect) bool {
	for _, r := range resolved {
		if r.Effect == effect && r.Enabled {
			return true
		}
	}
	return false
}

func hasEffect(resolved []ResolvedEffect, effect models.Effect) bool {
	for _, r := range resolved {
		if r.Effect == effect {
			return true
		}
	}
	return false
}
