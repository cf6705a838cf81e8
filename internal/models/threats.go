package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Effect is what a control strategy does to one particular threat.
type Effect string

const (
	EffectBlock    Effect = "BLOCK"
	EffectMitigate Effect = "MITIGATE"
	EffectTrigger  Effect = "TRIGGER"
)

func (e Effect) Valid() bool {
	switch e {
	case EffectBlock, EffectMitigate, EffectTrigger:
		return true
	}
	return false
}

// Level is a trustworthiness / likelihood / risk level as supplied by the
// risk-calculation server. It is carried through, never computed here.
type Level struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Threat is one modelled threat instance.
type Threat struct {
	URI         string `json:"uri"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`

	// present => explicitly accepted
	AcceptanceJustification *string `json:"acceptanceJustification"`

	ControlStrategies EffectMap `json:"controlStrategies"`

	SecondaryThreat bool `json:"secondaryThreat"`
	RootCause       bool `json:"rootCause"`

	Likelihood *Level `json:"likelihood,omitempty"`
	RiskLevel  *Level `json:"riskLevel,omitempty"`
}

// CSGEffect is one entry of a threat's control strategy map.
type CSGEffect struct {
	CSG    string
	Effect Effect
}

// EffectMap is the threat's csgUri -> effect map. The server sends a JSON
// object; the declared key order is kept because downstream tie-breaking
// depends on it.
type EffectMap []CSGEffect

func (m *EffectMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("control strategies: expected object, got %v", tok)
	}

	var out EffectMap
	pos := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("control strategies: unexpected key %v", keyTok)
		}
		var eff Effect
		if err := dec.Decode(&eff); err != nil {
			return fmt.Errorf("control strategies: %s: %w", key, err)
		}
		// a repeated key keeps its first position and its last value
		if i, dup := pos[key]; dup {
			out[i].Effect = eff
			continue
		}
		pos[key] = len(out)
		out = append(out, CSGEffect{CSG: key, Effect: eff})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

func (m EffectMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.CSG)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Effect)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Lookup returns the effect declared for a CSG.
func (m EffectMap) Lookup(csgURI string) (Effect, bool) {
	for _, e := range m {
		if e.CSG == csgURI {
			return e.Effect, true
		}
	}
	return "", false
}
