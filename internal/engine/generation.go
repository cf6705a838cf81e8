package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"riskdash/internal/models"
)

// Generation identifies one recompute input. Two generations are the same
// input iff they compare equal with ==.
type Generation struct {
	Model    uint64 `json:"model"`    // bumped on every full model load
	Controls string `json:"controls"` // fingerprint of effective control sets
}

// Fingerprint hashes the proposed/workInProgress state of every control set,
// independent of map iteration order.
func Fingerprint(controlSets map[string]*models.ControlSet) string {
	uris := make([]string, 0, len(controlSets))
	for uri := range controlSets {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	h := sha256.New()
	for _, uri := range uris {
		cs := controlSets[uri]
		h.Write([]byte(uri))
		h.Write([]byte{0, flag(cs != nil && cs.Proposed), flag(cs != nil && cs.WorkInProgress), '\n'})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

func flag(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}
