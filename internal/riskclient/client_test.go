package riskclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetModel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models/m%201", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"valid": true,
			"controlSets": [{"uri": "system#CS1", "assetId": "a1", "assertable": true, "proposed": false}],
			"threats": [{"uri": "system#T1", "controlStrategies": {"system#CSG1": "BLOCK"}}],
			"complianceSets": [{"uri": "system#GDPR", "systemThreats": ["system#T1"], "compliant": false}]
		}`)
	})

	m, err := c.GetModel(context.Background(), "m 1")
	require.NoError(t, err)
	assert.Equal(t, "m 1", m.ID, "id defaults to the requested one")
	require.Len(t, m.ControlSets, 1)
	assert.True(t, m.ControlSets[0].Assertable)
	require.Len(t, m.Threats, 1)
	assert.Equal(t, "system#CSG1", m.Threats[0].ControlStrategies[0].CSG)
	assert.Equal(t, []string{"system#T1"}, m.ComplianceSets[0].Threats)
}

func TestUpdateControlSet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/models/m1/assets/a1/control", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var u ControlUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
		assert.Equal(t, ControlUpdate{AssetID: "a1", ControlSetURI: "system#CS1", Proposed: true, WorkInProgress: true}, u)

		_, _ = io.WriteString(w, `{"uri": "system#CS1", "proposed": true, "workInProgress": true}`)
	})

	acked, err := c.UpdateControlSet(context.Background(), "m1", ControlUpdate{
		AssetID: "a1", ControlSetURI: "system#CS1", Proposed: true, WorkInProgress: true,
	})
	require.NoError(t, err)
	require.NotNil(t, acked)
	assert.True(t, acked.WorkInProgress)
}

func TestUpdateControlSetEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	acked, err := c.UpdateControlSet(context.Background(), "m1", ControlUpdate{AssetID: "a1", ControlSetURI: "cs"})
	require.NoError(t, err)
	assert.Nil(t, acked)
}

func TestUpdateControlSetValidation(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.UpdateControlSet(context.Background(), "m1", ControlUpdate{ControlSetURI: "cs"})
	assert.Error(t, err)

	_, err = c.UpdateControlSet(context.Background(), "m1", ControlUpdate{AssetID: "a", ControlSetURI: "cs", WorkInProgress: true})
	assert.ErrorIs(t, err, ErrWorkInProgressNotProposed)

	_, err = c.UpdateControlSets(context.Background(), "m1", BatchControlUpdate{})
	assert.Error(t, err)

	_, err = c.UpdateControlSets(context.Background(), "m1", BatchControlUpdate{Controls: []string{""}})
	assert.Error(t, err)

	assert.False(t, called)
}

func TestUpdateControlSets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/m1/assets/controls", r.URL.Path)

		var u BatchControlUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
		assert.False(t, u.Proposed)

		_ = json.NewEncoder(w).Encode(u.Controls[:1])
	})

	updated, err := c.UpdateControlSets(context.Background(), "m1", BatchControlUpdate{Controls: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, updated)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is locked", http.StatusConflict)
	})

	_, err := c.UpdateControlSet(context.Background(), "m1", ControlUpdate{AssetID: "a", ControlSetURI: "cs", Proposed: true})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Equal(t, "model is locked", se.Body)
	assert.Contains(t, err.Error(), "409")
}
