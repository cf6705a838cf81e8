// Package riskclient talks to the external risk-calculation server: it
// fetches system models and sends control set updates.
package riskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"riskdash/internal/models"

	"github.com/go-playground/validator/v10"
)

// ControlUpdate asserts or retracts one control set.
type ControlUpdate struct {
	AssetID        string `json:"assetId" validate:"required"`
	ControlSetURI  string `json:"controlSetUri" validate:"required"`
	Proposed       bool   `json:"proposed"`
	WorkInProgress bool   `json:"workInProgress"`
}

// BatchControlUpdate sets the same proposed flag on many control sets.
type BatchControlUpdate struct {
	Controls []string `json:"controls" validate:"required,min=1,dive,required"`
	Proposed bool     `json:"proposed"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("risk server returned %d", e.Code)
	}
	return fmt.Sprintf("risk server returned %d: %s", e.Code, e.Body)
}

var ErrWorkInProgressNotProposed = errors.New("workInProgress requires proposed")

const maxErrorBody = 512

type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	logger   *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// GetModel fetches the full model, including derived threat and compliance
// data.
func (c *Client) GetModel(ctx context.Context, modelID string) (*models.Model, error) {
	var m models.Model
	if err := c.do(ctx, http.MethodGet, c.modelPath(modelID), nil, &m); err != nil {
		return nil, fmt.Errorf("get model %s: %w", modelID, err)
	}
	if m.ID == "" {
		m.ID = modelID
	}
	return &m, nil
}

// UpdateControlSet sends one control update and returns the server's
// acknowledged control set, or nil if the server sent no body.
func (c *Client) UpdateControlSet(ctx context.Context, modelID string, u ControlUpdate) (*models.ControlSet, error) {
	if err := c.validate.Struct(u); err != nil {
		return nil, fmt.Errorf("invalid control update: %w", err)
	}
	if u.WorkInProgress && !u.Proposed {
		return nil, ErrWorkInProgressNotProposed
	}

	path := c.modelPath(modelID) + "/assets/" + url.PathEscape(u.AssetID) + "/control"

	var acked *models.ControlSet
	if err := c.do(ctx, http.MethodPatch, path, u, &acked); err != nil {
		return nil, fmt.Errorf("update control set %s: %w", u.ControlSetURI, err)
	}
	return acked, nil
}

// UpdateControlSets sends a batch update and returns the URIs the server
// reports as changed.
func (c *Client) UpdateControlSets(ctx context.Context, modelID string, u BatchControlUpdate) ([]string, error) {
	if err := c.validate.Struct(u); err != nil {
		return nil, fmt.Errorf("invalid batch update: %w", err)
	}

	var updated []string
	if err := c.do(ctx, http.MethodPatch, c.modelPath(modelID)+"/assets/controls", u, &updated); err != nil {
		return nil, fmt.Errorf("update %d control sets: %w", len(u.Controls), err)
	}
	return updated, nil
}

func (c *Client) modelPath(modelID string) string {
	return c.baseURL + "/models/" + url.PathEscape(modelID)
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("risk server call",
		"method", method, "url", target, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
