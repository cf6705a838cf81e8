package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"riskdash/internal/models"
	"riskdash/internal/riskclient"
)

type member struct {
	uri string
	seq uint64
}

// detach keeps request-scoped values but not the caller's cancellation: the
// HTTP request that triggered a toggle returns long before the server
// answers.
func (c *Coordinator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.opts.Timeout > 0 {
		return context.WithTimeout(ctx, c.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Coordinator) dispatchOne(ctx context.Context, action string, seq uint64, reqID string, u riskclient.ControlUpdate) {
	c.wg.Add(1)
	pendingDispatches.Inc()

	go func() {
		defer c.wg.Done()
		defer pendingDispatches.Dec()

		dctx, cancel := c.detach(ctx)
		defer cancel()

		start := time.Now()
		acked, err := c.server.UpdateControlSet(dctx, c.modelID, u)
		elapsed := time.Since(start)
		observe("single", err, elapsed)

		if err == nil && acked == nil {
			acked = &models.ControlSet{URI: u.ControlSetURI, Proposed: u.Proposed, WorkInProgress: u.WorkInProgress}
		}

		c.mu.Lock()
		var current bool
		if err != nil {
			current = c.store.Fail(u.ControlSetURI, seq, err)
		} else {
			current = c.store.Succeed(u.ControlSetURI, seq, acked)
		}
		c.recomputeLocked()
		c.mu.Unlock()

		log := c.logger.With("request_id", reqID, "control_set", u.ControlSetURI, "proposed", u.Proposed)
		switch {
		case err != nil && current:
			log.Error("control update failed", "error", err)
		case err != nil:
			log.Warn("superseded control update failed", "error", err)
		default:
			log.Info("control update acknowledged", "duration", elapsed)
		}

		c.audit(models.AuditLog{
			RequestID:  reqID,
			Entity:     "control_set",
			EntityURI:  u.ControlSetURI,
			Action:     action,
			Outcome:    outcome(err),
			Details:    details(u.Proposed, u.WorkInProgress, err),
			DurationMS: elapsed.Milliseconds(),
		})

		if err == nil && c.opts.RefreshOnAck {
			c.refreshAfterAck(ctx)
		}
	}()
}

func (c *Coordinator) dispatchBatch(ctx context.Context, reqID string, members []member, proposed bool) {
	uris := make([]string, len(members))
	for i, m := range members {
		uris[i] = m.uri
	}

	c.wg.Add(1)
	pendingDispatches.Inc()

	go func() {
		defer c.wg.Done()
		defer pendingDispatches.Dec()

		dctx, cancel := c.detach(ctx)
		defer cancel()

		start := time.Now()
		updated, err := c.server.UpdateControlSets(dctx, c.modelID, riskclient.BatchControlUpdate{
			Controls: uris,
			Proposed: proposed,
		})
		elapsed := time.Since(start)
		observe("batch", err, elapsed)

		c.mu.Lock()
		for _, m := range members {
			if err != nil {
				c.store.Fail(m.uri, m.seq, err)
				continue
			}
			c.store.Succeed(m.uri, m.seq, &models.ControlSet{URI: m.uri, Proposed: proposed})
		}
		c.recomputeLocked()
		c.mu.Unlock()

		log := c.logger.With("request_id", reqID, "count", len(members), "proposed", proposed)
		if err != nil {
			log.Error("batch control update failed", "error", err)
		} else {
			log.Info("batch control update acknowledged", "changed", len(updated), "duration", elapsed)
		}

		c.audit(models.AuditLog{
			RequestID:  reqID,
			Entity:     "control_sets",
			EntityURI:  strings.Join(uris, "\n"),
			Action:     "batch_toggle",
			Outcome:    outcome(err),
			Details:    details(proposed, false, err),
			DurationMS: elapsed.Milliseconds(),
		})

		if err == nil && c.opts.RefreshOnAck {
			c.refreshAfterAck(ctx)
		}
	}()
}

// refreshAfterAck runs inside a dispatch goroutine, which is already
// counted in wg.
func (c *Coordinator) refreshAfterAck(ctx context.Context) {
	rctx, cancel := c.detach(ctx)
	defer cancel()
	_, _ = c.fetch(rctx, "ack", false)
}

func (c *Coordinator) audit(entry models.AuditLog) {
	if c.opts.Audit == nil {
		return
	}
	entry.ModelID = c.modelID
	c.opts.Audit(entry)
}

func observe(kind string, err error, elapsed time.Duration) {
	dispatchTotal.WithLabelValues(kind, outcome(err)).Inc()
	dispatchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func details(proposed, workInProgress bool, err error) string {
	d := fmt.Sprintf("proposed=%t workInProgress=%t", proposed, workInProgress)
	if err != nil {
		d += " error=" + err.Error()
	}
	return d
}
