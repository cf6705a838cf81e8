package database

import "riskdash/internal/models"

// CreateAuditLog stores one dispatch record. Failures are logged, never
// returned: the audit trail must not block control updates.
func CreateAuditLog(entry models.AuditLog) {
	if DB == nil {
		return
	}
	if err := DB.Create(&entry).Error; err != nil {
		logger.Error("failed to write audit log",
			"model", entry.ModelID, "request_id", entry.RequestID, "error", err)
	}
}

// ListAuditLogs returns the newest records first, optionally for one model.
func ListAuditLogs(modelID string, limit int) ([]models.AuditLog, error) {
	if DB == nil {
		return []models.AuditLog{}, nil
	}

	q := DB.Order("created_at desc").Limit(limit)
	if modelID != "" {
		q = q.Where("model_id = ?", modelID)
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
