package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"tillpoint/internal/logger"
	"tillpoint/internal/models"
)

// Audit actions recorded on the terminal.
const (
	AuditLoginSucceeded     = "login.succeeded"
	AuditLoginFailed        = "login.failed"
	AuditLoginRateLimited   = "login.rate_limited"
	AuditLoginPending       = "login.pending_approval"
	AuditSessionSwitched    = "session.switched"
	AuditSwitchFailed       = "session.switch_failed"
	AuditSwitchRateLimited  = "session.switch_rate_limited"
	AuditSessionRestored    = "session.restored"
	AuditSessionLogout      = "session.logout"
	AuditUserRegistered     = "user.registered"
	AuditCredentialMigrated = "credential.migrated"
	AuditUserApproved       = "user.approved"
	AuditUserDeactivated    = "user.deactivated"
)

// auditService writes audit rows to the terminal-local database.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, entry AuditEntry) {
	var details string
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log details", "error", err, "action", entry.Action)
			details = "{}"
		} else {
			details = string(data)
		}
	}

	row := &models.AuditLog{
		UserID:     entry.UserID,
		BusinessID: entry.BusinessID,
		Action:     entry.Action,
		IPAddress:  ClientIP(ctx),
		Details:    details,
	}

	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(row).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", entry.UserID,
			"action", entry.Action,
		)
	}
}

// Recent returns the newest audit rows, newest first.
func (s *auditService) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// nopAudit discards entries.
type nopAudit struct{}

func (nopAudit) Log(context.Context, AuditEntry) {}

func (nopAudit) Recent(context.Context, int) ([]models.AuditLog, error) { return nil, nil }
