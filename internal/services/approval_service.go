package services

import (
	"context"
	"errors"

	apperrors "tillpoint/internal/errors"
	"tillpoint/internal/events"
	"tillpoint/internal/logger"
	"tillpoint/internal/models"
	"tillpoint/internal/pagination"
	"tillpoint/internal/store"
)

// approvalService lets the back office admit new owners into the private
// preview.
type approvalService struct {
	store  store.Store
	audit  AuditServicer
	events events.Publisher
}

// NewApprovalService creates a new ApprovalServicer.
func NewApprovalService(st store.Store, audit AuditServicer, publisher events.Publisher) ApprovalServicer {
	if audit == nil {
		audit = nopAudit{}
	}
	if publisher == nil {
		publisher = events.NewLogPublisher()
	}
	return &approvalService{store: st, audit: audit, events: publisher}
}

// ListPending returns owner/admin accounts waiting for approval.
func (s *approvalService) ListPending(ctx context.Context, page pagination.PageRequest) (*pagination.Page[models.Snapshot], error) {
	page.Normalize()

	users, total, err := s.store.ListPendingApprovals(ctx, page.Offset(), page.PageSize)
	if err != nil {
		logger.Get().Errorw("Failed to list pending approvals", "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	snaps := make([]models.Snapshot, len(users))
	for i := range users {
		snaps[i] = *users[i].Snapshot()
	}
	result := pagination.NewPage(snaps, page, total)
	return &result, nil
}

// Approve sets private_preview on the user.
func (s *approvalService) Approve(ctx context.Context, userID uint) (*models.Snapshot, error) {
	if err := s.store.SetPrivatePreview(ctx, userID, true); err != nil {
		return nil, s.translate("approve", userID, err)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.translate("approve", userID, err)
	}

	s.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditUserApproved})
	if err := s.events.Publish(ctx, events.New(events.TypeUserApproved, user.ID, user.Username, user.BusinessID)); err != nil {
		logger.Get().Warnw("Failed to publish approval event", "user_id", user.ID, "error", err)
	}
	return user.Snapshot(), nil
}

// Deactivate turns the account off. Users are never deleted.
func (s *approvalService) Deactivate(ctx context.Context, userID uint) (*models.Snapshot, error) {
	if err := s.store.SetActive(ctx, userID, false); err != nil {
		return nil, s.translate("deactivate", userID, err)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.translate("deactivate", userID, err)
	}

	s.audit.Log(ctx, AuditEntry{UserID: user.ID, BusinessID: user.BusinessID, Action: AuditUserDeactivated})
	return user.Snapshot(), nil
}

func (s *approvalService) translate(op string, userID uint, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.ErrUserNotFound
	}
	logger.Get().Errorw("Back-office update failed", "op", op, "user_id", userID, "error", err)
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
