package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"tillpoint/internal/models"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// GormStore implements Store over PostgreSQL or SQLite through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// approvalRoles are the roles gated by private_preview, lower-cased.
var approvalRoles = []string{models.RoleOwner, models.RoleAdmin}

func (s *GormStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

func (s *GormStore) FindActiveUsersByIdentifier(ctx context.Context, identifier string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("active = ? AND (LOWER(email) = ? OR username = ?)", true, strings.ToLower(identifier), identifier).
		Order("user_id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("find users by identifier: %w", err)
	}
	return users, nil
}

func (s *GormStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) ListActiveUsersByBusiness(ctx context.Context, businessID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("business_id = ? AND active = ?", businessID, true).
		Order("user_id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users of business %d: %w", businessID, err)
	}
	return users, nil
}

func (s *GormStore) ListPendingApprovals(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Where("active = ? AND private_preview = ? AND LOWER(role) IN ?", true, false, approvalRoles).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count pending approvals: %w", err)
	}

	var users []models.User
	if err := query.Order("user_id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list pending approvals: %w", err)
	}
	return users, total, nil
}

func (s *GormStore) CreateBusiness(ctx context.Context, business *models.Business) error {
	if err := s.db.WithContext(ctx).Create(business).Error; err != nil {
		return translate("create business", err)
	}
	return nil
}

func (s *GormStore) CreateBranch(ctx context.Context, branch *models.Branch) error {
	if err := s.db.WithContext(ctx).Create(branch).Error; err != nil {
		return translate("create branch", err)
	}
	return nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate("create user", err)
	}
	return nil
}

func (s *GormStore) UpdatePasswordHash(ctx context.Context, userID uint, hash string) error {
	return s.updateUser(ctx, userID, map[string]interface{}{"password_hash": hash})
}

func (s *GormStore) UpdatePINHash(ctx context.Context, userID uint, hash string) error {
	return s.updateUser(ctx, userID, map[string]interface{}{"pin_hash": hash, "pin": nil})
}

func (s *GormStore) TouchLastUsed(ctx context.Context, userID uint, at time.Time) error {
	return s.updateUser(ctx, userID, map[string]interface{}{"last_used": at})
}

func (s *GormStore) SetPrivatePreview(ctx context.Context, userID uint, approved bool) error {
	return s.updateUser(ctx, userID, map[string]interface{}{"private_preview": approved})
}

func (s *GormStore) SetActive(ctx context.Context, userID uint, active bool) error {
	return s.updateUser(ctx, userID, map[string]interface{}{"active": active})
}

func (s *GormStore) updateUser(ctx context.Context, userID uint, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("user_id = ?", userID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// translate maps unique violations to ErrDuplicate. PostgreSQL reports them
// as a pgconn.PgError; SQLite only through the message text.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
