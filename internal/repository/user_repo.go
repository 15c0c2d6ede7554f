package repository

import (
	"context"
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Sync inserts the user seen in a verified token, or refreshes email and role
// when the row already exists.
func (r *UserRepository) Sync(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "role", "updated_at"}),
	}).Create(u).Error
}

// SetReferredBy records the referrer once. It reports false when the user
// already had one.
func (r *UserRepository) SetReferredBy(ctx context.Context, userID, referrerID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND referred_by_id IS NULL", userID).
		Updates(map[string]interface{}{"referred_by_id": referrerID, "updated_at": time.Now()})
	return res.RowsAffected == 1, res.Error
}

func (r *UserRepository) UpdateFCMToken(ctx context.Context, userID uint, token string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", token).Error
}
