package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/models"
)

// UserDirectory stores users keyed by id, phone and email.
// Lookups return (nil, nil) when no user matches.
type UserDirectory interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ByPhone(ctx context.Context, phone string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.User, error)
	SetToken(ctx context.Context, id uuid.UUID, token *string) error
}

// Users is the gorm-backed UserDirectory.
type Users struct {
	db *gorm.DB
}

// NewUsers constructs Users over db, which may be a transaction.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (r *Users) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Users) ByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.first(ctx, "phone = ?", phone)
}

func (r *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Users) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update writes only the given columns and returns the refreshed user.
func (r *Users) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.User, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetToken stores the last issued token; nil removes it.
func (r *Users) SetToken(ctx context.Context, id uuid.UUID, token *string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("token", token).Error
}

func (r *Users) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
