package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/repository"
	"github.com/example/grillhouse/internal/validation"
)

// PublicUser is the customer-facing user representation.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Phone     string    `json:"phone"`
	Name      *string   `json:"name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToPublicUser drops role, credentials and tokens from user.
func ToPublicUser(user *models.User) PublicUser {
	return PublicUser{
		ID:        user.ID,
		Phone:     user.Phone,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// ProfilePatch is a sparse profile update. ClearEmail removes the email.
type ProfilePatch struct {
	Name       *string `json:"name" validate:"omitnil,min=2,max=100"`
	Email      *string `json:"email" validate:"omitnil,email,max=255"`
	ClearEmail bool    `json:"-"`
}

// UserService serves the signed-in customer's profile and history.
type UserService struct {
	users repository.UserDirectory
	db    *gorm.DB
	cache UserCache
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserDirectory, db *gorm.DB, cache UserCache) *UserService {
	return &UserService{users: users, db: db, cache: cache}
}

// UpdateProfile applies patch and drops the cached copy of the user.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*models.User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			patch.Email, patch.ClearEmail = nil, true
		} else {
			patch.Email = &email
		}
	}

	if patch.Name == nil && patch.Email == nil && !patch.ClearEmail {
		return nil, apperr.Validation("at least one field must be provided", nil)
	}
	if err := validation.Struct(&patch); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.ClearEmail {
		fields["email"] = nil
	}
	if patch.Email != nil {
		existing, err := s.users.ByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, apperr.FromDB(err, "user")
		}
		if existing != nil && existing.ID != userID {
			return nil, apperr.Validation("email is already in use", map[string][]string{
				"email": {"email is already in use"},
			})
		}
		fields["email"] = *patch.Email
	}

	user, err := s.users.Update(ctx, userID, fields)
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	s.cache.Invalidate(userID)
	return user, nil
}

// Orders returns the order history of userID, newest first.
func (s *UserService) Orders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := repository.NewOrders(s.db).ByUser(ctx, userID)
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}
	return orders, nil
}
