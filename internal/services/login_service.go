package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/logger"
	"github.com/example/grillhouse/internal/metrics"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/repository"
	"github.com/example/grillhouse/internal/utils"
)

// TokenConfig controls token signing and lifetimes.
type TokenConfig struct {
	Secret   string
	UserTTL  time.Duration
	AdminTTL time.Duration
}

// LoginResult is a freshly authenticated user and their token.
type LoginResult struct {
	User  *models.User
	Token string
}

// LoginService runs the phone code and admin password logins.
type LoginService struct {
	users  repository.UserDirectory
	codes  *CodeService
	sender CodeSender
	cache  UserCache
	tokens TokenConfig
}

// NewLoginService constructs LoginService.
func NewLoginService(users repository.UserDirectory, codes *CodeService, sender CodeSender, cache UserCache, tokens TokenConfig) *LoginService {
	return &LoginService{users: users, codes: codes, sender: sender, cache: cache, tokens: tokens}
}

// RequestCode issues a login code for phone and hands it to the sender.
func (s *LoginService) RequestCode(ctx context.Context, phone string) error {
	code, err := s.codes.CreateAndStore(ctx, phone, 0)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, phone, code); err != nil {
		if revokeErr := s.codes.Revoke(ctx, phone); revokeErr != nil {
			logger.Warn("revoke undelivered otp", "phone", phone, "error", revokeErr)
		}
		return err
	}
	return nil
}

// Login consumes the code for phone and signs the user in, registering
// unknown phones on the way.
func (s *LoginService) Login(ctx context.Context, phone, code string) (*LoginResult, error) {
	ok, err := s.codes.Consume(ctx, phone, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.Logins.WithLabelValues("user", "invalid_code").Inc()
		return nil, apperr.Validation("invalid or expired code", map[string][]string{
			"code": {"invalid or expired code"},
		})
	}

	user, err := s.getOrCreateUser(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		metrics.Logins.WithLabelValues("user", "inactive").Inc()
		return nil, apperr.Unauthorized("user account is inactive")
	}

	token, err := s.issue(ctx, user, s.tokens.UserTTL)
	if err != nil {
		return nil, err
	}

	metrics.Logins.WithLabelValues("user", "ok").Inc()
	return &LoginResult{User: user, Token: token}, nil
}

// AdminLogin checks an administrator's email and password.
func (s *LoginService) AdminLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.users.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	if admin == nil || !admin.IsAdmin() || admin.Password == nil {
		metrics.Logins.WithLabelValues("admin", "not_found").Inc()
		return nil, apperr.NotFound("user not found", nil)
	}
	if !utils.CheckPassword(*admin.Password, password) {
		metrics.Logins.WithLabelValues("admin", "bad_password").Inc()
		return nil, apperr.Unauthorized("invalid password")
	}
	if !admin.IsActive {
		metrics.Logins.WithLabelValues("admin", "inactive").Inc()
		return nil, apperr.Unauthorized("user account is inactive")
	}

	token, err := s.issue(ctx, admin, s.tokens.AdminTTL)
	if err != nil {
		return nil, err
	}

	metrics.Logins.WithLabelValues("admin", "ok").Inc()
	return &LoginResult{User: admin, Token: token}, nil
}

// Logout forgets the stored token of userID.
func (s *LoginService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.SetToken(ctx, userID, nil); err != nil {
		return apperr.FromDB(err, "user")
	}
	s.cache.Invalidate(userID)
	return nil
}

func (s *LoginService) getOrCreateUser(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.users.ByPhone(ctx, phone)
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{Phone: phone, Role: models.RoleUser, IsActive: true}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *LoginService) issue(ctx context.Context, user *models.User, ttl time.Duration) (string, error) {
	token, err := utils.GenerateToken(s.tokens.Secret, utils.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		Phone:  user.Phone,
	}, ttl)
	if err != nil {
		return "", apperr.Internal(err)
	}

	if err := s.users.SetToken(ctx, user.ID, &token); err != nil {
		return "", apperr.FromDB(err, "user")
	}
	user.Token = &token
	s.cache.Invalidate(user.ID)
	return token, nil
}
