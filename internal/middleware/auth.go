package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/repository"
	"github.com/example/grillhouse/internal/services"
	"github.com/example/grillhouse/internal/utils"
)

const (
	userContextKey = "currentUser"

	UserCookie  = "user_token"
	AdminCookie = "admin_token"
)

// Authenticator resolves bearer tokens to active users.
type Authenticator struct {
	secret string
	users  repository.UserDirectory
	cache  services.UserCache
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(secret string, users repository.UserDirectory, cache services.UserCache) *Authenticator {
	return &Authenticator{secret: secret, users: users, cache: cache}
}

// RequireUser accepts the user cookie or an Authorization bearer token.
func (a *Authenticator) RequireUser() fiber.Handler {
	return a.authenticate(UserCookie, false)
}

// RequireAdmin accepts the admin cookie or a bearer token, which must be the
// last token stored for its user. Pair it with RequireRole(models.RoleAdmin).
func (a *Authenticator) RequireAdmin() fiber.Handler {
	return a.authenticate(AdminCookie, true)
}

func (a *Authenticator) authenticate(cookie string, admin bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFrom(c, cookie)
		if token == "" {
			return apperr.Unauthorized("authentication required")
		}

		claims, err := utils.ParseToken(a.secret, token)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				return apperr.Unauthorized("token expired")
			}
			return apperr.Unauthorized("invalid token")
		}

		user, err := a.resolve(c, claims.UserID)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return apperr.Unauthorized("user not found or inactive")
		}

		if admin && (user.Token == nil || *user.Token != token) {
			return apperr.Unauthorized("session has been revoked")
		}

		c.Locals(userContextKey, user)
		return c.Next()
	}
}

func (a *Authenticator) resolve(c *fiber.Ctx, id uuid.UUID) (*models.User, error) {
	if user, ok := a.cache.Get(id); ok {
		return user, nil
	}

	user, err := a.users.ByID(c.UserContext(), id)
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	if user != nil && user.IsActive {
		a.cache.Set(user)
	}
	return user, nil
}

// RequireRole rejects users whose role is not among roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return apperr.Unauthorized("authentication required")
		}
		if !HasRole(user, roles...) {
			return apperr.Forbidden("insufficient role")
		}
		return c.Next()
	}
}

// HasRole reports whether user holds one of roles.
func HasRole(user *models.User, roles ...models.Role) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// CurrentUser returns the authenticated user stored by the auth middleware.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(userContextKey).(*models.User)
	return user, ok && user != nil
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return uuid.Nil, false
	}
	return user.ID, true
}

func tokenFrom(c *fiber.Ctx, cookie string) string {
	if token := c.Cookies(cookie); token != "" {
		return token
	}

	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
