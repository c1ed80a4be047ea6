package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/grillhouse/internal/config"
	"github.com/example/grillhouse/internal/middleware"
	"github.com/example/grillhouse/internal/services"
	"github.com/example/grillhouse/internal/utils"
	"github.com/example/grillhouse/internal/validation"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	login *services.LoginService
	cfg   *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(login *services.LoginService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{login: login, cfg: cfg}
}

type requestCodeRequest struct {
	Phone string `json:"phone"`
}

// RequestCode sends a one-time login code to the phone.
func (h *AuthHandler) RequestCode(c *fiber.Ctx) error {
	var req requestCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Phone = utils.NormalizePhone(req.Phone)
	if err := validation.Var("phone", req.Phone, "required,phone"); err != nil {
		return err
	}

	if err := h.login.RequestCode(c.UserContext(), req.Phone); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "verification code sent",
	})
}

type loginRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	Code  string `json:"code" validate:"required,otpcode"`
}

// Login exchanges a phone and code for a session cookie and token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Phone = utils.NormalizePhone(req.Phone)
	req.Code = toUpper(req.Code)
	if err := validation.Struct(&req); err != nil {
		return err
	}

	result, err := h.login.Login(c.UserContext(), req.Phone, req.Code)
	if err != nil {
		return err
	}

	h.setCookie(c, middleware.UserCookie, result.Token, h.cfg.UserTokenTTL)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":  services.ToPublicUser(result.User),
			"token": result.Token,
		},
	})
}

// Logout revokes the stored token and clears the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return h.logout(c, middleware.UserCookie)
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminLogin authenticates an administrator by email and password.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}

	result, err := h.login.AdminLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setCookie(c, middleware.AdminCookie, result.Token, h.cfg.AdminTokenTTL)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":  services.ToPublicUser(result.User),
			"token": result.Token,
		},
	})
}

// AdminVerify confirms that the admin session is still valid.
func (h *AuthHandler) AdminVerify(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user": services.ToPublicUser(user),
			"role": user.Role,
		},
	})
}

// AdminLogout revokes the admin session.
func (h *AuthHandler) AdminLogout(c *fiber.Ctx) error {
	return h.logout(c, middleware.AdminCookie)
}

func (h *AuthHandler) logout(c *fiber.Ctx, cookie string) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.login.Logout(c.UserContext(), userID); err != nil {
		return err
	}

	h.setCookie(c, cookie, "", -time.Hour)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "logged out",
	})
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
