package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/config"
	"github.com/example/grillhouse/internal/database"
	"github.com/example/grillhouse/internal/database/dbtest"
	"github.com/example/grillhouse/internal/handlers"
	"github.com/example/grillhouse/internal/middleware"
	"github.com/example/grillhouse/internal/routes"
	"github.com/example/grillhouse/internal/utils"
)

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	redis *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		AppEnv:        "test",
		JWTSecret:     "handlers-test-secret",
		UserTokenTTL:  time.Hour,
		AdminTokenTTL: time.Hour,
		OTPTTL:        5 * time.Minute,
		OTPLockTTL:    time.Minute,
		UserCacheTTL:  time.Minute,
		Orders:        config.DefaultOrderLimits(),
	}

	db := dbtest.New(t)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(false)})
	routes.Register(app, db, rdb, cfg)

	return &testServer{app: app, db: db, redis: mr}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return &http.Cookie{Name: cookie.Name, Value: cookie.Value}
		}
	}
	return nil
}

func (s *testServer) loginUser(t *testing.T, phone string) *http.Cookie {
	t.Helper()

	resp, _ := s.do(t, http.MethodPost, "/api/users/verify", fiber.Map{"phone": phone})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	code, err := s.redis.Get("otp:" + utils.NormalizePhone(phone))
	require.NoError(t, err)

	resp, env := s.do(t, http.MethodPost, "/api/users/login", fiber.Map{"phone": phone, "code": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	cookie := cookieNamed(resp, middleware.UserCookie)
	require.NotNil(t, cookie)
	return cookie
}

func orderBody(productID string, quantity int) fiber.Map {
	return fiber.Map{
		"customerName":    "Olena",
		"customerPhone":   "050 123 45 67",
		"deliveryAddress": "Kyiv, Khreshchatyk 1",
		"paymentMethod":   "cash",
		"items": []fiber.Map{
			{"productId": productID, "quantity": quantity},
		},
	}
}

func TestUserLoginFlow(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodPost, "/api/users/verify", fiber.Map{"phone": "050 123 45 67"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := s.do(t, http.MethodPost, "/api/users/verify", fiber.Map{"phone": "+380501234567"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, apperr.CodeRateLimited, env.Error.Code)

	code, err := s.redis.Get("otp:+380501234567")
	require.NoError(t, err)

	resp, env = s.do(t, http.MethodPost, "/api/users/login", fiber.Map{"phone": "+380501234567", "code": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
		User  struct {
			Phone string `json:"phone"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "+380501234567", login.User.Phone)
	assert.False(t, s.redis.Exists("otp:+380501234567"), "code is single-use")

	cookie := cookieNamed(resp, middleware.UserCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, login.Token, cookie.Value)

	resp, env = s.do(t, http.MethodGet, "/api/users", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "+380501234567")
	assert.NotContains(t, string(env.Data), "role")

	resp, env = s.do(t, http.MethodPatch, "/api/users", fiber.Map{"name": "Olena", "email": "Olena@Example.com"}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "olena@example.com")

	resp, _ = s.do(t, http.MethodDelete, "/api/users/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserLoginRejectsWrongCode(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodPost, "/api/users/verify", fiber.Map{"phone": "+380671112233"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	code, err := s.redis.Get("otp:+380671112233")
	require.NoError(t, err)
	wrong := "ZZZZZZ"
	if code == wrong {
		wrong = "YYYYYY"
	}

	resp, env := s.do(t, http.MethodPost, "/api/users/login", fiber.Map{"phone": "+380671112233", "code": wrong})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeValidation, env.Error.Code)
	assert.Nil(t, cookieNamed(resp, middleware.UserCookie))
}

func TestVerifyRejectsBadPhone(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, http.MethodPost, "/api/users/verify", fiber.Map{"phone": "12345"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeValidation, env.Error.Code)
	assert.Contains(t, env.Error.Details, "phone")
}

func TestProfileRequiresSession(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperr.CodeUnauthorized, env.Error.Code)
	assert.False(t, env.Success)
}

func TestCreateGuestOrder(t *testing.T) {
	s := newTestServer(t)
	chicken := dbtest.Product(t, s.db, "Grilled chicken No. 1", "120.00", true)

	resp, env := s.do(t, http.MethodPost, "/api/orders/guest", orderBody(chicken.ID.String(), 2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "PENDING", view["status"])
	assert.InDelta(t, 240.0, view["total"], 0.0001)
	assert.NotContains(t, view, "user")
	assert.NotContains(t, view, "payment")
	assert.NotContains(t, view, "customerPhone")

	items := view["items"].([]any)
	require.Len(t, items, 1)
	product := items[0].(map[string]any)["product"].(map[string]any)
	assert.Equal(t, "Grilled chicken No. 1", product["name"])
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	s := newTestServer(t)
	retired := dbtest.Product(t, s.db, "Retired", "10.00", false)

	resp, env := s.do(t, http.MethodPost, "/api/orders/guest", orderBody(retired.ID.String(), 1))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperr.CodeNotFound, env.Error.Code)
	assert.Equal(t, []any{retired.ID.String()}, env.Error.Details["missingProductIds"])
}

func TestCreateOrderRequiresSession(t *testing.T) {
	s := newTestServer(t)
	chicken := dbtest.Product(t, s.db, "Grilled chicken No. 1", "120.00", true)

	resp, _ := s.do(t, http.MethodPost, "/api/orders", orderBody(chicken.ID.String(), 1))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookie := s.loginUser(t, "+380501234567")
	resp, _ = s.do(t, http.MethodPost, "/api/orders", orderBody(chicken.ID.String(), 1), cookie)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := s.do(t, http.MethodGet, "/api/users/orders", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 1)
}

func TestAdminOrderManagement(t *testing.T) {
	s := newTestServer(t)
	chicken := dbtest.Product(t, s.db, "Grilled chicken No. 1", "120.00", true)
	cola := dbtest.Product(t, s.db, "Cola", "30.00", true)

	hash, err := utils.HashPassword("grill-secret")
	require.NoError(t, err)
	_, err = database.UpsertAdmin(s.db, "admin@grill.house", "+380500000001", hash)
	require.NoError(t, err)

	resp, env := s.do(t, http.MethodPost, "/api/orders/guest", orderBody(chicken.ID.String(), 1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	resp, _ = s.do(t, http.MethodPost, "/api/admin/login", fiber.Map{"email": "admin@grill.house", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/admin/login", fiber.Map{"email": "ADMIN@grill.house", "password": "grill-secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	admin := cookieNamed(resp, middleware.AdminCookie)
	require.NotNil(t, admin)

	resp, _ = s.do(t, http.MethodPost, "/api/admin/verify", nil, admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/admin/orders?status=pending&limit=5", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Total      int64            `json:"total"`
		Limit      int              `json:"limit"`
		OrderStats map[string]int64 `json:"orderStats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 5, list.Limit)
	assert.Equal(t, int64(1), list.OrderStats["PENDING"])
	assert.Equal(t, int64(0), list.OrderStats["DELIVERED"])

	resp, env = s.do(t, http.MethodPatch, "/api/admin/orders/"+created.ID, fiber.Map{
		"status": "preparing",
		"items":  []fiber.Map{{"productId": cola.ID.String(), "quantity": 3}},
	}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &patched))
	assert.Equal(t, "PREPARING", patched["status"])
	assert.InDelta(t, 90.0, patched["total"], 0.0001)

	resp, _ = s.do(t, http.MethodPatch, "/api/admin/orders/"+created.ID, fiber.Map{}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/admin/orders/not-a-uuid", nil, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/admin/dashboard", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "totalOrders")

	resp, _ = s.do(t, http.MethodDelete, "/api/admin/logout", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/admin/orders", nil, admin)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "revoked token is rejected")
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	s := newTestServer(t)
	cookie := s.loginUser(t, "+380501234567")

	resp, env := s.do(t, http.MethodGet, "/api/admin/orders", nil, &http.Cookie{Name: middleware.AdminCookie, Value: cookie.Value})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperr.CodeForbidden, env.Error.Code)
}

func TestMenu(t *testing.T) {
	s := newTestServer(t)
	_, err := database.Seed(s.db)
	require.NoError(t, err)

	resp, env := s.do(t, http.MethodGet, "/api/menu", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var categories []struct {
		Name     string `json:"name"`
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &categories))
	require.Len(t, categories, 3)
	require.NotEmpty(t, categories[0].Products)
	assert.True(t, s.redis.Exists("menu:categories"))

	resp, _ = s.do(t, http.MethodGet, "/api/menu/"+categories[0].Products[0].ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthDatabase(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, http.MethodGet, "/api/health/database", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
}

func TestErrorHandler(t *testing.T) {
	newApp := func(production bool) *fiber.App {
		app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(production)})
		app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: connection refused") })
		app.Get("/busy", func(c *fiber.Ctx) error {
			return apperr.Unavailable("database is busy, retry later", errors.New("lock timeout"))
		})
		return app
	}

	read := func(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body["error"].(map[string]any)
	}

	status, body := read(t, newApp(true), "/boom")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, apperr.CodeInternal, body["code"])
	assert.NotContains(t, body["message"], "pq:")

	status, body = read(t, newApp(false), "/boom")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body["message"], "connection refused")

	status, body = read(t, newApp(true), "/busy")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, true, body["retryable"])

	status, body = read(t, newApp(true), "/missing")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperr.CodeNotFound, body["code"])
}
