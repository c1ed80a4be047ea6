package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/config"
	"github.com/example/grillhouse/internal/logger"
)

const smsTokenFallbackTTL = 55 * time.Minute

// SMSGateway delivers login codes through an HTTP SMS provider that issues
// short-lived bearer tokens for a username and password.
type SMSGateway struct {
	cfg    config.SMSConfig
	client *http.Client
	now    func() time.Time

	mu     sync.RWMutex
	token  string
	expiry time.Time
}

// NewSMSGateway constructs an SMSGateway.
func NewSMSGateway(cfg config.SMSConfig) *SMSGateway {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &SMSGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		now:    time.Now,
	}
}

type smsAuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type smsResponse struct {
	Status int
	Body   []byte
}

// Send implements CodeSender. Delivery failures are reported as retryable.
func (g *SMSGateway) Send(ctx context.Context, phone, code string) error {
	resp, err := g.do(ctx, "sms/send", map[string]string{
		"phone":   phone,
		"message": fmt.Sprintf("Your Grillhouse login code: %s", code),
	})
	if err == nil && (resp.Status < 200 || resp.Status >= 300) {
		err = fmt.Errorf("status %d, body: %s", resp.Status, string(resp.Body))
	}
	if err != nil {
		logger.Error("sms delivery failed", "phone", phone, "error", err)
		return apperr.Unavailable("could not deliver the code, try again later", err)
	}
	return nil
}

func (g *SMSGateway) accessToken(ctx context.Context, force bool) (string, error) {
	if !force {
		g.mu.RLock()
		token, expiry := g.token, g.expiry
		g.mu.RUnlock()
		if token != "" && g.now().Before(expiry) {
			return token, nil
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !force && g.token != "" && g.now().Before(g.expiry) {
		return g.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"username": g.cfg.Username,
		"password": g.cfg.Password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("sms auth request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms auth request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sms auth failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var auth smsAuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return "", fmt.Errorf("sms auth unmarshal: %w", err)
	}
	if auth.Token == "" {
		return "", errors.New("sms auth: empty token")
	}

	g.token = auth.Token
	if auth.ExpiresIn > 0 {
		g.expiry = g.now().Add(time.Duration(auth.ExpiresIn)*time.Second - 30*time.Second)
	} else {
		g.expiry = g.now().Add(smsTokenFallbackTTL)
	}
	return g.token, nil
}

// do posts body to path, refreshing the token once on 401.
func (g *SMSGateway) do(ctx context.Context, path string, body any) (*smsResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("sms request marshal: %w", err)
	}
	url := g.cfg.BaseURL + "/" + strings.TrimLeft(path, "/")

	send := func(force bool) (*smsResponse, error) {
		token, err := g.accessToken(ctx, force)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("sms request build: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("sms request: %w", err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		return &smsResponse{Status: resp.StatusCode, Body: respBody}, nil
	}

	resp, err := send(false)
	if err != nil || resp.Status != http.StatusUnauthorized {
		return resp, err
	}
	return send(true)
}
