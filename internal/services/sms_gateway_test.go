package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/config"
)

type fakeSMSProvider struct {
	logins   atomic.Int32
	rejectN  atomic.Int32
	messages chan map[string]string
}

func newFakeSMSProvider(t *testing.T) (*fakeSMSProvider, *httptest.Server) {
	p := &fakeSMSProvider{messages: make(chan map[string]string, 4)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			n := p.logins.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"token": fmt.Sprintf("token-%d", n), "expires_in": 3600})
		case "/sms/send":
			if p.rejectN.Load() > 0 {
				p.rejectN.Add(-1)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			body["authorization"] = r.Header.Get("Authorization")
			p.messages <- body
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return p, srv
}

func TestSMSGatewaySend(t *testing.T) {
	provider, srv := newFakeSMSProvider(t)
	gw := NewSMSGateway(config.SMSConfig{BaseURL: srv.URL + "/", Username: "u", Password: "p", Enabled: true})

	require.NoError(t, gw.Send(context.Background(), "+380501234567", "ABC234"))
	require.NoError(t, gw.Send(context.Background(), "+380501234567", "XYZ789"))

	first := <-provider.messages
	assert.Equal(t, "+380501234567", first["phone"])
	assert.Contains(t, first["message"], "ABC234")
	assert.Equal(t, "Bearer token-1", first["authorization"])
	assert.Equal(t, int32(1), provider.logins.Load(), "token is reused until it expires")
}

func TestSMSGatewayRefreshesRejectedToken(t *testing.T) {
	provider, srv := newFakeSMSProvider(t)
	provider.rejectN.Store(1)
	gw := NewSMSGateway(config.SMSConfig{BaseURL: srv.URL, Username: "u", Password: "p", Enabled: true})

	require.NoError(t, gw.Send(context.Background(), "+380501234567", "ABC234"))

	msg := <-provider.messages
	assert.Equal(t, "Bearer token-2", msg["authorization"])
	assert.Equal(t, int32(2), provider.logins.Load())
}

func TestSMSGatewayFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	gw := NewSMSGateway(config.SMSConfig{BaseURL: srv.URL, Enabled: true})
	err := gw.Send(context.Background(), "+380501234567", "ABC234")

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeUnavailable, appErr.Code)
	assert.True(t, appErr.Retryable)
}
