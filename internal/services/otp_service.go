package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/logger"
	"github.com/example/grillhouse/internal/metrics"
	"github.com/example/grillhouse/internal/redisx"
)

const (
	codeAlphabet      = "123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	defaultCodeLength = 6
)

// GenerateCode returns a random code of length characters drawn uniformly
// from an alphabet without 0, I and O. Non-positive lengths mean 6.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = defaultCodeLength
	}

	limit := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// CodeService issues and checks one-time login codes.
type CodeService struct {
	store   CodeStore
	ttl     time.Duration
	lockTTL time.Duration
}

// NewCodeService constructs a CodeService. Non-positive durations fall back
// to 300s for codes and 60s for the resend lock.
func NewCodeService(store CodeStore, ttl, lockTTL time.Duration) *CodeService {
	if ttl <= 0 {
		ttl = redisx.TTLOTP
	}
	if lockTTL <= 0 {
		lockTTL = redisx.TTLOTPLock
	}
	return &CodeService{store: store, ttl: ttl, lockTTL: lockTTL}
}

// CreateAndStore issues a code for phone. While the resend lock is held it
// fails with a rate-limit error and writes nothing. A non-positive ttl uses
// the service default.
func (s *CodeService) CreateAndStore(ctx context.Context, phone string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	acquired, err := s.store.AcquireLock(ctx, phone, s.lockTTL)
	if err != nil {
		metrics.OTPIssued.WithLabelValues("error").Inc()
		return "", err
	}
	if !acquired {
		metrics.OTPIssued.WithLabelValues("rate_limited").Inc()
		return "", apperr.RateLimited("a code was sent recently, try again later")
	}

	code, err := GenerateCode(defaultCodeLength)
	if err == nil {
		err = s.store.SetCode(ctx, phone, code, ttl)
	}
	if err != nil {
		if releaseErr := s.store.ReleaseLock(ctx, phone); releaseErr != nil {
			logger.Warn("release otp lock", "phone", phone, "error", releaseErr)
		}
		metrics.OTPIssued.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.OTPIssued.WithLabelValues("issued").Inc()
	return code, nil
}

// Verify reports whether code matches the stored code without consuming it.
func (s *CodeService) Verify(ctx context.Context, phone, code string) (bool, error) {
	stored, err := s.store.Code(ctx, phone)
	if err != nil {
		return false, err
	}
	return codesEqual(stored, code), nil
}

// Consume atomically removes the stored code and reports whether it matched.
// A stored code is handed out at most once, even when the input is wrong.
func (s *CodeService) Consume(ctx context.Context, phone, code string) (bool, error) {
	stored, err := s.store.TakeCode(ctx, phone)
	if err != nil {
		return false, err
	}
	return codesEqual(stored, code), nil
}

// Revoke drops the stored code and the resend lock of phone.
func (s *CodeService) Revoke(ctx context.Context, phone string) error {
	if _, err := s.store.TakeCode(ctx, phone); err != nil {
		return err
	}
	return s.store.ReleaseLock(ctx, phone)
}

func codesEqual(stored, input string) bool {
	if stored == "" || input == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(input)) == 1
}

// CodeSender delivers an issued code to the phone owner.
type CodeSender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogCodeSender writes codes to the log outside production and drops them in production.
type LogCodeSender struct {
	Production bool
}

func (s LogCodeSender) Send(_ context.Context, phone, code string) error {
	if s.Production {
		logger.Info("otp issued", "phone", phone)
		return nil
	}
	logger.Info("otp issued", "phone", phone, "code", code)
	return nil
}
