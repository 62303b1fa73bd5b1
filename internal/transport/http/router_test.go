package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-event-notifier/internal/application/notification"
	"github.com/go-event-notifier/internal/config"
	"github.com/go-event-notifier/internal/domain"
	"github.com/go-event-notifier/internal/pkg/geo"
	"github.com/stretchr/testify/assert"
)

type stubNotifier struct{ runs int }

func (s *stubNotifier) Run(context.Context, notification.RunOptions) (*domain.RunSummary, error) {
	s.runs++
	return &domain.RunSummary{State: domain.RunDone}, nil
}
func (s *stubNotifier) ListForUser(context.Context, string) ([]domain.LedgerEntry, error) {
	return nil, nil
}
func (s *stubNotifier) Districts() *geo.Table { return geo.DefaultTable }

func newTestRouter(n notification.Service) http.Handler {
	return newRouterWithProxy(n, false)
}

func newRouterWithProxy(n notification.Service, trustProxy bool) http.Handler {
	cfg := &config.Config{
		AllowedOrigins:    []string{"*"},
		TrustProxyHeaders: trustProxy,
		Trigger:           config.TriggerConfig{RatePerSecond: 0.001, Burst: 1},
	}
	return NewRouter(cfg, &Deps{Notifier: n, Location: time.UTC})
}

func triggerFrom(r http.Handler, remote, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/v1/event-notifications/run", nil)
	req.RemoteAddr = remote
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr.Code
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(&stubNotifier{})
	for _, path := range []string{"/v1/health-check/ping", "/v1/districts", "/v1/users/u1/notifications", "/metrics"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestRouter_TriggerIsRateLimited(t *testing.T) {
	n := &stubNotifier{}
	r := newTestRouter(n)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/event-notifications/run", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/event-notifications/run", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, 1, n.runs)
}

func TestRouter_TriggerLimitIgnoresForwardedForByDefault(t *testing.T) {
	n := &stubNotifier{}
	r := newRouterWithProxy(n, false)

	assert.Equal(t, http.StatusOK, triggerFrom(r, "203.0.113.7:5000", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, triggerFrom(r, "203.0.113.7:5001", "10.0.0.2"))
	assert.Equal(t, 1, n.runs)
}

func TestRouter_TriggerLimitUsesForwardedForBehindTrustedProxy(t *testing.T) {
	n := &stubNotifier{}
	r := newRouterWithProxy(n, true)

	assert.Equal(t, http.StatusOK, triggerFrom(r, "10.1.0.1:5000", "198.51.100.1"))
	assert.Equal(t, http.StatusOK, triggerFrom(r, "10.1.0.1:5001", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, triggerFrom(r, "10.1.0.1:5002", "198.51.100.1"))
	assert.Equal(t, 2, n.runs)
}
