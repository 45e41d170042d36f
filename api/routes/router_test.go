package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tiendaya/marketplace-backend/internal/sales"
	"github.com/tiendaya/marketplace-backend/pkg/auth"
	"github.com/tiendaya/marketplace-backend/pkg/config"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
	"github.com/tiendaya/marketplace-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSalesService struct {
	sales.Service
	expired int
}

func (s *stubSalesService) ListPurchases(context.Context, auth.Principal, sales.ListParams) (*sales.SaleList, error) {
	return &sales.SaleList{Sales: []sales.SaleDTO{}}, nil
}

func (s *stubSalesService) ExpirePending(context.Context, auth.Principal, uuid.UUID) (*sales.TransitionResult, error) {
	s.expired++
	return &sales.TransitionResult{OK: true, Message: "sale expired"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test"},
		JWT:  config.JWTConfig{Secret: "secret", Issuer: "market", ExpirationMinutes: 10},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestRouter(svc sales.Service) http.Handler {
	return NewRouter(testConfig(), logger.Nop(), Deps{
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Sales:    svc,
		Gatherer: prometheus.NewRegistry(),
	})
}

func bearer(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(testConfig().JWT, time.Now(), auth.Principal{UserID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(&stubSalesService{})
	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterRequiresAuthForSales(t *testing.T) {
	router := newTestRouter(&stubSalesService{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/sales/purchases", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/purchases", nil)
	req.Header.Set("Authorization", bearer(t, enums.UserRoleUser))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouterAdminExpireRequiresModerator(t *testing.T) {
	svc := &stubSalesService{}
	router := newTestRouter(svc)
	path := "/api/admin/v1/sales/" + uuid.NewString() + "/expire"

	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", bearer(t, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", bearer(t, enums.UserRoleModerator))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.expired != 1 {
		t.Fatalf("expected moderator expire, code=%d expired=%d", resp.Code, svc.expired)
	}
}
