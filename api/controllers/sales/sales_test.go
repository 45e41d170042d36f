package sales

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tiendaya/marketplace-backend/api/middleware"
	internalsales "github.com/tiendaya/marketplace-backend/internal/sales"
	"github.com/tiendaya/marketplace-backend/pkg/auth"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
	pkgerrors "github.com/tiendaya/marketplace-backend/pkg/errors"
	"github.com/tiendaya/marketplace-backend/pkg/logger"
)

type stubSalesService struct {
	placeFn   func(auth.Principal, internalsales.PlaceOrderInput) (*internalsales.SaleDTO, error)
	respondFn func(auth.Principal, uuid.UUID, internalsales.RespondInput) (*internalsales.TransitionResult, error)
	storeFn   func(auth.Principal, uuid.UUID, internalsales.StoreSalesFilter, internalsales.ListParams) (*internalsales.SaleList, error)
	getFn     func(auth.Principal, uuid.UUID) (*internalsales.SaleDTO, error)
	expired   []uuid.UUID
	expiredBy []auth.Principal
}

func (s *stubSalesService) PlaceOrder(_ context.Context, p auth.Principal, in internalsales.PlaceOrderInput) (*internalsales.SaleDTO, error) {
	return s.placeFn(p, in)
}

func (s *stubSalesService) RespondToOrder(_ context.Context, p auth.Principal, id uuid.UUID, in internalsales.RespondInput) (*internalsales.TransitionResult, error) {
	return s.respondFn(p, id, in)
}

func (s *stubSalesService) CancelOrder(_ context.Context, _ auth.Principal, id uuid.UUID) (*internalsales.TransitionResult, error) {
	return &internalsales.TransitionResult{OK: true, Message: "sale cancelled", Sale: &internalsales.SaleDTO{ID: id, Status: enums.SaleStatusCancelled}}, nil
}

func (s *stubSalesService) ExpirePending(_ context.Context, actor auth.Principal, id uuid.UUID) (*internalsales.TransitionResult, error) {
	s.expired = append(s.expired, id)
	s.expiredBy = append(s.expiredBy, actor)
	return &internalsales.TransitionResult{OK: true, Message: "sale expired"}, nil
}

func (s *stubSalesService) ExpireStale(context.Context, time.Time, int) (internalsales.ExpireReport, error) {
	return internalsales.ExpireReport{}, nil
}

func (s *stubSalesService) ListPurchases(context.Context, auth.Principal, internalsales.ListParams) (*internalsales.SaleList, error) {
	return &internalsales.SaleList{Sales: []internalsales.SaleDTO{}}, nil
}

func (s *stubSalesService) ListStoreSales(_ context.Context, p auth.Principal, storeID uuid.UUID, f internalsales.StoreSalesFilter, params internalsales.ListParams) (*internalsales.SaleList, error) {
	return s.storeFn(p, storeID, f, params)
}

func (s *stubSalesService) GetSale(_ context.Context, p auth.Principal, id uuid.UUID) (*internalsales.SaleDTO, error) {
	return s.getFn(p, id)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func buyerRequest(method, target, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithPrincipal(req.Context(), auth.Principal{UserID: userID, Role: enums.UserRoleUser}))
}

func withParam(req *http.Request, key, value string) *http.Request {
	rc := chi.RouteContext(req.Context())
	if rc == nil {
		rc = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}
	rc.URLParams.Add(key, value)
	return req
}

func TestPlaceOrderCreated(t *testing.T) {
	buyer := uuid.New()
	variant := uuid.New()
	svc := &stubSalesService{
		placeFn: func(p auth.Principal, in internalsales.PlaceOrderInput) (*internalsales.SaleDTO, error) {
			if p.UserID != buyer || in.VariantID != variant || in.Quantity != 3 || in.ProofReference != "TX-1" {
				t.Fatalf("unexpected call %+v %+v", p, in)
			}
			return &internalsales.SaleDTO{ID: uuid.New(), Status: enums.SaleStatusPending}, nil
		},
	}

	body := `{"variant_id":"` + variant.String() + `","quantity":3,"proof_reference":"TX-1"}`
	resp := httptest.NewRecorder()
	PlaceOrder(svc, testLogger())(resp, buyerRequest(http.MethodPost, "/api/v1/sales", body, buyer))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data internalsales.SaleDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Status != enums.SaleStatusPending {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestPlaceOrderRejectsBadBody(t *testing.T) {
	svc := &stubSalesService{
		placeFn: func(auth.Principal, internalsales.PlaceOrderInput) (*internalsales.SaleDTO, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	cases := []string{
		`{"variant_id":"nope","quantity":1,"proof_reference":"x"}`,
		`{"variant_id":"` + uuid.NewString() + `","quantity":0,"proof_reference":"x"}`,
		`{"variant_id":"` + uuid.NewString() + `","quantity":1}`,
		`not json`,
	}
	for _, body := range cases {
		resp := httptest.NewRecorder()
		PlaceOrder(svc, testLogger())(resp, buyerRequest(http.MethodPost, "/api/v1/sales", body, uuid.New()))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", body, resp.Code)
		}
	}
}

func TestPlaceOrderRequiresPrincipal(t *testing.T) {
	resp := httptest.NewRecorder()
	PlaceOrder(&stubSalesService{}, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{}`)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRespondToOrderMapsStateConflict(t *testing.T) {
	saleID := uuid.New()
	var got internalsales.RespondInput
	svc := &stubSalesService{
		respondFn: func(_ auth.Principal, id uuid.UUID, in internalsales.RespondInput) (*internalsales.TransitionResult, error) {
			if id != saleID {
				t.Fatalf("unexpected sale %s", id)
			}
			got = in
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sale already processed")
		},
	}

	req := withParam(buyerRequest(http.MethodPost, "/", `{"decision":"Reject","reason":"no payment"}`, uuid.New()), "saleId", saleID.String())
	resp := httptest.NewRecorder()
	RespondToOrder(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if got.Decision != enums.SaleDecisionReject || got.Reason != "no payment" {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestCancelOrderInvalidSaleID(t *testing.T) {
	req := withParam(buyerRequest(http.MethodPost, "/", "", uuid.New()), "saleId", "bad")
	resp := httptest.NewRecorder()
	CancelOrder(&stubSalesService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListStoreSalesStatusFilter(t *testing.T) {
	storeID := uuid.New()
	var filter internalsales.StoreSalesFilter
	var params internalsales.ListParams
	svc := &stubSalesService{
		storeFn: func(_ auth.Principal, id uuid.UUID, f internalsales.StoreSalesFilter, p internalsales.ListParams) (*internalsales.SaleList, error) {
			if id != storeID {
				t.Fatalf("unexpected store %s", id)
			}
			filter, params = f, p
			return &internalsales.SaleList{Sales: []internalsales.SaleDTO{}}, nil
		},
	}

	req := withParam(buyerRequest(http.MethodGet, "/?status=pending&limit=5", "", uuid.New()), "storeId", storeID.String())
	resp := httptest.NewRecorder()
	ListStoreSales(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if filter.Status == nil || *filter.Status != enums.SaleStatusPending || params.Limit != 5 {
		t.Fatalf("unexpected filter %+v params %+v", filter, params)
	}

	req = withParam(buyerRequest(http.MethodGet, "/?status=shipped", "", uuid.New()), "storeId", storeID.String())
	resp = httptest.NewRecorder()
	ListStoreSales(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetSaleForbidden(t *testing.T) {
	svc := &stubSalesService{
		getFn: func(auth.Principal, uuid.UUID) (*internalsales.SaleDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "sale not visible")
		},
	}
	req := withParam(buyerRequest(http.MethodGet, "/", "", uuid.New()), "saleId", uuid.NewString())
	resp := httptest.NewRecorder()
	GetSale(svc, testLogger())(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestExpireSale(t *testing.T) {
	saleID := uuid.New()
	moderator := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleModerator}
	svc := &stubSalesService{}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withParam(req.WithContext(middleware.WithPrincipal(req.Context(), moderator)), "saleId", saleID.String())
	resp := httptest.NewRecorder()
	ExpireSale(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK || len(svc.expired) != 1 || svc.expired[0] != saleID {
		t.Fatalf("unexpected expire result %d %v", resp.Code, svc.expired)
	}
	if svc.expiredBy[0] != moderator {
		t.Fatalf("expected moderator as actor got %+v", svc.expiredBy[0])
	}
}

func TestExpireSaleRequiresPrincipal(t *testing.T) {
	svc := &stubSalesService{}
	req := withParam(httptest.NewRequest(http.MethodPost, "/", nil), "saleId", uuid.NewString())
	resp := httptest.NewRecorder()
	ExpireSale(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized || len(svc.expired) != 0 {
		t.Fatalf("expected 401 without principal got %d", resp.Code)
	}
}
