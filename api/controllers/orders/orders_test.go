package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubOrdersService struct {
	order *internalorders.OrderDTO
	err   error
	last  string
}

func (s *stubOrdersService) Get(ctx context.Context, orderNumber string) (*internalorders.OrderDTO, error) {
	s.last = orderNumber
	return s.order, s.err
}

func orderRequest(number string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+number, nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderNumber", number)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestDetailSuccess(t *testing.T) {
	svc := &stubOrdersService{order: &internalorders.OrderDTO{OrderNumber: "EQ20260301AAAAAAAA", PaymentStatus: enums.PaymentStatusSucceeded}}

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, orderRequest("eq20260301aaaaaaaa"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.last != "EQ20260301AAAAAAAA" {
		t.Fatalf("expected normalized order number, got %q", svc.last)
	}
	if !strings.Contains(resp.Body.String(), `"payment_status":"succeeded"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), "payment_reference") {
		t.Fatalf("payment reference must not be exposed")
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, orderRequest("EQ20260301FFFFFFFF"))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestDetailRejectsOversizedNumber(t *testing.T) {
	svc := &stubOrdersService{}

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, orderRequest(strings.Repeat("A", 40)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.last != "" {
		t.Fatalf("service should not be called")
	}
}
