package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCheckoutService struct {
	result      *checkout.Result
	preview     *checkout.Preview
	err         error
	lastSession string
	lastInput   checkout.Input
	calls       int
}

func (s *stubCheckoutService) Execute(_ context.Context, session string, input checkout.Input) (*checkout.Result, error) {
	s.calls++
	s.lastSession, s.lastInput = session, input
	return s.result, s.err
}

func (s *stubCheckoutService) Preview(_ context.Context, session string) (*checkout.Preview, error) {
	s.lastSession = session
	return s.preview, s.err
}

func checkoutRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/checkout", strings.NewReader(body))
	return req.WithContext(middleware.WithSessionToken(req.Context(), "sess-9"))
}

func TestCheckoutSubmitSuccess(t *testing.T) {
	svc := &stubCheckoutService{result: &checkout.Result{Success: true, OrderNumber: "EQ20260301AAAAAAAA", PaymentStatus: enums.PaymentStatusSucceeded, Message: "Payment successful!"}}

	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, nil).ServeHTTP(rec, checkoutRequest(http.MethodPost, `{"email":"a@b.co","first_name":"Ada","payment_method_id":"pm_1"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastSession != "sess-9" || svc.lastInput.Email != "a@b.co" || svc.lastInput.PaymentMethodID != "pm_1" {
		t.Fatalf("unexpected service call session=%q input=%+v", svc.lastSession, svc.lastInput)
	}

	var envelope struct {
		Data checkout.Result `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Data.Success || envelope.Data.OrderNumber != "EQ20260301AAAAAAAA" {
		t.Fatalf("unexpected result %+v", envelope.Data)
	}
}

func TestCheckoutSubmitLeavesFieldChecksToService(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "missing first_name").WithDetails(map[string]string{"field": "first_name"})}

	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, nil).ServeHTTP(rec, checkoutRequest(http.MethodPost, `{"email":"a@b.co"}`))

	if svc.calls != 1 {
		t.Fatalf("expected partial body to reach the service")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing first_name") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestCheckoutSubmitErrorStatuses(t *testing.T) {
	tests := []struct {
		code pkgerrors.Code
		want int
	}{
		{pkgerrors.CodeEmptyCart, http.StatusBadRequest},
		{pkgerrors.CodePaymentDeclined, http.StatusPaymentRequired},
		{pkgerrors.CodePaymentGateway, http.StatusBadGateway},
	}
	for _, tt := range tests {
		svc := &stubCheckoutService{err: pkgerrors.New(tt.code, "x")}
		rec := httptest.NewRecorder()
		CheckoutSubmit(svc, nil).ServeHTTP(rec, checkoutRequest(http.MethodPost, `{}`))
		if rec.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.code, tt.want, rec.Code)
		}
	}
}

func TestCheckoutSubmitRejectsMalformedBody(t *testing.T) {
	svc := &stubCheckoutService{}

	rec := httptest.NewRecorder()
	CheckoutSubmit(svc, nil).ServeHTTP(rec, checkoutRequest(http.MethodPost, `{"email":`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestCheckoutPreview(t *testing.T) {
	svc := &stubCheckoutService{preview: &checkout.Preview{View: &cart.View{Count: 2}, PublishableKey: "pk_test", RequiresPaymentMethod: true}}

	rec := httptest.NewRecorder()
	CheckoutPreview(svc, nil).ServeHTTP(rec, checkoutRequest(http.MethodGet, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"publishable_key":"pk_test"`) || !strings.Contains(body, `"count":2`) {
		t.Fatalf("unexpected body %s", body)
	}
}
