package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type addItemBody struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Size      string `json:"size" validate:"required,max=16"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":1}`))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["size"] != "is required" {
		t.Fatalf("expected size detail keyed by json name, got %#v", typed.Details())
	}
}

func TestDecodeJSONSkipsValidation(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":1}`))
	var body addItemBody
	if err := DecodeJSON(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.ProductID != 1 {
		t.Fatalf("expected product id decoded, got %d", body.ProductID)
	}
}

func TestDecodeJSONRejectsUnknownFieldsAndEmptyBody(t *testing.T) {
	for _, raw := range []string{`{"product_id":1,"extra":true}`, ``, `{`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		var body addItemBody
		if typed := pkgerrors.As(DecodeJSON(req, &body)); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("body %q: expected validation error", raw)
		}
	}
}

func TestParsePathID(t *testing.T) {
	tests := []struct {
		raw  string
		want uint
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("itemId", tt.raw)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

		got, err := ParsePathID(req, "itemId")
		if tt.ok && (err != nil || got != tt.want) {
			t.Fatalf("%q: expected %d got %d (%v)", tt.raw, tt.want, got, err)
		}
		if !tt.ok && err == nil {
			t.Fatalf("%q: expected error", tt.raw)
		}
	}
}

func TestParseQueryStringTrimsAndCaps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?category=%20shirts%20", nil)
	if got := ParseQueryString(req, "category", 64); got != "shirts" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := ParseQueryString(req, "category", 3); got != "shi" {
		t.Fatalf("expected capped value, got %q", got)
	}
}

func TestSanitizeStringCapsByRune(t *testing.T) {
	if got := SanitizeString("crème", 3); got != "crè" {
		t.Fatalf("expected rune-safe cap, got %q", got)
	}
	if got := SanitizeString("ñandú", 5); got != "ñandú" {
		t.Fatalf("expected value within the rune limit kept, got %q", got)
	}
	if got := SanitizeString("shi\x00rts\xff", 0); got != "shirts" {
		t.Fatalf("expected control and invalid bytes dropped, got %q", got)
	}
	if !utf8.ValidString(SanitizeString("日本語のカテゴリ", 2)) {
		t.Fatal("expected valid UTF-8 after capping")
	}
}
