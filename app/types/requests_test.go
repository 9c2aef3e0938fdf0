package types

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{Username: "alice", Password: "secret", PhoneNumber: "0712345678"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"short username", RegisterRequest{Username: "al", Password: "secret", PhoneNumber: "0712345678"}},
		{"long username", RegisterRequest{Username: strings.Repeat("a", 21), Password: "secret", PhoneNumber: "0712345678"}},
		{"short password", RegisterRequest{Username: "alice", Password: "abc", PhoneNumber: "0712345678"}},
		{"bad phone prefix", RegisterRequest{Username: "alice", Password: "secret", PhoneNumber: "0912345678"}},
		{"international phone", RegisterRequest{Username: "alice", Password: "secret", PhoneNumber: "254712345678"}},
		{"short phone", RegisterRequest{Username: "alice", Password: "secret", PhoneNumber: "07123"}},
	}
	for _, tc := range cases {
		if err := tc.req.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestInitiatePaymentRequestValidate(t *testing.T) {
	valid := InitiatePaymentRequest{Amount: 20, SubscriptionType: "basic"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	if err := (&InitiatePaymentRequest{Amount: 0, SubscriptionType: "basic"}).Validate(); err == nil {
		t.Error("expected error for zero amount")
	}
	if err := (&InitiatePaymentRequest{Amount: 20, SubscriptionType: "gold"}).Validate(); err == nil {
		t.Error("expected error for unknown subscription type")
	}
}

func TestNewInitiatePaymentRequestNormalizesSubscriptionType(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("POST", "/api/payments/initiate", strings.NewReader(`{"amount":50,"subscription_type":" Premium "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := NewInitiatePaymentRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.SubscriptionType != "premium" {
		t.Fatalf("expected normalized type premium, got %q", parsed.SubscriptionType)
	}
}

func TestCallbackRequestOutcomeShapes(t *testing.T) {
	boolTrue := true
	boolFalse := false

	cases := []struct {
		name string
		req  CallbackRequest
		want bool
	}{
		{"success bool true", CallbackRequest{Success: &boolTrue}, true},
		{"success bool false", CallbackRequest{Success: &boolFalse, Status: "success"}, false},
		{"status string", CallbackRequest{Status: "Success"}, true},
		{"status failed", CallbackRequest{Status: "failed"}, false},
		{"empty", CallbackRequest{}, false},
	}
	for _, tc := range cases {
		if got := tc.req.Succeeded(); got != tc.want {
			t.Errorf("%s: Succeeded() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCallbackRequestReceiptReference(t *testing.T) {
	req := CallbackRequest{Refference: "MISSPELLED1"}
	if got := req.ReceiptReference(); got != "MISSPELLED1" {
		t.Fatalf("expected misspelled field to be honored, got %q", got)
	}

	req = CallbackRequest{Reference: "PROPER1", Refference: "MISSPELLED1"}
	if got := req.ReceiptReference(); got != "PROPER1" {
		t.Fatalf("expected proper spelling to win, got %q", got)
	}
}

func TestNewCallbackRequestKeepsRawPayload(t *testing.T) {
	e := echo.New()
	body := `{"CheckoutRequestID":"ws_CO_1","success":true,"refference":"QBC123"}`
	req := httptest.NewRequest("POST", "/api/payments/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := NewCallbackRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.CheckoutRequestID != "ws_CO_1" {
		t.Fatalf("unexpected checkout id: %s", parsed.CheckoutRequestID)
	}
	if !parsed.Succeeded() {
		t.Fatal("expected success outcome")
	}
	if parsed.PayloadJSON() != body {
		t.Fatalf("expected raw payload preserved, got %s", parsed.PayloadJSON())
	}
	if err := parsed.Validate(); err != nil {
		t.Fatalf("expected valid callback, got %v", err)
	}
}

func TestStatusClassification(t *testing.T) {
	terminal := []string{StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout, StatusError, StatusReplaced}
	for _, s := range terminal {
		if !IsTerminalStatus(s) {
			t.Errorf("expected %s to be terminal", s)
		}
		if IsCancelableStatus(s) {
			t.Errorf("expected %s to not be cancelable", s)
		}
	}

	live := []string{StatusQueued, StatusProcessing, StatusPending}
	for _, s := range live {
		if IsTerminalStatus(s) {
			t.Errorf("expected %s to be non-terminal", s)
		}
		if !IsCancelableStatus(s) {
			t.Errorf("expected %s to be cancelable", s)
		}
	}
}
