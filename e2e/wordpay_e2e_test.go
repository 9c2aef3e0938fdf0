//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

const defaultWordpayHTTPBase = "http://localhost:48080"

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path string, body any, token string) (*http.Response, []byte) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestWordpayE2E(t *testing.T) {
	httpBase := os.Getenv("WORDPAY_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultWordpayHTTPBase
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	client := newHTTPClient(httpBase)
	username := fmt.Sprintf("e2e%d", time.Now().Unix()%100000000)
	password := "e2e-password"
	var token string

	t.Run("Register", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/api/register", map[string]any{
			"username":     username,
			"password":     password,
			"phone_number": "0712345678",
		}, "")
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.TokenResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal register response failed: %v", err)
		}
		if payload.Token == "" {
			t.Fatal("expected a token")
		}
		token = payload.Token
	})

	t.Run("RegisterDuplicate", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/api/register", map[string]any{
			"username":     username,
			"password":     password,
			"phone_number": "0712345678",
		}, "")
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("Login", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/api/login", map[string]any{
			"username": username,
			"password": password,
		}, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.TokenResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal login response failed: %v", err)
		}
		token = payload.Token
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/api/login", map[string]any{
			"username": username,
			"password": "wrong",
		}, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("AccountRequiresToken", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodGet, "/api/account", nil, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Account", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/api/account", nil, token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.AccountEnvelopeResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal account failed: %v", err)
		}
		if payload.Account == nil || payload.Account.Username != username {
			t.Fatalf("unexpected account payload: %+v", payload.Account)
		}
		if payload.Account.WordsRemaining != 0 {
			t.Fatalf("expected zero starting balance, got %d", payload.Account.WordsRemaining)
		}
	})

	t.Run("UseWordsInsufficient", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/api/account/use-words", map[string]any{"words": 10}, token)
		if resp.StatusCode != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", resp.StatusCode)
		}
	})

	t.Run("InitiatePaymentWrongAmount", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/api/payments/initiate", map[string]any{
			"amount":            33,
			"subscription_type": "premium",
		}, token)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	var checkoutID string
	t.Run("InitiatePayment", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/api/payments/initiate", map[string]any{
			"amount":            20,
			"subscription_type": "basic",
		}, token)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("expected 202, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.InitiatePaymentResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal initiate response failed: %v", err)
		}
		if payload.CheckoutID == "" {
			t.Fatal("expected a checkout id")
		}
		checkoutID = payload.CheckoutID
	})

	t.Run("TransactionStatus", func(t *testing.T) {
		if checkoutID == "" {
			t.Skip("no checkout id from initiate")
		}
		// The worker races this poll; any lifecycle status is acceptable,
		// not_found is not.
		deadline := time.Now().Add(10 * time.Second)
		for {
			resp, body := client.doJSON(t, http.MethodGet, "/api/payments/status/"+checkoutID, nil, token)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
			}
			var payload types.TransactionStatusResponse
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Fatalf("unmarshal status failed: %v", err)
			}
			if payload.Status != types.StatusNotFound {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("status never resolved, still %s", payload.Status)
			}
			time.Sleep(500 * time.Millisecond)
		}
	})

	t.Run("ListPayments", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/api/payments", nil, token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.ListPaymentsResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal list payments failed: %v", err)
		}
		if len(payload.Payments) == 0 {
			t.Fatal("expected at least one payment row")
		}
	})

	t.Run("CancelUnknownTransaction", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/api/payments/cancel/LIP0ghost", nil, token)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("CallbackUnknownCheckoutID", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/api/payments/callback", map[string]any{
			"CheckoutRequestID": "LIP0ghost",
			"success":           true,
		}, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}
