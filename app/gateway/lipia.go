// Package gateway wraps the outbound Lipia STK push-payment API. It owns
// nothing but the HTTP exchange: results come back as a tagged PushResult
// and storage stays with the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// instantSuccessMessage is the provider's sentinel for a charge that was
// executed and confirmed synchronously.
const instantSuccessMessage = "callback received successfully"

type Outcome int32

const (
	OutcomeRejected       Outcome = 0
	OutcomeInstantSuccess Outcome = 1
	OutcomePending        Outcome = 2
)

// PushResult is the normalized gateway response. Exactly one variant
// applies: InstantSuccess carries a provider checkout id and receipt
// reference, Pending carries a provider checkout id, Rejected carries only
// a human-readable reason.
type PushResult struct {
	Outcome Outcome

	ProviderCheckoutID string
	Reference          string
	Reason             string
}

type Client interface {
	RequestPush(ctx context.Context, phone string, amount int64, callbackURL string) (*PushResult, error)
}

type LipiaConfig struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration
}

type LipiaClient struct {
	cfg    LipiaConfig
	client *http.Client
}

func NewLipiaClient(cfg LipiaConfig) *LipiaClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &LipiaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// pushResponse is the provider's success envelope. The provider spells the
// receipt field "refference"; both spellings are accepted.
type pushResponse struct {
	Message string `json:"message"`
	Data    *struct {
		CheckoutRequestID string `json:"CheckoutRequestID"`
		Refference        string `json:"refference"`
		Reference         string `json:"reference"`
	} `json:"data"`
}

func (c *LipiaClient) RequestPush(ctx context.Context, phone string, amount int64, callbackURL string) (*PushResult, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("lipia api key is not configured")
	}
	if strings.TrimSpace(c.cfg.BaseURL) == "" {
		return nil, errors.New("lipia base url is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"phone":        phone,
		"amount":       strconv.FormatInt(amount, 10),
		"callback_url": callbackURL,
	})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/request/stk"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeouts and transport failures fold into Rejected; retries, if
		// any, are the dispatcher's concern.
		return &PushResult{
			Outcome: OutcomeRejected,
			Reason:  fmt.Sprintf("payment request failed: %v", err),
		}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &PushResult{
			Outcome: OutcomeRejected,
			Reason:  fmt.Sprintf("payment request failed with status code: %d", resp.StatusCode),
		}, nil
	}

	return decodePushResponse(body), nil
}

// decodePushResponse classifies the provider's 2xx envelope into the three
// result variants.
func decodePushResponse(body []byte) *PushResult {
	var envelope pushResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &PushResult{
			Outcome: OutcomeRejected,
			Reason:  fmt.Sprintf("unparseable gateway response: %v", err),
		}
	}

	if envelope.Message == instantSuccessMessage && envelope.Data != nil {
		reference := envelope.Data.Refference
		if reference == "" {
			reference = envelope.Data.Reference
		}
		if reference == "" {
			reference = "DIRECT"
		}
		return &PushResult{
			Outcome:            OutcomeInstantSuccess,
			ProviderCheckoutID: envelope.Data.CheckoutRequestID,
			Reference:          reference,
		}
	}

	if envelope.Data != nil && envelope.Data.CheckoutRequestID != "" {
		return &PushResult{
			Outcome:            OutcomePending,
			ProviderCheckoutID: envelope.Data.CheckoutRequestID,
		}
	}

	reason := strings.TrimSpace(envelope.Message)
	if reason == "" {
		reason = "Unknown payment error"
	}
	return &PushResult{
		Outcome: OutcomeRejected,
		Reason:  reason,
	}
}
