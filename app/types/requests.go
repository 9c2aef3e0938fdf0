package types

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

var phonePattern = regexp.MustCompile(`^0[17][0-9]{8}$`)

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Username = strings.TrimSpace(body.Username)
	body.PhoneNumber = strings.TrimSpace(body.PhoneNumber)
	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	if len(r.Username) < 3 || len(r.Username) > 20 {
		return errors.New("username must be between 3 and 20 characters")
	}
	if len(r.Password) < 4 || len(r.Password) > 72 {
		return errors.New("password must be between 4 and 72 characters")
	}
	if !phonePattern.MatchString(r.PhoneNumber) {
		return errors.New("phone_number must be in format 07XXXXXXXX")
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Username = strings.TrimSpace(body.Username)
	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type InitiatePaymentRequest struct {
	Amount           int64  `json:"amount"`
	SubscriptionType string `json:"subscription_type"`
}

func NewInitiatePaymentRequestFromContext(ctx echo.Context) (*InitiatePaymentRequest, error) {
	var body InitiatePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SubscriptionType = strings.ToLower(strings.TrimSpace(body.SubscriptionType))
	return &body, nil
}

func (r *InitiatePaymentRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	if !IsValidSubscriptionType(r.SubscriptionType) {
		return errors.New("subscription_type must be basic or premium")
	}
	return nil
}

type UseWordsRequest struct {
	Words int64 `json:"words"`
}

func NewUseWordsRequestFromContext(ctx echo.Context) (*UseWordsRequest, error) {
	var body UseWordsRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *UseWordsRequest) Validate() error {
	if r.Words <= 0 {
		return errors.New("words must be > 0")
	}
	return nil
}

// CallbackRequest carries the provider's out-of-band payment notification.
// The provider is inconsistent about field names: outcome arrives as either
// a "success" boolean or a "status" string, and the receipt reference as
// "reference" or "refference". The constructor folds all shapes into one
// value so nothing downstream re-parses raw JSON.
type CallbackRequest struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	Success           *bool  `json:"success"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	Refference        string `json:"refference"`
	Reason            string `json:"reason"`

	payloadJSON string
}

func NewCallbackRequestFromContext(ctx echo.Context) (*CallbackRequest, error) {
	rawBody, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}

	var body CallbackRequest
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, err
	}
	body.CheckoutRequestID = strings.TrimSpace(body.CheckoutRequestID)
	body.payloadJSON = string(rawBody)
	return &body, nil
}

func (r *CallbackRequest) Validate() error {
	if r.CheckoutRequestID == "" {
		return errors.New("CheckoutRequestID is required")
	}
	return nil
}

// Succeeded reports the payment outcome the callback describes.
func (r *CallbackRequest) Succeeded() bool {
	if r.Success != nil {
		return *r.Success
	}
	return strings.EqualFold(strings.TrimSpace(r.Status), "success")
}

// ReceiptReference returns the provider receipt, tolerating the provider's
// misspelled field.
func (r *CallbackRequest) ReceiptReference() string {
	if ref := strings.TrimSpace(r.Reference); ref != "" {
		return ref
	}
	return strings.TrimSpace(r.Refference)
}

func (r *CallbackRequest) FailureReason() string {
	reason := strings.TrimSpace(r.Reason)
	if reason == "" {
		reason = "Unknown failure reason"
	}
	return reason
}

// PayloadJSON is the raw callback body as received, kept for the audit log.
func (r *CallbackRequest) PayloadJSON() string {
	return r.payloadJSON
}
