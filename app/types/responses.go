package types

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Account struct {
	ID             uint64 `json:"id"`
	Username       string `json:"username"`
	PhoneNumber    string `json:"phone_number"`
	WordsRemaining int64  `json:"words_remaining"`
	CreatedAt      string `json:"created_at"`
	LastLogin      string `json:"last_login"`
}

type AccountEnvelopeResponse struct {
	Account *Account `json:"account"`
}

type TokenResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expires_in"`
	Account   *Account `json:"account"`
}

type UseWordsResponse struct {
	WordsUsed      int64 `json:"words_used"`
	WordsRemaining int64 `json:"words_remaining"`
}

type Payment struct {
	ID               uint64 `json:"id"`
	Username         string `json:"username"`
	Amount           int64  `json:"amount"`
	SubscriptionType string `json:"subscription_type"`
	CheckoutID       string `json:"checkout_id"`
	RealCheckoutID   string `json:"real_checkout_id,omitempty"`
	Status           string `json:"status"`
	Reference        string `json:"reference"`
	Timestamp        string `json:"timestamp"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type InitiatePaymentResponse struct {
	CheckoutID string `json:"checkout_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

type TransactionStatusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
	Timestamp string `json:"timestamp"`
}
