package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
	"github.com/andikar-tech/ms-go-wordpay/app/factory"
	"github.com/andikar-tech/ms-go-wordpay/app/gateway"
	"github.com/andikar-tech/ms-go-wordpay/app/phone"
	"github.com/andikar-tech/ms-go-wordpay/app/types"
	"github.com/andikar-tech/ms-go-wordpay/config"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	UpdateStatusByCheckoutID(ctx context.Context, checkoutID, status, reference string) error
	SetRealCheckoutID(ctx context.Context, checkoutID, realCheckoutID string) error
	ListForUser(ctx context.Context, username string) ([]*entity.Payment, error)
}

type transactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	FindByCheckoutID(ctx context.Context, checkoutID string) (*entity.Transaction, error)
	UpdateStatus(ctx context.Context, checkoutID, status string, reference, errorMsg *string) error
	UpdateStatusIf(ctx context.Context, checkoutID, toStatus string, fromStatuses []string) (bool, error)
	CompleteIfEligible(ctx context.Context, checkoutID, completedStatus, reference string, fromStatuses []string) (bool, error)
	SetRealCheckoutID(ctx context.Context, checkoutID, realCheckoutID string) error
	ListStalledBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Transaction, error)
}

type transactionEventRepository interface {
	Create(ctx context.Context, event *entity.TransactionEvent) error
}

type callbackLogRepository interface {
	Create(ctx context.Context, callback *entity.CallbackLog) error
}

// StatusCache is a read-through shortcut in front of the transaction store.
// It is never authoritative: on any divergence the store wins, and a
// terminal status read from the store always overwrites the cached one.
type StatusCache interface {
	Get(checkoutID string) (string, bool)
	Set(checkoutID, status string)
}

// nonTerminalStatuses is the only set a transaction may complete, fail,
// cancel, or time out from. Terminal states are never overwritten.
var nonTerminalStatuses = []string{types.StatusQueued, types.StatusProcessing, types.StatusPending}

// PaymentIntent is one queued payment attempt, built before any network
// call so a lookup key exists even if the provider never responds.
type PaymentIntent struct {
	CheckoutID       string
	Username         string
	Phone            string
	Amount           int64
	SubscriptionType string
	CallbackURL      string
}

type BillingService struct {
	userRepo     userRepository
	paymentRepo  paymentRepository
	txRepo       transactionRepository
	eventRepo    transactionEventRepository
	callbackRepo callbackLogRepository
	gateway      gateway.Client
	cache        StatusCache
	subCfg       config.SubscriptionConfig
	logger       logrus.FieldLogger
}

func NewBillingService(
	userRepo userRepository,
	paymentRepo paymentRepository,
	txRepo transactionRepository,
	eventRepo transactionEventRepository,
	callbackRepo callbackLogRepository,
	gatewayClient gateway.Client,
	cache StatusCache,
	subCfg config.SubscriptionConfig,
) *BillingService {
	return &BillingService{
		userRepo:     userRepo,
		paymentRepo:  paymentRepo,
		txRepo:       txRepo,
		eventRepo:    eventRepo,
		callbackRepo: callbackRepo,
		gateway:      gatewayClient,
		cache:        cache,
		subCfg:       subCfg,
		logger:       factory.NewModuleLogger("billing-service"),
	}
}

// PrepareIntent validates a payment request against the configured plans
// and builds the intent the dispatcher will queue. The phone number is
// normalized here, before any network call; a short number is logged and
// carried through, matching the gateway's tolerance.
func (s *BillingService) PrepareIntent(ctx context.Context, username string, req *types.InitiatePaymentRequest) (*PaymentIntent, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	expected := s.subCfg.BasicAmount
	if req.SubscriptionType == types.SubscriptionPremium {
		expected = s.subCfg.PremiumAmount
	}
	if req.Amount != expected {
		return nil, fmt.Errorf("%w: amount for %s subscription must be %d", ErrValidation, req.SubscriptionType, expected)
	}

	normalized, ok := phone.Normalize(user.PhoneNumber)
	if !ok {
		s.logger.WithField("username", username).Warn("Phone number is shorter than expected")
	}

	return &PaymentIntent{
		Username:         username,
		Phone:            normalized,
		Amount:           req.Amount,
		SubscriptionType: req.SubscriptionType,
	}, nil
}

// ProcessIntent is the worker side of the state machine: it moves a queued
// transaction to processing, invokes the gateway, and lands the transaction
// in completed, pending, or failed.
func (s *BillingService) ProcessIntent(ctx context.Context, intent *PaymentIntent) error {
	applied, err := s.txRepo.UpdateStatusIf(ctx, intent.CheckoutID, types.StatusProcessing, []string{types.StatusQueued})
	if err != nil {
		return err
	}
	if !applied {
		// Cancelled (or otherwise moved) while sitting in the queue.
		tx, err := s.txRepo.FindByCheckoutID(ctx, intent.CheckoutID)
		if err != nil {
			return err
		}
		status := types.StatusNotFound
		if tx != nil {
			status = tx.Status
		}
		s.logger.WithFields(logrus.Fields{
			"checkout_id": intent.CheckoutID,
			"status":      status,
		}).Info("Skipping queued intent that is no longer queued")
		return nil
	}

	s.mirrorStatus(ctx, intent.CheckoutID, types.StatusProcessing, "")
	s.recordEvent(ctx, intent.CheckoutID, "payment_processing", types.StatusQueued, types.StatusProcessing)

	result, err := s.gateway.RequestPush(ctx, intent.Phone, intent.Amount, intent.CallbackURL)
	if err != nil {
		return s.MarkIntentError(ctx, intent.CheckoutID, err.Error())
	}

	switch result.Outcome {
	case gateway.OutcomeInstantSuccess:
		liveID, err := s.reconcileAlias(ctx, intent.CheckoutID, result.ProviderCheckoutID)
		if err != nil {
			return err
		}
		return s.completeAndCredit(ctx, liveID, intent.Username, intent.SubscriptionType, result.Reference)

	case gateway.OutcomePending:
		liveID, err := s.reconcileAlias(ctx, intent.CheckoutID, result.ProviderCheckoutID)
		if err != nil {
			return err
		}
		applied, err := s.txRepo.UpdateStatusIf(ctx, liveID, types.StatusPending, []string{types.StatusProcessing})
		if err != nil {
			return err
		}
		if applied {
			s.mirrorStatus(ctx, liveID, types.StatusPending, "")
			s.recordEvent(ctx, liveID, "payment_pending", types.StatusProcessing, types.StatusPending)
		}
		return nil

	default:
		return s.markFailed(ctx, intent.CheckoutID, result.Reason)
	}
}

// MarkIntentError records an unexpected processing failure as a terminal
// error status so a single bad intent never halts the worker.
func (s *BillingService) MarkIntentError(ctx context.Context, checkoutID, message string) error {
	applied, err := s.txRepo.UpdateStatusIf(ctx, checkoutID, types.StatusError, nonTerminalStatuses)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	errMsg := message
	if err := s.txRepo.UpdateStatus(ctx, checkoutID, types.StatusError, nil, &errMsg); err != nil {
		return err
	}
	s.mirrorStatus(ctx, checkoutID, types.StatusError, message)
	s.recordEvent(ctx, checkoutID, "payment_error", "", types.StatusError)
	return nil
}

func (s *BillingService) markFailed(ctx context.Context, checkoutID, reason string) error {
	applied, err := s.txRepo.UpdateStatusIf(ctx, checkoutID, types.StatusFailed, nonTerminalStatuses)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	errMsg := reason
	if err := s.txRepo.UpdateStatus(ctx, checkoutID, types.StatusFailed, nil, &errMsg); err != nil {
		return err
	}
	s.mirrorStatus(ctx, checkoutID, types.StatusFailed, reason)
	s.recordEvent(ctx, checkoutID, "payment_failed", "", types.StatusFailed)
	return nil
}

// completeAndCredit applies the single completion transition. The word
// credit is gated on the store-side check-and-set: only the caller that
// actually moved the transaction into completed applies the increment, so
// duplicate callbacks and poll races credit exactly once.
func (s *BillingService) completeAndCredit(ctx context.Context, checkoutID, username, subscriptionType, reference string) error {
	applied, err := s.txRepo.CompleteIfEligible(ctx, checkoutID, types.StatusCompleted, reference, nonTerminalStatuses)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	words := s.wordsFor(subscriptionType)
	if err := s.userRepo.IncrementWords(ctx, username, words); err != nil {
		return err
	}
	s.mirrorStatus(ctx, checkoutID, types.StatusCompleted, reference)
	s.recordEvent(ctx, checkoutID, "payment_completed", "", types.StatusCompleted)

	s.logger.WithFields(logrus.Fields{
		"username":    username,
		"checkout_id": checkoutID,
		"words_added": words,
	}).Info("Payment completed, words credited")
	return nil
}

// reconcileAlias records the provider-assigned checkout id. First
// assignment attaches the alias to the same transaction. A later
// reassignment to a different alias retires the old record as replaced and
// opens a new transaction under the alias, cross-linked through
// real_checkout_id so either id keeps resolving to the live attempt. The
// returned id addresses the live transaction.
func (s *BillingService) reconcileAlias(ctx context.Context, checkoutID, providerCheckoutID string) (string, error) {
	if providerCheckoutID == "" || providerCheckoutID == checkoutID {
		return checkoutID, nil
	}

	tx, err := s.txRepo.FindByCheckoutID(ctx, checkoutID)
	if err != nil {
		return "", err
	}
	if tx == nil {
		return checkoutID, nil
	}

	if tx.RealCheckoutID == nil {
		if err := s.txRepo.SetRealCheckoutID(ctx, tx.CheckoutID, providerCheckoutID); err != nil {
			return "", err
		}
		if err := s.paymentRepo.SetRealCheckoutID(ctx, tx.CheckoutID, providerCheckoutID); err != nil {
			s.logger.WithError(err).WithField("checkout_id", tx.CheckoutID).Error("Failed to record alias on payment record")
		}
		s.recordEvent(ctx, tx.CheckoutID, "alias_assigned", "", tx.Status)
		return tx.CheckoutID, nil
	}

	if *tx.RealCheckoutID == providerCheckoutID {
		return tx.CheckoutID, nil
	}

	if types.IsTerminalStatus(tx.Status) {
		return tx.CheckoutID, nil
	}

	now := time.Now().UTC()
	replacement := &entity.Transaction{
		CheckoutID:       providerCheckoutID,
		Username:         tx.Username,
		Amount:           tx.Amount,
		SubscriptionType: tx.SubscriptionType,
		Status:           tx.Status,
		CallbackURL:      tx.CallbackURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.txRepo.Create(ctx, replacement); err != nil {
		return "", err
	}
	if err := s.paymentRepo.Create(ctx, &entity.Payment{
		Username:         tx.Username,
		Amount:           tx.Amount,
		SubscriptionType: tx.SubscriptionType,
		CheckoutID:       providerCheckoutID,
		Status:           tx.Status,
		Reference:        "N/A",
		CreatedAt:        now,
	}); err != nil {
		s.logger.WithError(err).WithField("checkout_id", providerCheckoutID).Error("Failed to create replacement payment record")
	}

	if _, err := s.txRepo.UpdateStatusIf(ctx, tx.CheckoutID, types.StatusReplaced, nonTerminalStatuses); err != nil {
		return "", err
	}
	if err := s.txRepo.SetRealCheckoutID(ctx, tx.CheckoutID, providerCheckoutID); err != nil {
		return "", err
	}
	s.mirrorStatus(ctx, tx.CheckoutID, types.StatusReplaced, "")
	s.recordEvent(ctx, tx.CheckoutID, "alias_reassigned", tx.Status, types.StatusReplaced)

	return providerCheckoutID, nil
}

// resolveTransaction looks up a transaction by either id and follows
// replacement links to the live record.
func (s *BillingService) resolveTransaction(ctx context.Context, checkoutID string) (*entity.Transaction, error) {
	tx, err := s.txRepo.FindByCheckoutID(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	for hops := 0; tx != nil && tx.Status == types.StatusReplaced && tx.RealCheckoutID != nil && hops < 5; hops++ {
		next, err := s.txRepo.FindByCheckoutID(ctx, *tx.RealCheckoutID)
		if err != nil {
			return nil, err
		}
		if next == nil || next.CheckoutID == tx.CheckoutID {
			break
		}
		tx = next
	}

	return tx, nil
}

// TransactionStatus answers a user's status poll. The store is
// authoritative; the cache is consulted only when the store read fails, and
// is refreshed from the store on every successful read.
func (s *BillingService) TransactionStatus(ctx context.Context, checkoutID, username string) (*types.TransactionStatusResponse, error) {
	tx, err := s.resolveTransaction(ctx, checkoutID)
	if err != nil {
		if cached, ok := s.cache.Get(checkoutID); ok && !types.IsTerminalStatus(cached) {
			return &types.TransactionStatusResponse{
				Status:    cached,
				Message:   statusMessage(cached),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}, nil
		}
		return nil, err
	}
	if tx == nil {
		return &types.TransactionStatusResponse{
			Status:    types.StatusNotFound,
			Message:   "Transaction not found",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	if tx.Username != username {
		return nil, ErrUnauthorized
	}

	s.cache.Set(tx.CheckoutID, tx.Status)

	reference := ""
	if tx.Reference != nil {
		reference = *tx.Reference
	}
	message := statusMessage(tx.Status)
	if tx.Status == types.StatusFailed && tx.Error != nil {
		message = fmt.Sprintf("Payment failed: %s", *tx.Error)
	}

	return &types.TransactionStatusResponse{
		Status:    tx.Status,
		Message:   message,
		Reference: reference,
		Timestamp: tx.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// CancelTransaction cancels a payment on the owner's request. Only queued,
// processing, and pending transactions can be cancelled; terminal ones are
// rejected with their current status so the caller can explain why.
func (s *BillingService) CancelTransaction(ctx context.Context, checkoutID, username string) error {
	tx, err := s.resolveTransaction(ctx, checkoutID)
	if err != nil {
		return err
	}
	if tx == nil {
		return ErrTransactionNotFound
	}
	if tx.Username != username {
		return ErrUnauthorized
	}
	if types.IsTerminalStatus(tx.Status) {
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, tx.Status)
	}

	applied, err := s.txRepo.UpdateStatusIf(ctx, tx.CheckoutID, types.StatusCancelled, nonTerminalStatuses)
	if err != nil {
		return err
	}
	if !applied {
		// Lost the race against the worker or a callback.
		current, err := s.resolveTransaction(ctx, tx.CheckoutID)
		if err != nil {
			return err
		}
		status := types.StatusNotFound
		if current != nil {
			status = current.Status
		}
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, status)
	}

	s.mirrorStatus(ctx, tx.CheckoutID, types.StatusCancelled, "")
	s.recordEvent(ctx, tx.CheckoutID, "payment_cancelled", tx.Status, types.StatusCancelled)
	return nil
}

// TimeoutTransaction is the caller-driven expiry: a poller that has waited
// past the configured window may move a pending transaction to timeout.
// Only pending transactions expire this way.
func (s *BillingService) TimeoutTransaction(ctx context.Context, checkoutID, username string) error {
	tx, err := s.resolveTransaction(ctx, checkoutID)
	if err != nil {
		return err
	}
	if tx == nil {
		return ErrTransactionNotFound
	}
	if tx.Username != username {
		return ErrUnauthorized
	}
	if types.IsTerminalStatus(tx.Status) {
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, tx.Status)
	}

	applied, err := s.txRepo.UpdateStatusIf(ctx, tx.CheckoutID, types.StatusTimeout, []string{types.StatusPending})
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: only pending payments can time out", ErrValidation)
	}

	s.mirrorStatus(ctx, tx.CheckoutID, types.StatusTimeout, "")
	s.recordEvent(ctx, tx.CheckoutID, "payment_timeout", types.StatusPending, types.StatusTimeout)
	return nil
}

func (s *BillingService) wordsFor(subscriptionType string) int64 {
	if subscriptionType == types.SubscriptionBasic {
		return s.subCfg.BasicWords
	}
	return s.subCfg.PremiumWords
}

// mirrorStatus reflects a transaction transition onto the billing log and
// the status cache. The transaction row itself is moved by the caller.
func (s *BillingService) mirrorStatus(ctx context.Context, checkoutID, status, reference string) {
	if err := s.paymentRepo.UpdateStatusByCheckoutID(ctx, checkoutID, status, reference); err != nil {
		s.logger.WithError(err).WithField("checkout_id", checkoutID).Error("Failed to update payment record")
	}
	s.cache.Set(checkoutID, status)
}

func (s *BillingService) recordEvent(ctx context.Context, checkoutID, eventType, oldStatus, newStatus string) {
	event := &entity.TransactionEvent{
		CheckoutID: checkoutID,
		EventType:  eventType,
		NewStatus:  newStatus,
		CreatedAt:  time.Now().UTC(),
	}
	if oldStatus != "" {
		event.OldStatus = &oldStatus
	}
	_ = s.eventRepo.Create(ctx, event)
}

func statusMessage(status string) string {
	switch status {
	case types.StatusCompleted:
		return "Payment completed successfully!"
	case types.StatusQueued:
		return "Payment queued for processing"
	case types.StatusProcessing:
		return "Payment is being processed"
	case types.StatusPending:
		return "Waiting for payment..."
	case types.StatusCancelled:
		return "Payment cancelled"
	case types.StatusFailed:
		return "Payment failed"
	case types.StatusTimeout:
		return "Payment timed out"
	case types.StatusReplaced:
		return "Payment attempt was replaced"
	case types.StatusError:
		return "Payment error"
	default:
		return "Unknown status"
	}
}
