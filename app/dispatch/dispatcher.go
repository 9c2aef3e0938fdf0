package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
	"github.com/andikar-tech/ms-go-wordpay/app/factory"
	"github.com/andikar-tech/ms-go-wordpay/app/service"
	"github.com/andikar-tech/ms-go-wordpay/app/types"
	"github.com/andikar-tech/ms-go-wordpay/config"
)

type billingProcessor interface {
	ProcessIntent(ctx context.Context, intent *service.PaymentIntent) error
	MarkIntentError(ctx context.Context, checkoutID, message string) error
}

type transactionCreator interface {
	Create(ctx context.Context, tx *entity.Transaction) error
}

type paymentCreator interface {
	Create(ctx context.Context, payment *entity.Payment) error
}

var ErrDispatcherClosed = fmt.Errorf("dispatcher is shutting down")
var ErrQueueFull = fmt.Errorf("payment queue is full")

// Dispatcher owns the in-process payment queue. Enqueue persists the
// queued transaction before handing it to the worker, so a crash between
// the two leaves a recoverable queued row rather than a lost payment.
type Dispatcher struct {
	billing     billingProcessor
	txRepo      transactionCreator
	paymentRepo paymentCreator
	cache       *StatusCache

	queue        chan *service.PaymentIntent
	drainTimeout time.Duration
	callbackURL  string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	logger logrus.FieldLogger
	now    func() time.Time
}

func NewDispatcher(
	billing billingProcessor,
	txRepo transactionCreator,
	paymentRepo paymentCreator,
	cache *StatusCache,
	cfg config.DispatcherConfig,
	callbackBaseURL string,
) *Dispatcher {
	return &Dispatcher{
		billing:      billing,
		txRepo:       txRepo,
		paymentRepo:  paymentRepo,
		cache:        cache,
		queue:        make(chan *service.PaymentIntent, cfg.QueueSize),
		drainTimeout: cfg.DrainTimeout,
		callbackURL:  callbackBaseURL + "/api/payments/callback",
		logger:       factory.NewModuleLogger("dispatcher"),
		now:          time.Now,
	}
}

// Start launches the single worker goroutine that drains the queue.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.work()
}

// Enqueue assigns a checkout id to the intent, persists the queued
// transaction and its billing-log row, and pushes the intent onto the
// queue. On ErrQueueFull the persisted row stays queued and can be
// retried or expired later.
func (d *Dispatcher) Enqueue(ctx context.Context, intent *service.PaymentIntent) (string, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrDispatcherClosed
	}
	d.mu.Unlock()

	intent.CheckoutID = d.newCheckoutID(intent.Username)
	intent.CallbackURL = d.callbackURL
	now := d.now().UTC()

	tx := &entity.Transaction{
		CheckoutID:       intent.CheckoutID,
		Username:         intent.Username,
		Amount:           intent.Amount,
		SubscriptionType: intent.SubscriptionType,
		Status:           types.StatusQueued,
		CallbackURL:      intent.CallbackURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := d.txRepo.Create(ctx, tx); err != nil {
		return "", fmt.Errorf("failed to persist queued transaction: %w", err)
	}

	payment := &entity.Payment{
		Username:         intent.Username,
		Amount:           intent.Amount,
		SubscriptionType: intent.SubscriptionType,
		CheckoutID:       intent.CheckoutID,
		Status:           types.StatusQueued,
		Reference:        "N/A",
		CreatedAt:        now,
	}
	if err := d.paymentRepo.Create(ctx, payment); err != nil {
		return "", fmt.Errorf("failed to persist billing record: %w", err)
	}

	d.cache.Set(intent.CheckoutID, types.StatusQueued)

	// The send must happen under the mutex: Shutdown closes the queue
	// under the same lock, and a send racing that close would panic.
	// Either way the queued row is already persisted and recoverable.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", ErrDispatcherClosed
	}

	select {
	case d.queue <- intent:
		return intent.CheckoutID, nil
	default:
		d.logger.WithField("checkout_id", intent.CheckoutID).Error("Payment queue is full")
		return "", ErrQueueFull
	}
}

// Shutdown closes the queue and waits for the worker to drain it, bounded
// by the configured drain timeout or the caller's context, whichever
// expires first.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d.drainTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("dispatcher drain timed out after %s", d.drainTimeout)
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for intent := range d.queue {
		d.process(intent)
	}
}

func (d *Dispatcher) process(intent *service.PaymentIntent) {
	logger := d.logger.WithFields(logrus.Fields{
		"checkout_id": intent.CheckoutID,
		"username":    intent.Username,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Worker panicked while processing payment")
			if err := d.billing.MarkIntentError(context.Background(), intent.CheckoutID, fmt.Sprintf("worker panic: %v", r)); err != nil {
				logger.WithError(err).Error("Failed to mark transaction as errored")
			}
		}
	}()

	if err := d.billing.ProcessIntent(context.Background(), intent); err != nil {
		logger.WithError(err).Error("Failed to process payment")
		if err := d.billing.MarkIntentError(context.Background(), intent.CheckoutID, err.Error()); err != nil {
			logger.WithError(err).Error("Failed to mark transaction as errored")
		}
	}
}

// newCheckoutID builds the client-side checkout id the provider may later
// alias: a fixed prefix, the unix timestamp, and a short username tag.
func (d *Dispatcher) newCheckoutID(username string) string {
	tag := username
	if len(tag) > 5 {
		tag = tag[:5]
	}
	return fmt.Sprintf("LIP%d%s", d.now().Unix(), tag)
}
