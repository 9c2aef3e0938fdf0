package service

import (
	"context"
	"time"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

// HandleCallback applies the provider's out-of-band payment notification.
// The checkout id in the callback may be either the client-generated id or
// the provider alias. A success callback completes and credits through the
// same check-and-set as the worker path, so duplicate deliveries are
// harmless. A failure callback is still a handled callback: the failure is
// recorded and nil is returned so the receiver can acknowledge with 200.
func (s *BillingService) HandleCallback(ctx context.Context, req *types.CallbackRequest) error {
	tx, err := s.resolveTransaction(ctx, req.CheckoutRequestID)
	if err != nil {
		s.logCallback(ctx, req, entity.CallbackLogRejected, err.Error())
		return err
	}
	if tx == nil {
		s.logCallback(ctx, req, entity.CallbackLogRejected, "transaction not found")
		return ErrTransactionNotFound
	}

	if req.Succeeded() {
		reference := req.ReceiptReference()
		if reference == "" {
			reference = "CB-REF"
		}
		if err := s.completeAndCredit(ctx, tx.CheckoutID, tx.Username, tx.SubscriptionType, reference); err != nil {
			s.logCallback(ctx, req, entity.CallbackLogRejected, err.Error())
			return err
		}
		s.logCallback(ctx, req, entity.CallbackLogProcessed, "")
		return nil
	}

	if err := s.markFailed(ctx, tx.CheckoutID, req.FailureReason()); err != nil {
		s.logCallback(ctx, req, entity.CallbackLogRejected, err.Error())
		return err
	}
	s.logCallback(ctx, req, entity.CallbackLogProcessed, "")
	return nil
}

func (s *BillingService) logCallback(ctx context.Context, req *types.CallbackRequest, status int32, errMsg string) {
	callback := &entity.CallbackLog{
		CheckoutID:  req.CheckoutRequestID,
		PayloadJSON: req.PayloadJSON(),
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	if errMsg != "" {
		callback.Error = &errMsg
	}
	if err := s.callbackRepo.Create(ctx, callback); err != nil {
		s.logger.WithError(err).WithField("checkout_id", req.CheckoutRequestID).Error("Failed to persist callback log")
	}
}
