package service

import (
	"context"
	"time"

	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

// RunExpirePendingBatch moves pending transactions that have outlived the
// payment window to timeout, and sweeps up queued rows a crashed worker
// never picked up. It is the operational backstop behind the caller-driven
// timeout: a poller that never comes back would otherwise leave the row
// open forever.
func (s *BillingService) RunExpirePendingBatch(ctx context.Context, batchSize int32) error {
	cutoff := time.Now().UTC().Add(-s.subCfg.PaymentTimeout)
	items, err := s.txRepo.ListStalledBefore(ctx, cutoff, batchSize)
	if err != nil {
		return err
	}

	var firstErr error
	for _, tx := range items {
		if tx == nil {
			continue
		}

		applied, err := s.txRepo.UpdateStatusIf(ctx, tx.CheckoutID, types.StatusTimeout, []string{types.StatusQueued, types.StatusPending})
		if err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if !applied {
			continue
		}

		s.mirrorStatus(ctx, tx.CheckoutID, types.StatusTimeout, "")
		s.recordEvent(ctx, tx.CheckoutID, "payment_expired", tx.Status, types.StatusTimeout)
	}

	return firstErr
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
