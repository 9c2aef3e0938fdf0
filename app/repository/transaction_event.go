package repository

import (
	"context"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
)

type TransactionEventRepository struct {
	db DBTX
}

func NewTransactionEventRepository(db DBTX) *TransactionEventRepository {
	return &TransactionEventRepository{db: db}
}

func (r *TransactionEventRepository) Create(ctx context.Context, event *entity.TransactionEvent) error {
	query := `
		INSERT INTO transaction_events (
			checkout_id, event_type, old_status, new_status, created_at
		)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.CheckoutID,
		event.EventType,
		nullableStringValue(event.OldStatus),
		event.NewStatus,
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)
	return nil
}
