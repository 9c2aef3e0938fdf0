package repository

import (
	"context"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
)

type CallbackLogRepository struct {
	db DBTX
}

func NewCallbackLogRepository(db DBTX) *CallbackLogRepository {
	return &CallbackLogRepository{db: db}
}

func (r *CallbackLogRepository) Create(ctx context.Context, callback *entity.CallbackLog) error {
	query := `
		INSERT INTO callback_logs (
			checkout_id, payload_json, status, error, created_at
		)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		callback.CheckoutID,
		callback.PayloadJSON,
		callback.Status,
		nullableStringValue(callback.Error),
		callback.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	callback.ID = uint64(id)
	return nil
}
