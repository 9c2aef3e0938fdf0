package repository

import (
	"context"
	"database/sql"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
)

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (
			username, amount, subscription_type, checkout_id, real_checkout_id,
			status, reference, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.Username,
		payment.Amount,
		payment.SubscriptionType,
		payment.CheckoutID,
		nullableStringValue(payment.RealCheckoutID),
		payment.Status,
		payment.Reference,
		payment.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	payment.ID = uint64(id)
	return nil
}

// UpdateStatusByCheckoutID moves the billing-log row for one attempt. An
// empty reference leaves the recorded reference untouched.
func (r *PaymentRepository) UpdateStatusByCheckoutID(ctx context.Context, checkoutID, status, reference string) error {
	if reference == "" {
		query := `UPDATE payments SET status = ? WHERE checkout_id = ? OR real_checkout_id = ?`
		_, err := r.db.ExecContext(ctx, query, status, checkoutID, checkoutID)
		return err
	}

	query := `UPDATE payments SET status = ?, reference = ? WHERE checkout_id = ? OR real_checkout_id = ?`
	_, err := r.db.ExecContext(ctx, query, status, reference, checkoutID, checkoutID)
	return err
}

func (r *PaymentRepository) SetRealCheckoutID(ctx context.Context, checkoutID, realCheckoutID string) error {
	query := `UPDATE payments SET real_checkout_id = ? WHERE checkout_id = ?`
	_, err := r.db.ExecContext(ctx, query, realCheckoutID, checkoutID)
	return err
}

// ListForUser returns the user's billing history, newest first.
func (r *PaymentRepository) ListForUser(ctx context.Context, username string) ([]*entity.Payment, error) {
	query := `
		SELECT id, username, amount, subscription_type, checkout_id, real_checkout_id,
			status, reference, created_at
		FROM payments
		WHERE username = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item := &entity.Payment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var realCheckoutID sql.NullString

	err := scan.Scan(
		&payment.ID,
		&payment.Username,
		&payment.Amount,
		&payment.SubscriptionType,
		&payment.CheckoutID,
		&realCheckoutID,
		&payment.Status,
		&payment.Reference,
		&payment.CreatedAt,
	)
	if err != nil {
		return err
	}

	payment.RealCheckoutID = stringPtrFromNull(realCheckoutID)
	return nil
}
