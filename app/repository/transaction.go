package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
)

var ErrTransactionAlreadyExists = errors.New("transaction already exists")

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	query := `
		INSERT INTO transactions (
			checkout_id, real_checkout_id, username, amount, subscription_type,
			status, reference, error, callback_url, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.CheckoutID,
		nullableStringValue(tx.RealCheckoutID),
		tx.Username,
		tx.Amount,
		tx.SubscriptionType,
		tx.Status,
		nullableStringValue(tx.Reference),
		nullableStringValue(tx.Error),
		tx.CallbackURL,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrTransactionAlreadyExists
		}
		return err
	}
	return nil
}

// FindByCheckoutID resolves a transaction by the client-generated id or the
// provider-assigned alias; the pair is one logical identity. An exact
// checkout_id match wins over an alias match so a replacement row shadows
// the record it replaced.
func (r *TransactionRepository) FindByCheckoutID(ctx context.Context, checkoutID string) (*entity.Transaction, error) {
	query := `
		SELECT checkout_id, real_checkout_id, username, amount, subscription_type,
			status, reference, error, callback_url, created_at, updated_at
		FROM transactions
		WHERE checkout_id = ? OR real_checkout_id = ?
		ORDER BY checkout_id = ? DESC
		LIMIT 1
	`

	tx := &entity.Transaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, checkoutID, checkoutID, checkoutID), tx); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return tx, nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, checkoutID, status string, reference, errorMsg *string) error {
	assignments := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{status, time.Now().UTC()}

	if reference != nil {
		assignments = append(assignments, "reference = ?")
		args = append(args, *reference)
	}
	if errorMsg != nil {
		assignments = append(assignments, "error = ?")
		args = append(args, *errorMsg)
	}

	query := "UPDATE transactions SET " + strings.Join(assignments, ", ") + " WHERE checkout_id = ? OR real_checkout_id = ?"
	args = append(args, checkoutID, checkoutID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// UpdateStatusIf transitions to the target status only when the current
// status is in fromStatuses. It reports whether the transition applied, so
// callers can reject moves that contradict a terminal state instead of
// overwriting it.
func (r *TransactionRepository) UpdateStatusIf(ctx context.Context, checkoutID, toStatus string, fromStatuses []string) (bool, error) {
	if len(fromStatuses) == 0 {
		return false, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fromStatuses)), ", ")
	query := `
		UPDATE transactions SET status = ?, updated_at = ?
		WHERE (checkout_id = ? OR real_checkout_id = ?) AND status IN (` + placeholders + `)
	`

	args := []interface{}{toStatus, time.Now().UTC(), checkoutID, checkoutID}
	for _, status := range fromStatuses {
		args = append(args, status)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CompleteIfEligible is the idempotent completion guard: it marks the
// transaction completed only when its current status is one of the given
// non-terminal statuses. The word credit must be applied exactly when this
// returns true, which keeps duplicate callbacks and poll races from
// crediting twice and keeps terminal states from being overwritten.
func (r *TransactionRepository) CompleteIfEligible(ctx context.Context, checkoutID, completedStatus, reference string, fromStatuses []string) (bool, error) {
	if len(fromStatuses) == 0 {
		return false, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fromStatuses)), ", ")
	query := `
		UPDATE transactions SET status = ?, reference = ?, updated_at = ?
		WHERE (checkout_id = ? OR real_checkout_id = ?) AND status IN (` + placeholders + `)
	`

	args := []interface{}{completedStatus, reference, time.Now().UTC(), checkoutID, checkoutID}
	for _, status := range fromStatuses {
		args = append(args, status)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *TransactionRepository) SetRealCheckoutID(ctx context.Context, checkoutID, realCheckoutID string) error {
	query := `UPDATE transactions SET real_checkout_id = ?, updated_at = ? WHERE checkout_id = ?`
	_, err := r.db.ExecContext(ctx, query, realCheckoutID, time.Now().UTC(), checkoutID)
	return err
}

// ListStalledBefore returns queued and pending transactions last touched
// before the cutoff, oldest first, for the timeout sweep. Queued rows are
// included so an intent orphaned by a crash between persist and processing
// still reaches a terminal state.
func (r *TransactionRepository) ListStalledBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Transaction, error) {
	query := `
		SELECT checkout_id, real_checkout_id, username, amount, subscription_type,
			status, reference, error, callback_url, created_at, updated_at
		FROM transactions
		WHERE status IN ('queued', 'pending') AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Transaction, 0)
	for rows.Next() {
		item := &entity.Transaction{}
		if err := scanTransaction(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func scanTransaction(scan rowScanner, tx *entity.Transaction) error {
	var realCheckoutID sql.NullString
	var reference sql.NullString
	var errorMsg sql.NullString

	err := scan.Scan(
		&tx.CheckoutID,
		&realCheckoutID,
		&tx.Username,
		&tx.Amount,
		&tx.SubscriptionType,
		&tx.Status,
		&reference,
		&errorMsg,
		&tx.CallbackURL,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return err
	}

	tx.RealCheckoutID = stringPtrFromNull(realCheckoutID)
	tx.Reference = stringPtrFromNull(reference)
	tx.Error = stringPtrFromNull(errorMsg)
	return nil
}
