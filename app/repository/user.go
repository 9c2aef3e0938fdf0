package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
)

var ErrUserAlreadyExists = errors.New("user already exists")

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (username, password_hash, phone_number, words_remaining, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.PhoneNumber,
		user.WordsRemaining,
		user.CreatedAt,
		user.LastLogin,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrUserAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT id, username, password_hash, phone_number, words_remaining, created_at, last_login
		FROM users
		WHERE username = ?
	`

	user := &entity.User{}
	if err := scanUser(r.db.QueryRowContext(ctx, query, username), user); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT id, username, password_hash, phone_number, words_remaining, created_at, last_login
		FROM users
		WHERE id = ?
	`

	user := &entity.User{}
	if err := scanUser(r.db.QueryRowContext(ctx, query, id), user); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return user, nil
}

// IncrementWords atomically adds delta to the user's balance.
func (r *UserRepository) IncrementWords(ctx context.Context, username string, delta int64) error {
	query := `UPDATE users SET words_remaining = words_remaining + ? WHERE username = ?`

	result, err := r.db.ExecContext(ctx, query, delta, username)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DecrementWordsIfSufficient deducts amount only when the balance covers it,
// as a single conditional update so concurrent callers can never drive the
// balance negative. It returns whether the deduction happened and the
// balance after the call.
func (r *UserRepository) DecrementWordsIfSufficient(ctx context.Context, username string, amount int64) (bool, int64, error) {
	query := `
		UPDATE users SET words_remaining = words_remaining - ?
		WHERE username = ? AND words_remaining >= ?
	`

	result, err := r.db.ExecContext(ctx, query, amount, username, amount)
	if err != nil {
		return false, 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	var remaining int64
	row := r.db.QueryRowContext(ctx, `SELECT words_remaining FROM users WHERE username = ?`, username)
	if err := row.Scan(&remaining); err != nil {
		return false, 0, err
	}

	return affected > 0, remaining, nil
}

func (r *UserRepository) RecordLastLogin(ctx context.Context, username string, at time.Time) error {
	query := `UPDATE users SET last_login = ? WHERE username = ?`
	_, err := r.db.ExecContext(ctx, query, at, username)
	return err
}

func scanUser(scan rowScanner, user *entity.User) error {
	return scan.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.PhoneNumber,
		&user.WordsRemaining,
		&user.CreatedAt,
		&user.LastLogin,
	)
}
