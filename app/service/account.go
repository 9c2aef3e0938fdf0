package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
	"github.com/andikar-tech/ms-go-wordpay/app/repository"
	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	IncrementWords(ctx context.Context, username string, delta int64) error
	DecrementWordsIfSufficient(ctx context.Context, username string, amount int64) (bool, int64, error)
	RecordLastLogin(ctx context.Context, username string, at time.Time) error
}

type AccountService struct {
	userRepo    userRepository
	paymentRepo paymentRepository
}

func NewAccountService(userRepo userRepository, paymentRepo paymentRepository) *AccountService {
	return &AccountService{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
	}
}

func (s *AccountService) Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &entity.User{
		Username:       req.Username,
		PasswordHash:   string(hash),
		PhoneNumber:    req.PhoneNumber,
		WordsRemaining: 0,
		CreatedAt:      now,
		LastLogin:      now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return user, nil
}

func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.userRepo.RecordLastLogin(ctx, username, now); err != nil {
		return nil, err
	}
	user.LastLogin = now

	return user, nil
}

func (s *AccountService) GetAccount(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UseWords consumes words from the user's balance. The deduction is a
// single conditional update in the store, so the balance can never go
// negative even under concurrent use. The returned count is the balance
// after the call in both outcomes.
func (s *AccountService) UseWords(ctx context.Context, username string, words int64) (int64, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	ok, remaining, err := s.userRepo.DecrementWordsIfSufficient(ctx, username, words)
	if err != nil {
		return 0, err
	}
	if !ok {
		return remaining, ErrInsufficientWords
	}

	return remaining, nil
}

func (s *AccountService) ListPayments(ctx context.Context, username string) ([]*entity.Payment, error) {
	return s.paymentRepo.ListForUser(ctx, username)
}
