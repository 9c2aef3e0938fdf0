package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

func newAccountServiceForTest() (*AccountService, *fakeUserRepo, *fakePaymentRepo) {
	userRepo := newFakeUserRepo()
	paymentRepo := &fakePaymentRepo{}
	return NewAccountService(userRepo, paymentRepo), userRepo, paymentRepo
}

func TestRegisterHashesPasswordAndCreatesUser(t *testing.T) {
	svc, userRepo, _ := newAccountServiceForTest()

	user, err := svc.Register(context.Background(), &types.RegisterRequest{
		Username:    "alice",
		Password:    "correct horse",
		PhoneNumber: "0712345678",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected assigned user id")
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password must not be stored in plain text")
	}

	stored := userRepo.users["alice"]
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.WordsRemaining != 0 {
		t.Fatalf("new account must start with zero words, got %d", stored.WordsRemaining)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _ := newAccountServiceForTest()

	req := &types.RegisterRequest{Username: "alice", Password: "pass", PhoneNumber: "0712345678"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, userRepo, _ := newAccountServiceForTest()

	if _, err := svc.Register(context.Background(), &types.RegisterRequest{
		Username:    "alice",
		Password:    "secret",
		PhoneNumber: "0712345678",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	before := userRepo.users["alice"].LastLogin

	if _, err := svc.Authenticate(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	time.Sleep(time.Millisecond)
	user, err := svc.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if !user.LastLogin.After(before) {
		t.Fatal("expected last login to advance")
	}
}

func TestUseWordsGuardsBalance(t *testing.T) {
	svc, userRepo, _ := newAccountServiceForTest()
	_ = userRepo.Create(context.Background(), &entity.User{
		Username:       "alice",
		PasswordHash:   "hash",
		PhoneNumber:    "0712345678",
		WordsRemaining: 100,
	})

	remaining, err := svc.UseWords(context.Background(), "alice", 30)
	if err != nil {
		t.Fatalf("use words failed: %v", err)
	}
	if remaining != 70 {
		t.Fatalf("expected 70 remaining, got %d", remaining)
	}

	remaining, err = svc.UseWords(context.Background(), "alice", 200)
	if !errors.Is(err, ErrInsufficientWords) {
		t.Fatalf("expected ErrInsufficientWords, got %v", err)
	}
	if remaining != 70 {
		t.Fatalf("balance must be untouched on insufficient funds, got %d", remaining)
	}
}

func TestUseWordsUnknownUser(t *testing.T) {
	svc, _, _ := newAccountServiceForTest()

	_, err := svc.UseWords(context.Background(), "ghost", 10)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListPaymentsReturnsOwnRowsOnly(t *testing.T) {
	svc, _, paymentRepo := newAccountServiceForTest()
	_ = paymentRepo.Create(context.Background(), &entity.Payment{Username: "alice", CheckoutID: "LIP1alice"})
	_ = paymentRepo.Create(context.Background(), &entity.Payment{Username: "bob", CheckoutID: "LIP2bob"})

	items, err := svc.ListPayments(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list payments failed: %v", err)
	}
	if len(items) != 1 || items[0].CheckoutID != "LIP1alice" {
		t.Fatalf("expected only alice's payments, got %+v", items)
	}
}
