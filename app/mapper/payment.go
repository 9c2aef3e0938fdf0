package mapper

import (
	"time"

	"github.com/andikar-tech/ms-go-wordpay/app/entity"
	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

func AccountToResponse(item *entity.User) *types.Account {
	if item == nil {
		return nil
	}

	return &types.Account{
		ID:             item.ID,
		Username:       item.Username,
		PhoneNumber:    item.PhoneNumber,
		WordsRemaining: item.WordsRemaining,
		CreatedAt:      item.CreatedAt.UTC().Format(time.RFC3339),
		LastLogin:      item.LastLogin.UTC().Format(time.RFC3339),
	}
}

func PaymentToResponse(item *entity.Payment) *types.Payment {
	if item == nil {
		return nil
	}

	return &types.Payment{
		ID:               item.ID,
		Username:         item.Username,
		Amount:           item.Amount,
		SubscriptionType: item.SubscriptionType,
		CheckoutID:       item.CheckoutID,
		RealCheckoutID:   derefString(item.RealCheckoutID),
		Status:           item.Status,
		Reference:        item.Reference,
		Timestamp:        item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func PaymentsToResponse(items []*entity.Payment) []*types.Payment {
	result := make([]*types.Payment, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToResponse(item))
	}
	return result
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
