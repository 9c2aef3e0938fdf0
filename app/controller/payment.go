package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andikar-tech/ms-go-wordpay/app/auth"
	"github.com/andikar-tech/ms-go-wordpay/app/dispatch"
	"github.com/andikar-tech/ms-go-wordpay/app/factory"
	"github.com/andikar-tech/ms-go-wordpay/app/mapper"
	"github.com/andikar-tech/ms-go-wordpay/app/service"
	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

type PaymentController struct {
	accountService *service.AccountService
	billingService *service.BillingService
	dispatcher     *dispatch.Dispatcher
	logger         logrus.FieldLogger
}

func NewPaymentController(
	accountService *service.AccountService,
	billingService *service.BillingService,
	dispatcher *dispatch.Dispatcher,
) *PaymentController {
	return &PaymentController{
		accountService: accountService,
		billingService: billingService,
		dispatcher:     dispatcher,
		logger:         factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) GetAccount(ctx echo.Context) error {
	username := auth.UsernameFromContext(ctx)

	user, err := c.accountService.GetAccount(ctx.Request().Context(), username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "account not found")
		}
		c.requestLogger(ctx).WithError(err).Error("Get account failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.AccountEnvelopeResponse{Account: mapper.AccountToResponse(user)})
}

func (c *PaymentController) UseWords(ctx echo.Context) error {
	req, err := types.NewUseWordsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	remaining, err := c.accountService.UseWords(ctx.Request().Context(), auth.UsernameFromContext(ctx), req.Words)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientWords):
			return c.writeError(ctx, http.StatusPaymentRequired, "insufficient word balance")
		case errors.Is(err, service.ErrUserNotFound):
			return c.writeError(ctx, http.StatusNotFound, "account not found")
		default:
			c.requestLogger(ctx).WithError(err).Error("Use words failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.UseWordsResponse{
		WordsUsed:      req.Words,
		WordsRemaining: remaining,
	})
}

func (c *PaymentController) ListPayments(ctx echo.Context) error {
	items, err := c.accountService.ListPayments(ctx.Request().Context(), auth.UsernameFromContext(ctx))
	if err != nil {
		c.requestLogger(ctx).WithError(err).Error("List payments failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListPaymentsResponse{Payments: mapper.PaymentsToResponse(items)})
}

func (c *PaymentController) InitiatePayment(ctx echo.Context) error {
	req, err := types.NewInitiatePaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	username := auth.UsernameFromContext(ctx)
	intent, err := c.billingService.PrepareIntent(ctx.Request().Context(), username, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			return c.writeError(ctx, http.StatusNotFound, "account not found")
		default:
			c.requestLogger(ctx).WithError(err).Error("Prepare payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	checkoutID, err := c.dispatcher.Enqueue(ctx.Request().Context(), intent)
	if err != nil {
		if errors.Is(err, dispatch.ErrQueueFull) || errors.Is(err, dispatch.ErrDispatcherClosed) {
			return c.writeError(ctx, http.StatusServiceUnavailable, "payment service is busy, try again shortly")
		}
		c.requestLogger(ctx).WithError(err).Error("Enqueue payment failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusAccepted, &types.InitiatePaymentResponse{
		CheckoutID: checkoutID,
		Status:     types.StatusQueued,
		Message:    "Payment queued for processing",
	})
}

func (c *PaymentController) TransactionStatus(ctx echo.Context) error {
	checkoutID := strings.TrimSpace(ctx.Param("checkout_id"))
	if checkoutID == "" {
		return c.writeError(ctx, http.StatusBadRequest, "checkout_id is required")
	}

	status, err := c.billingService.TransactionStatus(ctx.Request().Context(), checkoutID, auth.UsernameFromContext(ctx))
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return c.writeError(ctx, http.StatusForbidden, "transaction belongs to another user")
		}
		c.requestLogger(ctx).WithError(err).Error("Transaction status lookup failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, status)
}

func (c *PaymentController) CancelTransaction(ctx echo.Context) error {
	checkoutID := strings.TrimSpace(ctx.Param("checkout_id"))
	if checkoutID == "" {
		return c.writeError(ctx, http.StatusBadRequest, "checkout_id is required")
	}

	err := c.billingService.CancelTransaction(ctx.Request().Context(), checkoutID, auth.UsernameFromContext(ctx))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			return c.writeError(ctx, http.StatusNotFound, "transaction not found")
		case errors.Is(err, service.ErrUnauthorized):
			return c.writeError(ctx, http.StatusForbidden, "transaction belongs to another user")
		case errors.Is(err, service.ErrAlreadyTerminal):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			c.requestLogger(ctx).WithError(err).Error("Cancel transaction failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Transaction cancelled"})
}

func (c *PaymentController) TimeoutTransaction(ctx echo.Context) error {
	checkoutID := strings.TrimSpace(ctx.Param("checkout_id"))
	if checkoutID == "" {
		return c.writeError(ctx, http.StatusBadRequest, "checkout_id is required")
	}

	err := c.billingService.TimeoutTransaction(ctx.Request().Context(), checkoutID, auth.UsernameFromContext(ctx))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			return c.writeError(ctx, http.StatusNotFound, "transaction not found")
		case errors.Is(err, service.ErrUnauthorized):
			return c.writeError(ctx, http.StatusForbidden, "transaction belongs to another user")
		case errors.Is(err, service.ErrAlreadyTerminal), errors.Is(err, service.ErrValidation):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			c.requestLogger(ctx).WithError(err).Error("Timeout transaction failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Transaction timed out"})
}

func (c *PaymentController) HandleCallback(ctx echo.Context) error {
	req, err := types.NewCallbackRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.billingService.HandleCallback(ctx.Request().Context(), req); err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			return c.writeError(ctx, http.StatusBadRequest, "unknown checkout request id")
		}
		c.requestLogger(ctx).WithError(err).Error("Handle callback failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Callback processed"})
}

func (c *PaymentController) requestLogger(ctx echo.Context) logrus.FieldLogger {
	return factory.LoggerWithContext(c.logger, ctx)
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
