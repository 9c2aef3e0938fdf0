package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andikar-tech/ms-go-wordpay/app/auth"
	"github.com/andikar-tech/ms-go-wordpay/app/factory"
	"github.com/andikar-tech/ms-go-wordpay/app/mapper"
	"github.com/andikar-tech/ms-go-wordpay/app/service"
	"github.com/andikar-tech/ms-go-wordpay/app/types"
)

type AuthController struct {
	accountService *service.AccountService
	tokens         *auth.Manager
	logger         logrus.FieldLogger
}

func NewAuthController(accountService *service.AccountService, tokens *auth.Manager) *AuthController {
	return &AuthController{
		accountService: accountService,
		tokens:         tokens,
		logger:         factory.NewModuleLogger("auth-controller"),
	}
}

func (c *AuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	user, err := c.accountService.Register(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			return c.writeError(ctx, http.StatusConflict, "username is already taken")
		case errors.Is(err, service.ErrValidation):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			c.requestLogger(ctx).WithError(err).Error("Register failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	token, err := c.tokens.IssueToken(user.Username)
	if err != nil {
		c.requestLogger(ctx).WithError(err).Error("Failed to issue token")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusCreated, &types.TokenResponse{
		Token:     token,
		ExpiresIn: int64(c.tokens.TokenTTL().Seconds()),
		Account:   mapper.AccountToResponse(user),
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	user, err := c.accountService.Authenticate(ctx.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.writeError(ctx, http.StatusUnauthorized, "invalid username or password")
		}
		c.requestLogger(ctx).WithError(err).Error("Login failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	token, err := c.tokens.IssueToken(user.Username)
	if err != nil {
		c.requestLogger(ctx).WithError(err).Error("Failed to issue token")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.TokenResponse{
		Token:     token,
		ExpiresIn: int64(c.tokens.TokenTTL().Seconds()),
		Account:   mapper.AccountToResponse(user),
	})
}

func (c *AuthController) requestLogger(ctx echo.Context) logrus.FieldLogger {
	return factory.LoggerWithContext(c.logger, ctx)
}

func (c *AuthController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
