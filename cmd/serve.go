package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andikar-tech/ms-go-wordpay/app/auth"
	"github.com/andikar-tech/ms-go-wordpay/app/controller"
	"github.com/andikar-tech/ms-go-wordpay/app/dispatch"
	"github.com/andikar-tech/ms-go-wordpay/app/gateway"
	"github.com/andikar-tech/ms-go-wordpay/app/repository"
	"github.com/andikar-tech/ms-go-wordpay/app/service"
	"github.com/andikar-tech/ms-go-wordpay/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and payment worker",
	Long:  "Start the Echo HTTP server together with the in-process payment dispatcher.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, services, cleanup := mustCreateServices()
	defer cleanup()

	tokenManager, err := auth.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize token manager")
	}

	dispatcher := dispatch.NewDispatcher(
		services.billing,
		services.txRepo,
		services.paymentRepo,
		services.cache,
		cfg.Dispatcher,
		cfg.App.CallbackBaseURL,
	)
	dispatcher.Start()

	authController := controller.NewAuthController(services.account, tokenManager)
	paymentController := controller.NewPaymentController(services.account, services.billing, dispatcher)

	e := setupHTTPServer(authController, paymentController, tokenManager)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Dispatcher.DrainTimeout)
	defer cancelDrain()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		logrus.WithError(err).Warn("Dispatcher drain error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	authController *controller.AuthController,
	paymentController *controller.PaymentController,
	tokenManager *auth.Manager,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", paymentController.Health)

	api := e.Group("/api")
	api.POST("/register", authController.Register)
	api.POST("/login", authController.Login)
	api.POST("/payments/callback", paymentController.HandleCallback)

	protected := api.Group("", auth.Middleware(tokenManager))
	protected.GET("/account", paymentController.GetAccount)
	protected.POST("/account/use-words", paymentController.UseWords)
	protected.GET("/payments", paymentController.ListPayments)
	protected.POST("/payments/initiate", paymentController.InitiatePayment)
	protected.GET("/payments/status/:checkout_id", paymentController.TransactionStatus)
	protected.POST("/payments/cancel/:checkout_id", paymentController.CancelTransaction)
	protected.POST("/payments/timeout/:checkout_id", paymentController.TimeoutTransaction)

	return e
}

type services struct {
	account     *service.AccountService
	billing     *service.BillingService
	txRepo      *repository.TransactionRepository
	paymentRepo *repository.PaymentRepository
	cache       *dispatch.StatusCache
}

func mustCreateServices() (*config.Config, *services, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	eventRepo := repository.NewTransactionEventRepository(db)
	callbackRepo := repository.NewCallbackLogRepository(db)

	cache := dispatch.NewStatusCache()

	lipiaClient := gateway.NewLipiaClient(gateway.LipiaConfig{
		APIKey:      cfg.Lipia.APIKey,
		BaseURL:     cfg.Lipia.BaseURL,
		HTTPTimeout: cfg.Lipia.HTTPTimeout,
	})

	billingService := service.NewBillingService(
		userRepo,
		paymentRepo,
		txRepo,
		eventRepo,
		callbackRepo,
		lipiaClient,
		cache,
		cfg.Subscription,
	)
	accountService := service.NewAccountService(userRepo, paymentRepo)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, &services{
		account:     accountService,
		billing:     billingService,
		txRepo:      txRepo,
		paymentRepo: paymentRepo,
		cache:       cache,
	}, cleanup
}

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	return nil
}
