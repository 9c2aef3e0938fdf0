package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/andikar-tech/ms-go-wordpay/app/service"
	"github.com/andikar-tech/ms-go-wordpay/config"
)

var (
	workerMode bool
)

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Run expiration-related commands",
}

var expirePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Mark long-running pending payments as timed out",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"expire_pending",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ExpirePendingInterval },
			func(s *service.BillingService, ctx context.Context, cfg *config.Config) error {
				return s.RunExpirePendingBatch(ctx, cfg.Jobs.BatchSize)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(expireCmd)
	expireCmd.AddCommand(expirePendingCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.BillingService, ctx context.Context, cfg *config.Config) error,
) {
	cfg, svc, cleanup := mustCreateServices()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(cfg), func(ctx context.Context) error {
			return fn(svc.billing, ctx, cfg)
		})
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(svc.billing, ctx, cfg) })
}

func runWorker(name string, interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
