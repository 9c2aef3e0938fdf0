package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	setEnv(t, "JWT_SECRET", "test-secret")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/wordpay?parseTime=true")
	unsetEnv(t, "JWT_SECRET")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/wordpay?parseTime=true")
	setEnv(t, "JWT_SECRET", "test-secret")
	setEnv(t, "APP_SERVICE_NAME", "wordpay-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "JWT_TTL_MINUTES", "90")
	setEnv(t, "LIPIA_HTTP_TIMEOUT_SECONDS", "15")
	setEnv(t, "BASIC_SUBSCRIPTION_WORDS", "200")
	setEnv(t, "PREMIUM_SUBSCRIPTION_AMOUNT", "75")
	setEnv(t, "PAYMENT_TIMEOUT_SECONDS", "90")
	setEnv(t, "DISPATCHER_QUEUE_SIZE", "250")
	setEnv(t, "JOBS_BATCH_SIZE", "99")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "wordpay-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected http port: %s", cfg.HTTP.Port)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.JWT.TTL != 90*time.Minute {
		t.Fatalf("unexpected jwt ttl: %v", cfg.JWT.TTL)
	}
	if cfg.Lipia.HTTPTimeout != 15*time.Second {
		t.Fatalf("unexpected lipia timeout: %v", cfg.Lipia.HTTPTimeout)
	}
	if cfg.Subscription.BasicWords != 200 {
		t.Fatalf("unexpected basic words: %d", cfg.Subscription.BasicWords)
	}
	if cfg.Subscription.PremiumAmount != 75 {
		t.Fatalf("unexpected premium amount: %d", cfg.Subscription.PremiumAmount)
	}
	if cfg.Subscription.PaymentTimeout != 90*time.Second {
		t.Fatalf("unexpected payment timeout: %v", cfg.Subscription.PaymentTimeout)
	}
	if cfg.Dispatcher.QueueSize != 250 {
		t.Fatalf("unexpected dispatcher queue size: %d", cfg.Dispatcher.QueueSize)
	}
	if cfg.Jobs.BatchSize != 99 {
		t.Fatalf("unexpected job batch size: %d", cfg.Jobs.BatchSize)
	}
}

func TestLoadSubscriptionDefaults(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/wordpay?parseTime=true")
	setEnv(t, "JWT_SECRET", "test-secret")
	unsetEnv(t, "BASIC_SUBSCRIPTION_WORDS")
	unsetEnv(t, "PREMIUM_SUBSCRIPTION_WORDS")
	unsetEnv(t, "BASIC_SUBSCRIPTION_AMOUNT")
	unsetEnv(t, "PREMIUM_SUBSCRIPTION_AMOUNT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Subscription.BasicWords != 100 || cfg.Subscription.PremiumWords != 1000 {
		t.Fatalf("unexpected word defaults: %+v", cfg.Subscription)
	}
	if cfg.Subscription.BasicAmount != 20 || cfg.Subscription.PremiumAmount != 50 {
		t.Fatalf("unexpected amount defaults: %+v", cfg.Subscription)
	}
}
