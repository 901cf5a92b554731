package main

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sareepos/backend/internal/cache"
	"sareepos/backend/internal/config"
	"sareepos/backend/internal/domain"
	"sareepos/backend/internal/logger"
	"sareepos/backend/internal/report"
	"sareepos/backend/internal/service"
	"sareepos/backend/internal/store/memory"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	cases := []config.Config{
		{AuthSecret: "short", PuttyPassword: "silk-route-77", SonyPassword: "zari-border-42"},
		{AuthSecret: "0123456789abcdef0123456789abcdef", PuttyPassword: "", SonyPassword: "zari-border-42"},
		{AuthSecret: "0123456789abcdef0123456789abcdef", PuttyPassword: "silk-route-77", SonyPassword: "short"},
		{AuthSecret: "0123456789abcdef0123456789abcdef", PuttyPassword: "Password1", SonyPassword: "zari-border-42"},
	}
	for i, cfg := range cases {
		if err := validateSecurityConfig(cfg); err == nil {
			t.Fatalf("case %d: expected weak security config to be rejected", i)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:    "0123456789abcdef0123456789abcdef",
		PuttyPassword: "silk-route-77",
		SonyPassword:  "zari-border-42",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestNewReportCacheSkipsProcessCacheForSharedStore(t *testing.T) {
	ctx := context.Background()
	logg := logger.Nop()

	got, kind, closeFn := newReportCache(ctx, config.Config{}, true, logg)
	if _, ok := got.(cache.NoopReportCache); !ok {
		t.Fatalf("expected noop cache for shared store, got %T", got)
	}
	if kind != "none" || closeFn != nil {
		t.Fatalf("unexpected kind %q or closer for noop cache", kind)
	}

	got, kind, _ = newReportCache(ctx, config.Config{}, false, logg)
	if _, ok := got.(*cache.MemoryReportCache); !ok {
		t.Fatalf("expected memory cache for in-memory store, got %T", got)
	}
	if kind != "memory" {
		t.Fatalf("expected kind memory, got %q", kind)
	}
}

func TestNewReportCacheFallsBackWhenRedisIsDown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, kind, closeFn := newReportCache(ctx, config.Config{RedisAddr: "127.0.0.1:1"}, true, logger.Nop())
	if _, ok := got.(cache.NoopReportCache); !ok {
		t.Fatalf("expected noop cache when redis is unreachable, got %T (%s)", got, kind)
	}
	if closeFn != nil {
		t.Fatalf("expected no closer for the fallback cache")
	}
}

func TestSharedStoreReportsSeeWritesFromOtherReplicas(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSeeded()

	replicaCache, _, _ := newReportCache(ctx, config.Config{}, true, logger.Nop())
	writerCache, _, _ := newReportCache(ctx, config.Config{}, true, logger.Nop())
	reader := service.New(repo, report.NewEngine(repo, report.Options{Cache: replicaCache, CacheTTL: time.Hour}), service.Options{})
	writer := service.New(repo, report.NewEngine(repo, report.Options{Cache: writerCache, CacheTTL: time.Hour}), service.Options{})

	before, err := reader.ProfitLoss(ctx, "", "")
	if err != nil {
		t.Fatalf("profit and loss: %v", err)
	}
	if _, err := writer.Checkout(ctx, domain.CheckoutRequest{
		Cart:          []domain.CartLine{{ItemID: 1, Quantity: 1}},
		PaymentMethod: domain.PaymentCash,
	}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	after, err := reader.ProfitLoss(ctx, "", "")
	if err != nil {
		t.Fatalf("profit and loss: %v", err)
	}

	if got := after.Revenue.Sub(before.Revenue); !got.Equal(decimal.NewFromInt(18500)) {
		t.Fatalf("expected revenue to grow by 18500, got %s", got)
	}
}
