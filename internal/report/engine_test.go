package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sareepos/backend/internal/cache"
	"sareepos/backend/internal/domain"
	"sareepos/backend/internal/store"
	"sareepos/backend/internal/store/memory"
)

func TestEngineMemoisesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	reportCache := cache.NewMemoryReportCache()
	engine := NewEngine(repo, Options{Cache: reportCache})

	items, err := repo.CreateItems(ctx, domain.Item{Name: "Kanjivaram", Price: decimal.NewFromInt(500), Cost: decimal.NewFromInt(300)}, 2)
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = repo.CreateSale(ctx, domain.SaleDraft{Lines: []domain.CartLine{{ItemID: items[0].ID, Quantity: 1}}, CreatedAt: now})
	require.NoError(t, err)

	first, err := engine.Summary(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalTransactions)

	_, err = repo.CreateSale(ctx, domain.SaleDraft{Lines: []domain.CartLine{{ItemID: items[1].ID, Quantity: 1}}, CreatedAt: now})
	require.NoError(t, err)

	cached, err := engine.Summary(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.TotalTransactions, "expected cached summary before invalidation")

	engine.Invalidate(ctx)
	fresh, err := engine.Summary(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalTransactions)
	assert.True(t, fresh.TotalRevenue.Equal(decimal.NewFromInt(1000)))
}

func TestEngineBalanceSheetUsesEndOfDay(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	engine := NewEngine(repo, Options{})

	items, err := repo.CreateItems(ctx, domain.Item{Name: "Banarasi", Price: decimal.NewFromInt(800), Cost: decimal.NewFromInt(500)}, 2)
	require.NoError(t, err)

	lateOnDay := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)
	nextDay := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err = repo.CreateSale(ctx, domain.SaleDraft{Lines: []domain.CartLine{{ItemID: items[0].ID, Quantity: 1}}, CreatedAt: lateOnDay})
	require.NoError(t, err)
	_, err = repo.CreateSale(ctx, domain.SaleDraft{Lines: []domain.CartLine{{ItemID: items[1].ID, Quantity: 1}}, CreatedAt: nextDay})
	require.NoError(t, err)

	sheet, err := engine.BalanceSheet(ctx, "2024-03-31")
	require.NoError(t, err)
	assert.True(t, sheet.TotalRevenue.Equal(decimal.NewFromInt(800)))
	assert.True(t, sheet.CostOfGoodsSold.Equal(decimal.NewFromInt(500)))

	again, err := engine.BalanceSheet(ctx, "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, sheet.AsOf, again.AsOf)
	assert.True(t, sheet.TotalAssets.Equal(again.TotalAssets))
	assert.True(t, sheet.CashBalance.Equal(again.CashBalance))

	_, err = engine.BalanceSheet(ctx, "31-03-2024")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestEngineProfitLossRejectsInvertedRange(t *testing.T) {
	engine := NewEngine(memory.New(), Options{})
	_, err := engine.ProfitLoss(context.Background(), "2024-05-01", "2024-04-01")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestEngineTrendingWindow(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	engine := NewEngine(repo, Options{})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	category := "Maroon"
	items, err := repo.CreateItems(ctx, domain.Item{Name: "Kanjivaram", Category: &category, Price: decimal.NewFromInt(500)}, 2)
	require.NoError(t, err)
	_, err = repo.CreateSale(ctx, domain.SaleDraft{Lines: []domain.CartLine{{ItemID: items[0].ID, Quantity: 1}}, CreatedAt: now.AddDate(0, 0, -5)})
	require.NoError(t, err)
	_, err = repo.CreateSale(ctx, domain.SaleDraft{Lines: []domain.CartLine{{ItemID: items[1].ID, Quantity: 1}}, CreatedAt: now.AddDate(0, 0, -120)})
	require.NoError(t, err)

	trending, err := engine.Trending(ctx, now)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	assert.Equal(t, 1, trending[0].TotalQuantitySold)

	categories, err := engine.CategoryTrends(ctx, now)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Maroon", categories[0].Label)
}
