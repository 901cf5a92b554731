package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sareepos/backend/internal/domain"
)

func strPtr(v string) *string { return &v }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func line(saleID, itemID int64, name string, category *string, qty int, price int64) domain.SaleLine {
	return domain.SaleLine{
		SaleID:      saleID,
		SaleStatus:  domain.SaleStatusCompleted,
		ItemID:      itemID,
		ItemName:    name,
		Category:    category,
		Quantity:    qty,
		PriceAtSale: dec(price),
		ItemCost:    dec(price / 2),
	}
}

func TestTrendingGroupsByNameAndSkipsRefunds(t *testing.T) {
	refunded := line(3, 5, "Linen", nil, 5, 100)
	refunded.SaleStatus = domain.SaleStatusRefunded

	got := Trending([]domain.SaleLine{
		line(1, 1, "Kanjivaram", strPtr("Maroon"), 1, 1000),
		line(1, 2, "Chanderi", nil, 1, 300),
		line(2, 3, "Kanjivaram", strPtr("Gold"), 1, 1200),
		refunded,
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Kanjivaram", got[0].Name)
	assert.Equal(t, 2, got[0].TotalQuantitySold)
	assert.True(t, got[0].TotalRevenue.Equal(dec(2200)))
	assert.Equal(t, "Maroon", *got[0].Category)
	assert.Equal(t, "Chanderi", got[1].Name)
}

func TestTrendingCapsAtTen(t *testing.T) {
	lines := make([]domain.SaleLine, 0, 12)
	for i := 0; i < 12; i++ {
		lines = append(lines, line(int64(i+1), int64(i+1), string(rune('A'+i)), nil, i+1, 10))
	}
	got := Trending(lines)
	require.Len(t, got, 10)
	assert.Equal(t, "L", got[0].Name)
}

func TestCategoryTrendsSkipsMissingKeys(t *testing.T) {
	got := CategoryTrends([]domain.SaleLine{
		line(1, 1, "Kanjivaram", strPtr("Maroon"), 1, 1000),
		line(1, 2, "Chanderi", nil, 3, 300),
		line(2, 3, "Banarasi", strPtr("Maroon"), 1, 800),
		line(2, 4, "Tussar", strPtr(""), 2, 100),
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Maroon", got[0].Label)
	assert.Equal(t, 2, got[0].Count)
	assert.True(t, got[0].Revenue.Equal(dec(1800)))

	materials := MaterialTrends([]domain.SaleLine{line(1, 2, "Chanderi", nil, 3, 300)})
	require.Len(t, materials, 1)
	assert.Equal(t, "Chanderi", materials[0].Label)

	assert.Empty(t, SourceTrends(nil))
}

func TestSlowMoving(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []domain.Item{
		{ID: 1, Name: "Never sold", Stock: 1, Status: domain.ItemStatusActive, CreatedAt: now.AddDate(0, 0, -70)},
		{ID: 2, Name: "Sold recently", Stock: 1, Status: domain.ItemStatusActive, CreatedAt: now.AddDate(0, 0, -90)},
		{ID: 3, Name: "Sold long ago", Stock: 1, Status: domain.ItemStatusActive, CreatedAt: now.AddDate(0, 0, -200)},
		{ID: 4, Name: "Fresh", Stock: 1, Status: domain.ItemStatusActive, CreatedAt: now.AddDate(0, 0, -10)},
		{ID: 5, Name: "Returned", Stock: 0, Status: domain.ItemStatusReturned, CreatedAt: now.AddDate(0, 0, -300)},
		{ID: 6, Name: "Sold out", Stock: 0, Status: domain.ItemStatusActive, CreatedAt: now.AddDate(0, 0, -300)},
	}
	lastSold := map[int64]time.Time{
		2: now.AddDate(0, 0, -10),
		3: now.AddDate(0, 0, -61),
	}

	got := SlowMoving(items, lastSold, now)
	require.Len(t, got, 2)

	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, 200, got[0].DaysOld)
	require.NotNil(t, got[0].LastSaleDaysAgo)
	assert.Equal(t, 61, *got[0].LastSaleDaysAgo)

	assert.Equal(t, int64(1), got[1].ID)
	assert.Equal(t, 70, got[1].DaysOld)
	assert.Nil(t, got[1].LastSaleDaysAgo)
}

func TestSlowMovingBoundaryIsStrict(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	items := []domain.Item{{ID: 1, Stock: 1, Status: domain.ItemStatusActive, CreatedAt: now.AddDate(0, 0, -60)}}
	assert.Empty(t, SlowMoving(items, nil, now))
}

func TestBalanceSheetAndProfitLoss(t *testing.T) {
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	inMarch := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	inApril := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	ledger := Ledger{
		Items: []domain.Item{
			{ID: 1, Cost: dec(400), Stock: 1, Status: domain.ItemStatusActive},
			{ID: 2, Cost: dec(300), Stock: 0, Status: domain.ItemStatusActive},
			{ID: 3, Cost: dec(999), Stock: 0, Status: domain.ItemStatusReturned},
		},
		Sales: []domain.Sale{
			{ID: 1, Total: dec(500), Status: domain.SaleStatusCompleted, CreatedAt: inMarch},
			{ID: 2, Total: dec(700), Status: domain.SaleStatusCompleted, CreatedAt: inApril},
			{ID: 3, Total: dec(900), Status: domain.SaleStatusRefunded, CreatedAt: inMarch},
		},
		Lines: []domain.SaleLine{
			{SaleID: 1, SaleStatus: domain.SaleStatusCompleted, SaleCreatedAt: inMarch, ItemCost: dec(300), Quantity: 1},
			{SaleID: 2, SaleStatus: domain.SaleStatusCompleted, SaleCreatedAt: inApril, ItemCost: dec(450), Quantity: 1},
		},
		Contributions: []domain.Contribution{
			{Amount: dec(10000), ContributionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Amount: dec(5000), ContributionDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		},
		Expenses: []domain.Expense{
			{Amount: dec(200), ExpenseDate: asOf},
			{Amount: dec(50), ExpenseDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	period := Period{To: asOf.AddDate(0, 0, 1), LastDay: asOf}
	sheet := BalanceSheet("2024-03-31", period, ledger)

	assert.True(t, sheet.TotalContributions.Equal(dec(10000)))
	assert.True(t, sheet.InventoryValue.Equal(dec(400)))
	assert.True(t, sheet.TotalExpenses.Equal(dec(200)))
	assert.True(t, sheet.TotalRevenue.Equal(dec(500)))
	assert.True(t, sheet.CostOfGoodsSold.Equal(dec(300)))
	// 10000 + 500 - 300 - 200 - 400
	assert.True(t, sheet.CashBalance.Equal(dec(9600)))
	assert.True(t, sheet.TotalAssets.Equal(dec(10000)))
	again, err := json.Marshal(BalanceSheet("2024-03-31", period, ledger))
	require.NoError(t, err)
	first, err := json.Marshal(sheet)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(again))

	april := Period{
		From:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		FirstDay: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		LastDay:  time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	pl := ProfitLoss("2024-04-01", "2024-04-30", april, ledger)
	assert.True(t, pl.Revenue.Equal(dec(700)))
	assert.True(t, pl.CostOfGoodsSold.Equal(dec(450)))
	assert.True(t, pl.GrossProfit.Equal(dec(250)))
	assert.True(t, pl.Expenses.Equal(dec(50)))
	assert.True(t, pl.NetProfit.Equal(dec(200)))
}

func TestReportsTolerateEmptyInputs(t *testing.T) {
	sheet := BalanceSheet("2024-01-01", Period{}, Ledger{})
	assert.True(t, sheet.TotalAssets.IsZero())

	pl := ProfitLoss("2024-01-01", "2024-01-31", Period{}, Ledger{})
	assert.True(t, pl.NetProfit.IsZero())

	summary := Summary(nil, nil, time.Time{}, time.Time{})
	assert.Equal(t, 0, summary.TotalTransactions)
	assert.Empty(t, Trending(nil))
	assert.Empty(t, SlowMoving(nil, nil, time.Now()))
}

func TestSummary(t *testing.T) {
	dayStart := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		{ID: 1, Total: dec(100), Status: domain.SaleStatusCompleted, CreatedAt: dayStart.Add(2 * time.Hour)},
		{ID: 2, Total: dec(250), Status: domain.SaleStatusCompleted, CreatedAt: dayStart.Add(-2 * time.Hour)},
		{ID: 3, Total: dec(999), Status: domain.SaleStatusRefunded, CreatedAt: dayStart.Add(time.Hour)},
	}
	lines := []domain.SaleLine{
		{SaleID: 1, SaleStatus: domain.SaleStatusCompleted, Quantity: 1},
		{SaleID: 2, SaleStatus: domain.SaleStatusCompleted, Quantity: 2},
		{SaleID: 3, SaleStatus: domain.SaleStatusRefunded, Quantity: 4},
	}

	got := Summary(sales, lines, dayStart, dayStart.AddDate(0, 0, 1))
	assert.True(t, got.TotalRevenue.Equal(dec(350)))
	assert.True(t, got.DailyRevenue.Equal(dec(100)))
	assert.Equal(t, 2, got.TotalTransactions)
	assert.Equal(t, 3, got.TotalItemsSold)
}
