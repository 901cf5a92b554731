package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sareepos/backend/internal/domain"
)

const (
	TrendWindowDays     = 90
	SlowMovingAfterDays = 60

	trendLimit      = 10
	slowMovingLimit = 20
)

// Ledger is the raw material for the financial statements.
type Ledger struct {
	Items         []domain.Item
	Sales         []domain.Sale
	Lines         []domain.SaleLine
	Contributions []domain.Contribution
	Expenses      []domain.Expense
}

// Period bounds sales by instant, [From, To), and ledger rows by calendar
// date, [FirstDay, LastDay]. Zero values leave that side open.
type Period struct {
	From     time.Time
	To       time.Time
	FirstDay time.Time
	LastDay  time.Time
}

func (p Period) coversSale(at time.Time) bool {
	if !p.From.IsZero() && at.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !at.Before(p.To) {
		return false
	}
	return true
}

func (p Period) coversDate(day time.Time) bool {
	if !p.FirstDay.IsZero() && day.Before(p.FirstDay) {
		return false
	}
	if !p.LastDay.IsZero() && day.After(p.LastDay) {
		return false
	}
	return true
}

func Trending(lines []domain.SaleLine) []domain.TrendingItem {
	index := make(map[string]int)
	out := make([]domain.TrendingItem, 0, 16)
	for _, line := range lines {
		if line.SaleStatus != domain.SaleStatusCompleted {
			continue
		}
		pos, ok := index[line.ItemName]
		if !ok {
			pos = len(out)
			index[line.ItemName] = pos
			out = append(out, domain.TrendingItem{
				Name:         line.ItemName,
				Category:     line.Category,
				Source:       line.Source,
				TotalRevenue: decimal.Zero,
			})
		}
		out[pos].TotalQuantitySold += line.Quantity
		out[pos].TotalRevenue = out[pos].TotalRevenue.Add(lineRevenue(line))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalQuantitySold != out[j].TotalQuantitySold {
			return out[i].TotalQuantitySold > out[j].TotalQuantitySold
		}
		if !out[i].TotalRevenue.Equal(out[j].TotalRevenue) {
			return out[i].TotalRevenue.GreaterThan(out[j].TotalRevenue)
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > trendLimit {
		out = out[:trendLimit]
	}
	return out
}

// MaterialTrends groups by item name, which the shop uses as the fabric.
func MaterialTrends(lines []domain.SaleLine) []domain.DimensionTrend {
	return dimensionTrends(lines, func(line domain.SaleLine) string { return line.ItemName })
}

func CategoryTrends(lines []domain.SaleLine) []domain.DimensionTrend {
	return dimensionTrends(lines, func(line domain.SaleLine) string { return deref(line.Category) })
}

func SourceTrends(lines []domain.SaleLine) []domain.DimensionTrend {
	return dimensionTrends(lines, func(line domain.SaleLine) string { return deref(line.Source) })
}

func dimensionTrends(lines []domain.SaleLine, key func(domain.SaleLine) string) []domain.DimensionTrend {
	index := make(map[string]int)
	out := make([]domain.DimensionTrend, 0, 16)
	for _, line := range lines {
		if line.SaleStatus != domain.SaleStatusCompleted {
			continue
		}
		label := key(line)
		if strings.TrimSpace(label) == "" {
			continue
		}
		pos, ok := index[label]
		if !ok {
			pos = len(out)
			index[label] = pos
			out = append(out, domain.DimensionTrend{Label: label, Revenue: decimal.Zero})
		}
		out[pos].Count += line.Quantity
		out[pos].Revenue = out[pos].Revenue.Add(lineRevenue(line))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > trendLimit {
		out = out[:trendLimit]
	}
	return out
}

// SlowMoving flags in-stock items that never sold within SlowMovingAfterDays of
// creation, or whose last completed sale is older than that.
func SlowMoving(items []domain.Item, lastSold map[int64]time.Time, now time.Time) []domain.SlowMovingItem {
	out := make([]domain.SlowMovingItem, 0, 16)
	for _, item := range items {
		if !item.IsActive() || item.Stock < 1 {
			continue
		}
		daysOld := wholeDays(now.Sub(item.CreatedAt))

		var lastSaleDaysAgo *int
		if at, ok := lastSold[item.ID]; ok {
			days := wholeDays(now.Sub(at))
			lastSaleDaysAgo = &days
		}

		slow := (lastSaleDaysAgo == nil && daysOld > SlowMovingAfterDays) ||
			(lastSaleDaysAgo != nil && *lastSaleDaysAgo > SlowMovingAfterDays)
		if !slow {
			continue
		}
		out = append(out, domain.SlowMovingItem{
			ID:              item.ID,
			Name:            item.Name,
			Category:        item.Category,
			Stock:           item.Stock,
			DaysOld:         daysOld,
			LastSaleDaysAgo: lastSaleDaysAgo,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysOld != out[j].DaysOld {
			return out[i].DaysOld > out[j].DaysOld
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > slowMovingLimit {
		out = out[:slowMovingLimit]
	}
	return out
}

// BalanceSheet values inventory at current cost × stock regardless of the as-of date.
func BalanceSheet(asOf string, period Period, ledger Ledger) domain.BalanceSheet {
	contributions := decimal.Zero
	for _, c := range ledger.Contributions {
		if period.coversDate(c.ContributionDate) {
			contributions = contributions.Add(c.Amount)
		}
	}

	inventory := decimal.Zero
	for _, item := range ledger.Items {
		if item.Stock > 0 {
			inventory = inventory.Add(item.Cost.Mul(decimal.NewFromInt(int64(item.Stock))))
		}
	}

	expenses := sumExpenses(ledger.Expenses, period)
	revenue := sumRevenue(ledger.Sales, period)
	cogs := sumCOGS(ledger.Lines, period)

	cash := contributions.Add(revenue).Sub(cogs).Sub(expenses).Sub(inventory)
	return domain.BalanceSheet{
		AsOf:               asOf,
		TotalContributions: contributions,
		InventoryValue:     inventory,
		CashBalance:        cash,
		TotalAssets:        inventory.Add(cash),
		TotalExpenses:      expenses,
		TotalRevenue:       revenue,
		CostOfGoodsSold:    cogs,
	}
}

func ProfitLoss(start, end string, period Period, ledger Ledger) domain.ProfitLoss {
	revenue := sumRevenue(ledger.Sales, period)
	cogs := sumCOGS(ledger.Lines, period)
	expenses := sumExpenses(ledger.Expenses, period)
	gross := revenue.Sub(cogs)

	return domain.ProfitLoss{
		Start:           start,
		End:             end,
		Revenue:         revenue,
		CostOfGoodsSold: cogs,
		GrossProfit:     gross,
		Expenses:        expenses,
		NetProfit:       gross.Sub(expenses),
	}
}

// Summary is the dashboard headline; today is the [dayStart, dayEnd) window.
func Summary(sales []domain.Sale, lines []domain.SaleLine, dayStart, dayEnd time.Time) domain.SalesSummary {
	out := domain.SalesSummary{TotalRevenue: decimal.Zero, DailyRevenue: decimal.Zero}
	today := Period{From: dayStart, To: dayEnd}
	for _, sale := range sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		out.TotalTransactions++
		out.TotalRevenue = out.TotalRevenue.Add(sale.Total)
		if today.coversSale(sale.CreatedAt) {
			out.DailyRevenue = out.DailyRevenue.Add(sale.Total)
		}
	}
	for _, line := range lines {
		if line.SaleStatus == domain.SaleStatusCompleted {
			out.TotalItemsSold += line.Quantity
		}
	}
	return out
}

func sumRevenue(sales []domain.Sale, period Period) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		if sale.Status == domain.SaleStatusCompleted && period.coversSale(sale.CreatedAt) {
			total = total.Add(sale.Total)
		}
	}
	return total
}

func sumCOGS(lines []domain.SaleLine, period Period) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.SaleStatus == domain.SaleStatusCompleted && period.coversSale(line.SaleCreatedAt) {
			total = total.Add(line.ItemCost.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return total
}

func sumExpenses(expenses []domain.Expense, period Period) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if period.coversDate(e.ExpenseDate) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func lineRevenue(line domain.SaleLine) decimal.Decimal {
	return line.PriceAtSale.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
