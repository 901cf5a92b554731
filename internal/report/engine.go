package report

import (
	"context"
	"fmt"
	"time"

	"sareepos/backend/internal/cache"
	"sareepos/backend/internal/domain"
	"sareepos/backend/internal/logger"
	"sareepos/backend/internal/metrics"
	"sareepos/backend/internal/store"
)

type Options struct {
	Cache    cache.ReportCache
	CacheTTL time.Duration
	Location *time.Location
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

// Engine loads report inputs from the repository and memoises the results.
type Engine struct {
	repo     store.Repository
	cache    cache.ReportCache
	cacheTTL time.Duration
	loc      *time.Location
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewEngine(repo store.Repository, opts Options) *Engine {
	if opts.Cache == nil {
		opts.Cache = cache.NoopReportCache{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &Engine{
		repo:     repo,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		loc:      opts.Location,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// Invalidate drops every memoised report. Writers call it after committing.
func (e *Engine) Invalidate(ctx context.Context) {
	if err := e.cache.Bump(ctx); err != nil {
		e.log.Warn(e.log.WithField(ctx, "error", err.Error()), "report cache bump failed")
	}
}

func (e *Engine) Trending(ctx context.Context, now time.Time) ([]domain.TrendingItem, error) {
	return memo(ctx, e, "trending:"+e.dayKey(now), func() ([]domain.TrendingItem, error) {
		lines, err := e.trendLines(ctx, now)
		if err != nil {
			return nil, err
		}
		return Trending(lines), nil
	})
}

func (e *Engine) MaterialTrends(ctx context.Context, now time.Time) ([]domain.DimensionTrend, error) {
	return e.dimension(ctx, now, "materials", MaterialTrends)
}

func (e *Engine) CategoryTrends(ctx context.Context, now time.Time) ([]domain.DimensionTrend, error) {
	return e.dimension(ctx, now, "categories", CategoryTrends)
}

func (e *Engine) SourceTrends(ctx context.Context, now time.Time) ([]domain.DimensionTrend, error) {
	return e.dimension(ctx, now, "sources", SourceTrends)
}

func (e *Engine) dimension(ctx context.Context, now time.Time, name string, fn func([]domain.SaleLine) []domain.DimensionTrend) ([]domain.DimensionTrend, error) {
	return memo(ctx, e, name+":"+e.dayKey(now), func() ([]domain.DimensionTrend, error) {
		lines, err := e.trendLines(ctx, now)
		if err != nil {
			return nil, err
		}
		return fn(lines), nil
	})
}

func (e *Engine) trendLines(ctx context.Context, now time.Time) ([]domain.SaleLine, error) {
	from := now.Add(-TrendWindowDays * 24 * time.Hour)
	return e.repo.ListSaleLines(ctx, store.SaleFilter{From: &from, Status: domain.SaleStatusCompleted})
}

func (e *Engine) SlowMoving(ctx context.Context, now time.Time) ([]domain.SlowMovingItem, error) {
	return memo(ctx, e, "slow-moving:"+e.dayKey(now), func() ([]domain.SlowMovingItem, error) {
		items, err := e.repo.ListItems(ctx, store.ItemFilter{})
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(items))
		for _, item := range items {
			if item.Stock > 0 {
				ids = append(ids, item.ID)
			}
		}
		lastSold, err := e.repo.LastSoldAt(ctx, ids)
		if err != nil {
			return nil, err
		}
		return SlowMoving(items, lastSold, now), nil
	})
}

// BalanceSheet covers everything up to the end of asOf in the shop's time zone.
func (e *Engine) BalanceSheet(ctx context.Context, asOf string) (*domain.BalanceSheet, error) {
	day, err := domain.ParseDay(asOf, e.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	period := Period{To: domain.NextDay(day), LastDay: domain.CalendarDate(day)}

	sheet, err := memo(ctx, e, "balance-sheet:"+asOf, func() (domain.BalanceSheet, error) {
		ledger, err := e.loadLedger(ctx, period, true)
		if err != nil {
			return domain.BalanceSheet{}, err
		}
		return BalanceSheet(asOf, period, ledger), nil
	})
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (e *Engine) ProfitLoss(ctx context.Context, start, end string) (*domain.ProfitLoss, error) {
	first, err := domain.ParseDay(start, e.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	last, err := domain.ParseDay(end, e.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	if last.Before(first) {
		return nil, fmt.Errorf("%w: end date before start date", store.ErrInvalidInput)
	}
	period := Period{
		From:     first,
		To:       domain.NextDay(last),
		FirstDay: domain.CalendarDate(first),
		LastDay:  domain.CalendarDate(last),
	}

	pl, err := memo(ctx, e, "profit-loss:"+start+":"+end, func() (domain.ProfitLoss, error) {
		ledger, err := e.loadLedger(ctx, period, false)
		if err != nil {
			return domain.ProfitLoss{}, err
		}
		return ProfitLoss(start, end, period, ledger), nil
	})
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func (e *Engine) Summary(ctx context.Context, now time.Time) (*domain.SalesSummary, error) {
	local := now.In(e.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)

	summary, err := memo(ctx, e, "summary:"+e.dayKey(now), func() (domain.SalesSummary, error) {
		sales, err := e.repo.ListSales(ctx, store.SaleFilter{Status: domain.SaleStatusCompleted})
		if err != nil {
			return domain.SalesSummary{}, err
		}
		lines, err := e.repo.ListSaleLines(ctx, store.SaleFilter{Status: domain.SaleStatusCompleted})
		if err != nil {
			return domain.SalesSummary{}, err
		}
		return Summary(sales, lines, dayStart, domain.NextDay(dayStart)), nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (e *Engine) loadLedger(ctx context.Context, period Period, withInventory bool) (Ledger, error) {
	var ledger Ledger
	saleFilter := store.SaleFilter{Status: domain.SaleStatusCompleted}
	if !period.From.IsZero() {
		from := period.From
		saleFilter.From = &from
	}
	if !period.To.IsZero() {
		to := period.To
		saleFilter.To = &to
	}
	dateFilter := store.DateFilter{}
	if !period.FirstDay.IsZero() {
		first := period.FirstDay
		dateFilter.From = &first
	}
	if !period.LastDay.IsZero() {
		last := period.LastDay
		dateFilter.To = &last
	}

	var err error
	if ledger.Sales, err = e.repo.ListSales(ctx, saleFilter); err != nil {
		return Ledger{}, err
	}
	if ledger.Lines, err = e.repo.ListSaleLines(ctx, saleFilter); err != nil {
		return Ledger{}, err
	}
	if ledger.Expenses, err = e.repo.ListExpenses(ctx, dateFilter); err != nil {
		return Ledger{}, err
	}
	if !withInventory {
		return ledger, nil
	}
	if ledger.Contributions, err = e.repo.ListContributions(ctx, dateFilter); err != nil {
		return Ledger{}, err
	}
	if ledger.Items, err = e.repo.ListItems(ctx, store.ItemFilter{IncludeReturned: true}); err != nil {
		return Ledger{}, err
	}
	return ledger, nil
}

func (e *Engine) dayKey(now time.Time) string {
	return now.In(e.loc).Format(domain.DateLayout)
}

// memo serves key from the cache when present. Cache failures fall through to compute.
func memo[T any](ctx context.Context, e *Engine, key string, compute func() (T, error)) (T, error) {
	gen, err := e.cache.Generation(ctx)
	if err != nil {
		e.log.Warn(e.log.WithField(ctx, "error", err.Error()), "report cache generation unavailable")
		return compute()
	}
	fullKey := fmt.Sprintf("g%d:%s", gen, key)

	var cached T
	hit, err := e.cache.Get(ctx, fullKey, &cached)
	if err != nil {
		e.log.Warn(e.log.WithField(ctx, "error", err.Error()), "report cache read failed")
	}
	if hit {
		e.metrics.ReportCache(true)
		return cached, nil
	}
	e.metrics.ReportCache(false)

	value, err := compute()
	if err != nil {
		return value, err
	}
	if err := e.cache.Set(ctx, fullKey, value, e.cacheTTL); err != nil {
		e.log.Warn(e.log.WithField(ctx, "error", err.Error()), "report cache write failed")
	}
	return value, nil
}
