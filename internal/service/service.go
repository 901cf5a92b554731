package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sareepos/backend/internal/domain"
	"sareepos/backend/internal/logger"
	"sareepos/backend/internal/media"
	"sareepos/backend/internal/metrics"
	"sareepos/backend/internal/report"
	"sareepos/backend/internal/store"
	"sareepos/backend/internal/validation"
)

const (
	defaultSalesLimit = 50
	maxSalesLimit     = 500
)

// DefaultPartners are seeded when the partner table is empty.
var DefaultPartners = []string{"Putty", "Sony"}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	Uploader media.Uploader
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	// Now is the clock; tests pin it.
	Now func() time.Time
}

type Service struct {
	repo     store.Repository
	reports  *report.Engine
	uploader media.Uploader
	log      *logger.Logger
	metrics  *metrics.Metrics
	loc      *time.Location
	now      func() time.Time
}

func New(repo store.Repository, reports *report.Engine, opts Options) *Service {
	if reports == nil {
		reports = report.NewEngine(repo, report.Options{})
	}
	if opts.Uploader == nil {
		opts.Uploader = media.NoopUploader{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:     repo,
		reports:  reports,
		uploader: opts.Uploader,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		loc:      reports.Location(),
		now:      opts.Now,
	}
}

func (s *Service) ListItems(ctx context.Context, query string, includeReturned bool) ([]domain.Item, error) {
	return s.repo.ListItems(ctx, store.ItemFilter{Query: query, IncludeReturned: includeReturned})
}

func (s *Service) GetItem(ctx context.Context, id int64) (domain.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

// AddItems creates one row per physical unit. A failed photo upload is logged
// and the items are saved without an image.
func (s *Service) AddItems(ctx context.Context, req domain.ItemCreateRequest, image *domain.ImageUpload) (domain.ItemCreateResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return domain.ItemCreateResponse{}, err
	}

	createdAt, err := s.resolveInstant(req.Date)
	if err != nil {
		return domain.ItemCreateResponse{}, err
	}

	item := domain.Item{
		Name:      req.Name,
		SKU:       optional(req.SKU),
		Price:     req.Price,
		Cost:      req.Cost,
		Category:  optional(req.Category),
		Source:    optional(req.Source),
		CreatedAt: createdAt,
	}

	if image != nil && len(image.Data) > 0 {
		url, err := s.uploader.Upload(ctx, *image)
		switch {
		case err != nil:
			s.metrics.ImageUpload(false)
			s.log.Warn(s.log.WithFields(ctx, map[string]any{
				"file":  image.FileName,
				"error": err.Error(),
			}), "item.image_upload_failed")
		case url != "":
			s.metrics.ImageUpload(true)
			item.ImagePath = &url
		}
	}

	created, err := s.repo.CreateItems(ctx, item, req.Quantity)
	if err != nil {
		return domain.ItemCreateResponse{}, err
	}

	codes := make([]string, 0, len(created))
	for _, c := range created {
		codes = append(codes, domain.DisplayCode(c.ID))
	}

	s.metrics.ItemsAdded(len(created))
	s.reports.Invalidate(ctx)
	s.log.Info(s.actorFields(ctx, map[string]any{
		"name":     item.Name,
		"quantity": len(created),
		"first_id": created[0].ID,
	}), "inventory.items_added")

	return domain.ItemCreateResponse{Items: created, Codes: codes}, nil
}

func (s *Service) ReturnItem(ctx context.Context, id int64) (domain.Item, error) {
	if id < 1 {
		return domain.Item{}, store.ErrInvalidInput
	}
	item, err := s.repo.ReturnItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}

	s.reports.Invalidate(ctx)
	s.log.Info(s.actorFields(ctx, map[string]any{"item_id": id}), "inventory.item_returned")
	return *item, nil
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if err := validation.Struct(req); err != nil {
		return domain.CheckoutResponse{}, err
	}

	createdAt, err := s.resolveInstant(req.SaleDate)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	sale, err := s.repo.CreateSale(ctx, domain.SaleDraft{
		Lines:         req.Cart,
		PaymentMethod: req.PaymentMethod,
		Discount:      req.Discount,
		CreatedAt:     createdAt,
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) || errors.Is(err, store.ErrNotFound) {
			s.metrics.SaleRejected()
			s.log.Warn(s.actorFields(ctx, map[string]any{"error": err.Error()}), "sale.rejected")
		}
		return domain.CheckoutResponse{}, err
	}

	subtotal := decimal.Zero
	for _, line := range sale.Items {
		subtotal = subtotal.Add(line.PriceAtSale.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	total, _ := sale.Total.Float64()
	s.metrics.SaleCompleted(total)
	s.reports.Invalidate(ctx)
	s.log.Info(s.actorFields(ctx, map[string]any{
		"sale_id": sale.ID,
		"total":   sale.Total.String(),
		"lines":   len(sale.Items),
	}), "sale.completed")

	return domain.CheckoutResponse{Sale: *sale, Subtotal: subtotal}, nil
}

func (s *Service) ReverseSale(ctx context.Context, id int64) (domain.Sale, error) {
	if id < 1 {
		return domain.Sale{}, store.ErrInvalidInput
	}
	sale, err := s.repo.ReverseSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}

	s.metrics.SaleReversed()
	s.reports.Invalidate(ctx)
	s.log.Info(s.actorFields(ctx, map[string]any{"sale_id": id}), "sale.reversed")
	return *sale, nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// ListSales returns sales between the inclusive dates from and to, newest first.
func (s *Service) ListSales(ctx context.Context, from string, to string, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = defaultSalesLimit
	}
	if limit > maxSalesLimit {
		limit = maxSalesLimit
	}

	filter := store.SaleFilter{Limit: limit}
	if from != "" {
		day, err := s.parseDay(from)
		if err != nil {
			return nil, err
		}
		filter.From = &day
	}
	if to != "" {
		day, err := s.parseDay(to)
		if err != nil {
			return nil, err
		}
		end := domain.NextDay(day)
		filter.To = &end
	}
	return s.repo.ListSales(ctx, filter)
}

func (s *Service) Summary(ctx context.Context) (domain.SalesSummary, error) {
	summary, err := s.reports.Summary(ctx, s.now())
	if err != nil {
		return domain.SalesSummary{}, err
	}
	return *summary, nil
}

func (s *Service) Trending(ctx context.Context) ([]domain.TrendingItem, error) {
	return s.reports.Trending(ctx, s.now())
}

func (s *Service) MaterialTrends(ctx context.Context) ([]domain.DimensionTrend, error) {
	return s.reports.MaterialTrends(ctx, s.now())
}

func (s *Service) CategoryTrends(ctx context.Context) ([]domain.DimensionTrend, error) {
	return s.reports.CategoryTrends(ctx, s.now())
}

func (s *Service) SourceTrends(ctx context.Context) ([]domain.DimensionTrend, error) {
	return s.reports.SourceTrends(ctx, s.now())
}

func (s *Service) SlowMoving(ctx context.Context) ([]domain.SlowMovingItem, error) {
	return s.reports.SlowMoving(ctx, s.now())
}

// BalanceSheet defaults to today when asOf is empty.
func (s *Service) BalanceSheet(ctx context.Context, asOf string) (domain.BalanceSheet, error) {
	if asOf == "" {
		asOf = s.today()
	}
	sheet, err := s.reports.BalanceSheet(ctx, asOf)
	if err != nil {
		return domain.BalanceSheet{}, err
	}
	return *sheet, nil
}

// ProfitLoss defaults to the month to date.
func (s *Service) ProfitLoss(ctx context.Context, start string, end string) (domain.ProfitLoss, error) {
	local := s.now().In(s.loc)
	if start == "" {
		start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc).Format(domain.DateLayout)
	}
	if end == "" {
		end = local.Format(domain.DateLayout)
	}
	pl, err := s.reports.ProfitLoss(ctx, start, end)
	if err != nil {
		return domain.ProfitLoss{}, err
	}
	return *pl, nil
}

// ListPartners seeds DefaultPartners on first use.
func (s *Service) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	partners, err := s.repo.ListPartners(ctx)
	if err != nil {
		return nil, err
	}
	if len(partners) > 0 {
		return partners, nil
	}
	return s.EnsurePartners(ctx)
}

func (s *Service) EnsurePartners(ctx context.Context) ([]domain.Partner, error) {
	for _, name := range DefaultPartners {
		if _, err := s.repo.CreatePartner(ctx, name); err != nil {
			return nil, fmt.Errorf("seed partner %s: %w", name, err)
		}
	}
	return s.repo.ListPartners(ctx)
}

func (s *Service) AddContribution(ctx context.Context, req domain.ContributionCreateRequest) (domain.Contribution, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Contribution{}, err
	}
	day, err := s.parseDay(req.ContributionDate)
	if err != nil {
		return domain.Contribution{}, err
	}

	created, err := s.repo.CreateContribution(ctx, domain.Contribution{
		PartnerID:        req.PartnerID,
		Amount:           req.Amount,
		ContributionDate: domain.CalendarDate(day),
		Notes:            optional(req.Notes),
	})
	if err != nil {
		return domain.Contribution{}, err
	}

	s.reports.Invalidate(ctx)
	s.log.Info(s.actorFields(ctx, map[string]any{
		"partner_id": created.PartnerID,
		"amount":     created.Amount.String(),
	}), "cashflow.contribution_added")
	return *created, nil
}

func (s *Service) ListContributions(ctx context.Context, from string, to string) ([]domain.Contribution, error) {
	filter, err := s.dateFilter(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.ListContributions(ctx, filter)
}

func (s *Service) AddExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.Description = strings.TrimSpace(req.Description)
	if err := validation.Struct(req); err != nil {
		return domain.Expense{}, err
	}
	day, err := s.parseDay(req.ExpenseDate)
	if err != nil {
		return domain.Expense{}, err
	}

	created, err := s.repo.CreateExpense(ctx, domain.Expense{
		Description: req.Description,
		Amount:      req.Amount,
		ExpenseDate: domain.CalendarDate(day),
		Category:    optional(req.Category),
	})
	if err != nil {
		return domain.Expense{}, err
	}

	s.reports.Invalidate(ctx)
	s.log.Info(s.actorFields(ctx, map[string]any{
		"expense_id": created.ID,
		"amount":     created.Amount.String(),
	}), "cashflow.expense_added")
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, from string, to string) ([]domain.Expense, error) {
	filter, err := s.dateFilter(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, filter)
}

func (s *Service) dateFilter(from string, to string) (store.DateFilter, error) {
	var filter store.DateFilter
	if from != "" {
		day, err := s.parseDay(from)
		if err != nil {
			return store.DateFilter{}, err
		}
		first := domain.CalendarDate(day)
		filter.From = &first
	}
	if to != "" {
		day, err := s.parseDay(to)
		if err != nil {
			return store.DateFilter{}, err
		}
		last := domain.CalendarDate(day)
		filter.To = &last
	}
	return filter, nil
}

// resolveInstant maps an optional back-date to a timestamp: empty or today
// means now, any other day means its local midnight.
func (s *Service) resolveInstant(date string) (time.Time, error) {
	now := s.now().UTC()
	if date == "" || date == s.today() {
		return now, nil
	}
	day, err := s.parseDay(date)
	if err != nil {
		return time.Time{}, err
	}
	return day.UTC(), nil
}

func (s *Service) parseDay(value string) (time.Time, error) {
	day, err := domain.ParseDay(value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return day, nil
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format(domain.DateLayout)
}

func (s *Service) actorFields(ctx context.Context, fields map[string]any) context.Context {
	if actor, ok := ActorFromContext(ctx); ok {
		fields["actor"] = actor.Username
	}
	return s.log.WithFields(ctx, fields)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
