package store

import (
	"context"
	"errors"
	"time"

	"sareepos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyReversed   = errors.New("sale already reversed")
	ErrInvalidInput      = errors.New("invalid input")
)

type ItemFilter struct {
	// Query is an exact id when numeric, otherwise a substring of name, sku, category or source.
	Query           string
	IncludeReturned bool
}

// SaleFilter bounds sales by created_at as a half-open range [From, To).
type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
	Limit  int
}

// DateFilter bounds ledger rows by their calendar date, both ends inclusive.
type DateFilter struct {
	From *time.Time
	To   *time.Time
}

type Repository interface {
	ListItems(ctx context.Context, filter ItemFilter) ([]domain.Item, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	CreateItems(ctx context.Context, item domain.Item, qty int) ([]domain.Item, error)
	ReturnItem(ctx context.Context, id int64) (*domain.Item, error)
	LastSoldAt(ctx context.Context, itemIDs []int64) (map[int64]time.Time, error)

	CreateSale(ctx context.Context, draft domain.SaleDraft) (*domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
	ReverseSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSaleLines(ctx context.Context, filter SaleFilter) ([]domain.SaleLine, error)

	ListPartners(ctx context.Context) ([]domain.Partner, error)
	CreatePartner(ctx context.Context, name string) (*domain.Partner, error)
	CreateContribution(ctx context.Context, contribution domain.Contribution) (*domain.Contribution, error)
	ListContributions(ctx context.Context, filter DateFilter) ([]domain.Contribution, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, filter DateFilter) ([]domain.Expense, error)
}
