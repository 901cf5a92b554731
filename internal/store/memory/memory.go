package memory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sareepos/backend/internal/domain"
	"sareepos/backend/internal/store"
)

type Store struct {
	mu sync.RWMutex

	items         map[int64]domain.Item
	sales         map[int64]*domain.Sale
	partners      map[int64]domain.Partner
	contributions []domain.Contribution
	expenses      []domain.Expense

	nextItemID         int64
	nextSaleID         int64
	nextPartnerID      int64
	nextContributionID int64
	nextExpenseID      int64
}

func New() *Store {
	return &Store{
		items:         make(map[int64]domain.Item),
		sales:         make(map[int64]*domain.Sale),
		partners:      make(map[int64]domain.Partner),
		contributions: make([]domain.Contribution, 0, 32),
		expenses:      make([]domain.Expense, 0, 32),
	}
}

// NewSeeded returns a store with a small demo catalog for local runs.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	seed := []struct {
		name     string
		price    int64
		cost     int64
		category string
		source   string
		ageDays  int
	}{
		{"Kanjivaram Silk", 18500, 12000, "Maroon with Gold Zari", "Weaver A", 12},
		{"Banarasi Silk", 14200, 9800, "Royal Blue Butta", "Varanasi Looms", 35},
		{"Chanderi Cotton", 3200, 1900, "Pastel Pink", "Weaver B", 80},
		{"Mysore Silk", 9600, 6400, "Emerald Green", "KSIC Outlet", 5},
		{"Tussar Silk", 7800, 5100, "Beige Kantha", "Bhagalpur Co-op", 95},
		{"Linen", 4500, 2600, "Mustard Stripes", "Weaver B", 20},
	}
	for _, row := range seed {
		category := row.category
		source := row.source
		_, _ = s.CreateItems(context.Background(), domain.Item{
			Name:      row.name,
			Price:     decimal.NewFromInt(row.price),
			Cost:      decimal.NewFromInt(row.cost),
			Category:  &category,
			Source:    &source,
			CreatedAt: now.AddDate(0, 0, -row.ageDays),
		}, 1)
	}
	return s
}

func (s *Store) ListItems(_ context.Context, filter store.ItemFilter) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.TrimSpace(filter.Query)
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		item, ok := s.items[id]
		if !ok || (!filter.IncludeReturned && !item.IsActive()) {
			return []domain.Item{}, nil
		}
		return []domain.Item{cloneItem(item)}, nil
	}

	needle := strings.ToLower(query)
	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		if !filter.IncludeReturned && !item.IsActive() {
			continue
		}
		if needle != "" && !matchesItem(item, needle) {
			continue
		}
		items = append(items, cloneItem(item))
	}

	slices.SortFunc(items, func(a, b domain.Item) int {
		return cmpInt64(b.ID, a.ID)
	})
	return items, nil
}

func (s *Store) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyItem := cloneItem(item)
	return &copyItem, nil
}

func (s *Store) CreateItems(_ context.Context, item domain.Item, qty int) ([]domain.Item, error) {
	if strings.TrimSpace(item.Name) == "" || qty < 1 {
		return nil, store.ErrInvalidInput
	}
	if item.Price.IsNegative() || item.Cost.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	item.Status = domain.ItemStatusActive
	item.Stock = 1

	created := make([]domain.Item, 0, qty)
	for i := 0; i < qty; i++ {
		s.nextItemID++
		row := cloneItem(item)
		row.ID = s.nextItemID
		s.items[row.ID] = row
		created = append(created, cloneItem(row))
	}
	return created, nil
}

func (s *Store) ReturnItem(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	item.Status = domain.ItemStatusReturned
	item.Stock = 0
	s.items[id] = item

	copyItem := cloneItem(item)
	return &copyItem, nil
}

func (s *Store) LastSoldAt(_ context.Context, itemIDs []int64) (map[int64]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}

	out := make(map[int64]time.Time, len(itemIDs))
	for _, sale := range s.sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		for _, line := range sale.Items {
			if !wanted[line.ItemID] {
				continue
			}
			if last, ok := out[line.ItemID]; !ok || sale.CreatedAt.After(last) {
				out[line.ItemID] = sale.CreatedAt
			}
		}
	}
	return out, nil
}

func (s *Store) CreateSale(_ context.Context, draft domain.SaleDraft) (*domain.Sale, error) {
	lines := store.NormalizeCart(draft.Lines)
	if len(lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if draft.Discount.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := decimal.Zero
	saleItems := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		item, ok := s.items[line.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, domain.DisplayCode(line.ItemID))
		}
		if !item.IsActive() || item.Stock < line.Quantity {
			return nil, fmt.Errorf("%w for item %s", store.ErrInsufficientStock, domain.DisplayCode(line.ItemID))
		}
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		saleItems = append(saleItems, domain.SaleItem{
			ItemID:      item.ID,
			ItemName:    item.Name,
			Quantity:    line.Quantity,
			PriceAtSale: item.Price,
		})
	}

	total := subtotal.Sub(draft.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	s.nextSaleID++
	sale := &domain.Sale{
		ID:            s.nextSaleID,
		Total:         total,
		Discount:      draft.Discount,
		PaymentMethod: draft.PaymentMethod,
		Status:        domain.SaleStatusCompleted,
		CreatedAt:     createdAt,
		Items:         saleItems,
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
	}

	for _, line := range lines {
		item := s.items[line.ItemID]
		item.Stock -= line.Quantity
		s.items[line.ItemID] = item
	}
	s.sales[sale.ID] = sale

	return cloneSale(sale, true), nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale, true), nil
}

func (s *Store) ListSales(_ context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if !saleMatches(sale, filter) {
			continue
		}
		sales = append(sales, *cloneSale(sale, false))
	}

	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmpInt64(b.ID, a.ID)
	})
	if filter.Limit > 0 && len(sales) > filter.Limit {
		sales = sales[:filter.Limit]
	}
	return sales, nil
}

func (s *Store) ReverseSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleStatusCompleted {
		return nil, store.ErrAlreadyReversed
	}

	for _, line := range sale.Items {
		item, ok := s.items[line.ItemID]
		if !ok || !item.IsActive() {
			continue
		}
		item.Stock += line.Quantity
		s.items[line.ItemID] = item
	}
	sale.Status = domain.SaleStatusRefunded

	return cloneSale(sale, true), nil
}

func (s *Store) ListSaleLines(_ context.Context, filter store.SaleFilter) ([]domain.SaleLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]domain.SaleLine, 0, len(s.sales)*2)
	for _, sale := range s.sales {
		if !saleMatches(sale, filter) {
			continue
		}
		for _, saleItem := range sale.Items {
			item := s.items[saleItem.ItemID]
			lines = append(lines, domain.SaleLine{
				SaleID:        sale.ID,
				SaleCreatedAt: sale.CreatedAt,
				SaleStatus:    sale.Status,
				SaleTotal:     sale.Total,
				ItemID:        saleItem.ItemID,
				ItemName:      item.Name,
				Category:      cloneString(item.Category),
				Source:        cloneString(item.Source),
				ItemCost:      item.Cost,
				Quantity:      saleItem.Quantity,
				PriceAtSale:   saleItem.PriceAtSale,
			})
		}
	}

	slices.SortFunc(lines, func(a, b domain.SaleLine) int {
		if c := a.SaleCreatedAt.Compare(b.SaleCreatedAt); c != 0 {
			return c
		}
		if c := cmpInt64(a.SaleID, b.SaleID); c != 0 {
			return c
		}
		return cmpInt64(a.ItemID, b.ItemID)
	})
	return lines, nil
}

func (s *Store) ListPartners(_ context.Context) ([]domain.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partners := make([]domain.Partner, 0, len(s.partners))
	for _, p := range s.partners {
		partners = append(partners, p)
	}
	slices.SortFunc(partners, func(a, b domain.Partner) int {
		return strings.Compare(a.Name, b.Name)
	})
	return partners, nil
}

func (s *Store) CreatePartner(_ context.Context, name string) (*domain.Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.partners {
		if p.Name == name {
			existing := p
			return &existing, nil
		}
	}

	s.nextPartnerID++
	partner := domain.Partner{ID: s.nextPartnerID, Name: name, CreatedAt: time.Now().UTC()}
	s.partners[partner.ID] = partner
	return &partner, nil
}

func (s *Store) CreateContribution(_ context.Context, contribution domain.Contribution) (*domain.Contribution, error) {
	if !contribution.Amount.IsPositive() || contribution.ContributionDate.IsZero() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	partner, ok := s.partners[contribution.PartnerID]
	if !ok {
		return nil, fmt.Errorf("%w: partner %d", store.ErrNotFound, contribution.PartnerID)
	}

	s.nextContributionID++
	contribution.ID = s.nextContributionID
	contribution.PartnerName = partner.Name
	contribution.Notes = cloneString(contribution.Notes)
	if contribution.CreatedAt.IsZero() {
		contribution.CreatedAt = time.Now().UTC()
	}
	s.contributions = append(s.contributions, contribution)

	created := contribution
	return &created, nil
}

func (s *Store) ListContributions(_ context.Context, filter store.DateFilter) ([]domain.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Contribution, 0, len(s.contributions))
	for _, c := range s.contributions {
		if !dateWithin(c.ContributionDate, filter) {
			continue
		}
		row := c
		row.Notes = cloneString(c.Notes)
		if partner, ok := s.partners[c.PartnerID]; ok {
			row.PartnerName = partner.Name
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b domain.Contribution) int {
		if c := b.ContributionDate.Compare(a.ContributionDate); c != 0 {
			return c
		}
		return cmpInt64(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if strings.TrimSpace(expense.Description) == "" || !expense.Amount.IsPositive() || expense.ExpenseDate.IsZero() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextExpenseID++
	expense.ID = s.nextExpenseID
	expense.Category = cloneString(expense.Category)
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	s.expenses = append(s.expenses, expense)

	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, filter store.DateFilter) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if !dateWithin(e.ExpenseDate, filter) {
			continue
		}
		row := e
		row.Category = cloneString(e.Category)
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b domain.Expense) int {
		if c := b.ExpenseDate.Compare(a.ExpenseDate); c != 0 {
			return c
		}
		return cmpInt64(b.ID, a.ID)
	})
	return out, nil
}

func saleMatches(sale *domain.Sale, filter store.SaleFilter) bool {
	if filter.Status != "" && sale.Status != filter.Status {
		return false
	}
	if filter.From != nil && sale.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !sale.CreatedAt.Before(*filter.To) {
		return false
	}
	return true
}

func dateWithin(day time.Time, filter store.DateFilter) bool {
	if filter.From != nil && day.Before(*filter.From) {
		return false
	}
	if filter.To != nil && day.After(*filter.To) {
		return false
	}
	return true
}

func matchesItem(item domain.Item, needle string) bool {
	fields := []string{item.Name}
	for _, ptr := range []*string{item.SKU, item.Category, item.Source} {
		if ptr != nil {
			fields = append(fields, *ptr)
		}
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func cmpInt64(a int64, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cloneString(src *string) *string {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

func cloneItem(src domain.Item) domain.Item {
	dst := src
	dst.SKU = cloneString(src.SKU)
	dst.Category = cloneString(src.Category)
	dst.Source = cloneString(src.Source)
	dst.ImagePath = cloneString(src.ImagePath)
	return dst
}

func cloneSale(src *domain.Sale, withItems bool) *domain.Sale {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Items = nil
	if withItems {
		dst.Items = append([]domain.SaleItem(nil), src.Items...)
	}
	return &dst
}
