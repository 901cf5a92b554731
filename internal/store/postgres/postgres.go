package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"sareepos/backend/internal/domain"
	"sareepos/backend/internal/store"
)

const maxSerializableAttempts = 3

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string, pool PoolOptions) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	if pool.MaxIdleConns < 1 {
		pool.MaxIdleConns = 8
	}
	if pool.MaxOpenConns < 1 {
		pool.MaxOpenConns = 30
	}
	if pool.ConnMaxLifetime <= 0 {
		pool.ConnMaxLifetime = 30 * time.Minute
	}
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const itemColumns = `id, name, sku, price, cost, stock, category, source, image_path, status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var item domain.Item
	var sku, category, source, imagePath sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &sku, &item.Price, &item.Cost, &item.Stock, &category, &source, &imagePath, &item.Status, &item.CreatedAt); err != nil {
		return domain.Item{}, err
	}
	item.SKU = stringPtr(sku)
	item.Category = stringPtr(category)
	item.Source = stringPtr(source)
	item.ImagePath = stringPtr(imagePath)
	item.CreatedAt = item.CreatedAt.UTC()
	return item, nil
}

func (s *Store) ListItems(ctx context.Context, filter store.ItemFilter) ([]domain.Item, error) {
	query := strings.TrimSpace(filter.Query)

	var rows *sql.Rows
	var err error
	if id, parseErr := strconv.ParseInt(query, 10, 64); parseErr == nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+itemColumns+`
			FROM items
			WHERE id = $1 AND ($2 OR status = 'active')
		`, id, filter.IncludeReturned)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+itemColumns+`
			FROM items
			WHERE ($1 OR status = 'active')
				AND (
					$2 = ''
					OR name ILIKE $2 ESCAPE '\'
					OR sku ILIKE $2 ESCAPE '\'
					OR category ILIKE $2 ESCAPE '\'
					OR source ILIKE $2 ESCAPE '\'
				)
			ORDER BY id DESC
		`, filter.IncludeReturned, likePattern(query))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 64)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateItems(ctx context.Context, item domain.Item, qty int) ([]domain.Item, error) {
	if strings.TrimSpace(item.Name) == "" || qty < 1 {
		return nil, store.ErrInvalidInput
	}
	if item.Price.IsNegative() || item.Cost.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	item.Status = domain.ItemStatusActive
	item.Stock = 1

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	created := make([]domain.Item, 0, qty)
	for i := 0; i < qty; i++ {
		row := item
		err := tx.QueryRowContext(ctx, `
			INSERT INTO items (name, sku, price, cost, stock, category, source, image_path, status, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id
		`, row.Name, nullString(row.SKU), row.Price, row.Cost, row.Stock, nullString(row.Category), nullString(row.Source), nullString(row.ImagePath), row.Status, row.CreatedAt).Scan(&row.ID)
		if err != nil {
			return nil, err
		}
		created = append(created, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) ReturnItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		UPDATE items
		SET status = $2, stock = 0
		WHERE id = $1
		RETURNING `+itemColumns, id, domain.ItemStatusReturned))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) LastSoldAt(ctx context.Context, itemIDs []int64) (map[int64]time.Time, error) {
	result := make(map[int64]time.Time, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT si.item_id, MAX(sa.created_at)
		FROM sale_items si
		JOIN sales sa ON sa.id = si.sale_id
		WHERE sa.status = $2 AND si.item_id = ANY($1)
		GROUP BY si.item_id
	`, itemIDs, domain.SaleStatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		result[id] = at.UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSale books the whole cart in one serializable transaction, retrying on serialization failures.
func (s *Store) CreateSale(ctx context.Context, draft domain.SaleDraft) (*domain.Sale, error) {
	lines := store.NormalizeCart(draft.Lines)
	if len(lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if draft.Discount.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}

	var sale *domain.Sale
	err := s.serializable(ctx, func(pgTx *sql.Tx) error {
		var err error
		sale, err = createSaleTx(ctx, pgTx, lines, draft)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func createSaleTx(ctx context.Context, pgTx *sql.Tx, lines []domain.CartLine, draft domain.SaleDraft) (*domain.Sale, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}

	itemRows, err := pgTx.QueryContext(ctx, `
		SELECT id, name, price, stock, status
		FROM items
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	itemMap := make(map[int64]domain.Item, len(ids))
	for itemRows.Next() {
		var item domain.Item
		if err := itemRows.Scan(&item.ID, &item.Name, &item.Price, &item.Stock, &item.Status); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		itemMap[item.ID] = item
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	subtotal := decimal.Zero
	saleItems := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		item, ok := itemMap[line.ItemID]
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

	sale := domain.Sale{
		Total:         total,
		Discount:      draft.Discount,
		PaymentMethod: draft.PaymentMethod,
		Status:        domain.SaleStatusCompleted,
		CreatedAt:     draft.CreatedAt.UTC(),
	}
	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO sales (total, discount, payment_method, status, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, sale.Total, sale.Discount, sale.PaymentMethod, sale.Status, sale.CreatedAt).Scan(&sale.ID)
	if err != nil {
		return nil, err
	}

	for i := range saleItems {
		saleItems[i].SaleID = sale.ID
		line := saleItems[i]
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, item_id, quantity, price_at_sale)
			VALUES ($1,$2,$3,$4)
		`, sale.ID, line.ItemID, line.Quantity, line.PriceAtSale)
		if err != nil {
			return nil, err
		}
		_, err = pgTx.ExecContext(ctx, `
			UPDATE items
			SET stock = stock - $1
			WHERE id = $2
		`, line.Quantity, line.ItemID)
		if err != nil {
			return nil, err
		}
	}

	sale.Items = saleItems
	return &sale, nil
}

func (s *Store) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, total, discount, payment_method, status, created_at
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.Total, &sale.Discount, &sale.PaymentMethod, &sale.Status, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()

	items, err := listSaleItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listSaleItems(ctx context.Context, q queryer, saleID int64) ([]domain.SaleItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT si.sale_id, si.item_id, i.name, si.quantity, si.price_at_sale
		FROM sale_items si
		JOIN items i ON i.id = si.item_id
		WHERE si.sale_id = $1
		ORDER BY si.id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 4)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.SaleID, &item.ItemID, &item.ItemName, &item.Quantity, &item.PriceAtSale); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSales(ctx context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, total, discount, payment_method, status, created_at
		FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			AND ($2::timestamptz IS NULL OR created_at < $2)
			AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, nullTime(filter.From), nullTime(filter.To), filter.Status, nullLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.Total, &sale.Discount, &sale.PaymentMethod, &sale.Status, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

// ReverseSale marks a completed sale refunded and puts stock back on items that are still active.
func (s *Store) ReverseSale(ctx context.Context, id int64) (*domain.Sale, error) {
	var sale *domain.Sale
	err := s.serializable(ctx, func(pgTx *sql.Tx) error {
		var current domain.Sale
		err := pgTx.QueryRowContext(ctx, `
			SELECT id, total, discount, payment_method, status, created_at
			FROM sales
			WHERE id = $1
			FOR UPDATE
		`, id).Scan(&current.ID, &current.Total, &current.Discount, &current.PaymentMethod, &current.Status, &current.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}
		if current.Status != domain.SaleStatusCompleted {
			return store.ErrAlreadyReversed
		}

		items, err := listSaleItems(ctx, pgTx, id)
		if err != nil {
			return err
		}

		for _, item := range items {
			_, err := pgTx.ExecContext(ctx, `
				UPDATE items
				SET stock = stock + $1
				WHERE id = $2 AND status = $3
			`, item.Quantity, item.ItemID, domain.ItemStatusActive)
			if err != nil {
				return err
			}
		}

		_, err = pgTx.ExecContext(ctx, `
			UPDATE sales
			SET status = $2
			WHERE id = $1 AND status = $3
		`, id, domain.SaleStatusRefunded, domain.SaleStatusCompleted)
		if err != nil {
			return err
		}

		current.Status = domain.SaleStatusRefunded
		current.CreatedAt = current.CreatedAt.UTC()
		current.Items = items
		sale = &current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) ListSaleLines(ctx context.Context, filter store.SaleFilter) ([]domain.SaleLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sa.id, sa.created_at, sa.status, sa.total,
			i.id, i.name, i.category, i.source, i.cost,
			si.quantity, si.price_at_sale
		FROM sale_items si
		JOIN sales sa ON sa.id = si.sale_id
		JOIN items i ON i.id = si.item_id
		WHERE ($1::timestamptz IS NULL OR sa.created_at >= $1)
			AND ($2::timestamptz IS NULL OR sa.created_at < $2)
			AND ($3 = '' OR sa.status = $3)
		ORDER BY sa.created_at, sa.id, i.id
	`, nullTime(filter.From), nullTime(filter.To), filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.SaleLine, 0, 128)
	for rows.Next() {
		var line domain.SaleLine
		var category, source sql.NullString
		if err := rows.Scan(&line.SaleID, &line.SaleCreatedAt, &line.SaleStatus, &line.SaleTotal,
			&line.ItemID, &line.ItemName, &category, &source, &line.ItemCost,
			&line.Quantity, &line.PriceAtSale); err != nil {
			return nil, err
		}
		line.SaleCreatedAt = line.SaleCreatedAt.UTC()
		line.Category = stringPtr(category)
		line.Source = stringPtr(source)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Store) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM partners
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partners := make([]domain.Partner, 0, 4)
	for rows.Next() {
		var p domain.Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return partners, nil
}

func (s *Store) CreatePartner(ctx context.Context, name string) (*domain.Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	partner := domain.Partner{Name: name}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO partners (name, created_at)
		VALUES ($1, now())
		RETURNING id, created_at
	`, name).Scan(&partner.ID, &partner.CreatedAt)
	if err != nil {
		if !isUniqueViolation(err) {
			return nil, err
		}
		err = s.db.QueryRowContext(ctx, `
			SELECT id, created_at
			FROM partners
			WHERE name = $1
		`, name).Scan(&partner.ID, &partner.CreatedAt)
		if err != nil {
			return nil, err
		}
	}
	partner.CreatedAt = partner.CreatedAt.UTC()
	return &partner, nil
}

func (s *Store) CreateContribution(ctx context.Context, contribution domain.Contribution) (*domain.Contribution, error) {
	if !contribution.Amount.IsPositive() || contribution.ContributionDate.IsZero() {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT name
		FROM partners
		WHERE id = $1
	`, contribution.PartnerID).Scan(&contribution.PartnerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: partner %d", store.ErrNotFound, contribution.PartnerID)
		}
		return nil, err
	}

	contribution.ContributionDate = nowDateUTC(contribution.ContributionDate)
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO partner_contributions (partner_id, amount, contribution_date, notes, created_at)
		VALUES ($1,$2,$3,$4,now())
		RETURNING id, created_at
	`, contribution.PartnerID, contribution.Amount, contribution.ContributionDate, nullString(contribution.Notes)).Scan(&contribution.ID, &contribution.CreatedAt)
	if err != nil {
		return nil, err
	}
	contribution.CreatedAt = contribution.CreatedAt.UTC()
	return &contribution, nil
}

func (s *Store) ListContributions(ctx context.Context, filter store.DateFilter) ([]domain.Contribution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.partner_id, p.name, c.amount, c.contribution_date, c.notes, c.created_at
		FROM partner_contributions c
		JOIN partners p ON p.id = c.partner_id
		WHERE ($1::date IS NULL OR c.contribution_date >= $1)
			AND ($2::date IS NULL OR c.contribution_date <= $2)
		ORDER BY c.contribution_date DESC, c.id DESC
	`, nullDate(filter.From), nullDate(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Contribution, 0, 32)
	for rows.Next() {
		var c domain.Contribution
		var notes sql.NullString
		if err := rows.Scan(&c.ID, &c.PartnerID, &c.PartnerName, &c.Amount, &c.ContributionDate, &notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.ContributionDate = nowDateUTC(c.ContributionDate)
		c.CreatedAt = c.CreatedAt.UTC()
		c.Notes = stringPtr(notes)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if strings.TrimSpace(expense.Description) == "" || !expense.Amount.IsPositive() || expense.ExpenseDate.IsZero() {
		return nil, store.ErrInvalidInput
	}

	expense.ExpenseDate = nowDateUTC(expense.ExpenseDate)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO expenses (description, amount, expense_date, category, created_at)
		VALUES ($1,$2,$3,$4,now())
		RETURNING id, created_at
	`, expense.Description, expense.Amount, expense.ExpenseDate, nullString(expense.Category)).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return nil, err
	}
	expense.CreatedAt = expense.CreatedAt.UTC()
	return &expense, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter store.DateFilter) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, expense_date, category, created_at
		FROM expenses
		WHERE ($1::date IS NULL OR expense_date >= $1)
			AND ($2::date IS NULL OR expense_date <= $2)
		ORDER BY expense_date DESC, id DESC
	`, nullDate(filter.From), nullDate(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var e domain.Expense
		var category sql.NullString
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.ExpenseDate, &category, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ExpenseDate = nowDateUTC(e.ExpenseDate)
		e.CreatedAt = e.CreatedAt.UTC()
		e.Category = stringPtr(category)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) serializable(ctx context.Context, fn func(pgTx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxSerializableAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(pgTx *sql.Tx) error) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	if err := fn(pgTx); err != nil {
		return err
	}
	return pgTx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func likePattern(query string) string {
	if query == "" {
		return ""
	}
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(query) + "%"
}

func nowDateUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func stringPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	v := val.String
	return &v
}

func nullString(val *string) any {
	if val == nil || *val == "" {
		return nil
	}
	return *val
}

func nullDate(val *time.Time) any {
	if val == nil {
		return nil
	}
	return nowDateUTC(*val)
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return val.UTC()
}

func nullLimit(limit int) any {
	if limit < 1 {
		return nil
	}
	return limit
}
